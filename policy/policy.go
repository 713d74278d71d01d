// Package policy provides a simple, optional admission layer that can be
// attached to a run via context. It is deliberately decoupled from the rest
// of forkly so that using it is entirely opt-in; runs that do not embed a
// Policy in their context keep the original "auto" behaviour.
package policy

import (
	"context"
)

// Admission modes recognised by the dispatcher.
const (
	ModeAsk  = "ask"  // consult Ask before every job
	ModeAuto = "auto" // dispatch automatically (default)
	ModeDeny = "deny" // admit nothing
)

// AskFunc is invoked when Mode==ask with the slot location ("local" or the
// host) and the exact argument vector the job would run. Returning true
// admits the job, false skips that line. Implementations MAY mutate the
// policy (for example, switching to ModeAuto after the first approval).
type AskFunc func(
	ctx context.Context,
	location string,
	argv []string,
	p *Policy,
) bool

// Policy represents the admission settings for the current run.
//
//   - Mode controls the high-level behaviour (ask / auto / deny).
//   - Ask is only used when Mode==ask; a missing Ask denies.
//
// A nil *Policy means "dispatch everything automatically" and is therefore
// the zero-cost default.
type Policy struct {
	Mode string  // ask / auto / deny (default = auto)
	Ask  AskFunc // used only when Mode==ask
}

// Admit decides whether one job may be dispatched. Skipped lines are not
// failures; the dispatcher just moves on to the next line.
func (p *Policy) Admit(ctx context.Context, location string, argv []string) bool {
	if p == nil {
		return true
	}
	switch p.Mode {
	case ModeDeny:
		return false
	case ModeAsk:
		if p.Ask == nil {
			return false
		}
		return p.Ask(ctx, location, argv, p)
	default:
		return true
	}
}

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds policy in ctx.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext extracts the policy or nil.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}
