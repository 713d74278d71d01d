// Package progress provides a lightweight tracker that keeps aggregated job
// counters (dispatched, completed, failed, …) for a single run.  The tracker
// instance lives in the run context – every component that receives the
// context can update the counters via the Delta helper without requiring a
// global registry.
package progress

import (
	"context"
	"sync"
	"time"
)

// Delta represents an incremental counter change emitted by the dispatcher.
// The fields are signed and therefore can be either positive (increment) or
// negative (decrement).
type Delta struct {
	Dispatched int
	Completed  int
	Failed     int
	Skipped    int
	Running    int
}

// Snapshot is a point-in-time copy of the run counters suitable for
// read-only inspection.
type Snapshot struct {
	Run        string
	StartedAt  time.Time
	Dispatched int
	Completed  int
	Failed     int
	Skipped    int
	Running    int
}

// Progress keeps aggregated job counters for one run.  It is safe for
// concurrent use.
type Progress struct {
	run       string
	startedAt time.Time

	dispatched int
	completed  int
	failed     int
	skipped    int
	running    int

	mux      sync.Mutex
	onChange func(Snapshot)
}

// New creates a tracker for the named run.  The optional onChange callback
// is invoked after every counter update.
func New(run string, onChange func(Snapshot)) *Progress {
	return &Progress{
		run:       run,
		startedAt: time.Now(),
		onChange:  onChange,
	}
}

// Update applies the supplied delta to the tracker.  It is safe to call from
// multiple goroutines.  A registered onChange callback is invoked with a
// snapshot outside the critical section so that the callback can perform
// slow operations (e.g. encoding, I/O) without blocking the dispatcher.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}

	p.mux.Lock()
	p.dispatched += d.Dispatched
	p.completed += d.Completed
	p.failed += d.Failed
	p.skipped += d.Skipped
	p.running += d.Running
	snapshot := p.snapshot()
	cb := p.onChange
	p.mux.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the current counters.
func (p *Progress) Snapshot() Snapshot {
	if p == nil {
		return Snapshot{}
	}
	p.mux.Lock()
	defer p.mux.Unlock()
	return p.snapshot()
}

// OnChange registers a callback that is invoked after every successful
// Update.  Passing nil disables the callback.  Only one callback can be
// active; subsequent calls overwrite the previous value.
func (p *Progress) OnChange(cb func(Snapshot)) {
	if p == nil {
		return
	}
	p.mux.Lock()
	p.onChange = cb
	p.mux.Unlock()
}

// snapshot assumes the caller holds the lock.
func (p *Progress) snapshot() Snapshot {
	return Snapshot{
		Run:        p.run,
		StartedAt:  p.startedAt,
		Dispatched: p.dispatched,
		Completed:  p.completed,
		Failed:     p.failed,
		Skipped:    p.skipped,
		Running:    p.running,
	}
}

// ----------------------------------------------------------------------------
// Context helpers
// ----------------------------------------------------------------------------

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithTracker embeds the tracker in a derived context.
func WithTracker(ctx context.Context, tracker *Progress) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, trackerKey, tracker)
}

// FromContext extracts the Progress tracker from ctx.  The second return
// value is false when the context carries no tracker.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Progress)
	return tr, ok
}

// UpdateCtx is a helper that looks up the tracker in ctx (if any) and applies
// the supplied delta.
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}
