// Package prober checks that every remote slot host can actually run a
// command before the dispatcher starts handing out work. Unreachable hosts
// fault their slots; the run proceeds on whatever capacity remains.
package prober

import (
	"context"
	"log"
	"time"

	"github.com/viant/forkly/model/slot"
	"github.com/viant/forkly/tracing"
	"github.com/viant/gosh/runner"
)

// probeCommand is the no-op each reachable host must be able to execute.
const probeCommand = "true"

// Session is a short-lived shell session on one host; *gosh.Service
// satisfies it.
type Session interface {
	Run(ctx context.Context, command string, options ...runner.Option) (string, int, error)
	Close() error
}

// Dialer establishes probe sessions. Swapped in tests.
type Dialer interface {
	Dial(ctx context.Context, host string) (Session, error)
}

// Service probes each distinct remote host once and faults every slot whose
// host did not respond.
type Service struct {
	dialer  Dialer
	timeout time.Duration
	logger  *log.Logger
}

// Option customizes the prober service.
type Option func(*Service)

// WithDialer replaces the secure-shell dialer.
func WithDialer(dialer Dialer) Option {
	return func(s *Service) { s.dialer = dialer }
}

// WithTimeout bounds a single host probe, dial included. Only the probe is
// bounded; dispatched jobs run without a deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Service) { s.timeout = timeout }
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New creates a prober service.
func New(options ...Option) *Service {
	s := &Service{
		timeout: 30 * time.Second,
		logger:  log.Default(),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.dialer == nil {
		s.dialer = &sshDialer{}
	}
	return s
}

// Probe checks each distinct host named by remote slots, first occurrence
// first, and faults every slot of an unreachable host. Later slots naming an
// already probed host inherit its outcome without a second probe.
func (s *Service) Probe(ctx context.Context, table *slot.Table) error {
	reachable := make(map[string]bool)
	for _, aSlot := range table.Slots() {
		if aSlot.IsLocal() {
			continue
		}
		ok, seen := reachable[aSlot.Host]
		if !seen {
			ok = s.probeHost(ctx, aSlot.Host)
			reachable[aSlot.Host] = ok
		}
		if ok {
			continue
		}
		if err := table.MarkFaulted(aSlot.Index); err != nil {
			return err
		}
	}
	return nil
}

// probeHost dials the host and runs the no-op over a short-lived session.
func (s *Service) probeHost(ctx context.Context, host string) (ok bool) {
	ctx, span := tracing.StartSpan(ctx, "prober.probe "+host, "CLIENT")
	defer func() {
		span.WithAttributes(map[string]string{"probe.host": host, "probe.reachable": boolText(ok)})
		tracing.EndSpan(span, nil)
	}()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	session, err := s.dialer.Dial(ctx, host)
	if err != nil {
		s.logger.Printf("forkly: host %s unreachable: %v", host, err)
		return false
	}
	defer session.Close()

	_, status, err := session.Run(ctx, probeCommand, runner.WithTimeout(int(s.timeout.Milliseconds())))
	if err != nil {
		s.logger.Printf("forkly: host %s probe failed: %v", host, err)
		return false
	}
	if status != 0 {
		s.logger.Printf("forkly: host %s probe exited with status %d", host, status)
		return false
	}
	return true
}

func boolText(value bool) string {
	if value {
		return "true"
	}
	return "false"
}
