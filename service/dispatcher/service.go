// Package dispatcher owns the slot table for a run: it admits input lines,
// hands each one to the lowest idle slot, reaps completed jobs and drains
// the table at end of input. A single goroutine runs the whole loop; the
// table is never shared.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/viant/forkly/internal/idgen"
	"github.com/viant/forkly/internal/lineio"
	"github.com/viant/forkly/model/slot"
	"github.com/viant/forkly/policy"
	"github.com/viant/forkly/progress"
	"github.com/viant/forkly/service/interrupt"
	"github.com/viant/forkly/service/launcher"
	"github.com/viant/forkly/tracing"
)

var (
	// ErrJobFailed reports that at least one job exited with a nonzero
	// status; admission policy never masks it.
	ErrJobFailed = errors.New("one or more jobs failed")

	// ErrInternal reports a dispatch bookkeeping defect, such as a
	// completion no slot owns.
	ErrInternal = errors.New("dispatch invariant violated")

	// ErrNoUsableSlots reports that input was pending while every slot was
	// faulted.
	ErrNoUsableSlots = errors.New("no usable slots")
)

// Launcher spawns jobs and reports their completions; the launcher service
// satisfies it.
type Launcher interface {
	Spawn(ctx context.Context, aSlot *slot.Slot, line string) (slot.Handle, error)
	AwaitAny(ctx context.Context) (launcher.Completion, error)
}

// Service dispatches input lines over a slot table.
type Service struct {
	table      *slot.Table
	launcher   Launcher
	interrupts *interrupt.Controller

	keepGoing bool
	verbose   bool
	logger    *log.Logger
}

// Option customizes the dispatcher.
type Option func(*Service)

// WithKeepGoing keeps admitting new lines after a job failure; the failure
// still decides the run outcome.
func WithKeepGoing(keepGoing bool) Option {
	return func(s *Service) { s.keepGoing = keepGoing }
}

// WithVerbose echoes dispatch and reap events to the logger.
func WithVerbose(verbose bool) Option {
	return func(s *Service) { s.verbose = verbose }
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithInterrupts attaches the cancellation controller.
func WithInterrupts(controller *interrupt.Controller) Option {
	return func(s *Service) { s.interrupts = controller }
}

// New creates a dispatcher over the given table and launcher.
func New(table *slot.Table, launch Launcher, options ...Option) (*Service, error) {
	s := &Service{
		table:    table,
		launcher: launch,
		logger:   log.Default(),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.table == nil {
		return nil, fmt.Errorf("slot table is required")
	}
	if s.launcher == nil {
		return nil, fmt.Errorf("launcher is required")
	}
	if s.interrupts == nil {
		s.interrupts = interrupt.New(nil, interrupt.WithLogger(s.logger))
	}
	return s, nil
}

// runState is the per-run bookkeeping owned by the dispatch goroutine.
type runState struct {
	failed bool
	spans  map[slot.Handle]*tracing.Span
}

// Run processes lines until the input is exhausted, a halt condition stops
// admission, or an invariant breaks. It always drains active jobs before
// returning, except when the context is cancelled outright.
func (s *Service) Run(ctx context.Context, lines *lineio.Reader) (err error) {
	ctx, span := tracing.StartSpan(ctx, "dispatcher.run", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()

	state := &runState{spans: make(map[slot.Handle]*tracing.Span)}

dispatch:
	for {
		// Admission checkpoints: an interrupt or an error under the default
		// policy stops new work, never work in flight.
		if err = ctx.Err(); err != nil {
			return err
		}
		if s.interrupts.Draining() {
			break
		}
		if state.failed && !s.keepGoing {
			break
		}

		line, ok := lines.Next()
		if !ok {
			break
		}

		for !s.table.HasCapacity() {
			if s.table.BusyCount() == 0 {
				// Nothing is running and nothing can be: every slot faulted.
				return fmt.Errorf("all %d slots faulted: %w", s.table.Len(), ErrNoUsableSlots)
			}
			if s.verbose {
				s.logger.Printf("forkly: %d jobs active, waiting for one to finish", s.table.BusyCount())
			}
			if err = s.reapOne(ctx, state); err != nil {
				return err
			}
			// Re-check halt conditions before using the freed capacity; the
			// pending line is dropped when one holds.
			if s.interrupts.Draining() || (state.failed && !s.keepGoing) {
				break dispatch
			}
		}

		if err = s.dispatchOne(ctx, state, line); err != nil {
			return err
		}
	}

	// End of admission: wait for everything still running.
	for s.table.BusyCount() > 0 {
		if s.verbose {
			s.logger.Printf("forkly: waiting for %d active jobs", s.table.BusyCount())
		}
		if err = s.reapOne(ctx, state); err != nil {
			return err
		}
	}

	if readErr := lines.Err(); readErr != nil {
		return fmt.Errorf("reading input: %w", readErr)
	}
	if state.failed {
		return ErrJobFailed
	}
	return nil
}

// dispatchOne starts one job on the lowest idle slot. A line the admission
// policy rejects is consumed without running anything.
func (s *Service) dispatchOne(ctx context.Context, state *runState, line string) error {
	target := s.table.FirstIdle()
	if target == nil {
		return fmt.Errorf("no idle slot despite free capacity: %w", ErrInternal)
	}
	if pol := policy.FromContext(ctx); pol != nil {
		if !pol.Admit(ctx, target.Location(), launcher.Argv(target, line)) {
			progress.UpdateCtx(ctx, progress.Delta{Skipped: 1})
			if s.verbose {
				s.logger.Printf("forkly: skipped line %q", line)
			}
			return nil
		}
	}
	handle, err := s.launcher.Spawn(ctx, target, line)
	if err != nil {
		return fmt.Errorf("spawn on slot %d: %v: %w", target.Index, err, ErrInternal)
	}
	if err := s.table.MarkBusy(target.Index, handle, line); err != nil {
		return fmt.Errorf("%v: %w", err, ErrInternal)
	}

	_, jobSpan := tracing.StartSpan(ctx, "dispatcher.job", "INTERNAL")
	jobSpan.WithAttributes(map[string]string{
		"job.id":     idgen.New(),
		"job.line":   line,
		"slot.index": strconv.Itoa(target.Index),
		"slot.host":  target.Location(),
	})
	state.spans[handle] = jobSpan

	progress.UpdateCtx(ctx, progress.Delta{Dispatched: 1, Running: 1})
	if s.verbose {
		s.logger.Printf("forkly: slot %d (%s): started job for line %q", target.Index, target.Location(), line)
	}
	return nil
}

// reapOne blocks for the next completion and releases the owning slot.
func (s *Service) reapOne(ctx context.Context, state *runState) error {
	completion, err := s.launcher.AwaitAny(ctx)
	if err != nil {
		return err
	}
	owner := s.table.FindByHandle(completion.Handle)
	if owner == nil {
		return fmt.Errorf("no slot owns completed job handle %d: %w", completion.Handle, ErrInternal)
	}
	index, location, line := owner.Index, owner.Location(), owner.Line
	if err := s.table.MarkIdle(index); err != nil {
		return fmt.Errorf("%v: %w", err, ErrInternal)
	}

	jobSpan := state.spans[completion.Handle]
	delete(state.spans, completion.Handle)
	jobSpan.WithAttributes(map[string]string{"job.status": strconv.Itoa(completion.Status)})

	if completion.Status != 0 {
		state.failed = true
		progress.UpdateCtx(ctx, progress.Delta{Completed: 1, Failed: 1, Running: -1})
		if completion.Status == -1 {
			s.logger.Printf("forkly: slot %d (%s): job for line %q terminated abnormally", index, location, line)
			tracing.EndSpan(jobSpan, errors.New("terminated abnormally"))
		} else {
			s.logger.Printf("forkly: slot %d (%s): job for line %q exited with status %d", index, location, line, completion.Status)
			tracing.EndSpan(jobSpan, fmt.Errorf("exit status %d", completion.Status))
		}
		return nil
	}

	progress.UpdateCtx(ctx, progress.Delta{Completed: 1, Running: -1})
	tracing.EndSpan(jobSpan, nil)
	if s.verbose {
		s.logger.Printf("forkly: slot %d (%s): job finished", index, location)
	}
	return nil
}
