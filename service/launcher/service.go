// Package launcher spawns one child process per job and reports child
// terminations as they happen, in no particular order.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/viant/forkly/model/slot"
)

// StatusSpawnFailure is the synthetic exit status reported when a child
// could not be started at all, matching the shell convention for a command
// that cannot be run.
const StatusSpawnFailure = 127

// Completion is the terminal report of one spawned child. Status is the
// process exit status; -1 denotes abnormal termination (signal).
type Completion struct {
	Handle slot.Handle
	Status int
}

// Service owns the children of a single run. Spawn registers a child and a
// companion goroutine publishes its completion; AwaitAny consumes
// completions one at a time.
type Service struct {
	completions chan Completion
	next        uint64

	mux      sync.Mutex
	children map[slot.Handle]*exec.Cmd

	stdout io.Writer
	stderr io.Writer
	logger *log.Logger
}

// Option customizes the launcher service.
type Option func(*Service)

// WithStdout redirects child standard output, defaults to the parent's.
func WithStdout(w io.Writer) Option {
	return func(s *Service) { s.stdout = w }
}

// WithStderr redirects child standard error, defaults to the parent's.
func WithStderr(w io.Writer) Option {
	return func(s *Service) { s.stderr = w }
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New creates a launcher sized to the slot table; capacity bounds the number
// of unconsumed completions, which never exceeds the number of slots.
func New(capacity int, options ...Option) *Service {
	if capacity < 1 {
		capacity = 1
	}
	s := &Service{
		completions: make(chan Completion, capacity),
		children:    make(map[slot.Handle]*exec.Cmd),
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		logger:      log.Default(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Spawn starts one job on the given slot and returns its handle. A child
// that cannot be started is not an error here: it surfaces as a completion
// with StatusSpawnFailure so the reaper sees every job exactly once.
func (s *Service) Spawn(ctx context.Context, aSlot *slot.Slot, line string) (slot.Handle, error) {
	argv := Argv(aSlot, line)
	if len(argv) == 0 {
		return 0, fmt.Errorf("slot %d: base argv not primed", aSlot.Index)
	}
	handle := slot.Handle(atomic.AddUint64(&s.next, 1))

	cmd := exec.Command(argv[0], argv[1:]...)
	// A nil Stdin reads from the null device; jobs must not compete with the
	// dispatcher for the input stream.
	cmd.Stdin = nil
	cmd.Stdout = s.stdout
	cmd.Stderr = s.stderr
	if aSlot.IsLocal() && aSlot.WorkingDir != "" {
		// The directory change happens in the child only; the dispatcher's
		// working directory never moves.
		cmd.Dir = aSlot.WorkingDir
	}

	if err := cmd.Start(); err != nil {
		s.logger.Printf("forkly: slot %d: cannot start %v: %v", aSlot.Index, argv[0], err)
		s.completions <- Completion{Handle: handle, Status: StatusSpawnFailure}
		return handle, nil
	}

	s.mux.Lock()
	s.children[handle] = cmd
	s.mux.Unlock()

	go s.await(handle, cmd)
	return handle, nil
}

// await blocks until the child terminates and publishes its completion.
func (s *Service) await(handle slot.Handle, cmd *exec.Cmd) {
	status := 0
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			status = exitErr.ExitCode()
		} else {
			status = -1
		}
	}

	s.mux.Lock()
	delete(s.children, handle)
	s.mux.Unlock()

	s.completions <- Completion{Handle: handle, Status: status}
}

// AwaitAny blocks until any child terminates, in completion order.
func (s *Service) AwaitAny(ctx context.Context) (Completion, error) {
	select {
	case completion := <-s.completions:
		return completion, nil
	case <-ctx.Done():
		return Completion{}, ctx.Err()
	}
}

// SignalAll forwards a signal to every live child and returns how many were
// signalled. Termination still surfaces through AwaitAny.
func (s *Service) SignalAll(sig os.Signal) int {
	s.mux.Lock()
	defer s.mux.Unlock()
	signalled := 0
	for _, cmd := range s.children {
		if cmd.Process == nil {
			continue
		}
		if err := cmd.Process.Signal(sig); err == nil {
			signalled++
		}
	}
	return signalled
}

// Live returns the number of children that have not yet terminated.
func (s *Service) Live() int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return len(s.children)
}
