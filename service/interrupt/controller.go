// Package interrupt implements two-stage run cancellation: the first signal
// stops new dispatches and lets active jobs finish, the second is forwarded
// to the jobs themselves.
package interrupt

import (
	"log"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
)

// Stage is the current cancellation stage. Stages only ever advance.
type Stage int32

const (
	// StageNone means no interrupt has been received.
	StageNone Stage = iota
	// StageDraining means new dispatches stop while active jobs finish.
	StageDraining
	// StageForcing means active jobs have been signalled to stop.
	StageForcing
)

// Forwarder delivers a signal to every live child; the launcher satisfies it.
type Forwarder interface {
	SignalAll(sig os.Signal) int
}

// Controller tracks the cancellation stage. Deliver is exported so the
// escalation can be driven without real signals.
type Controller struct {
	stage     int32
	forwarder Forwarder
	logger    *log.Logger
	signals   []os.Signal

	mux   sync.Mutex
	ch    chan os.Signal
	armed bool
}

// Option customizes the controller.
type Option func(*Controller)

// WithLogger sets the diagnostics logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithSignals overrides the signals the controller listens for.
func WithSignals(signals ...os.Signal) Option {
	return func(c *Controller) { c.signals = signals }
}

// New creates a controller forwarding second-stage signals to the given
// forwarder.
func New(forwarder Forwarder, options ...Option) *Controller {
	c := &Controller{
		forwarder: forwarder,
		logger:    log.Default(),
		signals:   []os.Signal{os.Interrupt, syscall.SIGTERM},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Stage returns the current cancellation stage.
func (c *Controller) Stage() Stage {
	return Stage(atomic.LoadInt32(&c.stage))
}

// Draining reports whether dispatching should stop.
func (c *Controller) Draining() bool {
	return c.Stage() >= StageDraining
}

// Deliver advances the cancellation stage for one received signal. The first
// delivery only stops admission; the second and any later ones forward the
// signal to every active job.
func (c *Controller) Deliver(sig os.Signal) {
	if atomic.CompareAndSwapInt32(&c.stage, int32(StageNone), int32(StageDraining)) {
		c.logger.Printf("forkly: interrupt: waiting for active jobs to finish; interrupt again to stop them")
		return
	}
	atomic.CompareAndSwapInt32(&c.stage, int32(StageDraining), int32(StageForcing))
	if c.forwarder == nil {
		return
	}
	signalled := c.forwarder.SignalAll(sig)
	c.logger.Printf("forkly: interrupt: forwarded %v to %d active jobs", sig, signalled)
}

// Arm starts listening for the configured signals. Each received signal is
// delivered to the controller until Disarm is called.
func (c *Controller) Arm() {
	c.mux.Lock()
	defer c.mux.Unlock()
	if c.armed {
		return
	}
	c.ch = make(chan os.Signal, 2)
	signal.Notify(c.ch, c.signals...)
	c.armed = true
	go func(ch chan os.Signal) {
		for sig := range ch {
			c.Deliver(sig)
		}
	}(c.ch)
}

// Disarm stops listening. Safe to call multiple times.
func (c *Controller) Disarm() {
	c.mux.Lock()
	defer c.mux.Unlock()
	if !c.armed {
		return
	}
	signal.Stop(c.ch)
	close(c.ch)
	c.armed = false
}
