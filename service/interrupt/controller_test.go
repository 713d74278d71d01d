package interrupt

import (
	"io"
	"log"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeForwarder struct {
	mux     sync.Mutex
	signals []os.Signal
	live    int
}

func (f *fakeForwarder) SignalAll(sig os.Signal) int {
	f.mux.Lock()
	defer f.mux.Unlock()
	f.signals = append(f.signals, sig)
	return f.live
}

func newController(forwarder Forwarder) *Controller {
	return New(forwarder, WithLogger(log.New(io.Discard, "", 0)))
}

func TestDeliverEscalates(t *testing.T) {
	forwarder := &fakeForwarder{live: 3}
	controller := newController(forwarder)

	assert.Equal(t, StageNone, controller.Stage())
	assert.False(t, controller.Draining())

	// First signal only stops admission.
	controller.Deliver(os.Interrupt)
	assert.Equal(t, StageDraining, controller.Stage())
	assert.True(t, controller.Draining())
	assert.Empty(t, forwarder.signals)

	// Second signal is forwarded to the active jobs.
	controller.Deliver(os.Interrupt)
	assert.Equal(t, StageForcing, controller.Stage())
	assert.Equal(t, []os.Signal{os.Interrupt}, forwarder.signals)

	// Later signals keep being forwarded; the stage stays forcing.
	controller.Deliver(os.Kill)
	assert.Equal(t, StageForcing, controller.Stage())
	assert.Equal(t, []os.Signal{os.Interrupt, os.Kill}, forwarder.signals)
}

func TestDeliverWithoutForwarder(t *testing.T) {
	controller := newController(nil)
	controller.Deliver(os.Interrupt)
	controller.Deliver(os.Interrupt)
	assert.Equal(t, StageForcing, controller.Stage())
}

func TestArmDisarm(t *testing.T) {
	controller := newController(&fakeForwarder{})
	controller.Arm()
	// Arming twice must not double-subscribe.
	controller.Arm()
	controller.Disarm()
	controller.Disarm()
	assert.Equal(t, StageNone, controller.Stage())
}
