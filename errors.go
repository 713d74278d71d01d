package forkly

import (
	"errors"

	"github.com/viant/forkly/service/dispatcher"
	"github.com/viant/forkly/service/layout"
	"github.com/viant/forkly/service/mirror"
)

// Process exit statuses, one per failure class. Usage faults are raised
// before any job runs; the internal status marks bookkeeping defects, never
// user conditions.
const (
	StatusOK        = 0
	StatusJobFailed = 1
	StatusUsage     = 2
	StatusInternal  = 3
)

// ErrInvalidConfig marks configuration faults detected before any job runs.
var ErrInvalidConfig = errors.New("invalid configuration")

// ExitCode maps an error returned by Service.Run to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return StatusOK
	}
	var parseError *layout.ParseError
	var precondition *mirror.PreconditionError
	switch {
	case errors.As(err, &parseError),
		errors.As(err, &precondition),
		errors.Is(err, ErrInvalidConfig):
		return StatusUsage
	case errors.Is(err, dispatcher.ErrJobFailed),
		errors.Is(err, dispatcher.ErrNoUsableSlots):
		return StatusJobFailed
	case errors.Is(err, dispatcher.ErrInternal):
		return StatusInternal
	default:
		return StatusInternal
	}
}
