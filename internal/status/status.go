package status

import (
	"errors"
	"fmt"
)

// ErrInvalidStatus is returned when the engine reports a code outside the known set.
var ErrInvalidStatus = errors.New("invalid status")

// Status is the lifecycle stage of a task as last observed from the engine.
type Status int32

// Raw values match the engine's status constants.
const (
	Pending Status = 1000 // Queued, not started
	Running Status = 2000 // Currently executing
	Success Status = 3000 // Finished successfully
	Failure Status = 4000 // Finished with error
)

// FromRaw wraps a raw engine code. Anything but the four known values,
// including the engine's zero "invalid" code, is rejected.
func FromRaw(raw int32) (Status, error) {
	s := Status(raw)
	switch s {
	case Pending, Running, Success, Failure:
		return s, nil
	default:
		return 0, fmt.Errorf("%w: raw code %d", ErrInvalidStatus, raw)
	}
}

// ParseStatus is the inverse of String.
func ParseStatus(name string) (Status, error) {
	switch name {
	case "pending":
		return Pending, nil
	case "running":
		return Running, nil
	case "success":
		return Success, nil
	case "failure":
		return Failure, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, name)
	}
}

// Done reports whether the status is terminal.
func (s Status) Done() bool { return s == Success || s == Failure }

// Success reports whether the task finished successfully.
func (s Status) Success() bool { return s == Success }

// Failure reports whether the task finished unsuccessfully.
func (s Status) Failure() bool { return s == Failure }

// Pending reports whether the task is queued but not started.
func (s Status) Pending() bool { return s == Pending }

// Running reports whether the task is executing.
func (s Status) Running() bool { return s == Running }

// Raw returns the engine's wire value.
func (s Status) Raw() int32 { return int32(s) }

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}
