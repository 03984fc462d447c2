package sequence

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState indicates a value outside the closed state set.
	ErrInvalidState = errors.New("sequence: invalid state")

	// ErrInvalidSignal indicates a value outside the closed signal set.
	ErrInvalidSignal = errors.New("sequence: invalid signal")

	// ErrUndefinedTransition indicates a (state, signal) pair with no transition.
	// It always points to a caller defect, never to a recoverable condition.
	ErrUndefinedTransition = errors.New("sequence: undefined transition")

	// ErrNoTemplate indicates a state that has no next step to send.
	ErrNoTemplate = errors.New("sequence: no template for state")

	// ErrInvalidDwellOverride indicates a dwell override for a state without a timer.
	ErrInvalidDwellOverride = errors.New("sequence: invalid dwell override")
)

// TransitionError identifies the inputs of a rejected Advance call.
type TransitionError struct {
	State  State
	Signal Signal
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: state=%s signal=%s", ErrUndefinedTransition, e.State, e.Signal)
}

func (e *TransitionError) Unwrap() error {
	return ErrUndefinedTransition
}
