package sequence

import (
	"fmt"
	"maps"
	"time"
)

// TemplateCode selects the subject and body content of one step.
type TemplateCode string

const (
	TemplateE1   TemplateCode = "E1"   // initial pitch
	TemplateR1c  TemplateCode = "R1c"  // first follow-up (clip)
	TemplateR2c  TemplateCode = "R2c"  // second follow-up (explicit)
	TemplateR2cs TemplateCode = "R2cs" // soft close

	// Reply-triggered templates, sent outside the timer sequence.
	TemplateR1s TemplateCode = "R1s"
	TemplateR2s TemplateCode = "R2s"
)

func (c TemplateCode) String() string {
	return string(c)
}

// Default dwell times, applied when entering the state.
const (
	DefaultDwellE1Sent  = 48 * time.Hour
	DefaultDwellR1CSent = 72 * time.Hour
	DefaultDwellR2CSent = 72 * time.Hour
)

// Transition is the outcome of Advance: the state to enter and how long to wait there.
type Transition struct {
	State State
	Wait  Dwell
}

// Machine holds the transition and template tables of the sequence.
// It is immutable after New and safe for concurrent use.
type Machine struct {
	dwell map[State]time.Duration
}

// Option configures a Machine.
type Option func(*Machine)

// WithDwell overrides the dwell time of a timed state.
// Only E1_SENT, R1C_SENT and R2C_SENT carry a timer; any other state makes New fail.
//
// Example:
//
//	m, err := sequence.New(
//	    sequence.WithDwell(sequence.StateE1Sent, 4*time.Second),
//	)
func WithDwell(s State, d time.Duration) Option {
	return func(m *Machine) {
		m.dwell[s] = d
	}
}

// WithDwells applies a set of overrides, typically parsed from configuration.
func WithDwells(overrides map[State]time.Duration) Option {
	return func(m *Machine) {
		maps.Copy(m.dwell, overrides)
	}
}

// New creates a Machine with the default dwell table and the given overrides.
func New(opts ...Option) (*Machine, error) {
	m := &Machine{
		dwell: map[State]time.Duration{
			StateE1Sent:  DefaultDwellE1Sent,
			StateR1CSent: DefaultDwellR1CSent,
			StateR2CSent: DefaultDwellR2CSent,
		},
	}
	for _, opt := range opts {
		opt(m)
	}

	for s, d := range m.dwell {
		if !timedState(s) {
			return nil, fmt.Errorf("%w: %s has no timer", ErrInvalidDwellOverride, s)
		}
		if d < 0 {
			return nil, fmt.Errorf("%w: negative dwell %s for %s", ErrInvalidDwellOverride, d, s)
		}
	}

	return m, nil
}

// MustNew is like New but panics on invalid options.
func MustNew(opts ...Option) *Machine {
	m, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// PickTemplate returns the template of the next step to send from s.
// It is defined for NEW, E1_SENT, R1C_SENT and R2C_SENT only.
func (m *Machine) PickTemplate(s State) (TemplateCode, error) {
	switch s {
	case StateNew:
		return TemplateE1, nil
	case StateE1Sent:
		return TemplateR1c, nil
	case StateR1CSent:
		return TemplateR2c, nil
	case StateR2CSent:
		return TemplateR2cs, nil
	case StateR2CSSent, StateReplied, StateStopped:
		return "", fmt.Errorf("%w: %s", ErrNoTemplate, s)
	}
	return "", fmt.Errorf("%w: %w: %q", ErrNoTemplate, ErrInvalidState, string(s))
}

// Advance computes the transition for signal sig presented in state s.
// Replies end the sequence from any non-terminal state; the timer walks the
// straight line NEW → E1_SENT → R1C_SENT → R2C_SENT → R2CS_SENT.
// Every other combination returns a *TransitionError.
func (m *Machine) Advance(s State, sig Signal) (Transition, error) {
	if !s.Valid() || s.Terminal() {
		return Transition{}, &TransitionError{State: s, Signal: sig}
	}

	switch sig {
	case SignalReplyPositive:
		return Transition{State: StateReplied, Wait: NoTimer}, nil
	case SignalReplyNegative, SignalReplyOOO:
		return Transition{State: StateStopped, Wait: NoTimer}, nil
	case SignalTimer:
		next, ok := timerNext(s)
		if !ok {
			return Transition{}, &TransitionError{State: s, Signal: sig}
		}
		return Transition{State: next, Wait: m.DwellFor(next)}, nil
	}
	return Transition{}, &TransitionError{State: s, Signal: sig}
}

// DwellFor returns the configured dwell of s, or NoTimer if s carries none.
func (m *Machine) DwellFor(s State) Dwell {
	d, ok := m.dwell[s]
	if !ok {
		return NoTimer
	}
	return Wait(d)
}

// ReplyTemplate returns the template sent immediately after a reply signal.
// Only a positive reply triggers one.
func ReplyTemplate(sig Signal) (TemplateCode, error) {
	if sig == SignalReplyPositive {
		return TemplateR1s, nil
	}
	return "", fmt.Errorf("%w: no reply template for signal %s", ErrNoTemplate, sig)
}

// timerNext is the next-state table of the timer signal.
func timerNext(s State) (State, bool) {
	switch s {
	case StateNew:
		return StateE1Sent, true
	case StateE1Sent:
		return StateR1CSent, true
	case StateR1CSent:
		return StateR2CSent, true
	case StateR2CSent:
		return StateR2CSSent, true
	case StateR2CSSent, StateReplied, StateStopped:
		return "", false
	}
	return "", false
}

// timedState reports whether entering s starts a timer.
func timedState(s State) bool {
	switch s {
	case StateE1Sent, StateR1CSent, StateR2CSent:
		return true
	case StateNew, StateR2CSSent, StateReplied, StateStopped:
		return false
	}
	return false
}
