package sequence

import "fmt"

// State is a step of the outreach sequence a contact currently sits in.
type State string

const (
	StateNew      State = "NEW"       // never contacted
	StateE1Sent   State = "E1_SENT"   // initial pitch sent
	StateR1CSent  State = "R1C_SENT"  // first follow-up sent
	StateR2CSent  State = "R2C_SENT"  // second follow-up sent
	StateR2CSSent State = "R2CS_SENT" // soft close sent, end of the timer sequence
	StateReplied  State = "REPLIED"   // positive reply received
	StateStopped  State = "STOPPED"   // negative reply, out of office or bounce
)

// States lists every member of the closed state set in sequence order.
var States = []State{
	StateNew,
	StateE1Sent,
	StateR1CSent,
	StateR2CSent,
	StateR2CSSent,
	StateReplied,
	StateStopped,
}

// ParseState converts a stored value into a State.
// Unknown values are rejected so an invalid state never enters the system.
func ParseState(s string) (State, error) {
	st := State(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidState, s)
	}
	return st, nil
}

// Valid reports whether s belongs to the closed state set.
func (s State) Valid() bool {
	switch s {
	case StateNew, StateE1Sent, StateR1CSent, StateR2CSent, StateR2CSSent, StateReplied, StateStopped:
		return true
	}
	return false
}

// Terminal reports whether no further action of any kind exists for s.
func (s State) Terminal() bool {
	return s == StateReplied || s == StateStopped
}

func (s State) String() string {
	return string(s)
}
