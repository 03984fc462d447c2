package sequence

import "fmt"

// Signal is an external event presented to the machine.
type Signal string

const (
	SignalTimer         Signal = "timer"
	SignalReplyPositive Signal = "reply_positive"
	SignalReplyNegative Signal = "reply_negative"
	SignalReplyOOO      Signal = "reply_ooo"
)

// ParseSignal converts a raw value into a Signal.
func ParseSignal(s string) (Signal, error) {
	sig := Signal(s)
	if !sig.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSignal, s)
	}
	return sig, nil
}

// Valid reports whether s belongs to the closed signal set.
func (s Signal) Valid() bool {
	switch s {
	case SignalTimer, SignalReplyPositive, SignalReplyNegative, SignalReplyOOO:
		return true
	}
	return false
}

// IsReply reports whether s is a reply classification rather than a timer.
func (s Signal) IsReply() bool {
	return s == SignalReplyPositive || s == SignalReplyNegative || s == SignalReplyOOO
}

func (s Signal) String() string {
	return string(s)
}
