package sequence

import "time"

// Never is the next-action time persisted for contacts that have no pending timer.
// It is far enough in the future that a due query never selects it.
var Never = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

// Dwell is the time a contact waits in a state before the timer fires.
// The zero value is NoTimer.
type Dwell struct {
	d     time.Duration
	timed bool
}

// NoTimer marks a state from which no timer-driven transition exists.
var NoTimer = Dwell{}

// Wait returns a timed dwell. Non-positive durations are treated as immediate.
func Wait(d time.Duration) Dwell {
	return Dwell{d: max(d, 0), timed: true}
}

// Duration returns the dwell and whether a timer is pending at all.
func (d Dwell) Duration() (time.Duration, bool) {
	return d.d, d.timed
}

// Timed reports whether a timer is pending.
func (d Dwell) Timed() bool {
	return d.timed
}

// Hours returns the dwell in hours, or zero without a timer.
func (d Dwell) Hours() float64 {
	return d.d.Hours()
}

// DueAt returns the time the next step becomes due when entering the state at now.
func (d Dwell) DueAt(now time.Time) time.Time {
	if !d.timed {
		return Never
	}
	return now.Add(d.d)
}

func (d Dwell) String() string {
	if !d.timed {
		return "no timer"
	}
	return d.d.String()
}
