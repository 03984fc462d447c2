// Package sequence defines the finite-state machine of the outreach sequence.
//
// A contact moves through a closed set of states. Each non-terminal state
// waits for a bounded dwell time before the timer sends the next step; a
// reply ends the sequence immediately.
//
//	NEW ──E1──▶ E1_SENT ──R1c──▶ R1C_SENT ──R2c──▶ R2C_SENT ──R2cs──▶ R2CS_SENT
//	  48h after E1, 72h after R1c, 72h after R2c, no timer after R2cs.
//
//	any non-terminal ──reply_positive──▶ REPLIED
//	any non-terminal ──reply_negative | reply_ooo──▶ STOPPED
//
// The Machine is pure: it performs no I/O and returns the same output for
// the same input. It is the single authority for changing a contact's
// state and next action time; both the scheduler and the inbound webhook
// go through Advance.
//
// # Usage
//
//	m, err := sequence.New()
//	if err != nil {
//		return err
//	}
//
//	code, err := m.PickTemplate(sequence.StateNew) // "E1"
//	tr, err := m.Advance(sequence.StateNew, sequence.SignalTimer)
//	// tr.State == E1_SENT, tr.Wait.DueAt(now) == now+48h
//
// States without a pending timer persist [Never] as their next action time,
// so they are never selected as due.
//
// # Dwell overrides
//
// Test and staging environments shorten the dwell table explicitly:
//
//	m, err := sequence.New(
//		sequence.WithDwell(sequence.StateE1Sent, 4*time.Second),
//		sequence.WithDwell(sequence.StateR1CSent, 4*time.Second),
//	)
//
// # Errors
//
//   - [ErrUndefinedTransition] - (state, signal) pair without a transition, via [TransitionError]
//   - [ErrNoTemplate] - PickTemplate called for R2CS_SENT or a terminal state
//   - [ErrInvalidState], [ErrInvalidSignal] - values outside the closed sets
//   - [ErrInvalidDwellOverride] - override for a state that carries no timer
package sequence
