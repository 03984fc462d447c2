// Package scheduler runs the periodic batch pass of the outreach sequence.
//
// Each [Scheduler.Run] reads the clock once, asks the store for up to
// maxBatch due contacts and, for each one independently:
//
//  1. picks the template for the contact's state
//  2. renders it with the contact's merge values
//  3. sends it
//  4. advances the state machine with the timer signal
//  5. saves the new state, the next action time and the sent message
//
// A failure at any step is logged with the contact's id, email and state,
// recorded in the [Report] and leaves the contact untouched, so it is due
// again on the next pass. Panics are recovered the same way.
//
// Delivery is at least once. The email is sent before the new state is
// saved; if saving fails the contact is reported with SentNotPersisted
// and will receive the same step again next pass.
//
// Passes do not coordinate with each other unless a [Claimer] is set
// with [WithClaimer].
package scheduler
