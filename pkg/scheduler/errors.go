package scheduler

import "errors"

var (
	// ErrQueryDue is the only error Run returns: the due query failed and nothing was processed.
	ErrQueryDue = errors.New("scheduler: failed to query due contacts")

	ErrPanic          = errors.New("scheduler: panic while processing contact")
	ErrClaim          = errors.New("scheduler: failed to claim contact")
	ErrEmptyMessageID = errors.New("scheduler: sender returned empty message id")
)
