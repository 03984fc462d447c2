package scheduler

import (
	"time"

	"github.com/dmitrymomot/outreach/pkg/sequence"
)

// Report summarizes one pass.
type Report struct {
	RunID     string
	StartedAt time.Time
	Due       int
	Sent      []Delivery
	Failed    []Failure
	Skipped   []string // contact ids held by another pass
}

// Delivery is a contact that received its next step.
type Delivery struct {
	ContactID         string
	Email             string
	Template          sequence.TemplateCode
	ProviderMessageID string
	From              sequence.State
	To                sequence.State
	NextActionAt      time.Time
}

// Failure is a contact left unchanged by the pass.
type Failure struct {
	ContactID string
	Email     string
	State     sequence.State
	Err       error
	// SentNotPersisted marks a contact whose email went out but whose
	// state was not saved. It stays due and will be mailed again.
	SentNotPersisted bool
}

// NothingDue reports whether the pass found no work.
func (r *Report) NothingDue() bool {
	return r.Due == 0
}
