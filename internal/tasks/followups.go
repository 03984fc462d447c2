package tasks

import (
	"context"
	"time"

	"github.com/dmitrymomot/outreach/pkg/job"
	"github.com/dmitrymomot/outreach/pkg/sequence"
)

const (
	followUpWindow   = 24 * time.Hour
	followUpAttempts = 5
)

// Enqueuer inserts background jobs. *job.Manager satisfies it.
type Enqueuer interface {
	Enqueue(ctx context.Context, name string, payload any, opts ...job.EnqueueOption) error
}

// QueuedFollowUps moves reply-triggered mail off the webhook request path.
// At most one R1s job per contact is queued per day.
type QueuedFollowUps struct {
	enqueuer Enqueuer
}

// NewQueuedFollowUps creates QueuedFollowUps.
func NewQueuedFollowUps(e Enqueuer) *QueuedFollowUps {
	return &QueuedFollowUps{enqueuer: e}
}

// ReplyReceived implements inbound.FollowUps.
func (q *QueuedFollowUps) ReplyReceived(ctx context.Context, contactID string) error {
	return q.enqueuer.Enqueue(ctx, SendReplyTemplateName,
		SendReplyTemplatePayload{ContactID: contactID, Template: sequence.TemplateR1s},
		job.UniqueFor(followUpWindow),
		job.UniqueKey(contactID),
		job.MaxAttempts(followUpAttempts),
	)
}
