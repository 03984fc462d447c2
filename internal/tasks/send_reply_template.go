package tasks

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/outreach/pkg/job"
	"github.com/dmitrymomot/outreach/pkg/sequence"
)

// SendReplyTemplateName is the job name of reply-triggered mail.
const SendReplyTemplateName = "send_reply_template"

// SendReplyTemplatePayload identifies the contact and the template to send.
type SendReplyTemplatePayload struct {
	ContactID string                `json:"contact_id"`
	Template  sequence.TemplateCode `json:"template"`
}

// TemplateSender delivers one template to a contact and records it.
// *inbound.DirectFollowUps satisfies it.
type TemplateSender interface {
	Send(ctx context.Context, contactID string, code sequence.TemplateCode) error
}

// SendReplyTemplate sends R1s or R2s outside the timer table.
type SendReplyTemplate struct {
	sender TemplateSender
}

// NewSendReplyTemplate creates the task.
func NewSendReplyTemplate(sender TemplateSender) *SendReplyTemplate {
	return &SendReplyTemplate{sender: sender}
}

func (t *SendReplyTemplate) Name() string { return SendReplyTemplateName }

// Handle sends the template. Errors make River retry the job.
func (t *SendReplyTemplate) Handle(ctx context.Context, p SendReplyTemplatePayload) error {
	if p.ContactID == "" {
		return fmt.Errorf("%w: contact_id is required", job.ErrInvalidPayload)
	}
	switch p.Template {
	case sequence.TemplateR1s, sequence.TemplateR2s:
	default:
		return fmt.Errorf("%w: %q is not a reply template", job.ErrInvalidPayload, p.Template)
	}
	return t.sender.Send(ctx, p.ContactID, p.Template)
}
