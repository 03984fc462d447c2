package inbound

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/dmitrymomot/outreach/pkg/contact"
	"github.com/dmitrymomot/outreach/pkg/mailer"
	"github.com/dmitrymomot/outreach/pkg/sequence"
)

// FollowUps reacts to a positive reply after it has been persisted.
type FollowUps interface {
	ReplyReceived(ctx context.Context, contactID string) error
}

// FollowUpsFunc adapts a function to FollowUps.
type FollowUpsFunc func(ctx context.Context, contactID string) error

func (f FollowUpsFunc) ReplyReceived(ctx context.Context, contactID string) error {
	return f(ctx, contactID)
}

// NoFollowUps ignores replies.
var NoFollowUps FollowUps = FollowUpsFunc(func(context.Context, string) error { return nil })

// TemplateSender sends a rendered template to one recipient.
// *mailer.Mailer satisfies it.
type TemplateSender interface {
	Send(ctx context.Context, params mailer.SendParams) (string, error)
}

// FollowUpStore is the slice of contact.Store DirectFollowUps needs.
type FollowUpStore interface {
	Get(ctx context.Context, id string) (*contact.Contact, error)
	Apply(ctx context.Context, id string, u contact.Update) error
}

// DirectFollowUps sends the reply template in the request path and records
// it in the contact's message history without changing its state.
type DirectFollowUps struct {
	store    FollowUpStore
	mail     TemplateSender
	now      func() time.Time
	defaults map[string]string
}

// NewDirectFollowUps creates a DirectFollowUps.
func NewDirectFollowUps(store FollowUpStore, mail TemplateSender) *DirectFollowUps {
	return &DirectFollowUps{
		store: store,
		mail:  mail,
		now:   time.Now,
		defaults: map[string]string{
			"first_name":  "there",
			"publication": "your site",
		},
	}
}

// ReplyReceived implements FollowUps.
func (d *DirectFollowUps) ReplyReceived(ctx context.Context, contactID string) error {
	return d.Send(ctx, contactID, sequence.TemplateR1s)
}

// Send delivers code to the contact and appends it to MessagesSent.
func (d *DirectFollowUps) Send(ctx context.Context, contactID string, code sequence.TemplateCode) error {
	c, err := d.store.Get(ctx, contactID)
	if err != nil {
		return errors.Join(ErrFollowUp, err)
	}

	data := make(map[string]string, len(d.defaults)+len(c.MergeTags)+2)
	maps.Copy(data, d.defaults)
	if c.FirstName != "" {
		data["first_name"] = c.FirstName
	}
	if c.Publication != "" {
		data["publication"] = c.Publication
	}
	maps.Copy(data, c.MergeTags)

	messageID, err := d.mail.Send(ctx, mailer.SendParams{
		To:       c.Email,
		Template: code.String(),
		Data:     data,
		Tags:     mailer.StepTags(c.ID, code.String()),
	})
	if err != nil {
		return errors.Join(ErrFollowUp, err)
	}

	if err := d.store.Apply(ctx, c.ID, contact.Update{
		From:         c.State,
		State:        c.State,
		NextActionAt: c.NextActionAt,
		Append: &contact.SentMessage{
			ProviderMessageID: messageID,
			TemplateCode:      code,
			SentAt:            d.now().UTC(),
		},
	}); err != nil {
		return fmt.Errorf("%w: sent %s as %s but not recorded: %w", ErrFollowUp, code, messageID, err)
	}
	return nil
}
