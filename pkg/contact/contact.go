package contact

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/outreach/pkg/sequence"
)

// Contact is one recipient working through the outreach sequence.
type Contact struct {
	ID          string
	Email       string
	FirstName   string
	Publication string

	State        sequence.State
	NextActionAt time.Time // meaningful only while State is non-terminal

	MergeTags    map[string]string
	MessagesSent []SentMessage // oldest first; not populated by Due

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SentMessage records one delivered step.
type SentMessage struct {
	ProviderMessageID string
	TemplateCode      sequence.TemplateCode
	SentAt            time.Time
}

// Reply is an inbound message attributed to a contact.
type Reply struct {
	ContactID  string
	From       string
	Subject    string
	Text       string
	Signal     sequence.Signal
	ReceivedAt time.Time
}

// Update is the state change applied after a transition.
// Append, when set, is added to the end of MessagesSent in the same write.
type Update struct {
	// From, when set, makes the write conditional: Apply fails with
	// ErrStale unless the stored state still equals From.
	From         sequence.State
	State        sequence.State
	NextActionAt time.Time
	Append       *SentMessage
}

// Filter selects contacts for List. Zero fields match everything.
type Filter struct {
	State sequence.State
	// WithTag keeps contacts whose merge tag has a non-empty value.
	WithTag string
	// WithoutTag keeps contacts whose merge tag is missing or empty.
	WithoutTag string
	Limit      int // <= 0 means no limit
}

func (f Filter) match(c *Contact) bool {
	if f.State != "" && c.State != f.State {
		return false
	}
	if f.WithTag != "" && c.MergeTags[f.WithTag] == "" {
		return false
	}
	if f.WithoutTag != "" && c.MergeTags[f.WithoutTag] != "" {
		return false
	}
	return true
}

// Store persists contacts.
type Store interface {
	// Due returns non-terminal contacts with NextActionAt <= now, earliest
	// first. limit <= 0 returns all of them.
	Due(ctx context.Context, now time.Time, limit int) ([]Contact, error)
	// Apply writes an Update atomically.
	Apply(ctx context.Context, id string, u Update) error

	// List returns the contacts matching f, oldest first.
	List(ctx context.Context, f Filter) ([]Contact, error)

	Create(ctx context.Context, c *Contact) error
	Get(ctx context.Context, id string) (*Contact, error)
	FindByEmail(ctx context.Context, email string) (*Contact, error)
	// SetMergeTags merges tags into the contact's existing merge tags.
	SetMergeTags(ctx context.Context, id string, tags map[string]string) error
	RecordReply(ctx context.Context, r Reply) error
}

// NormalizeEmail is the canonical form used for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// prepare fills defaults for a new contact and validates it.
func prepare(c *Contact, now time.Time) error {
	c.Email = NormalizeEmail(c.Email)
	if c.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidContact)
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.State == "" {
		c.State = sequence.StateNew
	}
	if !c.State.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidContact, sequence.ErrInvalidState, c.State)
	}
	if c.NextActionAt.IsZero() {
		c.NextActionAt = now
	}
	if c.MergeTags == nil {
		c.MergeTags = map[string]string{}
	}
	c.NextActionAt = c.NextActionAt.UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

func validateUpdate(u Update) error {
	if !u.State.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrPersist, sequence.ErrInvalidState, u.State)
	}
	return nil
}

func clone(c Contact) Contact {
	c.MergeTags = maps.Clone(c.MergeTags)
	if c.MergeTags == nil {
		c.MergeTags = map[string]string{}
	}
	c.MessagesSent = append([]SentMessage(nil), c.MessagesSent...)
	return c
}
