package contact

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// MemoryStore keeps contacts in process memory. Useful for tests and dry runs.
type MemoryStore struct {
	mu       sync.RWMutex
	contacts map[string]*Contact
	replies  []Reply
	now      func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		contacts: make(map[string]*Contact),
		now:      time.Now,
	}
}

func (s *MemoryStore) Due(_ context.Context, now time.Time, limit int) ([]Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var due []Contact
	for _, c := range s.contacts {
		if c.State.Terminal() || c.NextActionAt.After(now) {
			continue
		}
		cc := clone(*c)
		cc.MessagesSent = nil
		due = append(due, cc)
	}

	slices.SortFunc(due, func(a, b Contact) int {
		if n := a.NextActionAt.Compare(b.NextActionAt); n != 0 {
			return n
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (s *MemoryStore) List(_ context.Context, f Filter) ([]Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Contact
	for _, c := range s.contacts {
		if !f.match(c) {
			continue
		}
		cc := clone(*c)
		cc.MessagesSent = nil
		out = append(out, cc)
	}

	slices.SortFunc(out, func(a, b Contact) int {
		if n := a.CreatedAt.Compare(b.CreatedAt); n != 0 {
			return n
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *MemoryStore) Apply(_ context.Context, id string, u Update) error {
	if err := validateUpdate(u); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contacts[id]
	if !ok {
		return ErrNotFound
	}
	if u.From != "" && c.State != u.From {
		return fmt.Errorf("%w: %s is %s, not %s", ErrStale, id, c.State, u.From)
	}
	c.State = u.State
	c.NextActionAt = u.NextActionAt.UTC()
	if u.Append != nil {
		c.MessagesSent = append(c.MessagesSent, *u.Append)
	}
	c.UpdatedAt = s.now().UTC()
	return nil
}

func (s *MemoryStore) Create(_ context.Context, c *Contact) error {
	if err := prepare(c, s.now().UTC()); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.contacts {
		if existing.Email == c.Email {
			return fmt.Errorf("%w: %s", ErrDuplicateEmail, c.Email)
		}
	}
	if _, ok := s.contacts[c.ID]; ok {
		return fmt.Errorf("%w: id %s already exists", ErrInvalidContact, c.ID)
	}

	stored := clone(*c)
	s.contacts[c.ID] = &stored
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.contacts[id]
	if !ok {
		return nil, ErrNotFound
	}
	cc := clone(*c)
	return &cc, nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*Contact, error) {
	email = NormalizeEmail(email)

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.contacts {
		if c.Email == email {
			cc := clone(*c)
			return &cc, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) SetMergeTags(_ context.Context, id string, tags map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contacts[id]
	if !ok {
		return ErrNotFound
	}
	if c.MergeTags == nil {
		c.MergeTags = make(map[string]string, len(tags))
	}
	for k, v := range tags {
		c.MergeTags[k] = v
	}
	c.UpdatedAt = s.now().UTC()
	return nil
}

func (s *MemoryStore) RecordReply(_ context.Context, r Reply) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contacts[r.ContactID]; !ok {
		return ErrNotFound
	}
	s.replies = append(s.replies, r)
	return nil
}

// Replies returns the recorded replies for a contact, oldest first.
func (s *MemoryStore) Replies(contactID string) []Reply {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Reply
	for _, r := range s.replies {
		if r.ContactID == contactID {
			out = append(out, r)
		}
	}
	return out
}
