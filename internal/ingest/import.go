package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/outreach/pkg/contact"
	"github.com/dmitrymomot/outreach/pkg/logger"
)

var ErrInvalidFile = errors.New("ingest: invalid contacts file")

// File is the YAML layout accepted by Import:
//
//	contacts:
//	  - email: jane@example.com
//	    first_name: Jane
//	    publication: The Ledger
//	    merge_tags:
//	      article_url: https://example.com/story
type File struct {
	Contacts []Entry `yaml:"contacts"`
}

// Entry is one contact row.
type Entry struct {
	Email       string            `yaml:"email"`
	FirstName   string            `yaml:"first_name"`
	Publication string            `yaml:"publication"`
	MergeTags   map[string]string `yaml:"merge_tags"`
	// StartAt delays the first email. Empty means as soon as the next pass runs.
	StartAt time.Time `yaml:"start_at"`
}

// Parse decodes a contacts file. Unknown keys are rejected.
func Parse(r io.Reader) ([]Entry, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, errors.Join(ErrInvalidFile, err)
	}
	for i, e := range f.Contacts {
		if contact.NormalizeEmail(e.Email) == "" {
			return nil, fmt.Errorf("%w: entry %d has no email", ErrInvalidFile, i+1)
		}
	}
	return f.Contacts, nil
}

// Creator is the slice of contact.Store Import needs.
type Creator interface {
	Create(ctx context.Context, c *contact.Contact) error
}

// ImportResult counts what Import did.
type ImportResult struct {
	Created int
	Skipped int // already known emails
}

// Import creates a NEW contact per entry. Known emails are skipped, so the
// same file can be imported again after adding rows.
func Import(ctx context.Context, store Creator, entries []Entry, log *slog.Logger) (ImportResult, error) {
	if log == nil {
		log = logger.NewNope()
	}

	var res ImportResult
	for _, e := range entries {
		c := &contact.Contact{
			Email:        e.Email,
			FirstName:    e.FirstName,
			Publication:  e.Publication,
			MergeTags:    e.MergeTags,
			NextActionAt: e.StartAt,
		}
		err := store.Create(ctx, c)
		switch {
		case err == nil:
			res.Created++
			log.DebugContext(ctx, "contact imported", slog.String("email", c.Email), slog.String("contact_id", c.ID))
		case errors.Is(err, contact.ErrDuplicateEmail):
			res.Skipped++
		default:
			return res, fmt.Errorf("import %s: %w", e.Email, err)
		}
	}

	log.InfoContext(ctx, "import finished", slog.Int("created", res.Created), slog.Int("skipped", res.Skipped))
	return res, nil
}
