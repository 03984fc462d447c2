package contact

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/dmitrymomot/outreach/pkg/contact/migrations"
	"github.com/dmitrymomot/outreach/pkg/sequence"
)

// sqliteTime is fixed-width so text comparison orders like time.
const sqliteTime = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore is a single-file Store for local runs.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the database at dsn and applies the schema.
// Use ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer; also keeps an in-memory database alive across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.SQLite())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Due(ctx context.Context, now time.Time, limit int) ([]Contact, error) {
	return s.list(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE next_action_at <= ? AND state NOT IN ('REPLIED', 'STOPPED')
		ORDER BY next_action_at, id
		LIMIT ?`, formatTime(now), sqliteLimit(limit))
}

func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]Contact, error) {
	state := string(f.State)
	return s.list(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE (? = '' OR state = ?)
			AND (? = '' OR coalesce(json_extract(merge_tags, '$."' || ? || '"'), '') <> '')
			AND (? = '' OR coalesce(json_extract(merge_tags, '$."' || ? || '"'), '') = '')
		ORDER BY created_at, id
		LIMIT ?`,
		state, state, f.WithTag, f.WithTag, f.WithoutTag, f.WithoutTag, sqliteLimit(f.Limit))
}

// sqliteLimit maps limit <= 0 to LIMIT -1, which SQLite treats as no limit.
func sqliteLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...any) ([]Contact, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		c, err := scanSQLiteContact(rows)
		if err != nil {
			return nil, errors.Join(ErrQuery, err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	return out, nil
}

func (s *SQLiteStore) Apply(ctx context.Context, id string, u Update) error {
	if err := validateUpdate(u); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE contacts SET state = ?, next_action_at = ?, updated_at = ?
			WHERE id = ? AND (? = '' OR state = ?)`,
			string(u.State), formatTime(u.NextActionAt), formatTime(s.now()), id, string(u.From), string(u.From))
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM contacts WHERE id = ?)`, id).Scan(&exists); err != nil {
				return err
			}
			if exists {
				return fmt.Errorf("%w: %s is no longer %s", ErrStale, id, u.From)
			}
			return ErrNotFound
		}

		if u.Append == nil {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO contact_messages (contact_id, provider_message_id, template_code, sent_at)
			VALUES (?, ?, ?, ?)`,
			id, u.Append.ProviderMessageID, string(u.Append.TemplateCode), formatTime(u.Append.SentAt))
		return err
	})
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrStale) {
		return err
	}
	if err != nil {
		return errors.Join(ErrPersist, err)
	}
	return nil
}

func (s *SQLiteStore) Create(ctx context.Context, c *Contact) error {
	if err := prepare(c, s.now().UTC()); err != nil {
		return err
	}

	tags, err := json.Marshal(c.MergeTags)
	if err != nil {
		return fmt.Errorf("%w: merge tags: %w", ErrInvalidContact, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO contacts (`+contactColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Email, c.FirstName, c.Publication, string(c.State),
		formatTime(c.NextActionAt), string(tags), formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	if err != nil {
		var se *sqlite.Error
		if errors.As(err, &se) && (se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT) {
			return fmt.Errorf("%w: %s", ErrDuplicateEmail, c.Email)
		}
		return errors.Join(ErrPersist, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Contact, error) {
	return s.getOne(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id)
}

func (s *SQLiteStore) FindByEmail(ctx context.Context, email string) (*Contact, error) {
	return s.getOne(ctx, `SELECT `+contactColumns+` FROM contacts WHERE email = ?`, NormalizeEmail(email))
}

func (s *SQLiteStore) getOne(ctx context.Context, query string, arg any) (*Contact, error) {
	c, err := scanSQLiteContact(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT provider_message_id, template_code, sent_at
		FROM contact_messages WHERE contact_id = ? ORDER BY id`, c.ID)
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var m SentMessage
		var code, sentAt string
		if err := rows.Scan(&m.ProviderMessageID, &code, &sentAt); err != nil {
			return nil, errors.Join(ErrQuery, err)
		}
		if m.SentAt, err = parseTime(sentAt); err != nil {
			return nil, errors.Join(ErrQuery, err)
		}
		m.TemplateCode = sequence.TemplateCode(code)
		c.MessagesSent = append(c.MessagesSent, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	return c, nil
}

func (s *SQLiteStore) SetMergeTags(ctx context.Context, id string, tags map[string]string) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRowContext(ctx, `SELECT merge_tags FROM contacts WHERE id = ?`, id).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		merged := map[string]string{}
		if err := json.Unmarshal([]byte(raw), &merged); err != nil {
			return err
		}
		for k, v := range tags {
			merged[k] = v
		}
		out, err := json.Marshal(merged)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `UPDATE contacts SET merge_tags = ?, updated_at = ? WHERE id = ?`,
			string(out), formatTime(s.now()), id)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return err
	}
	if err != nil {
		return errors.Join(ErrPersist, err)
	}
	return nil
}

func (s *SQLiteStore) RecordReply(ctx context.Context, r Reply) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO contact_replies (contact_id, from_address, subject, body, signal, received_at)
		SELECT id, ?, ?, ?, ?, ? FROM contacts WHERE id = ?`,
		r.From, r.Subject, r.Text, string(r.Signal), formatTime(r.ReceivedAt), r.ContactID)
	if err != nil {
		return errors.Join(ErrPersist, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Join(ErrPersist, err)
	} else if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteContact(row rowScanner) (*Contact, error) {
	var (
		c                            Contact
		state, tags                  string
		nextAction, created, updated string
	)
	if err := row.Scan(&c.ID, &c.Email, &c.FirstName, &c.Publication, &state,
		&nextAction, &tags, &created, &updated); err != nil {
		return nil, err
	}

	st, err := sequence.ParseState(state)
	if err != nil {
		return nil, err
	}
	c.State = st

	if c.NextActionAt, err = parseTime(nextAction); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}

	c.MergeTags = map[string]string{}
	if err := json.Unmarshal([]byte(tags), &c.MergeTags); err != nil {
		return nil, fmt.Errorf("merge tags: %w", err)
	}
	return &c, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTime)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(sqliteTime, s)
}
