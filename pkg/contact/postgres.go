package contact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/outreach/pkg/db"
	"github.com/dmitrymomot/outreach/pkg/sequence"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresStore is the production Store backed by PostgreSQL.
// Apply migrations.Postgres() with db.Migrate before use.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresStore wraps an open pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, now: time.Now}
}

const contactColumns = `id, email, first_name, publication, state, next_action_at, merge_tags, created_at, updated_at`

func (s *PostgresStore) Due(ctx context.Context, now time.Time, limit int) ([]Contact, error) {
	return s.list(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE next_action_at <= $1 AND state NOT IN ('REPLIED', 'STOPPED')
		ORDER BY next_action_at, id
		LIMIT $2`, now.UTC(), pgLimit(limit))
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]Contact, error) {
	return s.list(ctx, `
		SELECT `+contactColumns+`
		FROM contacts
		WHERE ($1::text = '' OR state = $1::text)
			AND ($2::text = '' OR coalesce(merge_tags->>$2::text, '') <> '')
			AND ($3::text = '' OR coalesce(merge_tags->>$3::text, '') = '')
		ORDER BY created_at, id
		LIMIT $4`, string(f.State), f.WithTag, f.WithoutTag, pgLimit(f.Limit))
}

// pgLimit maps limit <= 0 to LIMIT NULL, which Postgres treats as no limit.
func pgLimit(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]Contact, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	defer rows.Close()

	var out []Contact
	for rows.Next() {
		c, err := scanPgContact(rows)
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

func (s *PostgresStore) Apply(ctx context.Context, id string, u Update) error {
	if err := validateUpdate(u); err != nil {
		return err
	}

	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE contacts SET state = $2, next_action_at = $3, updated_at = $4
			WHERE id = $1 AND ($5::text = '' OR state = $5::text)`,
			id, string(u.State), u.NextActionAt.UTC(), s.now().UTC(), string(u.From))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM contacts WHERE id = $1)`, id).Scan(&exists); err != nil {
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
		_, err = tx.Exec(ctx, `
			INSERT INTO contact_messages (contact_id, provider_message_id, template_code, sent_at)
			VALUES ($1, $2, $3, $4)`,
			id, u.Append.ProviderMessageID, string(u.Append.TemplateCode), u.Append.SentAt.UTC())
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

func (s *PostgresStore) Create(ctx context.Context, c *Contact) error {
	if err := prepare(c, s.now().UTC()); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO contacts (`+contactColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.Email, c.FirstName, c.Publication, string(c.State),
		c.NextActionAt, c.MergeTags, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateEmail, c.Email)
		}
		return errors.Join(ErrPersist, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Contact, error) {
	return s.getOne(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*Contact, error) {
	return s.getOne(ctx, `SELECT `+contactColumns+` FROM contacts WHERE email = $1`, NormalizeEmail(email))
}

func (s *PostgresStore) getOne(ctx context.Context, query string, arg any) (*Contact, error) {
	c, err := scanPgContact(s.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT provider_message_id, template_code, sent_at
		FROM contact_messages WHERE contact_id = $1 ORDER BY id`, c.ID)
	if err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m    SentMessage
			code string
		)
		if err := rows.Scan(&m.ProviderMessageID, &code, &m.SentAt); err != nil {
			return nil, errors.Join(ErrQuery, err)
		}
		m.TemplateCode = sequence.TemplateCode(code)
		m.SentAt = m.SentAt.UTC()
		c.MessagesSent = append(c.MessagesSent, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQuery, err)
	}
	return c, nil
}

func (s *PostgresStore) SetMergeTags(ctx context.Context, id string, tags map[string]string) error {
	if tags == nil {
		tags = map[string]string{}
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE contacts SET merge_tags = merge_tags || $2::jsonb, updated_at = $3
		WHERE id = $1`, id, tags, s.now().UTC())
	if err != nil {
		return errors.Join(ErrPersist, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) RecordReply(ctx context.Context, r Reply) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO contact_replies (contact_id, from_address, subject, body, signal, received_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ContactID, r.From, r.Subject, r.Text, string(r.Signal), r.ReceivedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return ErrNotFound
		}
		return errors.Join(ErrPersist, err)
	}
	return nil
}

func scanPgContact(row pgx.Row) (*Contact, error) {
	var (
		c     Contact
		state string
	)
	if err := row.Scan(&c.ID, &c.Email, &c.FirstName, &c.Publication, &state,
		&c.NextActionAt, &c.MergeTags, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}

	st, err := sequence.ParseState(state)
	if err != nil {
		return nil, err
	}
	c.State = st
	c.NextActionAt = c.NextActionAt.UTC()
	if c.MergeTags == nil {
		c.MergeTags = map[string]string{}
	}
	return &c, nil
}
