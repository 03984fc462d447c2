package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/outreach/pkg/db"
	"github.com/dmitrymomot/outreach/pkg/job"
	"github.com/dmitrymomot/outreach/pkg/logger"
	"github.com/dmitrymomot/outreach/pkg/mailer"
	"github.com/dmitrymomot/outreach/pkg/mailer/resend"
	"github.com/dmitrymomot/outreach/pkg/mailer/smtp"
	"github.com/dmitrymomot/outreach/pkg/redis"
	"github.com/dmitrymomot/outreach/pkg/scheduler"
	"github.com/dmitrymomot/outreach/pkg/sequence"
	"github.com/dmitrymomot/outreach/pkg/summarize"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"

	MailResend = "resend"
	MailSMTP   = "smtp"

	FollowUpsDirect = "direct"
	FollowUpsQueued = "queued"
)

// fastTestDwell is the dwell of every timed state when FAST_TEST is set.
const fastTestDwell = 3600 * time.Millisecond

// Config is the whole process configuration, read from the environment.
type Config struct {
	HTTP      HTTPConfig
	Log       logger.Config
	Database  db.Config
	Store     StoreConfig
	Mail      MailConfig
	Sequence  SequenceConfig
	Scheduler SchedulerConfig
	Webhook   WebhookConfig
	Redis     redis.Config
	AI        summarize.Config
}

type HTTPConfig struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

type StoreConfig struct {
	Driver     string `env:"STORE_DRIVER" envDefault:"postgres"` // postgres or sqlite
	SQLitePath string `env:"SQLITE_PATH" envDefault:"outreach.db"`
}

type MailConfig struct {
	Provider string `env:"MAIL_PROVIDER" envDefault:"resend"` // resend or smtp
	// Directory with <code>.md templates. Empty uses the embedded set.
	TemplatesDir string `env:"MAIL_TEMPLATES_DIR"`
	Mailer       mailer.Config
	Resend       resend.Config
	SMTP         smtp.Config
}

// SequenceConfig overrides the dwell times of the timed states.
// Zero keeps the built-in value.
type SequenceConfig struct {
	E1Sent  time.Duration `env:"SEQUENCE_DWELL_E1_SENT"`
	R1CSent time.Duration `env:"SEQUENCE_DWELL_R1C_SENT"`
	R2CSent time.Duration `env:"SEQUENCE_DWELL_R2C_SENT"`
	// FastTest shortens every unset dwell to a few seconds for manual runs.
	FastTest bool `env:"FAST_TEST"`
}

type SchedulerConfig struct {
	BatchSize   int           `env:"SCHEDULER_BATCH_SIZE" envDefault:"50"`
	Cron        string        `env:"SCHEDULER_CRON" envDefault:"*/15 * * * *"`
	Concurrency int           `env:"SCHEDULER_CONCURRENCY" envDefault:"1"`
	ClaimTTL    time.Duration `env:"SCHEDULER_CLAIM_TTL" envDefault:"5m"`
	// Defaults used when a contact has no value for a merge key.
	DefaultFirstName   string `env:"SCHEDULER_DEFAULT_FIRST_NAME" envDefault:"there"`
	DefaultPublication string `env:"SCHEDULER_DEFAULT_PUBLICATION" envDefault:"your site"`
	Workers            int    `env:"JOB_WORKERS" envDefault:"10"`
}

type WebhookConfig struct {
	Secret    string `env:"WEBHOOK_SECRET"`
	FollowUps string `env:"WEBHOOK_FOLLOW_UPS" envDefault:"queued"` // direct or queued
}

// Load reads .env files when present, then the environment.
// Variables already set in the environment win over the files.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", f, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that cannot be expressed with env tags.
// Mail credentials are checked separately by ValidateMail.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Driver {
	case StorePostgres:
		if c.Database.ConnectionString == "" {
			errs = append(errs, errors.New("DATABASE_CONN_URL is required for the postgres store"))
		}
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite store"))
		}
		if c.Webhook.FollowUps == FollowUpsQueued && c.Database.ConnectionString == "" {
			errs = append(errs, errors.New("queued follow-ups need DATABASE_CONN_URL for the job queue"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}

	switch c.Mail.Provider {
	case MailResend, MailSMTP:
	default:
		errs = append(errs, fmt.Errorf("unknown MAIL_PROVIDER %q", c.Mail.Provider))
	}

	switch c.Webhook.FollowUps {
	case FollowUpsDirect, FollowUpsQueued:
	default:
		errs = append(errs, fmt.Errorf("unknown WEBHOOK_FOLLOW_UPS %q", c.Webhook.FollowUps))
	}

	if err := job.ValidateSchedule(c.Scheduler.Cron); err != nil {
		errs = append(errs, fmt.Errorf("SCHEDULER_CRON: %w", err))
	}
	if _, err := sequence.New(c.Sequence.Options()...); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}

// ValidateMail checks the credentials of the selected mail provider.
// Only commands that send mail need them.
func (c *Config) ValidateMail() error {
	switch c.Mail.Provider {
	case MailResend:
		if c.Mail.Resend.APIKey == "" {
			return fmt.Errorf("%w: RESEND_API_KEY is required for the resend provider", ErrInvalidConfig)
		}
	case MailSMTP:
		if c.Mail.SMTP.Host == "" {
			return fmt.Errorf("%w: SMTP_HOST is required for the smtp provider", ErrInvalidConfig)
		}
	}
	return nil
}

// Options turns the overrides into sequence machine options.
func (s SequenceConfig) Options() []sequence.Option {
	overrides := map[sequence.State]time.Duration{}
	set := func(state sequence.State, d time.Duration) {
		switch {
		case d != 0:
			overrides[state] = d
		case s.FastTest:
			overrides[state] = fastTestDwell
		}
	}
	set(sequence.StateE1Sent, s.E1Sent)
	set(sequence.StateR1CSent, s.R1CSent)
	set(sequence.StateR2CSent, s.R2CSent)

	if len(overrides) == 0 {
		return nil
	}
	return []sequence.Option{sequence.WithDwells(overrides)}
}

// MergeDefaults returns the scheduler's merge fallbacks.
func (s SchedulerConfig) MergeDefaults() map[string]string {
	return map[string]string{
		"first_name":  s.DefaultFirstName,
		"publication": s.DefaultPublication,
	}
}

// SchedulerOptions returns the scheduler options derived from the config.
func (c *Config) SchedulerOptions() []scheduler.Option {
	return []scheduler.Option{
		scheduler.WithConcurrency(c.Scheduler.Concurrency),
		scheduler.WithDefaults(c.Scheduler.MergeDefaults()),
		scheduler.WithReplyTo(c.Mail.Mailer.ReplyTo),
	}
}

// TemplatesFS returns the template directory when configured.
func (m MailConfig) TemplatesFS(embedded fs.FS) fs.FS {
	if m.TemplatesDir == "" {
		return embedded
	}
	return os.DirFS(m.TemplatesDir)
}
