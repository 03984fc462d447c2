package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/outreach/internal/config"
	"github.com/dmitrymomot/outreach/internal/server"
	"github.com/dmitrymomot/outreach/pkg/contact"
	"github.com/dmitrymomot/outreach/pkg/db"
	"github.com/dmitrymomot/outreach/pkg/lease"
	"github.com/dmitrymomot/outreach/pkg/logger"
	"github.com/dmitrymomot/outreach/pkg/mailer"
	"github.com/dmitrymomot/outreach/pkg/mailer/resend"
	"github.com/dmitrymomot/outreach/pkg/mailer/smtp"
	"github.com/dmitrymomot/outreach/pkg/redis"
	"github.com/dmitrymomot/outreach/pkg/scheduler"
	"github.com/dmitrymomot/outreach/pkg/sequence"
	"github.com/dmitrymomot/outreach/templates"
)

const sentryFlushTimeout = 2 * time.Second

// app holds the collaborators shared by the commands.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	pool     *pgxpool.Pool
	store    contact.Store
	machine  *sequence.Machine
	renderer *mailer.Renderer
	redis    goredis.UniversalClient
	closers  []func(context.Context) error
}

func loadApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.envFiles...)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg: cfg,
		log: logger.New(cfg.Log, logger.RunIDExtractor(), logger.ContactIDExtractor(), server.RequestIDExtractor()),
	}
	a.closers = append(a.closers, logger.Flush(sentryFlushTimeout))

	a.machine, err = sequence.New(cfg.Sequence.Options()...)
	if err != nil {
		return nil, err
	}

	a.renderer = mailer.NewRendererWithConfig(cfg.Mail.TemplatesFS(templates.FS), mailer.RendererConfig{
		Layout:          cfg.Mail.Mailer.DefaultLayout,
		FallbackSubject: cfg.Mail.Mailer.FallbackSubject,
	})

	if cfg.Database.ConnectionString != "" {
		a.pool, err = db.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, errors.Join(err, a.close(ctx))
		}
		a.closers = append(a.closers, db.Shutdown(a.pool))
	}

	switch cfg.Store.Driver {
	case config.StoreSQLite:
		s, err := contact.OpenSQLite(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, errors.Join(err, a.close(ctx))
		}
		a.store = s
		a.closers = append(a.closers, func(context.Context) error { return s.Close() })
	default:
		a.store = contact.NewPostgresStore(a.pool)
	}

	if cfg.Redis.Enabled() {
		a.redis, err = redis.Open(ctx, cfg.Redis)
		if err != nil {
			return nil, errors.Join(err, a.close(ctx))
		}
		a.closers = append(a.closers, redis.Shutdown(a.redis))
	}

	return a, nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *app) sender() (mailer.Sender, error) {
	if err := a.cfg.ValidateMail(); err != nil {
		return nil, err
	}
	if a.cfg.Mail.Provider == config.MailSMTP {
		return smtp.New(a.cfg.Mail.SMTP)
	}
	return resend.New(a.cfg.Mail.Resend), nil
}

func (a *app) mailer() (*mailer.Mailer, error) {
	s, err := a.sender()
	if err != nil {
		return nil, err
	}
	return mailer.New(s, a.renderer, a.cfg.Mail.Mailer), nil
}

func (a *app) scheduler() (*scheduler.Scheduler, error) {
	s, err := a.sender()
	if err != nil {
		return nil, err
	}

	opts := append(a.cfg.SchedulerOptions(), scheduler.WithLogger(a.log))
	if a.redis != nil {
		opts = append(opts, scheduler.WithClaimer(lease.New(a.redis), a.cfg.Scheduler.ClaimTTL))
	}
	return scheduler.New(a.store, a.machine, a.renderer, s, opts...), nil
}
