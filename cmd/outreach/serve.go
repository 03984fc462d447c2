package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/outreach/internal/config"
	"github.com/dmitrymomot/outreach/internal/server"
	"github.com/dmitrymomot/outreach/internal/tasks"
	"github.com/dmitrymomot/outreach/pkg/db"
	"github.com/dmitrymomot/outreach/pkg/health"
	"github.com/dmitrymomot/outreach/pkg/inbound"
	"github.com/dmitrymomot/outreach/pkg/job"
	"github.com/dmitrymomot/outreach/pkg/redis"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the inbound webhook and run the periodic pass",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := loadApp(ctx, root)
			if err != nil {
				return err
			}

			if migrate {
				if err := runMigrations(ctx, a); err != nil {
					return errors.Join(err, a.close(ctx))
				}
			}

			sched, err := a.scheduler()
			if err != nil {
				return errors.Join(err, a.close(ctx))
			}
			mail, err := a.mailer()
			if err != nil {
				return errors.Join(err, a.close(ctx))
			}
			direct := inbound.NewDirectFollowUps(a.store, mail)

			checks := health.Checks{}
			srvOpts := []server.Option{
				server.WithAddr(a.cfg.HTTP.Addr),
				server.WithLogger(a.log),
				server.WithShutdownTimeout(a.cfg.HTTP.ShutdownTimeout),
			}

			var followUps inbound.FollowUps = direct
			if a.pool != nil {
				manager, err := job.NewManager(a.pool,
					job.WithLogger(a.log),
					job.WithMaxWorkers(a.cfg.Scheduler.Workers),
					job.WithScheduledTask(tasks.NewRunSequence(sched, a.cfg.Scheduler.Cron, a.cfg.Scheduler.BatchSize, a.log)),
					job.WithTask[tasks.SendReplyTemplatePayload](tasks.NewSendReplyTemplate(direct)),
				)
				if err != nil {
					return errors.Join(err, a.close(ctx))
				}
				if a.cfg.Webhook.FollowUps == config.FollowUpsQueued {
					followUps = tasks.NewQueuedFollowUps(manager)
				}
				checks["postgres"] = db.Healthcheck(a.pool)
				checks["jobs"] = job.Healthcheck(manager)
				srvOpts = append(srvOpts,
					server.WithStartupHook(manager.StartFunc()),
					server.WithShutdownHook(manager.Shutdown()),
				)
			} else {
				a.log.WarnContext(ctx, "no job queue configured; trigger passes with `outreach tick` from cron")
			}
			if a.redis != nil {
				checks["redis"] = redis.Healthcheck(a.redis)
			}

			webhook := inbound.New(a.store, a.machine,
				inbound.WithFollowUps(followUps),
				inbound.WithSecret(a.cfg.Webhook.Secret),
				inbound.WithLogger(a.log),
			)

			srvOpts = append(srvOpts,
				server.WithRoutes(webhook.Routes),
				server.WithHealthChecks(checks),
				server.WithShutdownHook(a.close),
			)

			a.log.InfoContext(ctx, "outreach starting",
				slog.String("store", a.cfg.Store.Driver),
				slog.String("mail", a.cfg.Mail.Provider),
				slog.String("cron", a.cfg.Scheduler.Cron),
			)
			return server.New(srvOpts...).Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}
