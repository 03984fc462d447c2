package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/outreach/pkg/contact/migrations"
	"github.com/dmitrymomot/outreach/pkg/db"
	"github.com/dmitrymomot/outreach/pkg/job"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the contact and job queue schema",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			ctx := cmd.Context()

			a, err := loadApp(ctx, root)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, a.close(ctx)) }()

			if err := runMigrations(ctx, a); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

// runMigrations applies the Postgres schemas. The SQLite store migrates
// itself when opened.
func runMigrations(ctx context.Context, a *app) error {
	if a.pool == nil {
		a.log.InfoContext(ctx, "no postgres configured; nothing to migrate")
		return nil
	}
	if err := db.Migrate(ctx, a.pool, migrations.Postgres(), a.cfg.Database.MigrationsTable, a.log); err != nil {
		return err
	}
	return job.Migrate(ctx, a.pool, a.log)
}
