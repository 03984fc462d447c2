package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrymomot/outreach/pkg/logger"
)

// Migrate applies every pending goose migration found at the root of migrations.
// Goose keeps package-level state, so run it from one goroutine at startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool, migrations fs.FS, migrationTable string, log *slog.Logger) error {
	if log == nil {
		log = logger.NewNope()
	}

	// Shares the pool's connections; closing it would close the pool.
	db := stdlib.OpenDBFromPool(pool)

	goose.SetBaseFS(migrations)
	goose.SetLogger(&gooseLoggerAdapter{log})
	goose.SetTableName(migrationTable)

	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrSetDialect, err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return errors.Join(ErrApplyMigrations, err)
	}

	return nil
}

// gooseLoggerAdapter routes goose output to slog. Fatalf must not exit:
// goose also returns the error to Migrate.
type gooseLoggerAdapter struct {
	log *slog.Logger
}

func (g *gooseLoggerAdapter) Printf(format string, args ...any) {
	g.log.Info(strings.TrimSpace(fmt.Sprintf(format, args...)), slog.String("component", "migrate"))
}

func (g *gooseLoggerAdapter) Fatalf(format string, args ...any) {
	g.log.Error(strings.TrimSpace(fmt.Sprintf(format, args...)), slog.String("component", "migrate"))
}
