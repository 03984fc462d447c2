// Package db opens the PostgreSQL pool shared by the contact store and the
// River job queue, and applies goose migrations to it.
//
//	pool, err := db.Connect(ctx, cfg.Database)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	err = db.Migrate(ctx, pool, migrations.Postgres(), cfg.Database.MigrationsTable, log)
//
// Connect retries with a linearly growing pause and pings before returning.
// Settings come from DATABASE_* variables; see [Config].
//
// [WithTx] commits when fn returns nil and rolls back on error or panic.
// [Healthcheck] and [Shutdown] plug into the server's readiness checks and
// shutdown hooks.
//
// Errors are sentinels joined with the driver error, so callers match
// them with [errors.Is].
package db
