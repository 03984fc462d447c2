// Package contact stores outreach contacts and their delivery history.
//
// Three [Store] implementations share one contract:
//
//   - [PostgresStore] for production, migrated with db.Migrate and [migrations.Postgres]
//   - [SQLiteStore] for single-node runs and tests, migrated on open
//   - [MemoryStore] for tests and dry runs
//
// A contact in a terminal state (REPLIED, STOPPED) is never returned by
// Due, whatever its NextActionAt. Apply writes the new state, the next
// action time and at most one appended [SentMessage] in one transaction;
// delivery history is never rewritten.
//
// Emails are stored lower-cased and trimmed, so FindByEmail is
// case-insensitive.
package contact
