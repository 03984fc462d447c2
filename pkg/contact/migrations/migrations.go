// Package migrations embeds the contact schema for each supported database.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Postgres returns the PostgreSQL migrations rooted at the migration files.
func Postgres() fs.FS { return sub("postgres") }

// SQLite returns the SQLite migrations rooted at the migration files.
func SQLite() fs.FS { return sub("sqlite") }

func sub(dir string) fs.FS {
	f, err := fs.Sub(files, dir)
	if err != nil {
		panic(err) // dir is a compile-time constant
	}
	return f
}
