// Package storage opens the local SQLite database, applies migrations and
// bundles the per-entity repositories.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/nexuzy/artsync/internal/client/migrations"
	"github.com/nexuzy/artsync/internal/client/repositories/articles"
	"github.com/nexuzy/artsync/internal/client/repositories/users"
)

type Repositories struct {
	Articles articles.Repository
	Users    users.Repository
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the local database at dsn, applies
// migrations, and returns the handle plus repositories bound to it.
func Open(ctx context.Context, dsn string) (*sql.DB, *Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("opening local db: %w", err)
	}

	// The sync pass and user actions share this handle; a single connection
	// avoids SQLITE_BUSY between the writers.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrating local db: %w", err)
	}

	repos := &Repositories{
		Articles: articles.NewSQLiteRepository(db),
		Users:    users.NewSQLiteRepository(db),
	}
	return db, repos, nil
}
