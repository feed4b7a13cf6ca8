// Package repositories opens the local cache database and wires the
// repositories that live in it.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/vanchuong201/joywork-web-sub000/internal/client/migrations"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/repositories/metadata"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/repositories/snapshots"
)

type Repositories struct {
	DB        *sql.DB
	Metadata  metadata.Repository
	Snapshots snapshots.Repository
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// InitDatabase opens (creating if needed) the SQLite database at dsn and
// applies pending migrations.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dsn, err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:"
	// databases shared across calls.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Open is InitDatabase plus repository wiring.
func Open(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := InitDatabase(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Repositories{
		DB:        db,
		Metadata:  metadata.NewSQLiteRepository(db),
		Snapshots: snapshots.NewSQLiteRepository(db),
	}, nil
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}
