package snapshots

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vanchuong201/joywork-web-sub000/internal/client/models"
	"github.com/vanchuong201/joywork-web-sub000/internal/dbx"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Save(ctx context.Context, key models.CollectionKey, entries []models.FeedEntry, savedAt time.Time) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := deleteSnapshot(ctx, tx, key.String()); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO snapshots (collection, saved_at) VALUES (?, ?)`,
			key.String(), savedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("failed to insert snapshot %s: %w", key, err)
		}

		for i, e := range entries {
			payload, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("failed to encode entry %s: %w", e.ID, err)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO snapshot_entries (collection, position, entry_id, payload) VALUES (?, ?, ?, ?)`,
				key.String(), i, e.ID, payload)
			if err != nil {
				return fmt.Errorf("failed to insert snapshot entry %s: %w", e.ID, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) Load(ctx context.Context, key models.CollectionKey) (Snapshot, error) {
	var savedAt int64
	err := r.db.QueryRowContext(ctx,
		`SELECT saved_at FROM snapshots WHERE collection = ?`, key.String()).Scan(&savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load snapshot %s: %w", key, err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT payload FROM snapshot_entries WHERE collection = ? ORDER BY position`, key.String())
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to select snapshot entries: %w", err)
	}
	defer rows.Close()

	snap := Snapshot{Key: key, SavedAt: time.UnixMilli(savedAt).UTC()}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return Snapshot{}, fmt.Errorf("failed to scan snapshot entry: %w", err)
		}
		var e models.FeedEntry
		if err := json.Unmarshal(payload, &e); err != nil {
			return Snapshot{}, fmt.Errorf("failed to decode snapshot entry: %w", err)
		}
		snap.Entries = append(snap.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key models.CollectionKey) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return deleteSnapshot(ctx, tx, key.String())
	})
}

func deleteSnapshot(ctx context.Context, tx dbx.DBTX, collection string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_entries WHERE collection = ?`, collection); err != nil {
		return fmt.Errorf("failed to delete snapshot entries of %s: %w", collection, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE collection = ?`, collection); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", collection, err)
	}
	return nil
}

func (r *SQLiteRepository) Keys(ctx context.Context) ([]models.CollectionKey, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT collection FROM snapshots ORDER BY collection`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var keys []models.CollectionKey
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		key, err := models.ParseCollectionKey(raw)
		if err != nil {
			return nil, fmt.Errorf("stored snapshot key %q: %w", raw, err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *SQLiteRepository) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	var n int
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		ms := cutoff.UnixMilli()
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM snapshot_entries
			WHERE collection IN (SELECT collection FROM snapshots WHERE saved_at < ?)`, ms); err != nil {
			return fmt.Errorf("failed to prune snapshot entries: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM snapshots WHERE saved_at < ?`, ms)
		if err != nil {
			return fmt.Errorf("failed to prune snapshots: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		n = int(affected)
		return nil
	})
	return n, err
}
