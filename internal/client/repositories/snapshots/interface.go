package snapshots

import (
	"context"
	"errors"
	"time"

	"github.com/vanchuong201/joywork-web-sub000/internal/client/models"
)

var ErrNotFound = errors.New("snapshot not found")

// Snapshot is the merged sequence of a collection as last shown.
type Snapshot struct {
	Key     models.CollectionKey
	SavedAt time.Time
	Entries []models.FeedEntry
}

// Repository persists collection snapshots so a collection can be reopened
// with seed entries before the network answers.
type Repository interface {
	// Save replaces the snapshot for key.
	Save(ctx context.Context, key models.CollectionKey, entries []models.FeedEntry, savedAt time.Time) error
	// Load returns ErrNotFound when no snapshot exists.
	Load(ctx context.Context, key models.CollectionKey) (Snapshot, error)
	Delete(ctx context.Context, key models.CollectionKey) error
	Keys(ctx context.Context) ([]models.CollectionKey, error)
	// Prune deletes snapshots saved before cutoff and returns how many.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}
