package client

import (
	"context"

	"github.com/vanchuong201/joywork-web-sub000/internal/client/models"
)

// Client is the feed API as seen by the sync engine.
type Client interface {
	// SendInteraction records one interaction transition on an entry. value is
	// the transition (like/unlike, save/unsave, a reaction name or none).
	SendInteraction(ctx context.Context, entryID string, kind models.Interaction, value string) error
	FetchPage(ctx context.Context, key models.CollectionKey, page, pageSize int) (models.Page, error)
	Close() error
}
