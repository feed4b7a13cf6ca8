// Package services contains application services for the feed client.
// This file defines the feed service: opening collections seeded from local
// snapshots, switching collection identity and persisting what was shown.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vanchuong201/joywork-web-sub000/internal/client/cache"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/models"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/repositories/metadata"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/repositories/snapshots"
	"github.com/vanchuong201/joywork-web-sub000/internal/logging"
)

const DefaultSnapshotTTL = 7 * 24 * time.Hour

// FeedService defines collection lifecycle operations for the CLI.
//
// Contract:
//   - Open: open a collection seeded with its last snapshot, if fresh.
//   - SwitchIdentity: persist the current identity, then point the collection
//     at another one, seeded from that identity's snapshot.
//   - Persist: save the merged sequence of an open collection.
//   - LastCollection: the collection opened most recently.
//   - Close: persist every open collection and close the cache.
type FeedService interface {
	Open(ctx context.Context, key models.CollectionKey) (*cache.Collection, error)
	SwitchIdentity(ctx context.Context, c *cache.Collection, identity string) error
	Persist(ctx context.Context, key models.CollectionKey) error
	LastCollection(ctx context.Context) (models.CollectionKey, bool, error)
	Close(ctx context.Context) error
}

type FeedOptions struct {
	SnapshotTTL time.Duration
	Logger      logging.Logger
	Now         func() time.Time
}

type feedService struct {
	store     *cache.Store
	snapshots snapshots.Repository
	meta      metadata.Repository
	ttl       time.Duration
	logger    logging.Logger
	now       func() time.Time
}

func NewFeedService(store *cache.Store, snaps snapshots.Repository, meta metadata.Repository, opts FeedOptions) FeedService {
	if opts.SnapshotTTL <= 0 {
		opts.SnapshotTTL = DefaultSnapshotTTL
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &feedService{
		store:     store,
		snapshots: snaps,
		meta:      meta,
		ttl:       opts.SnapshotTTL,
		logger:    opts.Logger.With("component", "feed_service"),
		now:       opts.Now,
	}
}

// seed returns the snapshot entries of key, or nil when there is none or it
// is too old. Stale snapshots are deleted.
func (s *feedService) seed(ctx context.Context, key models.CollectionKey) ([]models.FeedEntry, error) {
	snap, err := s.snapshots.Load(ctx, key)
	if errors.Is(err, snapshots.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if s.now().Sub(snap.SavedAt) > s.ttl {
		s.logger.Debug(ctx, "discarding stale snapshot", "collection", key.String(), "saved_at", snap.SavedAt)
		if err := s.snapshots.Delete(ctx, key); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return snap.Entries, nil
}

func (s *feedService) Open(ctx context.Context, key models.CollectionKey) (*cache.Collection, error) {
	seed, err := s.seed(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	c, err := s.store.Open(key, seed)
	if err != nil {
		return nil, err
	}
	if err := s.remember(ctx, key); err != nil {
		s.logger.Warn(ctx, "failed to remember collection", "collection", key.String(), "error", err)
	}
	s.logger.Info(ctx, "collection opened", "collection", key.String(), "seed", len(seed))
	return c, nil
}

func (s *feedService) remember(ctx context.Context, key models.CollectionKey) error {
	if err := s.meta.Set(ctx, metadata.KeyLastCollection, key.String()); err != nil {
		return err
	}
	if key.Identity != "" {
		return s.meta.Set(ctx, metadata.IdentityKey(string(key.Kind)), key.Identity)
	}
	return nil
}

func (s *feedService) SwitchIdentity(ctx context.Context, c *cache.Collection, identity string) error {
	old := c.Key()
	if old.Identity == identity {
		return nil
	}
	if err := s.persist(ctx, old, c.Merged()); err != nil {
		s.logger.Warn(ctx, "failed to persist before switch", "collection", old.String(), "error", err)
	}

	next := models.CollectionKey{Kind: old.Kind, Identity: identity}
	seed, err := s.seed(ctx, next)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if err := c.SetIdentity(identity, seed); err != nil {
		return err
	}
	if err := s.remember(ctx, next); err != nil {
		s.logger.Warn(ctx, "failed to remember collection", "collection", next.String(), "error", err)
	}
	return nil
}

func (s *feedService) Persist(ctx context.Context, key models.CollectionKey) error {
	c, ok := s.store.Lookup(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrCollectionNotOpen, key)
	}
	return s.persist(ctx, key, c.Merged())
}

func (s *feedService) persist(ctx context.Context, key models.CollectionKey, entries []models.FeedEntry) error {
	if err := s.snapshots.Save(ctx, key, entries, s.now()); err != nil {
		return err
	}
	s.logger.Debug(ctx, "snapshot saved", "collection", key.String(), "entries", len(entries))
	return nil
}

func (s *feedService) LastCollection(ctx context.Context) (models.CollectionKey, bool, error) {
	raw, ok, err := s.meta.Get(ctx, metadata.KeyLastCollection)
	if err != nil || !ok {
		return models.CollectionKey{}, false, err
	}
	key, err := models.ParseCollectionKey(raw)
	if err != nil {
		return models.CollectionKey{}, false, err
	}
	return key, true, nil
}

func (s *feedService) Close(ctx context.Context) error {
	var errs []error
	for _, key := range s.store.Keys() {
		if err := s.Persist(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("persist %s: %w", key, err))
		}
	}
	s.store.Close()
	return errors.Join(errs...)
}
