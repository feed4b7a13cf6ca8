// Package cache keeps every cached copy of a feed entry consistent across the
// paginated collections that hold it.
package cache

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/vanchuong201/joywork-web-sub000/internal/client/models"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/notify"
	"github.com/vanchuong201/joywork-web-sub000/internal/logging"
)

const DefaultPageSize = 10

// PageSource loads one page of a collection.
type PageSource interface {
	FetchPage(ctx context.Context, key models.CollectionKey, page, pageSize int) (models.Page, error)
}

type Options struct {
	PageSize int
	// Kinds are registered as entry-bearing right away.
	Kinds    []models.CollectionKind
	Notifier notify.Notifier
	Logger   logging.Logger
}

// Store is the registry of open collections plus a single-entry cache for
// detail views. All collections of a store share its mutex, so a patch is
// applied to every copy before any reader can observe the change.
type Store struct {
	source   PageSource
	pageSize int
	notifier notify.Notifier
	logger   logging.Logger

	mu          sync.Mutex
	kinds       map[models.CollectionKind]struct{}
	collections map[models.CollectionKey]*Collection
	entries     map[string]models.FeedEntry
	closed      bool
}

func NewStore(source PageSource, opts Options) *Store {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	s := &Store{
		source:      source,
		pageSize:    opts.PageSize,
		notifier:    opts.Notifier,
		logger:      opts.Logger.With("component", "feed_cache"),
		kinds:       make(map[models.CollectionKind]struct{}),
		collections: make(map[models.CollectionKey]*Collection),
		entries:     make(map[string]models.FeedEntry),
	}
	s.RegisterKind(opts.Kinds...)
	return s
}

// RegisterKind marks kinds whose collections may contain feed entries. Only
// registered kinds are patched.
func (s *Store) RegisterKind(kinds ...models.CollectionKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range kinds {
		s.kinds[k] = struct{}{}
	}
}

// Open creates the collection for key, starting from seed.
func (s *Store) Open(key models.CollectionKey, seed []models.FeedEntry) (*Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	if _, ok := s.collections[key]; ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionExists, key)
	}
	c := newCollection(s, key, seed)
	s.collections[key] = c
	return c, nil
}

// Lookup returns the open collection for key.
func (s *Store) Lookup(key models.CollectionKey) (*Collection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[key]
	return c, ok
}

// Keys lists open collections in a stable order.
func (s *Store) Keys() []models.CollectionKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]models.CollectionKey, 0, len(s.collections))
	for k := range s.collections {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b models.CollectionKey) int {
		if c := cmp.Compare(a.Kind, b.Kind); c != 0 {
			return c
		}
		return cmp.Compare(a.Identity, b.Identity)
	})
	return keys
}

// PutEntry stores a detail-view copy of an entry.
func (s *Store) PutEntry(e models.FeedEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.ID] = e
}

func (s *Store) Entry(id string) (models.FeedEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	return e, ok
}

func (s *Store) DropEntry(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// Find returns the current cached value of an entry from the single-entry
// cache or any registered collection.
func (s *Store) Find(id string) (models.FeedEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		return e, true
	}
	for key, c := range s.collections {
		if !s.registered(key.Kind) {
			continue
		}
		if e, ok := c.find(id); ok {
			return e, true
		}
	}
	return models.FeedEntry{}, false
}

// Patch applies p to every cached copy of entityID and returns how many
// copies changed. It never fetches.
func (s *Store) Patch(entityID string, p Projector) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	if e, ok := s.entries[entityID]; ok {
		s.entries[entityID] = p(e)
		n++
	}
	for key, c := range s.collections {
		if !s.registered(key.Kind) {
			continue
		}
		n += c.patch(entityID, p)
	}
	return n
}

// Invalidate discards the fetched pages of every open collection of kind and
// refetches page 1 for each. Seeds are kept.
func (s *Store) Invalidate(kind models.CollectionKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key, c := range s.collections {
		if key.Kind != kind {
			continue
		}
		c.resetLocked()
		c.startFetchLocked()
		n++
	}
	if n > 0 {
		s.logger.Debug(context.Background(), "collections invalidated", "kind", kind, "count", n)
	}
	return n
}

// Close closes every collection. Later Opens fail with ErrStoreClosed.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	open := make([]*Collection, 0, len(s.collections))
	for _, c := range s.collections {
		open = append(open, c)
	}
	s.mu.Unlock()

	for _, c := range open {
		c.Close()
	}
}

// registered reports whether kind may hold entries. Caller holds s.mu.
func (s *Store) registered(kind models.CollectionKind) bool {
	_, ok := s.kinds[kind]
	return ok
}
