package cache

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/vanchuong201/joywork-web-sub000/internal/client/models"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/notify"
)

// Collection is one paginated listing: optional seed entries followed by the
// pages fetched so far. Its state is guarded by the owning store's mutex.
type Collection struct {
	store *Store

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	key   models.CollectionKey
	seed  []models.FeedEntry
	pages []models.Page
	// generation changes whenever pages are discarded; fetch results carrying
	// an older generation are dropped.
	generation uint64
	// inflight is closed when the fetch for the current generation finishes;
	// nil when none is running or queued.
	inflight chan struct{}
	// running is closed when the outstanding FetchPage call returns, whatever
	// its generation. At most one call is outstanding per collection.
	running chan struct{}
	// stop cancels the outstanding call.
	stop context.CancelFunc
	// queued means inflight waits for a stale call to return before it starts.
	queued bool
	err    error
	closed bool
}

func newCollection(s *Store, key models.CollectionKey, seed []models.FeedEntry) *Collection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Collection{
		store:  s,
		ctx:    ctx,
		cancel: cancel,
		key:    key,
		seed:   slices.Clone(seed),
	}
}

func (c *Collection) Key() models.CollectionKey {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	return c.key
}

// Merged returns the seed followed by fetched entries in page order, keeping
// only the first occurrence of each id. Callers must not modify Tags of the
// returned entries in place.
func (c *Collection) Merged() []models.FeedEntry {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	return c.mergedLocked()
}

func (c *Collection) mergedLocked() []models.FeedEntry {
	n := len(c.seed)
	for _, p := range c.pages {
		n += len(p.Entries)
	}
	seen := make(map[string]struct{}, n)
	out := make([]models.FeedEntry, 0, n)
	add := func(e models.FeedEntry) {
		if _, dup := seen[e.ID]; dup {
			return
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	for _, e := range c.seed {
		add(e)
	}
	for _, p := range c.pages {
		for _, e := range p.Entries {
			add(e)
		}
	}
	return out
}

// PageCount is the number of pages fetched for the current identity.
func (c *Collection) PageCount() int {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	return len(c.pages)
}

// HasNextPage is true before the first fetch and afterwards follows the
// last fetched page's counters.
func (c *Collection) HasNextPage() bool {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	return c.hasNextLocked()
}

func (c *Collection) hasNextLocked() bool {
	if len(c.pages) == 0 {
		return true
	}
	return c.pages[len(c.pages)-1].HasNext()
}

func (c *Collection) nextPageLocked() int {
	if len(c.pages) == 0 {
		return 1
	}
	return c.pages[len(c.pages)-1].CurrentPage + 1
}

func (c *Collection) IsFetchingNextPage() bool {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	return c.inflight != nil
}

// Err is the error of the most recent fetch, nil once a fetch succeeds.
func (c *Collection) Err() error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	return c.err
}

// NearEnd signals that the reader is close to the end of the list. It starts
// a background fetch of the next page only if there is one and no fetch is
// running, and reports whether it did.
func (c *Collection) NearEnd() bool {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	_, started := c.startFetchLocked()
	return started
}

// LoadMore fetches the next page and waits for it. If a fetch is already
// running it waits for that one instead. It returns ErrSuperseded when the
// collection was reset or switched identity before the page arrived.
func (c *Collection) LoadMore(ctx context.Context) error {
	s := c.store
	s.mu.Lock()
	if c.closed {
		s.mu.Unlock()
		return ErrCollectionClosed
	}
	done := c.inflight
	if done == nil {
		if !c.hasNextLocked() {
			s.mu.Unlock()
			return ErrNoMorePages
		}
		done, _ = c.startFetchLocked()
	}
	gen := c.generation
	s.mu.Unlock()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case c.closed:
		return ErrCollectionClosed
	case gen != c.generation:
		return ErrSuperseded
	default:
		return c.err
	}
}

// SetIdentity points the collection at another identity of the same kind.
// Fetched pages are discarded, results still in flight for the previous
// identity are dropped, and the collection restarts from seed.
func (c *Collection) SetIdentity(identity string, seed []models.FeedEntry) error {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.closed {
		return ErrCollectionClosed
	}

	key := models.CollectionKey{Kind: c.key.Kind, Identity: identity}
	if key != c.key {
		if other, ok := s.collections[key]; ok && other != c {
			return fmt.Errorf("%w: %s", ErrCollectionExists, key)
		}
		delete(s.collections, c.key)
		c.key = key
		s.collections[key] = c
	}
	c.seed = slices.Clone(seed)
	c.resetLocked()
	return nil
}

// Close detaches the collection from its store, cancels a running fetch and
// waits for it to return.
func (c *Collection) Close() {
	s := c.store
	s.mu.Lock()
	if c.closed {
		s.mu.Unlock()
		return
	}
	c.closed = true
	if c.queued {
		close(c.inflight)
		c.queued = false
	}
	c.inflight = nil
	if s.collections[c.key] == c {
		delete(s.collections, c.key)
	}
	s.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

// resetLocked drops fetched pages and cancels the outstanding call, whose
// result will be dropped. A fetch queued behind it stays queued.
func (c *Collection) resetLocked() {
	c.pages = nil
	c.generation++
	if !c.queued {
		c.inflight = nil
	}
	if c.stop != nil {
		c.stop()
	}
	c.err = nil
}

// startFetchLocked reserves the next fetch. When a stale call is still
// outstanding the fetch is queued and launched once that call returns.
func (c *Collection) startFetchLocked() (chan struct{}, bool) {
	if c.closed || c.inflight != nil || !c.hasNextLocked() {
		return nil, false
	}
	done := make(chan struct{})
	c.inflight = done
	if c.running != nil {
		c.queued = true
		return done, true
	}
	c.launchLocked(done)
	return done, true
}

func (c *Collection) launchLocked(done chan struct{}) {
	ctx, stop := context.WithCancel(c.ctx)
	c.running, c.stop = done, stop
	c.wg.Add(1)
	go c.fetch(ctx, c.generation, c.key, c.nextPageLocked(), done)
}

func (c *Collection) fetch(ctx context.Context, gen uint64, key models.CollectionKey, page int, done chan struct{}) {
	defer c.wg.Done()
	defer close(done)

	s := c.store
	p, err := s.source.FetchPage(ctx, key, page, s.pageSize)

	s.mu.Lock()
	c.stop()
	c.running, c.stop = nil, nil
	if c.closed || gen != c.generation {
		if c.queued && !c.closed {
			c.queued = false
			c.launchLocked(c.inflight)
		}
		s.mu.Unlock()
		s.logger.Debug(c.ctx, "dropping stale page", "collection", key.String(), "page", page)
		return
	}
	c.inflight = nil
	if err != nil {
		c.err = err
		s.mu.Unlock()
		s.logger.Warn(c.ctx, "page fetch failed", "collection", key.String(), "page", page, "error", err)
		s.notifier.Notify(notify.Notice{
			Op:      "load_page",
			Subject: key.String(),
			Message: fmt.Sprintf("Could not load more of %s", key),
			Err:     err,
		})
		return
	}
	if p.CurrentPage == 0 {
		p.CurrentPage = page
	}
	p.Entries = slices.Clone(p.Entries)
	c.err = nil
	c.pages = append(c.pages, p)
	s.mu.Unlock()
	s.logger.Debug(c.ctx, "page merged", "collection", key.String(), "page", p.CurrentPage, "entries", len(p.Entries))
}

// patch applies p to every copy of id held here. Caller holds the store lock.
func (c *Collection) patch(id string, p Projector) int {
	n := 0
	for i := range c.seed {
		if c.seed[i].ID == id {
			c.seed[i] = p(c.seed[i])
			n++
		}
	}
	for pi := range c.pages {
		entries := c.pages[pi].Entries
		for i := range entries {
			if entries[i].ID == id {
				entries[i] = p(entries[i])
				n++
			}
		}
	}
	return n
}

func (c *Collection) find(id string) (models.FeedEntry, bool) {
	for _, e := range c.seed {
		if e.ID == id {
			return e, true
		}
	}
	for _, p := range c.pages {
		for _, e := range p.Entries {
			if e.ID == id {
				return e, true
			}
		}
	}
	return models.FeedEntry{}, false
}
