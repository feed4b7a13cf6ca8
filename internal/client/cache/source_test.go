package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/vanchuong201/joywork-web-sub000/internal/client/models"
)

type fakeSource struct {
	mu    sync.Mutex
	pages map[string][]models.Page
	errs  map[string]error
	calls []string
	// gate, when set, holds every fetch until closed.
	gate chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{pages: map[string][]models.Page{}, errs: map[string]error{}}
}

func (f *fakeSource) set(key models.CollectionKey, pages ...[]models.FeedEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Page, len(pages))
	for i, entries := range pages {
		out[i] = models.Page{Entries: entries, CurrentPage: i + 1, TotalPages: len(pages)}
	}
	f.pages[key.String()] = out
}

func (f *fakeSource) failOn(key models.CollectionKey, page int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, callID(key, page))
		return
	}
	f.errs[callID(key, page)] = err
}

func (f *fakeSource) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func callID(key models.CollectionKey, page int) string {
	return fmt.Sprintf("%s#%d", key, page)
}

func (f *fakeSource) FetchPage(ctx context.Context, key models.CollectionKey, page, _ int) (models.Page, error) {
	f.mu.Lock()
	f.calls = append(f.calls, callID(key, page))
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return models.Page{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[callID(key, page)]; err != nil {
		return models.Page{}, err
	}
	pages := f.pages[key.String()]
	if page < 1 || page > len(pages) {
		return models.Page{CurrentPage: page, TotalPages: len(pages)}, nil
	}
	return pages[page-1], nil
}

func entry(id, content string) models.FeedEntry {
	return models.FeedEntry{ID: id, AuthorID: "u1", Content: content}
}

func ids(entries []models.FeedEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

// stubbornSource ignores cancellation and holds every fetch until release
// is closed. It records how many fetches overlapped.
type stubbornSource struct {
	*fakeSource
	release chan struct{}

	mu      sync.Mutex
	active  int
	maxSeen int
}

func newStubbornSource() *stubbornSource {
	return &stubbornSource{fakeSource: newFakeSource(), release: make(chan struct{})}
}

func (s *stubbornSource) FetchPage(ctx context.Context, key models.CollectionKey, page, size int) (models.Page, error) {
	s.mu.Lock()
	s.active++
	s.maxSeen = max(s.maxSeen, s.active)
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.active--
		s.mu.Unlock()
	}()

	<-s.release
	return s.fakeSource.FetchPage(context.WithoutCancel(ctx), key, page, size)
}

func (s *stubbornSource) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *stubbornSource) MaxConcurrent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxSeen
}
