package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanchuong201/joywork-web-sub000/internal/client/models"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/preview"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/repositories"
	"github.com/vanchuong201/joywork-web-sub000/internal/logging"
)

// ---- fakes ----

type fakeAPI struct {
	mu      sync.Mutex
	pages   map[string][]models.FeedEntry
	sent    []string
	sendErr error
	// gate, when set, holds every SendInteraction until closed.
	gate chan struct{}
}

func (f *fakeAPI) SendInteraction(_ context.Context, entryID string, kind models.Interaction, value string) error {
	f.mu.Lock()
	f.sent = append(f.sent, fmt.Sprintf("%s %s %s", entryID, kind, value))
	gate, err := f.gate, f.sendErr
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeAPI) FetchPage(_ context.Context, key models.CollectionKey, page, _ int) (models.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if page != 1 {
		return models.Page{CurrentPage: page, TotalPages: 1}, nil
	}
	entries := append([]models.FeedEntry(nil), f.pages[key.String()]...)
	return models.Page{Entries: entries, CurrentPage: 1, TotalPages: 1}, nil
}

func (f *fakeAPI) Close() error { return nil }

func (f *fakeAPI) Sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type memStorage struct {
	mu      sync.Mutex
	fail    error
	deleted []string
}

func (s *memStorage) Upload(_ context.Context, _ []byte, meta models.ObjectMetadata) (models.RemoteObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return models.RemoteObject{}, s.fail
	}
	return models.RemoteObject{Key: "attachments/" + meta.FileName, URL: "https://cdn.test/" + meta.FileName}, nil
}

func (s *memStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	return nil
}

// ---- helpers ----

func feedEntries() map[string][]models.FeedEntry {
	return map[string][]models.FeedEntry{
		"feed": {
			{ID: "p1", Content: "Welcome to JoyWork", LikeCount: 2},
			{ID: "p2", Content: "Hiring backend engineers", LikeCount: 4, IsLiked: true, Tags: []string{"golang"}},
		},
		"company:acme":   {{ID: "p2", Content: "Hiring backend engineers", LikeCount: 4, IsLiked: true}},
		"company:globex": {{ID: "p9", Content: "Globex news"}},
	}
}

type testApp struct {
	*App
	api     *fakeAPI
	storage *memStorage
	out     *bytes.Buffer
	repos   *repositories.Repositories
}

func newTestApp(t *testing.T, repos *repositories.Repositories) *testApp {
	t.Helper()
	if repos == nil {
		var err error
		repos, err = repositories.Open(context.Background(), ":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = repos.Close() })
	}

	api := &fakeAPI{pages: feedEntries()}
	st := &memStorage{}
	out := &bytes.Buffer{}
	app := New(Deps{
		Out:      out,
		Logger:   logging.Discard(),
		API:      api,
		Storage:  st,
		Previews: preview.NewMemoryRegistry(logging.Discard()),
		Repos:    repos,
	})
	return &testApp{App: app, api: api, storage: st, out: out, repos: repos}
}

func writePNG(t *testing.T, name string, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

// ---- feed ----

func TestApp_OpenShowsFirstPage(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, nil)

	require.NoError(t, a.Open(ctx, nil))

	out := a.out.String()
	assert.Contains(t, out, "feed (2 entries, 1 pages)")
	assert.Contains(t, out, "Welcome to JoyWork")
	assert.Contains(t, out, "#golang")
	assert.Equal(t, "feed", a.Status())
}

func TestApp_MoreReportsEnd(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, nil)
	require.NoError(t, a.Open(ctx, []string{"feed"}))
	a.out.Reset()

	require.NoError(t, a.More(ctx))
	assert.Equal(t, "no more entries\n", a.out.String())
}

func TestApp_CommandsNeedCollection(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, nil)

	assert.ErrorIs(t, a.Show(ctx), errNoCollection)
	assert.ErrorIs(t, a.More(ctx), errNoCollection)
	assert.ErrorContains(t, a.Like(ctx, nil), "usage: like")
	assert.ErrorContains(t, a.Like(ctx, []string{"nope"}), "not cached")
	assert.ErrorContains(t, a.React(ctx, []string{"p1"}), "usage: react")
}

func TestApp_OpenSameKindSwitchesIdentity(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, nil)

	require.NoError(t, a.Open(ctx, []string{"company:acme"}))
	require.NoError(t, a.Open(ctx, []string{"company:globex"}))

	keys := a.store.Keys()
	require.Len(t, keys, 1)
	assert.Equal(t, "company:globex", keys[0].String())

	c, err := a.collection()
	require.NoError(t, err)
	require.Len(t, c.Merged(), 1)
	assert.Equal(t, "p9", c.Merged()[0].ID)
}

func TestApp_LikeUpdatesEveryCopy(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, nil)
	require.NoError(t, a.Open(ctx, []string{"feed"}))
	_, err := a.App.open(ctx, []string{"company:acme"}, false)
	require.NoError(t, err)

	require.NoError(t, a.Like(ctx, []string{"p2"}))
	require.NoError(t, a.mutator.Wait(ctx, "p2", models.InteractionLike))

	assert.Equal(t, []string{"p2 like unlike"}, a.api.Sent())
	for _, key := range a.store.Keys() {
		c, ok := a.store.Lookup(key)
		require.True(t, ok)
		for _, e := range c.Merged() {
			if e.ID == "p2" {
				assert.False(t, e.IsLiked, key.String())
				assert.Equal(t, 3, e.LikeCount, key.String())
			}
		}
	}
}

func TestApp_FailedToggleRollsBackAndNotifies(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, nil)
	a.api.sendErr = errors.New("boom")
	a.api.gate = make(chan struct{})
	require.NoError(t, a.Open(ctx, []string{"feed"}))
	a.out.Reset()

	require.NoError(t, a.React(ctx, []string{"p1", "love"}))
	assert.Contains(t, a.out.String(), "(you: love)")
	require.NoError(t, a.React(ctx, []string{"p1", "insightful"}))
	assert.Contains(t, a.out.String(), "reaction on p1 is still settling")

	close(a.api.gate)
	require.NoError(t, a.mutator.Wait(ctx, "p1", models.InteractionReaction))

	e, ok := a.store.Find("p1")
	require.True(t, ok)
	assert.Equal(t, models.ReactionNone, e.UserReaction)
	assert.Zero(t, e.Reactions.Love)
	assert.Contains(t, a.out.String(), "! reaction: Could not LOVE this post")
}

func TestApp_ClosePersistsLastCollection(t *testing.T) {
	ctx := context.Background()
	first := newTestApp(t, nil)
	require.NoError(t, first.Open(ctx, []string{"company:acme"}))
	require.NoError(t, first.Close(ctx))

	second := newTestApp(t, first.repos)
	t.Cleanup(func() { _ = second.Close(ctx) })
	require.NoError(t, second.Open(ctx, nil))
	assert.Equal(t, "company:acme", second.Status())
}

// ---- composer ----

func TestApp_AttachUploadAndSubmit(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, nil)
	t.Cleanup(func() { _ = a.Close(ctx) })

	require.NoError(t, a.Attach(ctx, []string{writePNG(t, "cover.png", 4, 3)}))
	require.NoError(t, a.Wait(ctx))
	assert.Contains(t, a.out.String(), "attached cover.png as ")

	a.out.Reset()
	require.NoError(t, a.Attachments(ctx))
	assert.Contains(t, a.out.String(), "uploaded 4x3")

	a.out.Reset()
	require.NoError(t, a.Submit(ctx))
	assert.Contains(t, a.out.String(), "ready attachments/cover.png https://cdn.test/cover.png")
	assert.Contains(t, a.out.String(), "1 attachments submitted")
	assert.Zero(t, a.queue.Len())
}

func TestApp_SubmitRefusedAfterFailure(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, nil)
	t.Cleanup(func() { _ = a.Close(ctx) })
	a.storage.fail = errors.New("bucket gone")

	require.NoError(t, a.Attach(ctx, []string{writePNG(t, "a.png", 1, 1)}))
	require.NoError(t, a.Wait(ctx))

	assert.ErrorIs(t, a.Submit(ctx), errNotSubmittable)
	assert.Contains(t, a.out.String(), "! upload:")
	assert.Equal(t, "- | 1 files, 0 uploading", a.Status())

	require.NoError(t, a.Discard(ctx))
	assert.Zero(t, a.queue.Len())
}

func TestApp_AttachRejectsUnsupportedFile(t *testing.T) {
	ctx := context.Background()
	a := newTestApp(t, nil)
	t.Cleanup(func() { _ = a.Close(ctx) })

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o600))

	require.NoError(t, a.Attach(ctx, []string{path, filepath.Join(t.TempDir(), "missing.png")}))
	assert.Contains(t, a.out.String(), "skipping ")
	assert.Contains(t, a.out.String(), "! attach:")
	assert.Zero(t, a.queue.Len())
}

func TestApp_DetachUnknown(t *testing.T) {
	a := newTestApp(t, nil)
	assert.Error(t, a.Detach(context.Background(), []string{"u-404"}))
	assert.ErrorContains(t, a.Detach(context.Background(), nil), "usage: detach")
}
