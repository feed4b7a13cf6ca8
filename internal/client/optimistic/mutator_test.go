package optimistic

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanchuong201/joywork-web-sub000/internal/client/cache"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/models"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/notify"
	"github.com/vanchuong201/joywork-web-sub000/internal/logging"
)

type call struct {
	entryID string
	kind    models.Interaction
	value   string
}

type fakeSender struct {
	mu    sync.Mutex
	calls []call
	err   error
	gate  chan struct{}
}

func (f *fakeSender) SendInteraction(ctx context.Context, entryID string, kind models.Interaction, value string) error {
	f.mu.Lock()
	f.calls = append(f.calls, call{entryID, kind, value})
	gate, err := f.gate, f.err
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeSender) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

type pageSource struct {
	mu    sync.Mutex
	pages map[models.CollectionKey]models.Page
}

func (p *pageSource) FetchPage(_ context.Context, key models.CollectionKey, page, _ int) (models.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pg, ok := p.pages[key]; ok {
		return pg, nil
	}
	return models.Page{CurrentPage: page, TotalPages: page}, nil
}

var keys = []models.CollectionKey{
	{Kind: models.KindFeed},
	{Kind: models.KindCompany, Identity: "c1"},
	{Kind: models.KindTag, Identity: "golang"},
	{Kind: models.KindAuthor, Identity: "u1"},
}

type fixture struct {
	store    *cache.Store
	source   *pageSource
	sender   *fakeSender
	mutator  *Mutator
	notices  *notify.Recorder
	colls    []*cache.Collection
	original models.FeedEntry
}

func newFixture(t *testing.T, sender *fakeSender) *fixture {
	t.Helper()
	f := &fixture{
		source:  &pageSource{pages: map[models.CollectionKey]models.Page{}},
		sender:  sender,
		notices: &notify.Recorder{},
		original: models.FeedEntry{
			ID:           "p1",
			AuthorID:     "u1",
			CompanyID:    "c1",
			Content:      "We are hiring",
			LikeCount:    5,
			Reactions:    models.ReactionCounts{Love: 3, Insightful: 1},
			UserReaction: models.ReactionLove,
		},
	}
	f.store = cache.NewStore(f.source, cache.Options{
		Kinds: []models.CollectionKind{
			models.KindFeed, models.KindCompany, models.KindTag, models.KindAuthor, models.KindSaved,
		},
		Logger: logging.Discard(),
	})
	t.Cleanup(f.store.Close)

	for _, k := range keys {
		c, err := f.store.Open(k, []models.FeedEntry{{ID: "other"}, f.original})
		require.NoError(t, err)
		f.colls = append(f.colls, c)
	}
	f.store.PutEntry(f.original)

	f.mutator = NewMutator(sender, f.store, Options{Notifier: f.notices, Logger: logging.Discard()})
	t.Cleanup(f.mutator.Close)
	return f
}

// copies returns every cached copy of p1.
func (f *fixture) copies(t *testing.T) []models.FeedEntry {
	t.Helper()
	var out []models.FeedEntry
	for _, c := range f.colls {
		for _, e := range c.Merged() {
			if e.ID == "p1" {
				out = append(out, e)
			}
		}
	}
	detail, ok := f.store.Entry("p1")
	require.True(t, ok)
	out = append(out, detail)
	require.Len(t, out, len(keys)+1)
	return out
}

func (f *fixture) settle(t *testing.T, kind models.Interaction) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, f.mutator.Wait(ctx, "p1", kind))
}

func TestToggleSave_SuccessEverywhere(t *testing.T) {
	sender := &fakeSender{gate: make(chan struct{})}
	f := newFixture(t, sender)

	saved, err := f.store.Open(models.CollectionKey{Kind: models.KindSaved}, nil)
	require.NoError(t, err)
	require.NoError(t, saved.LoadMore(context.Background()))
	assert.Empty(t, saved.Merged())

	require.True(t, f.mutator.ToggleSave(f.original))

	// visible before the server answers
	for _, e := range f.copies(t) {
		assert.True(t, e.IsSaved)
	}

	f.source.mu.Lock()
	confirmed := f.original
	confirmed.IsSaved = true
	f.source.pages[models.CollectionKey{Kind: models.KindSaved}] = models.Page{
		Entries: []models.FeedEntry{confirmed}, CurrentPage: 1, TotalPages: 1,
	}
	f.source.mu.Unlock()

	close(sender.gate)
	f.settle(t, models.InteractionSave)

	for _, e := range f.copies(t) {
		assert.True(t, e.IsSaved)
	}
	assert.Equal(t, []call{{"p1", models.InteractionSave, models.TransitionSave}}, sender.Calls())
	assert.Empty(t, f.notices.Notices())

	// membership of the saved list is refreshed
	require.Eventually(t, func() bool {
		m := saved.Merged()
		return len(m) == 1 && m[0].ID == "p1"
	}, time.Second, 5*time.Millisecond)
}

func TestToggleLike_RollbackOnFailure(t *testing.T) {
	sender := &fakeSender{gate: make(chan struct{}), err: errors.New("network down")}
	f := newFixture(t, sender)

	require.True(t, f.mutator.ToggleLike(f.original))
	for _, e := range f.copies(t) {
		assert.True(t, e.IsLiked)
		assert.Equal(t, 6, e.LikeCount)
	}

	close(sender.gate)
	f.settle(t, models.InteractionLike)

	for _, e := range f.copies(t) {
		assert.Equal(t, f.original, e)
	}
	require.Equal(t, 1, f.notices.Count(string(models.InteractionLike)))
	n := f.notices.Notices()[0]
	assert.Equal(t, "p1", n.Subject)
	assert.EqualError(t, n.Err, "network down")
	assert.Equal(t, []call{{"p1", models.InteractionLike, models.TransitionLike}}, sender.Calls())
}

func TestToggleLike_Unlike(t *testing.T) {
	sender := &fakeSender{}
	f := newFixture(t, sender)

	liked := f.original
	liked.IsLiked = true
	require.True(t, f.mutator.ToggleLike(liked))
	f.settle(t, models.InteractionLike)

	for _, e := range f.copies(t) {
		assert.False(t, e.IsLiked)
		assert.Equal(t, 4, e.LikeCount)
	}
	assert.Equal(t, models.TransitionUnlike, sender.Calls()[0].value)
}

func TestToggle_RejectsWhileUnsettled(t *testing.T) {
	sender := &fakeSender{gate: make(chan struct{})}
	f := newFixture(t, sender)

	require.True(t, f.mutator.ToggleLike(f.original))
	assert.True(t, f.mutator.Pending("p1", models.InteractionLike))

	current, ok := f.store.Find("p1")
	require.True(t, ok)
	assert.False(t, f.mutator.ToggleLike(current), "second like toggle is ignored")
	for _, e := range f.copies(t) {
		assert.True(t, e.IsLiked)
		assert.Equal(t, 6, e.LikeCount)
	}

	// other kinds on the same entry are independent
	assert.True(t, f.mutator.ToggleSave(current))

	close(sender.gate)
	f.settle(t, models.InteractionLike)
	f.settle(t, models.InteractionSave)
	assert.False(t, f.mutator.Pending("p1", models.InteractionLike))
	assert.Len(t, sender.Calls(), 2)

	current, _ = f.store.Find("p1")
	assert.True(t, f.mutator.ToggleLike(current))
	f.settle(t, models.InteractionLike)
	assert.Len(t, sender.Calls(), 3)
}

func TestSelectReaction_MovesBetweenBuckets(t *testing.T) {
	sender := &fakeSender{}
	f := newFixture(t, sender)
	sum := f.original.Reactions.Total()

	require.True(t, f.mutator.SelectReaction(f.original, models.ReactionInsightful))
	for _, e := range f.copies(t) {
		assert.Equal(t, models.ReactionInsightful, e.UserReaction)
		assert.Equal(t, models.ReactionCounts{Love: 2, Insightful: 2}, e.Reactions)
		assert.Equal(t, sum, e.Reactions.Total())
	}
	f.settle(t, models.InteractionReaction)

	current, _ := f.store.Find("p1")
	require.True(t, f.mutator.SelectReaction(current, models.ReactionInsightful))
	f.settle(t, models.InteractionReaction)

	for _, e := range f.copies(t) {
		assert.Equal(t, models.ReactionNone, e.UserReaction)
		assert.Equal(t, models.ReactionCounts{Love: 2, Insightful: 1}, e.Reactions)
	}
	assert.Equal(t, []call{
		{"p1", models.InteractionReaction, "INSIGHTFUL"},
		{"p1", models.InteractionReaction, models.TransitionUnreact},
	}, sender.Calls())
}

func TestSelectReaction_RollbackRestoresBuckets(t *testing.T) {
	sender := &fakeSender{err: errors.New("boom")}
	f := newFixture(t, sender)

	require.True(t, f.mutator.SelectReaction(f.original, models.ReactionCelebrate))
	f.settle(t, models.InteractionReaction)

	for _, e := range f.copies(t) {
		assert.Equal(t, models.ReactionLove, e.UserReaction)
		assert.Equal(t, f.original.Reactions, e.Reactions)
	}
	assert.Equal(t, 1, f.notices.Count(string(models.InteractionReaction)))
}

func TestRollback_KeepsCountsUpdatedMeanwhile(t *testing.T) {
	sender := &fakeSender{gate: make(chan struct{}), err: errors.New("timeout")}
	f := newFixture(t, sender)

	require.True(t, f.mutator.ToggleLike(f.original))
	require.True(t, f.mutator.SelectReaction(f.original, models.ReactionCelebrate))

	// counts pushed by the server while both calls are unsettled; they
	// include the caller's optimistic like and celebrate
	f.store.Patch("p1", cache.ApplyCounts(10, models.ReactionCounts{Love: 7, Insightful: 1, Celebrate: 1}))

	close(sender.gate)
	f.settle(t, models.InteractionLike)
	f.settle(t, models.InteractionReaction)

	for _, e := range f.copies(t) {
		assert.False(t, e.IsLiked)
		assert.Equal(t, 9, e.LikeCount)
		assert.Equal(t, models.ReactionLove, e.UserReaction)
		assert.Equal(t, models.ReactionCounts{Love: 8, Insightful: 1}, e.Reactions)
	}
}

func TestToggle_InvalidIntent(t *testing.T) {
	sender := &fakeSender{}
	f := newFixture(t, sender)

	assert.False(t, f.mutator.SelectReaction(f.original, models.Reaction("ANGRY")))
	assert.False(t, f.mutator.Toggle("p1", f.original, Intent{Kind: "share"}))

	none := f.original
	none.UserReaction = models.ReactionNone
	assert.False(t, f.mutator.SelectReaction(none, models.ReactionNone))

	assert.Empty(t, sender.Calls())
	assert.Equal(t, f.original, f.copies(t)[0])
}

func TestClose_RollsBackWithoutNotice(t *testing.T) {
	sender := &fakeSender{gate: make(chan struct{})}
	f := newFixture(t, sender)

	require.True(t, f.mutator.ToggleLike(f.original))
	f.mutator.Close()

	for _, e := range f.copies(t) {
		assert.Equal(t, f.original, e)
	}
	assert.Empty(t, f.notices.Notices())
	assert.False(t, f.mutator.ToggleSave(f.original))
}

func TestPredict(t *testing.T) {
	base := models.FeedEntry{ID: "p", LikeCount: 0, Reactions: models.ReactionCounts{}}

	p, err := predict(base, Like())
	require.NoError(t, err)
	assert.Equal(t, models.TransitionLike, p.value)
	got := p.apply(base)
	assert.Equal(t, 1, got.LikeCount)
	assert.Equal(t, base, p.rollback(got))

	p, err = predict(base, Save())
	require.NoError(t, err)
	assert.Equal(t, models.TransitionSave, p.value)

	saved := base
	saved.IsSaved = true
	p, err = predict(saved, Save())
	require.NoError(t, err)
	assert.Equal(t, models.TransitionUnsave, p.value)

	p, err = predict(base, React("love"))
	require.NoError(t, err)
	assert.Equal(t, "LOVE", p.value)
	assert.Equal(t, models.ReactionCounts{Love: 1}, p.apply(base).Reactions)

	_, err = predict(base, React(models.ReactionNone))
	require.ErrorIs(t, err, ErrNoChange)
	_, err = predict(base, Intent{Kind: "poke"})
	require.ErrorIs(t, err, ErrUnknownInteraction)
}
