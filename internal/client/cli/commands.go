package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/vanchuong201/joywork-web-sub000/internal/client/cache"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/models"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/upload"
)

var (
	errNoCollection   = errors.New("no collection open (use: open <collection>)")
	errNotSubmittable = errors.New("attachments are still uploading or some failed")
)

func usage(s string) error {
	return fmt.Errorf("usage: %s", s)
}

// Open shows a collection, loading its first page when nothing is cached.
// Without arguments the last collection of the previous session is reopened.
// Opening another identity of the kind currently shown reuses the collection
// and discards what it held.
func (a *App) Open(ctx context.Context, args []string) error {
	if _, err := a.open(ctx, args, true); err != nil {
		return err
	}
	return a.Show(ctx)
}

// open makes the collection named by args current. With reuse set, a
// collection showing another identity of the same kind is switched over
// instead of opening a second one.
func (a *App) open(ctx context.Context, args []string, reuse bool) (*cache.Collection, error) {
	key, err := a.resolveKey(ctx, args)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	cur := a.current
	a.mu.Unlock()

	var c *cache.Collection
	switch existing, ok := a.store.Lookup(key); {
	case ok:
		c = existing
	case reuse && cur != nil && cur.Key().Kind == key.Kind && cur.Key().Identity != "" && key.Identity != "":
		if err := a.feeds.SwitchIdentity(ctx, cur, key.Identity); err != nil {
			return nil, err
		}
		c = cur
	default:
		if c, err = a.feeds.Open(ctx, key); err != nil {
			return nil, err
		}
	}

	a.mu.Lock()
	a.current = c
	a.mu.Unlock()

	if c.PageCount() == 0 {
		err := c.LoadMore(ctx)
		if err != nil && !errors.Is(err, cache.ErrNoMorePages) && !errors.Is(err, cache.ErrSuperseded) {
			return nil, err
		}
	}
	return c, nil
}

func (a *App) resolveKey(ctx context.Context, args []string) (models.CollectionKey, error) {
	if len(args) > 0 {
		return models.ParseCollectionKey(args[0])
	}
	key, ok, err := a.feeds.LastCollection(ctx)
	if err != nil {
		return models.CollectionKey{}, err
	}
	if !ok {
		return models.CollectionKey{Kind: models.KindFeed}, nil
	}
	return key, nil
}

// More loads the next page of the current collection.
func (a *App) More(ctx context.Context) error {
	c, err := a.collection()
	if err != nil {
		return err
	}
	if err := c.LoadMore(ctx); err != nil {
		if errors.Is(err, cache.ErrNoMorePages) {
			a.printf("no more entries\n")
			return nil
		}
		if errors.Is(err, cache.ErrSuperseded) {
			a.printf("list refreshed\n")
			return a.Show(ctx)
		}
		return err
	}
	return a.Show(ctx)
}

// Show prints the merged view of the current collection.
func (a *App) Show(_ context.Context) error {
	c, err := a.collection()
	if err != nil {
		return err
	}
	entries := c.Merged()
	a.printf("%s (%d entries, %d pages)\n", c.Key(), len(entries), c.PageCount())
	renderEntries(a.out, entries)
	if c.HasNextPage() {
		a.printf("... more available\n")
	}
	return nil
}

func (a *App) Like(_ context.Context, args []string) error {
	if len(args) != 1 {
		return usage("like <entry-id>")
	}
	e, err := a.entry(args[0])
	if err != nil {
		return err
	}
	a.reportToggle(e.ID, models.InteractionLike, a.mutator.ToggleLike(e))
	return nil
}

func (a *App) Save(_ context.Context, args []string) error {
	if len(args) != 1 {
		return usage("save <entry-id>")
	}
	e, err := a.entry(args[0])
	if err != nil {
		return err
	}
	a.reportToggle(e.ID, models.InteractionSave, a.mutator.ToggleSave(e))
	return nil
}

// React selects a reaction; selecting the current one again clears it.
func (a *App) React(_ context.Context, args []string) error {
	if len(args) != 2 {
		return usage("react <entry-id> love|insightful|celebrate")
	}
	r, err := models.ParseReaction(args[1])
	if err != nil {
		return err
	}
	if r == models.ReactionNone {
		return usage("react <entry-id> love|insightful|celebrate")
	}
	e, err := a.entry(args[0])
	if err != nil {
		return err
	}
	a.reportToggle(e.ID, models.InteractionReaction, a.mutator.SelectReaction(e, r))
	return nil
}

func (a *App) entry(id string) (models.FeedEntry, error) {
	e, ok := a.store.Find(id)
	if !ok {
		return models.FeedEntry{}, fmt.Errorf("entry %s is not cached", id)
	}
	return e, nil
}

func (a *App) reportToggle(id string, kind models.Interaction, accepted bool) {
	if !accepted {
		a.printf("%s on %s is still settling\n", kind, id)
		return
	}
	if e, ok := a.store.Find(id); ok {
		renderEntries(a.out, []models.FeedEntry{e})
	}
}

// Attach queues local files for upload.
func (a *App) Attach(_ context.Context, args []string) error {
	if len(args) == 0 {
		return usage("attach <path>...")
	}
	files := make([]models.LocalFile, 0, len(args))
	for _, p := range args {
		f, err := models.NewDiskFile(p)
		if err != nil {
			a.printf("skipping %s: %v\n", p, err)
			continue
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return nil
	}

	res := a.queue.Add(files)
	for _, id := range res.Added {
		if u, ok := a.queue.Unit(id); ok {
			a.printf("attached %s as %s\n", u.Name, u.ID)
		}
	}
	return nil
}

// Detach removes one attachment from the composer.
func (a *App) Detach(_ context.Context, args []string) error {
	if len(args) != 1 {
		return usage("detach <attachment-id>")
	}
	if err := a.queue.Remove(args[0]); err != nil {
		return err
	}
	a.printf("detached %s\n", args[0])
	return nil
}

// Attachments lists the composer's attachments with their upload state.
func (a *App) Attachments(_ context.Context) error {
	units := a.queue.Units()
	if len(units) == 0 {
		a.printf("no attachments\n")
		return nil
	}
	renderUnits(a.out, units)
	return nil
}

// Discard empties the composer.
func (a *App) Discard(_ context.Context) error {
	a.queue.Reset()
	a.printf("composer cleared\n")
	return nil
}

// Submit hands the uploaded attachments over and clears the composer. It is
// refused while any attachment is uploading or failed.
func (a *App) Submit(_ context.Context) error {
	if !a.queue.CanSubmit() {
		return errNotSubmittable
	}
	objs := a.queue.Attachments()
	for _, o := range objs {
		a.printf("ready %s %s\n", o.Key, o.URL)
	}
	a.queue.Reset()
	a.printf("%d attachments submitted\n", len(objs))
	return nil
}

// Wait blocks until no upload is in flight.
func (a *App) Wait(_ context.Context) error {
	a.queue.Wait()
	return nil
}

// Status summarizes the session for the prompt.
func (a *App) Status() string {
	s := "-"
	a.mu.Lock()
	if a.current != nil {
		s = a.current.Key().String()
	}
	a.mu.Unlock()

	n := a.queue.Len()
	if n == 0 {
		return s
	}
	pending := 0
	for _, u := range a.queue.Units() {
		if u.State.Status() == upload.StatusUploading {
			pending++
		}
	}
	return fmt.Sprintf("%s | %d files, %d uploading", s, n, pending)
}
