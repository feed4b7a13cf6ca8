// Package optimistic applies like, save and reaction toggles to the local
// cache before the server confirms them, and rolls them back on failure.
package optimistic

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vanchuong201/joywork-web-sub000/internal/client/cache"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/models"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/notify"
	"github.com/vanchuong201/joywork-web-sub000/internal/logging"
)

const DefaultTimeout = 12 * time.Second

// Sender issues the interaction transition to the server.
type Sender interface {
	SendInteraction(ctx context.Context, entryID string, kind models.Interaction, value string) error
}

// Cache is the part of cache.Store the mutator writes through.
type Cache interface {
	Patch(entityID string, p cache.Projector) int
	Invalidate(kind models.CollectionKind) int
}

type Options struct {
	Timeout time.Duration
	// Dependents lists collection kinds whose membership changes with an
	// interaction and must be refetched after it succeeds.
	Dependents map[models.Interaction][]models.CollectionKind
	Notifier   notify.Notifier
	Logger     logging.Logger
}

// DefaultDependents refreshes the saved list after a save or unsave.
func DefaultDependents() map[models.Interaction][]models.CollectionKind {
	return map[models.Interaction][]models.CollectionKind{
		models.InteractionSave: {models.KindSaved},
	}
}

type pendingKey struct {
	entityID string
	kind     models.Interaction
}

type Mutator struct {
	sender     Sender
	cache      Cache
	timeout    time.Duration
	dependents map[models.Interaction][]models.CollectionKind
	notifier   notify.Notifier
	logger     logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	pending map[pendingKey]chan struct{}
	closed  bool
}

func NewMutator(sender Sender, c Cache, opts Options) *Mutator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Dependents == nil {
		opts.Dependents = DefaultDependents()
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Mutator{
		sender:     sender,
		cache:      c,
		timeout:    opts.Timeout,
		dependents: opts.Dependents,
		notifier:   opts.Notifier,
		logger:     opts.Logger.With("component", "optimistic"),
		ctx:        ctx,
		cancel:     cancel,
		pending:    make(map[pendingKey]chan struct{}),
	}
}

// Toggle predicts the result of in on current, writes the prediction to every
// cached copy of entityID and sends the transition in the background. It
// returns false without doing anything while an earlier toggle of the same
// kind on the same entity is unsettled, or when in is not applicable.
func (m *Mutator) Toggle(entityID string, current models.FeedEntry, in Intent) bool {
	p, err := predict(current, in)
	if err != nil {
		m.logger.Debug(m.ctx, "toggle ignored", "entry", entityID, "kind", in.Kind, "error", err)
		return false
	}

	key := pendingKey{entityID: entityID, kind: in.Kind}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	if _, busy := m.pending[key]; busy {
		m.mu.Unlock()
		m.logger.Debug(m.ctx, "toggle rejected while unsettled", "entry", entityID, "kind", in.Kind)
		return false
	}
	done := make(chan struct{})
	m.pending[key] = done
	m.wg.Add(1)
	m.mu.Unlock()

	n := m.cache.Patch(entityID, p.apply)
	m.logger.Debug(m.ctx, "optimistic write", "entry", entityID, "kind", in.Kind, "value", p.value, "copies", n)

	go m.send(key, p, done)
	return true
}

func (m *Mutator) ToggleLike(e models.FeedEntry) bool { return m.Toggle(e.ID, e, Like()) }
func (m *Mutator) ToggleSave(e models.FeedEntry) bool { return m.Toggle(e.ID, e, Save()) }

// SelectReaction selects r, moves the caller's reaction to r, or clears it
// when r is already selected.
func (m *Mutator) SelectReaction(e models.FeedEntry, r models.Reaction) bool {
	return m.Toggle(e.ID, e, React(r))
}

func (m *Mutator) send(key pendingKey, p prediction, done chan struct{}) {
	defer m.wg.Done()
	defer func() {
		m.mu.Lock()
		delete(m.pending, key)
		m.mu.Unlock()
		close(done)
	}()

	ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
	err := m.sender.SendInteraction(ctx, key.entityID, key.kind, p.value)
	cancel()

	if err == nil {
		for _, kind := range m.dependents[key.kind] {
			m.cache.Invalidate(kind)
		}
		return
	}

	// The pre-image is restored even when the mutator is closing; only the
	// notice is suppressed.
	m.cache.Patch(key.entityID, p.rollback)

	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		m.logger.Debug(m.ctx, "rolled back during shutdown", "entry", key.entityID, "kind", key.kind)
		return
	}
	m.logger.Warn(m.ctx, "interaction failed, rolled back", "entry", key.entityID, "kind", key.kind, "value", p.value, "error", err)
	m.notifier.Notify(notify.Notice{
		Op:      string(key.kind),
		Subject: key.entityID,
		Message: fmt.Sprintf("Could not %s this post", p.value),
		Err:     err,
	})
}

// Pending reports whether a toggle of kind on entityID is unsettled.
func (m *Mutator) Pending(entityID string, kind models.Interaction) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[pendingKey{entityID: entityID, kind: kind}]
	return ok
}

// Wait blocks until the toggle of kind on entityID has settled.
func (m *Mutator) Wait(ctx context.Context, entityID string, kind models.Interaction) error {
	m.mu.Lock()
	done, ok := m.pending[pendingKey{entityID: entityID, kind: kind}]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels unsettled calls and waits for their rollbacks. Later toggles
// are rejected.
func (m *Mutator) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
}
