// Package live applies server-pushed entry updates to the feed cache.
package live

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/vanchuong201/joywork-web-sub000/internal/client/cache"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/models"
	"github.com/vanchuong201/joywork-web-sub000/internal/logging"
)

const (
	UpdateCounts = "counts"
	UpdateEdit   = "edit"

	DefaultBackoff    = time.Second
	DefaultMaxBackoff = 30 * time.Second

	readLimit = 64 << 10
)

var ErrMalformedUpdate = errors.New("malformed update")

// EntryUpdate is one message on the live channel. Counts updates carry
// LikeCount and Reactions; edit updates carry Content and Tags.
type EntryUpdate struct {
	Type      string                 `json:"type"`
	EntryID   string                 `json:"entry_id"`
	LikeCount *int                   `json:"like_count,omitempty"`
	Reactions *models.ReactionCounts `json:"reactions,omitempty"`
	Content   *string                `json:"content,omitempty"`
	Tags      []string               `json:"tags,omitempty"`
}

// Patcher is the part of cache.Store the subscriber writes through.
type Patcher interface {
	Patch(entityID string, p cache.Projector) int
}

type Options struct {
	Header     http.Header
	Backoff    time.Duration
	MaxBackoff time.Duration
	Logger     logging.Logger
}

type Subscriber struct {
	url        string
	store      Patcher
	header     http.Header
	backoff    time.Duration
	maxBackoff time.Duration
	logger     logging.Logger
}

func NewSubscriber(url string, store Patcher, opts Options) *Subscriber {
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultBackoff
	}
	if opts.MaxBackoff < opts.Backoff {
		opts.MaxBackoff = max(DefaultMaxBackoff, opts.Backoff)
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Subscriber{
		url:        url,
		store:      store,
		header:     opts.Header,
		backoff:    opts.Backoff,
		maxBackoff: opts.MaxBackoff,
		logger:     opts.Logger.With("component", "live"),
	}
}

// Apply patches the cache with one update and returns the number of copies
// changed.
func (s *Subscriber) Apply(u EntryUpdate) (int, error) {
	if u.EntryID == "" {
		return 0, fmt.Errorf("%w: missing entry id", ErrMalformedUpdate)
	}
	switch u.Type {
	case UpdateCounts:
		if u.LikeCount == nil || u.Reactions == nil {
			return 0, fmt.Errorf("%w: counts update for %s without counters", ErrMalformedUpdate, u.EntryID)
		}
		return s.store.Patch(u.EntryID, cache.ApplyCounts(*u.LikeCount, *u.Reactions)), nil
	case UpdateEdit:
		if u.Content == nil {
			return 0, fmt.Errorf("%w: edit update for %s without content", ErrMalformedUpdate, u.EntryID)
		}
		return s.store.Patch(u.EntryID, cache.ApplyEdit(*u.Content, u.Tags)), nil
	default:
		return 0, fmt.Errorf("%w: type %q", ErrMalformedUpdate, u.Type)
	}
}

// Run keeps a connection open until ctx ends, reconnecting with exponential
// backoff. It always returns a non-nil error, ctx.Err() on cancellation.
func (s *Subscriber) Run(ctx context.Context) error {
	delay := s.backoff
	for {
		connected, err := s.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			delay = s.backoff
		}
		s.logger.Warn(ctx, "live connection lost", "url", s.url, "retry_in", delay, "error", err)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay = min(delay*2, s.maxBackoff)
	}
}

// session reads updates from one connection until it fails.
func (s *Subscriber) session(ctx context.Context) (bool, error) {
	conn, _, err := websocket.Dial(ctx, s.url, &websocket.DialOptions{HTTPHeader: s.header})
	if err != nil {
		return false, fmt.Errorf("dial %s: %w", s.url, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")
	conn.SetReadLimit(readLimit)
	s.logger.Info(ctx, "live connection established", "url", s.url)

	for {
		var u EntryUpdate
		if err := wsjson.Read(ctx, conn, &u); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return true, errors.New("closed by server")
			}
			return true, err
		}
		n, err := s.Apply(u)
		if err != nil {
			s.logger.Warn(ctx, "live update skipped", "error", err)
			continue
		}
		s.logger.Debug(ctx, "live update applied", "entry", u.EntryID, "type", u.Type, "copies", n)
	}
}
