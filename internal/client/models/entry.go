// Package models defines the client-side data models shared by the upload
// queue, the feed cache and the API collaborators.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Reaction is a single-choice reaction a user can leave on a feed entry.
// The zero value means no reaction.
type Reaction string

const (
	ReactionNone       Reaction = ""
	ReactionLove       Reaction = "LOVE"
	ReactionInsightful Reaction = "INSIGHTFUL"
	ReactionCelebrate  Reaction = "CELEBRATE"
)

var ErrUnknownReaction = errors.New("unknown reaction")

// Reactions lists the selectable reactions in display order.
var Reactions = []Reaction{ReactionLove, ReactionInsightful, ReactionCelebrate}

// ParseReaction accepts a reaction name in any case.
func ParseReaction(s string) (Reaction, error) {
	r := Reaction(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case ReactionLove, ReactionInsightful, ReactionCelebrate:
		return r, nil
	case "", "NONE":
		return ReactionNone, nil
	default:
		return ReactionNone, fmt.Errorf("%w: %q", ErrUnknownReaction, s)
	}
}

// ReactionCounts holds one counter per reaction bucket. It is a value type so
// a FeedEntry can be copied as a pre-image without aliasing.
type ReactionCounts struct {
	Love       int `json:"love"`
	Insightful int `json:"insightful"`
	Celebrate  int `json:"celebrate"`
}

// Get returns the counter for r; ReactionNone has no bucket and yields 0.
func (c ReactionCounts) Get(r Reaction) int {
	switch r {
	case ReactionLove:
		return c.Love
	case ReactionInsightful:
		return c.Insightful
	case ReactionCelebrate:
		return c.Celebrate
	default:
		return 0
	}
}

// Add returns a copy with delta applied to the bucket of r. Counters never go
// below zero.
func (c ReactionCounts) Add(r Reaction, delta int) ReactionCounts {
	clamp := func(v int) int {
		if v < 0 {
			return 0
		}
		return v
	}
	switch r {
	case ReactionLove:
		c.Love = clamp(c.Love + delta)
	case ReactionInsightful:
		c.Insightful = clamp(c.Insightful + delta)
	case ReactionCelebrate:
		c.Celebrate = clamp(c.Celebrate + delta)
	}
	return c
}

func (c ReactionCounts) Total() int {
	return c.Love + c.Insightful + c.Celebrate
}

// FeedEntry is the cached projection of a post. The same ID may be held by
// several collections at once; the sync engine keeps every copy identical.
type FeedEntry struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	CompanyID string    `json:"company_id,omitempty"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	LikeCount    int            `json:"like_count"`
	IsLiked      bool           `json:"is_liked"`
	IsSaved      bool           `json:"is_saved"`
	Reactions    ReactionCounts `json:"reactions"`
	UserReaction Reaction       `json:"user_reaction,omitempty"`
}
