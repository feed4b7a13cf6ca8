package cache

import "github.com/vanchuong201/joywork-web-sub000/internal/client/models"

// Projector maps an entry to its patched value. Projectors must be pure and
// must not retain or mutate the input; the store applies the same projector
// to every copy of an entry.
type Projector func(models.FeedEntry) models.FeedEntry

// SetLike overwrites the caller's like flag and the like counter.
func SetLike(liked bool, count int) Projector {
	return func(e models.FeedEntry) models.FeedEntry {
		e.IsLiked = liked
		e.LikeCount = max(count, 0)
		return e
	}
}

// AddLike sets the caller's like flag and shifts the counter by delta, keeping
// whatever count the entry carries now.
func AddLike(liked bool, delta int) Projector {
	return func(e models.FeedEntry) models.FeedEntry {
		e.IsLiked = liked
		e.LikeCount = max(e.LikeCount+delta, 0)
		return e
	}
}

func SetSaved(saved bool) Projector {
	return func(e models.FeedEntry) models.FeedEntry {
		e.IsSaved = saved
		return e
	}
}

// SetReaction overwrites the caller's reaction and every bucket counter in one
// step, so a move between buckets is never observed half done.
func SetReaction(r models.Reaction, counts models.ReactionCounts) Projector {
	return func(e models.FeedEntry) models.FeedEntry {
		e.UserReaction = r
		e.Reactions = counts
		return e
	}
}

// MoveReaction moves the caller's reaction from one bucket to another on top
// of the current counters. Either side may be models.ReactionNone.
func MoveReaction(from, to models.Reaction) Projector {
	return func(e models.FeedEntry) models.FeedEntry {
		e.UserReaction = to
		e.Reactions = e.Reactions.Add(from, -1).Add(to, 1)
		return e
	}
}

// ApplyEdit replaces author-editable fields after a post was edited.
func ApplyEdit(content string, tags []string) Projector {
	tags = append([]string(nil), tags...)
	return func(e models.FeedEntry) models.FeedEntry {
		e.Content = content
		e.Tags = append([]string(nil), tags...)
		return e
	}
}

// ApplyCounts takes server-side aggregate counters and leaves the caller's own
// flags untouched.
func ApplyCounts(likeCount int, counts models.ReactionCounts) Projector {
	return func(e models.FeedEntry) models.FeedEntry {
		e.LikeCount = max(likeCount, 0)
		e.Reactions = counts
		return e
	}
}
