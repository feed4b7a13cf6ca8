package optimistic

import (
	"errors"
	"fmt"

	"github.com/vanchuong201/joywork-web-sub000/internal/client/cache"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/models"
)

var (
	ErrUnknownInteraction = errors.New("unknown interaction")
	ErrNoChange           = errors.New("interaction changes nothing")
)

// Intent is what the user asked for. Reaction is only read for
// models.InteractionReaction; selecting the active reaction again clears it.
type Intent struct {
	Kind     models.Interaction
	Reaction models.Reaction
}

func Like() Intent                   { return Intent{Kind: models.InteractionLike} }
func Save() Intent                   { return Intent{Kind: models.InteractionSave} }
func React(r models.Reaction) Intent { return Intent{Kind: models.InteractionReaction, Reaction: r} }

// prediction pairs the optimistic write with the write that undoes it, plus
// the transition sent to the server. The undo reverses only the caller's own
// contribution so aggregate counts that arrived meanwhile are kept.
type prediction struct {
	apply    cache.Projector
	rollback cache.Projector
	value    string
}

// predict is a pure function of current and in.
func predict(current models.FeedEntry, in Intent) (prediction, error) {
	switch in.Kind {
	case models.InteractionLike:
		liked := !current.IsLiked
		count := current.LikeCount + 1
		value := models.TransitionLike
		if !liked {
			count = max(current.LikeCount-1, 0)
			value = models.TransitionUnlike
		}
		return prediction{
			apply:    cache.SetLike(liked, count),
			rollback: cache.AddLike(current.IsLiked, current.LikeCount-count),
			value:    value,
		}, nil

	case models.InteractionSave:
		saved := !current.IsSaved
		value := models.TransitionSave
		if !saved {
			value = models.TransitionUnsave
		}
		return prediction{
			apply:    cache.SetSaved(saved),
			rollback: cache.SetSaved(current.IsSaved),
			value:    value,
		}, nil

	case models.InteractionReaction:
		target, err := models.ParseReaction(string(in.Reaction))
		if err != nil {
			return prediction{}, err
		}
		if target == current.UserReaction {
			target = models.ReactionNone
		}
		if target == current.UserReaction {
			return prediction{}, fmt.Errorf("%w: no reaction to clear", ErrNoChange)
		}

		counts := current.Reactions
		if current.UserReaction != models.ReactionNone {
			counts = counts.Add(current.UserReaction, -1)
		}
		value := models.TransitionUnreact
		if target != models.ReactionNone {
			counts = counts.Add(target, 1)
			value = string(target)
		}
		return prediction{
			apply:    cache.SetReaction(target, counts),
			rollback: cache.MoveReaction(target, current.UserReaction),
			value:    value,
		}, nil
	}
	return prediction{}, fmt.Errorf("%w: %q", ErrUnknownInteraction, in.Kind)
}
