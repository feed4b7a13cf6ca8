package models

// Interaction is the kind of toggle a user performs on a feed entry.
type Interaction string

const (
	InteractionLike     Interaction = "like"
	InteractionSave     Interaction = "save"
	InteractionReaction Interaction = "reaction"
)

// Transition values sent with an interaction. They describe the change, not
// the resulting state, so a replayed request cannot double count.
const (
	TransitionLike   = "like"
	TransitionUnlike = "unlike"
	TransitionSave   = "save"
	TransitionUnsave = "unsave"

	// TransitionUnreact removes the caller's current reaction; selecting a
	// reaction sends the reaction name itself.
	TransitionUnreact = "none"
)
