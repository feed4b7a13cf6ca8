package client

import "github.com/vanchuong201/joywork-web-sub000/internal/client/models"

// Service and method names of the feed API.
const (
	ServiceName = "joywork.feed.v1.FeedService"

	MethodSendInteraction = "/" + ServiceName + "/SendInteraction"
	MethodFetchPage       = "/" + ServiceName + "/FetchPage"
)

// Metadata keys attached to every call.
const (
	RequestIDHeader     = "x-request-id"
	AuthorizationHeader = "authorization"
)

type InteractionRequest struct {
	EntryID string             `json:"entry_id"`
	Kind    models.Interaction `json:"kind"`
	Value   string             `json:"value"`
}

type InteractionResponse struct{}

type FetchPageRequest struct {
	Kind     models.CollectionKind `json:"kind"`
	Identity string                `json:"identity,omitempty"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
}

type FetchPageResponse struct {
	Page models.Page `json:"page"`
}
