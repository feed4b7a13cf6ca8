// Package client talks to the JoyWork feed API.
//
// # Overview
//
// Client is the transport-agnostic contract the sync engine depends on:
// SendInteraction for like/save/reaction transitions and FetchPage for
// paginated collections. GRPCClient implements it over gRPC using the
// joywork.feed.v1.FeedService methods with a JSON codec, so the message
// types in messages.go are plain structs.
//
// Every call carries an x-request-id header and, when configured, a bearer
// token. Calls are bounded by a per-call timeout (DefaultTimeout unless
// WithTimeout is given).
//
// # Error Handling
//
// gRPC status codes are mapped to sentinel errors that callers can match with
// errors.Is: ErrUnavailable, ErrUnauthorized, ErrNotFound, ErrInvalidArgument.
// Other codes are wrapped as "rpc error".
package client
