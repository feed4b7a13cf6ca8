package metadata

import "context"

// Repository is a small key/value store for client session state such as
// the last opened collection or the identity last used per kind.
type Repository interface {
	// Get reports ok=false when key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// List returns every pair whose key starts with prefix.
	List(ctx context.Context, prefix string) (map[string]string, error)
}

// Well-known keys.
const (
	KeyLastCollection = "session.last_collection"
	identityPrefix    = "session.identity."
)

// IdentityKey is where the last identity used for a collection kind is kept.
func IdentityKey(kind string) string {
	return identityPrefix + kind
}
