package models

import (
	"fmt"
	"strings"
)

// CollectionKind names a family of cached collections that may hold feed
// entries.
type CollectionKind string

const (
	KindFeed    CollectionKind = "feed"
	KindCompany CollectionKind = "company"
	KindTag     CollectionKind = "tag"
	KindSaved   CollectionKind = "saved"
	KindAuthor  CollectionKind = "author"
)

// CollectionKey identifies one paginated collection. Identity scopes the
// collection (owning company, tag, author); it is empty for the global feed
// and the saved list.
type CollectionKey struct {
	Kind     CollectionKind `json:"kind"`
	Identity string         `json:"identity,omitempty"`
}

func (k CollectionKey) String() string {
	if k.Identity == "" {
		return string(k.Kind)
	}
	return fmt.Sprintf("%s:%s", k.Kind, k.Identity)
}

// ParseCollectionKey is the inverse of CollectionKey.String.
func ParseCollectionKey(s string) (CollectionKey, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CollectionKey{}, fmt.Errorf("empty collection key")
	}
	kind, identity, _ := strings.Cut(s, ":")
	return CollectionKey{Kind: CollectionKind(kind), Identity: identity}, nil
}

// Page is one page of a cursor-based listing as reported by the API.
type Page struct {
	Entries     []FeedEntry `json:"entries"`
	CurrentPage int         `json:"current_page"`
	TotalPages  int         `json:"total_pages"`
}

// HasNext reports whether the server announced more pages after this one.
func (p Page) HasNext() bool {
	return p.CurrentPage < p.TotalPages
}
