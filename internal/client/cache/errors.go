package cache

import "errors"

var (
	ErrStoreClosed      = errors.New("feed cache closed")
	ErrCollectionClosed = errors.New("collection closed")
	ErrCollectionExists = errors.New("collection already open")
	ErrNoMorePages      = errors.New("no more pages")
	// ErrSuperseded is returned by LoadMore when the collection was reset or
	// switched identity while the page was loading.
	ErrSuperseded = errors.New("page load superseded")
)
