// Package storage is the object-storage collaborator of the upload queue.
//
// The queue only needs two operations: store a payload and get back a key and
// a displayable URL, and delete a previously stored key. S3Storage implements
// them against any S3-compatible endpoint.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/models"
)

var ErrEmptyKey = errors.New("empty object key")

// ObjectStorage stores attachment payloads.
type ObjectStorage interface {
	// Upload stores data and returns where it ended up.
	Upload(ctx context.Context, data []byte, meta models.ObjectMetadata) (models.RemoteObject, error)

	// Delete removes a stored object. Callers treat failures as best-effort.
	Delete(ctx context.Context, key string) error
}

// NewObjectKey builds a unique, date-partitioned key such as
// attachments/2026/10/19/<uuid>.png.
func NewObjectKey(prefix, fileName string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	name := fmt.Sprintf("%d/%02d/%02d/%s%s", now.Year(), now.Month(), now.Day(), uuid.NewString(), ext)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}
