// Package preview manages revocable local display handles for picked files.
//
// A Handle is owned by exactly one upload unit and is released exactly once,
// whichever of removal, queue reset or queue teardown happens first. The
// Registry tracks every outstanding handle so leaks are observable.
package preview

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/models"
	"github.com/vanchuong201/joywork-web-sub000/internal/filex"
	"github.com/vanchuong201/joywork-web-sub000/internal/logging"
)

var ErrClosed = errors.New("preview registry closed")

// Handle is a displayable reference to a local file.
type Handle struct {
	id   string
	uri  string
	path string

	reg  *Registry
	once sync.Once
}

func (h *Handle) ID() string  { return h.id }
func (h *Handle) URI() string { return h.uri }

// Release revokes the handle. Only the first call has an effect.
func (h *Handle) Release() {
	h.once.Do(func() {
		h.reg.forget(h)
	})
}

// Registry hands out preview handles. With an empty directory handles are
// purely symbolic; otherwise each handle is a private copy of the file.
type Registry struct {
	mu          sync.Mutex
	dir         string
	closed      bool
	outstanding map[string]*Handle
	logger      logging.Logger
}

// NewMemoryRegistry returns a registry whose handles need no disk space.
func NewMemoryRegistry(logger logging.Logger) *Registry {
	return &Registry{outstanding: map[string]*Handle{}, logger: logger}
}

// NewDiskRegistry stores preview copies under base/previews.
func NewDiskRegistry(base string, logger logging.Logger) (*Registry, error) {
	dir, err := filex.EnsureDir(base, "previews")
	if err != nil {
		return nil, fmt.Errorf("preview dir: %w", err)
	}
	return &Registry{dir: dir, outstanding: map[string]*Handle{}, logger: logger}, nil
}

// Acquire derives a new handle from f.
func (r *Registry) Acquire(f models.LocalFile) (*Handle, error) {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	id := uuid.NewString()
	h := &Handle{id: id, reg: r, uri: "preview://" + id}

	if r.dir != "" {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name(), err)
		}
		defer rc.Close()

		path := filepath.Join(r.dir, id+filepath.Ext(f.Name()))
		if _, err := filex.WriteFrom(path, rc); err != nil {
			return nil, err
		}
		h.path = path
		h.uri = (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		// lost a race with Close; do not leak the copy
		r.removeFile(h)
		return nil, ErrClosed
	}
	r.outstanding[id] = h
	return h, nil
}

func (r *Registry) forget(h *Handle) {
	r.mu.Lock()
	delete(r.outstanding, h.id)
	r.mu.Unlock()
	r.removeFile(h)
}

func (r *Registry) removeFile(h *Handle) {
	if h.path == "" {
		return
	}
	if err := os.Remove(h.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		r.logger.Warn(context.Background(), "preview cleanup failed", "preview", h.id, "error", err)
	}
}

// Outstanding returns the ids of handles not yet released, sorted.
func (r *Registry) Outstanding() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.outstanding))
	for id := range r.outstanding {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close releases every outstanding handle and refuses new ones.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	handles := make([]*Handle, 0, len(r.outstanding))
	for _, h := range r.outstanding {
		handles = append(handles, h)
	}
	r.mu.Unlock()

	for _, h := range handles {
		h.Release()
	}
}
