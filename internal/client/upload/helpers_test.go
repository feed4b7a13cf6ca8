package upload

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vanchuong201/joywork-web-sub000/internal/client/models"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/notify"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/preview"
	"github.com/vanchuong201/joywork-web-sub000/internal/logging"
)

var imageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

type fakeStorage struct {
	mu        sync.Mutex
	uploaded  []string
	deleted   []string
	failFor   map[string]error
	deleteErr error

	// gate, when set, holds every Upload until closed.
	gate chan struct{}
	// ignoreCancel lets a gated Upload succeed even after its context ends.
	ignoreCancel bool

	inflight    int
	maxInflight int
}

func (s *fakeStorage) Upload(ctx context.Context, data []byte, meta models.ObjectMetadata) (models.RemoteObject, error) {
	s.mu.Lock()
	s.uploaded = append(s.uploaded, meta.FileName)
	s.inflight++
	if s.inflight > s.maxInflight {
		s.maxInflight = s.inflight
	}
	gate, ignore := s.gate, s.ignoreCancel
	failErr := s.failFor[meta.FileName]
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inflight--
		s.mu.Unlock()
	}()

	if gate != nil {
		if ignore {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
				return models.RemoteObject{}, ctx.Err()
			}
		}
	}
	if failErr != nil {
		return models.RemoteObject{}, failErr
	}
	return models.RemoteObject{Key: "attachments/" + meta.FileName, URL: "https://cdn.test/" + meta.FileName}, nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	return s.deleteErr
}

func (s *fakeStorage) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

func (s *fakeStorage) Uploaded() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uploaded)
}

func (s *fakeStorage) Inflight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight
}

type failingProber struct{}

func (failingProber) Probe([]byte) (int, int, error) { return 0, 0, errors.New("not an image") }

func pngFile(t *testing.T, name string, w, h int) *models.MemoryFile {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return &models.MemoryFile{FileName: name, Data: buf.Bytes()}
}

type harness struct {
	queue    *Queue
	storage  *fakeStorage
	previews *preview.Registry
	notices  *notify.Recorder
}

func newHarness(t *testing.T, st *fakeStorage, mutate func(*Options)) *harness {
	t.Helper()
	if st == nil {
		st = &fakeStorage{}
	}
	h := &harness{
		storage:  st,
		previews: preview.NewMemoryRegistry(logging.Discard()),
		notices:  &notify.Recorder{},
	}
	opts := Options{
		MaxFiles:    8,
		Concurrency: 3,
		Validator:   NewValidator(imageTypes, 1<<20),
		Prober:      ImageProber{},
		Notifier:    h.notices,
		Logger:      logging.Discard(),
	}
	if mutate != nil {
		mutate(&opts)
	}
	h.queue = NewQueue(st, h.previews, opts)
	t.Cleanup(h.queue.Close)
	return h
}
