// Package upload tracks media attachments from the moment a user picks them
// until they are stored remotely, one state machine per file.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/vanchuong201/joywork-web-sub000/internal/client/models"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/notify"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/preview"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/storage"
	"github.com/vanchuong201/joywork-web-sub000/internal/logging"
)

const (
	DefaultMaxFiles    = 8
	DefaultConcurrency = 3

	deleteTimeout = 10 * time.Second
)

// Previewer creates display handles for picked files.
type Previewer interface {
	Acquire(f models.LocalFile) (*preview.Handle, error)
}

type Options struct {
	MaxFiles    int
	Concurrency int
	Validator   *Validator
	// Prober is optional; without it units never carry dimensions.
	Prober   Prober
	Notifier notify.Notifier
	Logger   logging.Logger
}

// Rejection explains why a picked file did not become a unit.
type Rejection struct {
	Name string
	Err  error
}

type AddResult struct {
	// Added holds the ids of the new units in pick order.
	Added    []string
	Rejected []Rejection
}

// Queue is an ordered, capacity-bounded set of upload units.
type Queue struct {
	storage   storage.ObjectStorage
	previews  Previewer
	validator *Validator
	prober    Prober
	notifier  notify.Notifier
	logger    logging.Logger
	max       int
	slots     *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	units  []*Unit
	closed bool
}

func NewQueue(st storage.ObjectStorage, previews Previewer, opts Options) *Queue {
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = DefaultMaxFiles
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		storage:   st,
		previews:  previews,
		validator: opts.Validator,
		prober:    opts.Prober,
		notifier:  opts.Notifier,
		logger:    opts.Logger.With("component", "upload_queue"),
		max:       opts.MaxFiles,
		slots:     semaphore.NewWeighted(int64(opts.Concurrency)),
		ctx:       ctx,
		cancel:    cancel,
	}
}

type candidate struct {
	file        models.LocalFile
	contentType string
}

// Add validates the picked files and turns as many valid ones into units as
// capacity allows. Invalid files do not count toward capacity. Every new unit
// starts in Uploading with its transfer already scheduled.
func (q *Queue) Add(files []models.LocalFile) AddResult {
	var res AddResult
	valid := make([]candidate, 0, len(files))
	for _, f := range files {
		ct, err := q.validate(f)
		if err != nil {
			res.Rejected = append(res.Rejected, Rejection{Name: f.Name(), Err: err})
			continue
		}
		valid = append(valid, candidate{file: f, contentType: ct})
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		for _, c := range valid {
			res.Rejected = append(res.Rejected, Rejection{Name: c.file.Name(), Err: ErrQueueClosed})
		}
		return res
	}
	overflow := 0
	for _, c := range valid {
		if len(q.units) >= q.max {
			res.Rejected = append(res.Rejected, Rejection{Name: c.file.Name(), Err: ErrLimitExceeded})
			overflow++
			continue
		}
		h, err := q.previews.Acquire(c.file)
		if err != nil {
			res.Rejected = append(res.Rejected, Rejection{
				Name: c.file.Name(),
				Err:  fmt.Errorf("%w: %w", ErrPreviewUnavailable, err),
			})
			continue
		}
		u := &Unit{
			id:          uuid.NewString(),
			file:        c.file,
			contentType: c.contentType,
			preview:     h,
			state:       Uploading{},
		}
		q.units = append(q.units, u)
		q.start(u)
		res.Added = append(res.Added, u.id)
	}
	q.mu.Unlock()

	q.notifyRejections(res.Rejected, overflow)
	return res
}

func (q *Queue) validate(f models.LocalFile) (string, error) {
	if q.validator == nil {
		return "application/octet-stream", nil
	}
	return q.validator.Validate(f)
}

// notifyRejections sends one notice per rejected file, except capacity
// overflow which is one notice for the whole batch.
func (q *Queue) notifyRejections(rejected []Rejection, overflow int) {
	for _, r := range rejected {
		if errors.Is(r.Err, ErrLimitExceeded) || errors.Is(r.Err, ErrQueueClosed) {
			continue
		}
		q.notifier.Notify(notify.Notice{
			Op:      "attach",
			Subject: r.Name,
			Message: fmt.Sprintf("%s was not attached: %v", r.Name, r.Err),
			Err:     r.Err,
		})
	}
	if overflow > 0 {
		q.notifier.Notify(notify.Notice{
			Op:      "attach",
			Message: fmt.Sprintf("%d file(s) not attached: limit exceeded, at most %d attachments", overflow, q.max),
			Err:     ErrLimitExceeded,
		})
	}
}

// start schedules the transfer of u. Caller holds q.mu.
func (q *Queue) start(u *Unit) {
	ctx, cancel := context.WithCancel(q.ctx)
	u.cancel = cancel
	q.wg.Add(1)
	go q.run(ctx, u)
}

func (q *Queue) run(ctx context.Context, u *Unit) {
	defer q.wg.Done()

	obj, data, err := q.transfer(ctx, u)
	if !q.settle(ctx, u, obj, err) || err != nil {
		return
	}
	q.probe(ctx, u, data)
}

func (q *Queue) transfer(ctx context.Context, u *Unit) (models.RemoteObject, []byte, error) {
	if err := q.slots.Acquire(ctx, 1); err != nil {
		return models.RemoteObject{}, nil, err
	}
	defer q.slots.Release(1)

	rc, err := u.file.Open()
	if err != nil {
		return models.RemoteObject{}, nil, fmt.Errorf("open %s: %w", u.file.Name(), err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return models.RemoteObject{}, nil, fmt.Errorf("read %s: %w", u.file.Name(), err)
	}

	obj, err := q.storage.Upload(ctx, data, models.ObjectMetadata{
		FileName:    u.file.Name(),
		ContentType: u.contentType,
		Size:        int64(len(data)),
	})
	if err != nil {
		return models.RemoteObject{}, nil, err
	}
	return obj, data, nil
}

// settle applies the transfer outcome if u is still live and reports whether
// it did. A successful result for a unit that is gone is deleted remotely.
func (q *Queue) settle(ctx context.Context, u *Unit, obj models.RemoteObject, transferErr error) bool {
	q.mu.Lock()
	if q.closed || q.indexOf(u.id) < 0 {
		q.mu.Unlock()
		q.logger.Debug(ctx, "dropping result for removed unit", "unit", u.id)
		if transferErr == nil {
			q.deleteRemote(obj.Key)
		}
		return false
	}

	var ev event = uploadSucceeded{object: obj}
	if transferErr != nil {
		ev = uploadFailed{err: transferErr}
	}
	st, err := next(u.state, ev)
	if err != nil {
		q.mu.Unlock()
		q.logger.Error(ctx, "upload transition rejected", "unit", u.id, "error", err)
		return false
	}
	u.state = st
	q.mu.Unlock()

	if transferErr != nil {
		q.logger.Warn(ctx, "upload failed", "unit", u.id, "file", u.file.Name(), "error", transferErr)
		q.notifier.Notify(notify.Notice{
			Op:      "upload",
			Subject: u.id,
			Message: fmt.Sprintf("Upload of %s failed", u.file.Name()),
			Err:     transferErr,
		})
		return true
	}
	q.logger.Info(ctx, "upload completed", "unit", u.id, "key", obj.Key)
	return true
}

// probe attaches dimensions to an uploaded unit. Failure leaves the unit
// uploaded without them.
func (q *Queue) probe(ctx context.Context, u *Unit, data []byte) {
	if q.prober == nil {
		return
	}
	w, h, err := q.prober.Probe(data)
	if err != nil {
		q.logger.Debug(ctx, "dimension probe failed", "unit", u.id, "error", err)
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || q.indexOf(u.id) < 0 {
		return
	}
	st, err := next(u.state, dimensionsProbed{width: w, height: h})
	if err != nil {
		q.logger.Debug(ctx, "dimensions not applied", "unit", u.id, "error", err)
		return
	}
	u.state = st
}

// Remove drops a unit, releasing its preview. An uploaded unit's remote
// object is deleted in the background; failures are only logged.
func (q *Queue) Remove(id string) error {
	q.mu.Lock()
	i := q.indexOf(id)
	if i < 0 {
		q.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnitNotFound, id)
	}
	u := q.units[i]
	q.units = append(q.units[:i:i], q.units[i+1:]...)
	if up, ok := u.state.(Uploaded); ok {
		q.deleteRemoteAsync(up.RemoteKey)
	}
	q.mu.Unlock()

	u.release()
	return nil
}

// Reset empties the queue and releases every preview. Remote objects that
// were already uploaded are kept. Calling Reset on an empty queue is a no-op.
func (q *Queue) Reset() {
	q.mu.Lock()
	units := q.units
	q.units = nil
	q.mu.Unlock()

	for _, u := range units {
		u.release()
	}
}

// Close resets the queue, cancels in-flight transfers and waits for them.
// Results that arrive afterwards are discarded.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.Reset()
	q.cancel()
	q.wg.Wait()
}

// Wait blocks until every scheduled transfer and remote delete has finished.
func (q *Queue) Wait() {
	q.wg.Wait()
}

// deleteRemoteAsync runs a best-effort delete. Caller holds q.mu.
func (q *Queue) deleteRemoteAsync(key string) {
	if q.closed {
		return
	}
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.deleteRemote(key)
	}()
}

func (q *Queue) deleteRemote(key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(q.ctx), deleteTimeout)
	defer cancel()
	if err := q.storage.Delete(ctx, key); err != nil {
		q.logger.Warn(ctx, "remote delete failed", "key", key, "error", err)
		return
	}
	q.logger.Debug(ctx, "remote object deleted", "key", key)
}

// indexOf returns the position of id or -1. Caller holds q.mu.
func (q *Queue) indexOf(id string) int {
	for i, u := range q.units {
		if u.id == id {
			return i
		}
	}
	return -1
}

// Units returns snapshots in insertion order.
func (q *Queue) Units() []UnitView {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]UnitView, len(q.units))
	for i, u := range q.units {
		out[i] = u.view()
	}
	return out
}

func (q *Queue) Unit(id string) (UnitView, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if i := q.indexOf(id); i >= 0 {
		return q.units[i].view(), true
	}
	return UnitView{}, false
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.units)
}

func (q *Queue) HasPending() bool { return q.any(StatusUploading) }
func (q *Queue) HasFailed() bool  { return q.any(StatusFailed) }

// CanSubmit reports whether a post may be submitted now: nothing is still
// uploading and nothing has failed.
func (q *Queue) CanSubmit() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, u := range q.units {
		if s := u.state.Status(); s == StatusUploading || s == StatusFailed {
			return false
		}
	}
	return true
}

func (q *Queue) any(s Status) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, u := range q.units {
		if u.state.Status() == s {
			return true
		}
	}
	return false
}

// Attachments lists the uploaded objects in insertion order.
func (q *Queue) Attachments() []models.RemoteObject {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []models.RemoteObject
	for _, u := range q.units {
		up, ok := u.state.(Uploaded)
		if !ok {
			continue
		}
		obj := models.RemoteObject{Key: up.RemoteKey, URL: up.RemoteURL}
		if up.Dimensions != nil {
			obj.Width, obj.Height = up.Dimensions.Width, up.Dimensions.Height
		}
		out = append(out, obj)
	}
	return out
}
