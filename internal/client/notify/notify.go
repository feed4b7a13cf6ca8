// Package notify carries user-visible notices out of the sync engine.
//
// Components send at most one Notice per failed logical operation; the
// presentation layer decides how to show it (toast, status line, stderr).
package notify

import (
	"context"
	"sync"

	"github.com/vanchuong201/joywork-web-sub000/internal/logging"
)

// Notice is a single user-visible message.
type Notice struct {
	// Op names the logical operation, e.g. "upload", "like", "load_page".
	Op string
	// Subject is the unit or entity id the notice is about, if any.
	Subject string
	Message string
	Err     error
}

// Notifier receives notices. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(n Notice)
}

// Func adapts a plain function to Notifier.
type Func func(Notice)

func (f Func) Notify(n Notice) { f(n) }

// Discard drops every notice.
var Discard Notifier = Func(func(Notice) {})

// LogNotifier writes notices to a logger at warn level.
type LogNotifier struct {
	logger logging.Logger
}

func NewLogNotifier(logger logging.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(notice Notice) {
	args := []any{"op", notice.Op}
	if notice.Subject != "" {
		args = append(args, "subject", notice.Subject)
	}
	if notice.Err != nil {
		args = append(args, "error", notice.Err)
	}
	n.logger.Warn(context.Background(), notice.Message, args...)
}

// Recorder keeps every notice in memory. It is used by tests and by the
// interactive client, which prints pending notices after each command.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of everything recorded so far.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// Drain returns the recorded notices and forgets them.
func (r *Recorder) Drain() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notices
	r.notices = nil
	return out
}

// Count returns how many notices were recorded for op.
func (r *Recorder) Count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, x := range r.notices {
		if x.Op == op {
			n++
		}
	}
	return n
}
