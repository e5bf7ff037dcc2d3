package services

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dpup/prefab/errors"
	"github.com/dpup/prefab/logging"
)

// SessionReaper periodically expires idle navigation sessions
type SessionReaper struct {
	store    *SessionStore
	interval time.Duration

	mu       sync.Mutex
	stopChan chan struct{}
	running  bool
}

// NewSessionReaper creates a reaper for store
func NewSessionReaper(store *SessionStore, interval time.Duration) *SessionReaper {
	return &SessionReaper{
		store:    store,
		interval: interval,
	}
}

// Start begins reaping in the background. Calling Start on a running reaper
// does nothing.
func (r *SessionReaper) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return
	}
	r.running = true
	r.stopChan = make(chan struct{})

	ctx = logging.EnsureLogger(ctx)
	logging.Infow(ctx, "Starting session reaper", "interval", r.interval)
	go r.reapLoop(ctx, r.stopChan)
}

// Stop halts the background loop
func (r *SessionReaper) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}
	r.running = false
	close(r.stopChan)
}

// IsRunning returns whether the reaper loop is active
func (r *SessionReaper) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *SessionReaper) reapLoop(ctx context.Context, stop <-chan struct{}) {
	defer func() {
		if rec := recover(); rec != nil {
			err, _ := errors.ParseStack(debug.Stack())
			logging.Errorw(ctx, "Session reaper: recovered from panic",
				"error", rec, "error.stack_trace", err.MinimalStack(3, 5))
		}
	}()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Infow(ctx, "Session reaper stopping due to context cancellation")
			return
		case <-stop:
			logging.Infow(ctx, "Session reaper stopping due to stop signal")
			return
		case <-ticker.C:
			if removed := r.store.Reap(); removed > 0 {
				logging.Infow(ctx, "Reaped idle sessions", "removed", removed, "active", r.store.Len())
			}
		}
	}
}
