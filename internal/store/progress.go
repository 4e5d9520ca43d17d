package store

import (
	"context"
	"sync"
	"time"

	"github.com/existflow/grantline/internal/logger"
	"github.com/existflow/grantline/internal/metrics"
	"github.com/existflow/grantline/internal/timeline"
)

// writeTimeout bounds a single progress write
const writeTimeout = 10 * time.Second

// ProgressWriter forwards drag updates to a Store. Writes run on a
// background goroutine in the order they were submitted so the last
// position of a drag is the one persisted. Failures are logged, counted
// and reported through OnError; nothing is retried or rolled back.
type ProgressWriter struct {
	store   Store
	OnError func(timeline.ProgressUpdate, error)

	mu      sync.Mutex
	queue   []timeline.ProgressUpdate
	running bool
	closed  bool
	idle    *sync.Cond
}

// NewProgressWriter creates a writer for s
func NewProgressWriter(s Store) *ProgressWriter {
	w := &ProgressWriter{store: s}
	w.idle = sync.NewCond(&w.mu)
	return w
}

// SetProgress queues an update. It never blocks on the store.
func (w *ProgressWriter) SetProgress(u timeline.ProgressUpdate) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.queue = append(w.queue, u)
	if !w.running {
		w.running = true
		go w.drain()
	}
}

func (w *ProgressWriter) drain() {
	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			w.running = false
			w.idle.Broadcast()
			w.mu.Unlock()
			return
		}
		u := w.queue[0]
		w.queue = w.queue[1:]
		onError := w.OnError
		w.mu.Unlock()

		w.write(u, onError)
	}
}

func (w *ProgressWriter) write(u timeline.ProgressUpdate, onError func(timeline.ProgressUpdate, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := w.store.SetProgressDate(ctx, u.ItemID, u.Date); err != nil {
		metrics.IncrementProgressWrite("failed")
		logger.Error("Failed to update progress date",
			logger.F("grant_id", u.ItemID),
			logger.F("date", u.Date.Format("2006-01-02")),
			logger.Err(err))
		if onError != nil {
			onError(u, err)
		}
		return
	}
	metrics.IncrementProgressWrite("success")
}

// Flush waits until every queued update has been written
func (w *ProgressWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for w.running {
		w.idle.Wait()
	}
}

// Close stops accepting updates and waits for queued writes
func (w *ProgressWriter) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.Flush()
}
