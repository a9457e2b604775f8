// Package history persists weekly snapshots off the dispatch path.
package history

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/choreweek/internal/model"
)

const (
	queueSize     = 16
	uploadTimeout = 30 * time.Second
)

type SnapshotStore interface {
	Put(snap model.WeeklySnapshot) error
	List() ([]model.WeeklySnapshot, error)
}

type Archiver interface {
	Upload(ctx context.Context, snap model.WeeklySnapshot) error
}

// ErrorCallback is called with the failing target ("snapshots" or
// "archive") whenever a write fails.
type ErrorCallback func(target string, err error)

// Writer saves snapshots in the background. Put never blocks; a crash
// before the worker catches up loses the snapshot.
type Writer struct {
	store    SnapshotStore
	archiver Archiver
	logger   *slog.Logger
	onError  ErrorCallback

	mu     sync.Mutex
	closed bool
	queue  chan model.WeeklySnapshot
	done   chan struct{}
}

// NewWriter starts the worker. store and archiver may be nil.
func NewWriter(store SnapshotStore, archiver Archiver, logger *slog.Logger, onError ErrorCallback) *Writer {
	w := &Writer{
		store:    store,
		archiver: archiver,
		logger:   logger.With("component", "history"),
		onError:  onError,
		queue:    make(chan model.WeeklySnapshot, queueSize),
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

// Put queues snap and reports whether it was accepted.
func (w *Writer) Put(snap model.WeeklySnapshot) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		w.logger.Warn("snapshot dropped, writer closed", "week", snap.ID)
		return false
	}
	select {
	case w.queue <- snap:
		return true
	default:
		w.logger.Warn("snapshot dropped, queue full", "week", snap.ID)
		return false
	}
}

// LoadAll reads every stored snapshot, oldest first.
func (w *Writer) LoadAll() ([]model.WeeklySnapshot, error) {
	if w.store == nil {
		return nil, nil
	}
	return w.store.List()
}

// Close stops accepting snapshots and waits for queued ones to be written.
func (w *Writer) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()
	<-w.done
}

func (w *Writer) run() {
	defer close(w.done)
	for snap := range w.queue {
		w.write(snap)
	}
}

func (w *Writer) write(snap model.WeeklySnapshot) {
	if w.store != nil {
		if err := w.store.Put(snap); err != nil {
			w.fail("snapshots", snap, err)
		} else {
			w.logger.Info("snapshot saved", "week", snap.ID)
		}
	}
	if w.archiver != nil {
		ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
		defer cancel()
		if err := w.archiver.Upload(ctx, snap); err != nil {
			w.fail("archive", snap, err)
		}
	}
}

func (w *Writer) fail(target string, snap model.WeeklySnapshot, err error) {
	w.logger.Error("snapshot write failed", "target", target, "week", snap.ID, "error", err)
	if w.onError != nil {
		w.onError(target, err)
	}
}
