package store

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// ErrWriterClosed is returned for saves enqueued after shutdown.
var ErrWriterClosed = errors.New("store writer closed")

type saveRequest struct {
	snapshot Snapshot
	done     chan error
}

// Writer serializes Save calls onto the backend. Snapshots are enqueued and
// written strictly one at a time; each caller is released only after its own
// physical write completed. A failed write rejects that caller and leaves
// the document intact for the next attempt.
type Writer struct {
	backend Store
	logger  *zap.Logger

	mu     sync.Mutex
	queue  chan saveRequest
	closed bool
	wg     sync.WaitGroup
}

// NewWriter starts the single-writer drain loop.
func NewWriter(backend Store, logger *zap.Logger) *Writer {
	w := &Writer{
		backend: backend,
		logger:  logger,
		queue:   make(chan saveRequest, 64),
	}
	w.wg.Add(1)
	go w.drain()
	return w
}

// Save enqueues the snapshot and blocks until its write completes.
func (w *Writer) Save(ctx context.Context, snapshot Snapshot) error {
	req := saveRequest{snapshot: snapshot, done: make(chan error, 1)}

	// The lock covers the enqueue so Close cannot close the queue under a
	// concurrent send.
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWriterClosed
	}
	select {
	case w.queue <- req:
		w.mu.Unlock()
	case <-ctx.Done():
		w.mu.Unlock()
		return ctx.Err()
	}

	select {
	case err := <-req.done:
		if err != nil {
			return apperrors.NewPersistenceFailure(err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains outstanding saves and stops the writer.
func (w *Writer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *Writer) drain() {
	defer w.wg.Done()
	for req := range w.queue {
		err := w.backend.Save(context.Background(), req.snapshot)
		if err != nil {
			w.logger.Error("ticket state write failed", zap.Error(err))
		}
		req.done <- err
	}
}
