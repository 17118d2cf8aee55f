// Package registry holds the process-wide in-memory mirror of the ticket
// store. It is the only component allowed to mutate the in-memory map, and
// every mutation is pushed through the store writer before the caller is
// released.
package registry

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/gateway"
	"github.com/spec-kit/ticket-desk/internal/store"
)

// Registry caches the ticket document. It loads lazily on first access and
// re-reads the backend only when Reload is called explicitly.
type Registry struct {
	backend store.Store
	writer  *store.Writer
	logger  *zap.Logger

	mu      sync.Mutex
	loaded  bool
	records store.Snapshot
}

// New builds an unloaded registry.
func New(backend store.Store, writer *store.Writer, logger *zap.Logger) *Registry {
	return &Registry{
		backend: backend,
		writer:  writer,
		logger:  logger,
		records: store.Snapshot{},
	}
}

// Load populates the cache from the backend if it has not been loaded yet.
// A backend that cannot be read leaves the process running on empty state;
// the failure is logged, not fatal.
func (r *Registry) Load(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked(ctx)
}

// Reload discards the cache and re-reads the backend.
func (r *Registry) Reload(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = false
	r.loadLocked(ctx)
}

func (r *Registry) loadLocked(ctx context.Context) {
	if r.loaded {
		return
	}
	snapshot, err := r.backend.Load(ctx)
	if err != nil {
		r.logger.Error("failed to load ticket state, continuing empty", zap.Error(err))
		snapshot = store.Snapshot{}
	}
	r.records = snapshot
	r.loaded = true
	r.logger.Info("ticket state loaded", zap.Int("tickets", len(snapshot)))
}

// Get returns a copy of the record for the channel, if any.
func (r *Registry) Get(ctx context.Context, channelID string) (*domain.TicketRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked(ctx)
	rec, ok := r.records[channelID]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// Set inserts or overwrites the record and persists the full document.
// The in-memory map is updated even when persistence fails; the error is
// returned so the caller can log the degraded state.
func (r *Registry) Set(ctx context.Context, rec *domain.TicketRecord) error {
	r.mu.Lock()
	r.loadLocked(ctx)
	r.records[rec.ChannelID] = rec.Clone()
	snapshot := r.records.Clone()
	r.mu.Unlock()
	return r.writer.Save(ctx, snapshot)
}

// Delete removes the record entirely and persists the pruned document.
func (r *Registry) Delete(ctx context.Context, channelID string) error {
	r.mu.Lock()
	r.loadLocked(ctx)
	delete(r.records, channelID)
	snapshot := r.records.Clone()
	r.mu.Unlock()
	return r.writer.Save(ctx, snapshot)
}

// Snapshot copies the current state for diagnostics.
func (r *Registry) Snapshot(ctx context.Context) store.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked(ctx)
	return r.records.Clone()
}

// OpenByUser lists the user's open tickets, for quota evaluation.
func (r *Registry) OpenByUser(ctx context.Context, userID string) []*domain.TicketRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked(ctx)
	var open []*domain.TicketRecord
	for _, rec := range r.records {
		if rec.UserID == userID && rec.Open() {
			open = append(open, rec.Clone())
		}
	}
	return open
}

// Count returns open and closed ticket totals.
func (r *Registry) Count(ctx context.Context) (open, closed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked(ctx)
	for _, rec := range r.records {
		if rec.Open() {
			open++
		} else {
			closed++
		}
	}
	return open, closed
}

// Reconcile evicts records whose channel no longer exists on the platform
// and persists the pruned set. Run once at startup to clear entries left
// behind by out-of-band channel deletion.
func (r *Registry) Reconcile(ctx context.Context, chat gateway.Chat) (int, error) {
	r.mu.Lock()
	r.loadLocked(ctx)
	ids := make([]string, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	var stale []string
	for _, id := range ids {
		exists, err := chat.ChannelExists(ctx, id)
		if err != nil {
			r.logger.Warn("channel existence check failed, keeping record",
				zap.String("channel_id", id), zap.Error(err))
			continue
		}
		if !exists {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	r.mu.Lock()
	for _, id := range stale {
		delete(r.records, id)
	}
	snapshot := r.records.Clone()
	r.mu.Unlock()

	r.logger.Info("pruned stale ticket records", zap.Int("count", len(stale)))
	return len(stale), r.writer.Save(ctx, snapshot)
}
