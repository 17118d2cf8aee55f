// Package store persists the ticket document: a single keyed map of
// channel ID to TicketRecord, rewritten in full on every save.
package store

import (
	"context"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

// Snapshot is the full persisted state at one point in time.
type Snapshot map[string]*domain.TicketRecord

// Clone deep-copies the snapshot so a save cannot observe later mutations.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for id, rec := range s {
		out[id] = rec.Clone()
	}
	return out
}

// Store is a durable document backend. Save rewrites the whole document;
// Load reconstructs it, returning an empty snapshot when nothing was
// persisted yet.
type Store interface {
	Save(ctx context.Context, snapshot Snapshot) error
	Load(ctx context.Context) (Snapshot, error)
	Ping(ctx context.Context) error
	Close() error
}
