package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/domain"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// recordingBackend tracks write concurrency and keeps the last snapshot.
type recordingBackend struct {
	mu       sync.Mutex
	inFlight int32
	overlap  bool
	writes   int
	last     Snapshot
	failWith error
}

func (b *recordingBackend) Save(ctx context.Context, snapshot Snapshot) error {
	if atomic.AddInt32(&b.inFlight, 1) > 1 {
		b.overlap = true
	}
	time.Sleep(time.Millisecond)
	atomic.AddInt32(&b.inFlight, -1)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWith != nil {
		return b.failWith
	}
	b.writes++
	b.last = snapshot
	return nil
}

func (b *recordingBackend) Load(ctx context.Context) (Snapshot, error) { return Snapshot{}, nil }
func (b *recordingBackend) Ping(ctx context.Context) error             { return nil }
func (b *recordingBackend) Close() error                               { return nil }

func TestWriterSerializesConcurrentSaves(t *testing.T) {
	backend := &recordingBackend{}
	w := NewWriter(backend, zap.NewNop())
	defer w.Close()

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("10000000000000000%d", i)
			errs[i] = w.Save(context.Background(), Snapshot{
				id: {ChannelID: id, UserID: "2", Category: domain.CategorySupport},
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "save %d", i)
	}
	assert.False(t, backend.overlap, "two physical writes interleaved")
	assert.Equal(t, n, backend.writes)
	assert.Len(t, backend.last, 1)
}

func TestWriterFinalContentMatchesLastEnqueued(t *testing.T) {
	backend := &recordingBackend{}
	w := NewWriter(backend, zap.NewNop())

	for i := 0; i < 5; i++ {
		snapshot := Snapshot{}
		for j := 0; j <= i; j++ {
			id := fmt.Sprintf("10000000000000000%d", j)
			snapshot[id] = &domain.TicketRecord{ChannelID: id, UserID: "2", Category: domain.CategoryHR}
		}
		require.NoError(t, w.Save(context.Background(), snapshot))
	}
	w.Close()

	assert.Len(t, backend.last, 5)
}

func TestWriterSaveFailure(t *testing.T) {
	backend := &recordingBackend{failWith: errors.New("disk full")}
	w := NewWriter(backend, zap.NewNop())
	defer w.Close()

	err := w.Save(context.Background(), Snapshot{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "PERSISTENCE_FAILURE"))
}

func TestWriterClosed(t *testing.T) {
	w := NewWriter(&recordingBackend{}, zap.NewNop())
	w.Close()

	err := w.Save(context.Background(), Snapshot{})
	assert.ErrorIs(t, err, ErrWriterClosed)
}
