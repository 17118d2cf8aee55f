package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

func tempStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "state", "tickets.json"))
	require.NoError(t, err)
	return s
}

func TestFileStoreRoundTrip(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	closed := created.Add(2 * time.Hour)
	snapshot := Snapshot{
		"100000000000000001": {
			ChannelID: "100000000000000001",
			UserID:    "200000000000000002",
			Category:  domain.CategorySupport,
			CreatedAt: created,
			Closed:    true,
			ClosedAt:  &closed,
			ClosedBy:  "300000000000000003",
			FormData:  domain.FormData{"issue": "cannot log in"},
		},
		"100000000000000004": {
			ChannelID: "100000000000000004",
			UserID:    "200000000000000002",
			Category:  domain.CategoryRecruitment,
			CreatedAt: created.Add(time.Minute),
		},
	}

	require.NoError(t, s.Save(ctx, snapshot))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	rec := loaded["100000000000000001"]
	require.NotNil(t, rec)
	assert.True(t, rec.CreatedAt.Truncate(time.Second).Equal(created.Truncate(time.Second)))
	require.NotNil(t, rec.ClosedAt)
	assert.True(t, rec.ClosedAt.Truncate(time.Second).Equal(closed.Truncate(time.Second)))
	assert.Equal(t, "300000000000000003", rec.ClosedBy)
	assert.Equal(t, "cannot log in", rec.FormData["issue"])
	assert.True(t, rec.Closed)

	open := loaded["100000000000000004"]
	require.NotNil(t, open)
	assert.Nil(t, open.ClosedAt)
	assert.True(t, open.Open())
}

func TestFileStoreLoadMissing(t *testing.T) {
	s := tempStore(t)

	snapshot, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snapshot)
}

func TestFileStoreLoadCorrupt(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, os.WriteFile(s.path, []byte("{not json"), 0o644))

	snapshot, err := s.Load(context.Background())
	assert.Error(t, err)
	assert.NotNil(t, snapshot)
	assert.Empty(t, snapshot)
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, Snapshot{
		"100000000000000001": {ChannelID: "100000000000000001", UserID: "2", Category: domain.CategorySupport},
	}))
	require.NoError(t, s.Save(ctx, Snapshot{}))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
