package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// FileStore persists the ticket document as a JSON file. Writes go through
// renameio so a crash mid-write never leaves a torn document behind.
type FileStore struct {
	path string
}

// NewFileStore prepares the parent directory and returns the store.
func NewFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state directory: %w", err)
		}
	}
	return &FileStore{path: path}, nil
}

// Save atomically replaces the document with the snapshot.
func (s *FileStore) Save(ctx context.Context, snapshot Snapshot) error {
	pending, err := renameio.NewPendingFile(s.path)
	if err != nil {
		return fmt.Errorf("create pending state file: %w", err)
	}
	defer func() {
		_ = pending.Cleanup()
	}()

	enc := json.NewEncoder(pending)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		return fmt.Errorf("encode ticket state: %w", err)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// Load reads the document back. A missing file yields an empty snapshot;
// a corrupt file yields an empty snapshot alongside the decode error so
// the process can continue with fresh state.
func (s *FileStore) Load(ctx context.Context) (Snapshot, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, nil
		}
		return Snapshot{}, fmt.Errorf("read state file: %w", err)
	}

	snapshot := Snapshot{}
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("decode state file: %w", err)
	}
	return snapshot, nil
}

// Ping verifies the parent directory is reachable.
func (s *FileStore) Ping(ctx context.Context) error {
	_, err := os.Stat(filepath.Dir(s.path))
	return err
}

// Close is a no-op for the file backend.
func (s *FileStore) Close() error { return nil }
