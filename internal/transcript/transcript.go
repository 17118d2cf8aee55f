// Package transcript exports a ticket channel's history to a downloadable
// artifact. Failures here are reported but never block the deletion that
// requested them.
package transcript

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/ticket-desk/internal/gateway"
)

// Options tunes artifact formatting.
type Options struct {
	IncludeTimestamps bool
}

// Artifact identifies a generated transcript.
type Artifact struct {
	Path     string
	Messages int
}

// Generator produces one artifact per channel.
type Generator interface {
	Generate(ctx context.Context, channelID string, opts Options) (*Artifact, error)
}

// FileGenerator renders fetched history to a plain-text file under dir.
type FileGenerator struct {
	chat gateway.Chat
	dir  string
}

// NewFileGenerator prepares the artifact directory.
func NewFileGenerator(chat gateway.Chat, dir string) (*FileGenerator, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcript directory: %w", err)
	}
	return &FileGenerator{chat: chat, dir: dir}, nil
}

// Generate fetches the channel history and writes it atomically.
func (g *FileGenerator) Generate(ctx context.Context, channelID string, opts Options) (*Artifact, error) {
	messages, err := g.chat.FetchMessages(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("fetch channel history: %w", err)
	}

	path := filepath.Join(g.dir, fmt.Sprintf("%s-%s.txt", channelID, uuid.NewString()))
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return nil, fmt.Errorf("create pending transcript: %w", err)
	}
	defer func() {
		_ = pending.Cleanup()
	}()

	fmt.Fprintf(pending, "Transcript of channel %s (%d messages)\n\n", channelID, len(messages))
	for _, msg := range messages {
		if opts.IncludeTimestamps {
			fmt.Fprintf(pending, "[%s] ", msg.Timestamp.UTC().Format(time.RFC3339))
		}
		fmt.Fprintf(pending, "%s: %s\n", msg.Author, msg.Content)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return nil, fmt.Errorf("write transcript: %w", err)
	}
	return &Artifact{Path: path, Messages: len(messages)}, nil
}
