package gateway

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LogChat is the development adapter: it fabricates channel IDs, remembers
// which channels it created, and logs every call instead of talking to a
// platform. Deployments replace it with a real client adapter.
type LogChat struct {
	logger *zap.Logger

	mu       sync.Mutex
	channels map[string][]Message
}

// NewLogChat builds the adapter.
func NewLogChat(logger *zap.Logger) *LogChat {
	return &LogChat{logger: logger, channels: make(map[string][]Message)}
}

func (c *LogChat) CreateChannel(ctx context.Context, spec ChannelSpec) (string, error) {
	id := uuid.NewString()
	c.mu.Lock()
	c.channels[id] = nil
	c.mu.Unlock()
	c.logger.Info("create channel", zap.String("channel_id", id), zap.String("name", spec.Name))
	return id, nil
}

func (c *LogChat) EditPermission(ctx context.Context, channelID string, overwrite PermissionOverwrite) error {
	c.logger.Info("edit permission",
		zap.String("channel_id", channelID),
		zap.String("target", overwrite.TargetID),
		zap.Strings("allow", overwrite.Allow),
		zap.Strings("deny", overwrite.Deny))
	return nil
}

func (c *LogChat) PostNotice(ctx context.Context, channelID string, notice Notice) error {
	c.logger.Info("post notice",
		zap.String("channel_id", channelID),
		zap.String("title", notice.Title))
	return nil
}

func (c *LogChat) DeleteChannel(ctx context.Context, channelID string) error {
	c.mu.Lock()
	delete(c.channels, channelID)
	c.mu.Unlock()
	c.logger.Info("delete channel", zap.String("channel_id", channelID))
	return nil
}

// ChannelExists claims every channel exists. The adapter cannot verify
// channels created before this process started, and answering false would
// make startup reconciliation prune live records.
func (c *LogChat) ChannelExists(ctx context.Context, channelID string) (bool, error) {
	return true, nil
}

func (c *LogChat) FetchMessages(ctx context.Context, channelID string) ([]Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := make([]Message, len(c.channels[channelID]))
	copy(msgs, c.channels[channelID])
	return msgs, nil
}
