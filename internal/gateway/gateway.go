// Package gateway defines the narrow capability surface the ticket engine
// needs from the chat platform. The wire protocol behind it is out of scope;
// implementations adapt whatever client library the deployment uses.
package gateway

import (
	"context"
	"time"
)

// Permission names understood by the engine.
const (
	PermissionView = "view"
	PermissionSend = "send"
)

// Overwrite target types.
const (
	TargetMember = "member"
	TargetRole   = "role"
)

// PermissionOverwrite grants or denies permissions for one member or role
// on a channel.
type PermissionOverwrite struct {
	TargetID   string
	TargetType string
	Allow      []string
	Deny       []string
}

// ChannelSpec describes a channel to create for a new ticket.
type ChannelSpec struct {
	Name       string
	Topic      string
	Overwrites []PermissionOverwrite
}

// Button is one actionable control attached to a notice.
type Button struct {
	ID    string
	Label string
}

// Notice is a formatted message posted into a ticket channel. MentionRoles
// lists role IDs the platform should ping; how mentions are rendered is the
// implementation's business.
type Notice struct {
	Title        string
	Body         string
	Color        int
	Buttons      []Button
	MentionRoles []string
}

// Message is one entry of a channel's history, as consumed by the
// transcript generator.
type Message struct {
	Author    string
	Content   string
	Timestamp time.Time
}

// Chat is the chat-platform collaborator.
type Chat interface {
	CreateChannel(ctx context.Context, spec ChannelSpec) (string, error)
	EditPermission(ctx context.Context, channelID string, overwrite PermissionOverwrite) error
	PostNotice(ctx context.Context, channelID string, notice Notice) error
	DeleteChannel(ctx context.Context, channelID string) error
	ChannelExists(ctx context.Context, channelID string) (bool, error)
	FetchMessages(ctx context.Context, channelID string) ([]Message, error)
}
