package gateway

import "github.com/spec-kit/ticket-desk/internal/domain"

// EventKind discriminates inbound platform events.
type EventKind string

const (
	EventCommand EventKind = "command"
	EventButton  EventKind = "button"
	EventSelect  EventKind = "select"
	EventModal   EventKind = "modal"
)

// Responder answers the interaction that triggered an event. The platform
// accepts at most one response per interaction, so Responded guards the
// router's generic-failure fallback.
type Responder interface {
	Respond(content string) error
	Responded() bool
}

// Event is one inbound interaction, already decoded from the platform's
// wire format.
type Event struct {
	ID         string
	Kind       EventKind
	Identifier string
	ChannelID  string
	Actor      domain.Actor
	Values     []string
	Fields     map[string]string
	Responder  Responder
}
