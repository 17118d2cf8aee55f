package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/gateway"
	"github.com/spec-kit/ticket-desk/internal/router"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// EventsHandler receives platform interaction events over the webhook and
// feeds them to the router. The reply body carries the handler's response
// back to the platform, interaction-webhook style.
type EventsHandler struct {
	router *router.Router
}

// NewEventsHandler returns a new handler instance.
func NewEventsHandler(r *router.Router) *EventsHandler {
	return &EventsHandler{router: r}
}

type inboundEvent struct {
	ID         string            `json:"id"`
	Kind       string            `json:"kind"`
	Identifier string            `json:"identifier"`
	ChannelID  string            `json:"channel_id"`
	Actor      inboundActor      `json:"actor"`
	Values     []string          `json:"values"`
	Fields     map[string]string `json:"fields"`
}

type inboundActor struct {
	ID            string   `json:"id"`
	Roles         []string `json:"roles"`
	Administrator bool     `json:"administrator"`
}

// webhookResponder buffers the single allowed response for the HTTP reply.
type webhookResponder struct {
	content   string
	responded bool
}

func (r *webhookResponder) Respond(content string) error {
	r.content = content
	r.responded = true
	return nil
}

func (r *webhookResponder) Responded() bool { return r.responded }

// Receive decodes one event and dispatches it synchronously.
func (h *EventsHandler) Receive(c *fiber.Ctx) error {
	var in inboundEvent
	if err := c.BodyParser(&in); err != nil {
		return apperrors.NewValidationError("invalid event body", nil)
	}
	switch gateway.EventKind(in.Kind) {
	case gateway.EventCommand, gateway.EventButton, gateway.EventSelect, gateway.EventModal:
	default:
		return apperrors.NewValidationError("unknown event kind", map[string]any{"kind": in.Kind})
	}

	responder := &webhookResponder{}
	ev := &gateway.Event{
		ID:         in.ID,
		Kind:       gateway.EventKind(in.Kind),
		Identifier: in.Identifier,
		ChannelID:  in.ChannelID,
		Actor: domain.Actor{
			ID:            in.Actor.ID,
			Roles:         in.Actor.Roles,
			Administrator: in.Actor.Administrator,
		},
		Values:    in.Values,
		Fields:    in.Fields,
		Responder: responder,
	}

	h.router.Dispatch(c.UserContext(), ev)

	if !responder.responded {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(fiber.Map{"response": responder.content})
}
