// Package router dispatches inbound platform events to lifecycle and
// administrative handlers. Every dispatch is isolated: a panicking or
// failing handler is logged and answered, never allowed to take the
// process down.
package router

import (
	"context"
	"runtime/debug"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/gateway"
	"github.com/spec-kit/ticket-desk/internal/observability"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// HandlerFunc processes one inbound event.
type HandlerFunc func(ctx context.Context, ev *gateway.Event) error

type routeKey struct {
	kind       gateway.EventKind
	identifier string
}

// Router maps event kind + identifier to exactly one handler.
type Router struct {
	handlers map[routeKey]HandlerFunc
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// New builds an empty router.
func New(logger *zap.Logger, metrics *observability.Metrics) *Router {
	return &Router{
		handlers: make(map[routeKey]HandlerFunc),
		logger:   logger,
		metrics:  metrics,
	}
}

// Handle registers the handler for an event kind and identifier.
// Registering the same pair twice is a programming error.
func (r *Router) Handle(kind gateway.EventKind, identifier string, fn HandlerFunc) {
	key := routeKey{kind: kind, identifier: identifier}
	if _, dup := r.handlers[key]; dup {
		panic("router: duplicate handler for " + string(kind) + " " + identifier)
	}
	r.handlers[key] = fn
}

// Dispatch routes one event. Unknown events are logged and dropped; known
// ones run under panic isolation, and a failure the handler did not answer
// is turned into a generic notice to the actor.
func (r *Router) Dispatch(ctx context.Context, ev *gateway.Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	fn, ok := r.handlers[routeKey{kind: ev.Kind, identifier: ev.Identifier}]
	if !ok {
		r.logger.Debug("no handler for event",
			zap.String("event_id", ev.ID),
			zap.String("kind", string(ev.Kind)),
			zap.String("identifier", ev.Identifier))
		return
	}

	r.metrics.RecordEvent(string(ev.Kind), ev.Identifier)

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("handler panicked",
				zap.String("event_id", ev.ID),
				zap.String("identifier", ev.Identifier),
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()))
			r.metrics.RecordError("PANIC")
			r.respondFailure(ev, "Something went wrong handling that request.")
		}
	}()

	if err := fn(ctx, ev); err != nil {
		domainErr := apperrors.ToDomainError(err)
		r.metrics.RecordError(domainErr.Code)
		switch domainErr.Code {
		case "NOT_A_TICKET", "UNAUTHORIZED", "QUOTA_EXCEEDED", "VALIDATION_FAILED", "CONFLICT":
			// Validation-class failures carry a user-presentable message.
			r.logger.Info("event rejected",
				zap.String("event_id", ev.ID),
				zap.String("identifier", ev.Identifier),
				zap.String("code", domainErr.Code))
			r.respondFailure(ev, domainErr.Message)
		default:
			r.logger.Error("handler failed",
				zap.String("event_id", ev.ID),
				zap.String("identifier", ev.Identifier),
				zap.String("code", domainErr.Code),
				zap.Error(domainErr))
			r.respondFailure(ev, "Something went wrong handling that request.")
		}
	}
}

func (r *Router) respondFailure(ev *gateway.Event, message string) {
	if ev.Responder == nil || ev.Responder.Responded() {
		return
	}
	if err := ev.Responder.Respond(message); err != nil {
		r.logger.Warn("failure response not delivered",
			zap.String("event_id", ev.ID), zap.Error(err))
	}
}
