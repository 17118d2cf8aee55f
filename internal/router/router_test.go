package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/gateway"
	"github.com/spec-kit/ticket-desk/internal/observability"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

type testResponder struct {
	content   string
	responded bool
}

func (r *testResponder) Respond(content string) error {
	r.content = content
	r.responded = true
	return nil
}

func (r *testResponder) Responded() bool { return r.responded }

func buttonEvent(identifier string) (*gateway.Event, *testResponder) {
	responder := &testResponder{}
	return &gateway.Event{
		Kind:       gateway.EventButton,
		Identifier: identifier,
		ChannelID:  "100000000000000001",
		Responder:  responder,
	}, responder
}

func TestDispatchRoutesByKindAndIdentifier(t *testing.T) {
	r := New(zap.NewNop(), observability.NewMetrics())
	var hits []string
	r.Handle(gateway.EventButton, "a", func(ctx context.Context, ev *gateway.Event) error {
		hits = append(hits, "button-a")
		return nil
	})
	r.Handle(gateway.EventCommand, "a", func(ctx context.Context, ev *gateway.Event) error {
		hits = append(hits, "command-a")
		return nil
	})

	ev, _ := buttonEvent("a")
	r.Dispatch(context.Background(), ev)
	assert.Equal(t, []string{"button-a"}, hits)
}

func TestDispatchUnknownEventIgnored(t *testing.T) {
	r := New(zap.NewNop(), observability.NewMetrics())
	ev, responder := buttonEvent("nothing-registered")

	r.Dispatch(context.Background(), ev)
	assert.False(t, responder.responded)
}

func TestDispatchIsolatesPanics(t *testing.T) {
	r := New(zap.NewNop(), observability.NewMetrics())
	r.Handle(gateway.EventButton, "boom", func(ctx context.Context, ev *gateway.Event) error {
		panic("handler bug")
	})

	ev, responder := buttonEvent("boom")
	require.NotPanics(t, func() {
		r.Dispatch(context.Background(), ev)
	})
	assert.True(t, responder.responded)
	assert.Equal(t, "Something went wrong handling that request.", responder.content)
}

func TestDispatchForwardsValidationMessages(t *testing.T) {
	r := New(zap.NewNop(), observability.NewMetrics())
	r.Handle(gateway.EventButton, "close", func(ctx context.Context, ev *gateway.Event) error {
		return apperrors.NewNotATicket(ev.ChannelID)
	})

	ev, responder := buttonEvent("close")
	r.Dispatch(context.Background(), ev)
	assert.Equal(t, "this channel is not a ticket", responder.content)
}

func TestDispatchHidesInternalErrors(t *testing.T) {
	r := New(zap.NewNop(), observability.NewMetrics())
	r.Handle(gateway.EventButton, "flaky", func(ctx context.Context, ev *gateway.Event) error {
		return errors.New("pool exhausted: 10.0.0.7:5432")
	})

	ev, responder := buttonEvent("flaky")
	r.Dispatch(context.Background(), ev)
	assert.Equal(t, "Something went wrong handling that request.", responder.content)
}

func TestDispatchDoesNotDoubleRespond(t *testing.T) {
	r := New(zap.NewNop(), observability.NewMetrics())
	r.Handle(gateway.EventButton, "half", func(ctx context.Context, ev *gateway.Event) error {
		_ = ev.Responder.Respond("partial result")
		return errors.New("late failure")
	})

	ev, responder := buttonEvent("half")
	r.Dispatch(context.Background(), ev)
	assert.Equal(t, "partial result", responder.content)
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	r := New(zap.NewNop(), observability.NewMetrics())
	h := func(ctx context.Context, ev *gateway.Event) error { return nil }
	r.Handle(gateway.EventButton, "a", h)
	assert.Panics(t, func() {
		r.Handle(gateway.EventButton, "a", h)
	})
}
