package router

import (
	"context"
	"fmt"

	"github.com/spec-kit/ticket-desk/internal/admin"
	"github.com/spec-kit/ticket-desk/internal/auth"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/gateway"
	"github.com/spec-kit/ticket-desk/internal/lifecycle"
	"github.com/spec-kit/ticket-desk/internal/panel"
	"github.com/spec-kit/ticket-desk/internal/registry"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// Command identifiers.
const (
	CommandOpen     = "ticket-open"
	CommandAttach   = "ticket-attach"
	CommandDiagnose = "ticket-diagnose"
)

// OpenButtonID names the creation button for one category on the request
// panel message.
func OpenButtonID(category domain.Category) string {
	return "ticket-open:" + string(category)
}

// Deps bundles everything the ticket routes need.
type Deps struct {
	Lifecycle *lifecycle.Service
	Admin     *admin.Service
	Registry  *registry.Registry
	Policy    *auth.Policy
	Panels    *panel.Registry
}

// Register wires the full route table: creation entry points (command,
// per-category button, per-category modal), the ticket controls, and the
// administrative commands.
func Register(r *Router, deps Deps) {
	r.Handle(gateway.EventCommand, CommandOpen, deps.handleOpenCommand)
	for _, cat := range domain.Categories() {
		r.Handle(gateway.EventButton, OpenButtonID(cat), deps.createHandler(cat))
		r.Handle(gateway.EventModal, panel.ModalID(cat), deps.createHandler(cat))
	}

	r.Handle(gateway.EventButton, lifecycle.ControlClose, deps.handleCloseRequest)
	r.Handle(gateway.EventButton, lifecycle.ControlCloseConfirm, deps.staffGated(deps.confirmClose))
	r.Handle(gateway.EventButton, lifecycle.ControlCloseCancel, deps.handleCloseCancel)
	r.Handle(gateway.EventButton, lifecycle.ControlReopen, deps.staffGated(deps.reopen))
	r.Handle(gateway.EventButton, lifecycle.ControlDelete, deps.staffGated(deps.deleteTicket))
	r.Handle(gateway.EventButton, lifecycle.ControlTranscript, deps.handleTranscript)

	r.Handle(gateway.EventCommand, CommandAttach, deps.adminGated(deps.attach))
	r.Handle(gateway.EventCommand, CommandDiagnose, deps.adminGated(deps.diagnose))
}

// resolveTicket loads the record for the event's channel, refusing events
// against channels the registry does not know.
func (d Deps) resolveTicket(ctx context.Context, ev *gateway.Event) (*domain.TicketRecord, error) {
	rec, ok := d.Registry.Get(ctx, ev.ChannelID)
	if !ok {
		return nil, apperrors.NewNotATicket(ev.ChannelID)
	}
	return rec, nil
}

// staffGated resolves the ticket, then requires staff entitlement for the
// record's current category before invoking the wrapped transition.
func (d Deps) staffGated(fn func(ctx context.Context, ev *gateway.Event, rec *domain.TicketRecord) error) HandlerFunc {
	return func(ctx context.Context, ev *gateway.Event) error {
		rec, err := d.resolveTicket(ctx, ev)
		if err != nil {
			return err
		}
		if !d.Policy.IsStaff(ev.Actor, rec.Category) {
			return apperrors.NewUnauthorized("you are not allowed to manage this ticket")
		}
		return fn(ctx, ev, rec)
	}
}

// adminGated requires administrative privilege.
func (d Deps) adminGated(fn HandlerFunc) HandlerFunc {
	return func(ctx context.Context, ev *gateway.Event) error {
		if !ev.Actor.Administrator {
			return apperrors.NewUnauthorized("administrator privilege required")
		}
		return fn(ctx, ev)
	}
}

// createHandler funnels one category's creation entry points into the
// lifecycle create transition.
func (d Deps) createHandler(category domain.Category) HandlerFunc {
	return func(ctx context.Context, ev *gateway.Event) error {
		var form domain.FormData
		if p, ok := d.Panels.ByCategory(category); ok && len(ev.Fields) > 0 {
			form = p.Extract(ev.Fields)
		}
		rec, err := d.Lifecycle.Create(ctx, ev.Actor, category, form)
		if err != nil {
			return err
		}
		return ev.Responder.Respond(fmt.Sprintf("Your %s ticket is ready: <#%s>", category.Label(), rec.ChannelID))
	}
}

// handleOpenCommand is the slash-invocation creation path: the category
// comes from the command's own input.
func (d Deps) handleOpenCommand(ctx context.Context, ev *gateway.Event) error {
	raw := ev.Fields["category"]
	if raw == "" && len(ev.Values) > 0 {
		raw = ev.Values[0]
	}
	category, err := domain.ParseCategory(raw)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"category": raw})
	}
	return d.createHandler(category)(ctx, ev)
}

func (d Deps) handleCloseRequest(ctx context.Context, ev *gateway.Event) error {
	if err := d.Lifecycle.RequestClose(ctx, ev.Actor, ev.ChannelID); err != nil {
		return err
	}
	return ev.Responder.Respond("Close requested, awaiting staff confirmation.")
}

func (d Deps) confirmClose(ctx context.Context, ev *gateway.Event, _ *domain.TicketRecord) error {
	if err := d.Lifecycle.ConfirmClose(ctx, ev.Actor, ev.ChannelID); err != nil {
		return err
	}
	return ev.Responder.Respond("Ticket closed.")
}

func (d Deps) handleCloseCancel(ctx context.Context, ev *gateway.Event) error {
	if err := d.Lifecycle.CancelClose(ctx, ev.Actor, ev.ChannelID); err != nil {
		return err
	}
	return ev.Responder.Respond("Close cancelled.")
}

func (d Deps) reopen(ctx context.Context, ev *gateway.Event, _ *domain.TicketRecord) error {
	if err := d.Lifecycle.Reopen(ctx, ev.Actor, ev.ChannelID); err != nil {
		return err
	}
	return ev.Responder.Respond("Ticket reopened.")
}

func (d Deps) deleteTicket(ctx context.Context, ev *gateway.Event, _ *domain.TicketRecord) error {
	if err := d.Lifecycle.Delete(ctx, ev.Actor, ev.ChannelID); err != nil {
		return err
	}
	return ev.Responder.Respond("Ticket deleted. The channel will be removed shortly.")
}

func (d Deps) handleTranscript(ctx context.Context, ev *gateway.Event) error {
	artifact, err := d.Lifecycle.Transcript(ctx, ev.ChannelID)
	if err != nil {
		return err
	}
	return ev.Responder.Respond(fmt.Sprintf("Transcript saved (%d messages): %s", artifact.Messages, artifact.Path))
}

func (d Deps) attach(ctx context.Context, ev *gateway.Event) error {
	rec, err := d.Admin.AttachChannel(ctx, ev.ChannelID, ev.Fields["category"], ev.Fields["user"])
	if err != nil {
		return err
	}
	return ev.Responder.Respond(fmt.Sprintf("Channel attached as a %s ticket for <@%s>.", rec.Category.Label(), rec.UserID))
}

func (d Deps) diagnose(ctx context.Context, ev *gateway.Event) error {
	report := d.Admin.Diagnose(ctx, ev.ChannelID)
	return ev.Responder.Respond(admin.FormatReport(report))
}
