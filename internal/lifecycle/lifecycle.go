// Package lifecycle implements the ticket state machine: create,
// close-request, confirm, cancel, reopen and delete, with their side
// effects against the chat platform and the durable registry.
package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/auth"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/gateway"
	"github.com/spec-kit/ticket-desk/internal/observability"
	"github.com/spec-kit/ticket-desk/internal/panel"
	"github.com/spec-kit/ticket-desk/internal/quota"
	"github.com/spec-kit/ticket-desk/internal/registry"
	"github.com/spec-kit/ticket-desk/internal/transcript"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// Control identifiers for the buttons the engine attaches to its notices.
const (
	ControlClose        = "ticket-close"
	ControlCloseConfirm = "ticket-close-confirm"
	ControlCloseCancel  = "ticket-close-cancel"
	ControlReopen       = "ticket-reopen"
	ControlDelete       = "ticket-delete"
	ControlTranscript   = "ticket-transcript"
)

// Service coordinates ticket transitions.
type Service struct {
	registry    *registry.Registry
	chat        gateway.Chat
	policy      *auth.Policy
	quota       *quota.Guard
	panels      *panel.Registry
	transcripts transcript.Generator
	metrics     *observability.Metrics
	logger      *zap.Logger
	deleteGrace time.Duration

	now      func() time.Time
	schedule func(d time.Duration, fn func())

	mu           sync.Mutex
	pendingClose map[string]struct{}
}

// Dependencies bundles collaborators for the service.
type Dependencies struct {
	Registry    *registry.Registry
	Chat        gateway.Chat
	Policy      *auth.Policy
	Quota       *quota.Guard
	Panels      *panel.Registry
	Transcripts transcript.Generator
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	DeleteGrace time.Duration
}

// NewService constructs the service.
func NewService(deps Dependencies) *Service {
	return &Service{
		registry:     deps.Registry,
		chat:         deps.Chat,
		policy:       deps.Policy,
		quota:        deps.Quota,
		panels:       deps.Panels,
		transcripts:  deps.Transcripts,
		metrics:      deps.Metrics,
		logger:       deps.Logger,
		deleteGrace:  deps.DeleteGrace,
		now:          time.Now,
		schedule:     func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },
		pendingClose: make(map[string]struct{}),
	}
}

// Create opens a new ticket: quota check, channel allocation, record write,
// then the welcome notice and staff notification. The quota check and the
// insert are not one atomic step; two simultaneous creations by the same
// user can both pass the check. Accepted at this request volume.
func (s *Service) Create(ctx context.Context, actor domain.Actor, category domain.Category, form domain.FormData) (*domain.TicketRecord, error) {
	if err := s.quota.Check(actor.ID, category, s.registry.OpenByUser(ctx, actor.ID)); err != nil {
		return nil, err
	}

	overwrites := []gateway.PermissionOverwrite{
		{
			TargetID:   actor.ID,
			TargetType: gateway.TargetMember,
			Allow:      []string{gateway.PermissionView, gateway.PermissionSend},
		},
	}
	staffRoles := s.policy.RolesFor(category)
	for _, role := range staffRoles {
		overwrites = append(overwrites, gateway.PermissionOverwrite{
			TargetID:   role,
			TargetType: gateway.TargetRole,
			Allow:      []string{gateway.PermissionView, gateway.PermissionSend},
		})
	}

	channelID, err := s.chat.CreateChannel(ctx, gateway.ChannelSpec{
		Name:       channelName(category, actor.ID),
		Topic:      fmt.Sprintf("%s ticket for user %s", category.Label(), actor.ID),
		Overwrites: overwrites,
	})
	if err != nil {
		return nil, apperrors.NewCollaboratorFailure("channel creation", err)
	}

	rec := &domain.TicketRecord{
		ChannelID: channelID,
		UserID:    actor.ID,
		Category:  category,
		CreatedAt: s.now().UTC(),
		FormData:  form,
	}
	if err := s.registry.Set(ctx, rec); err != nil {
		// In-memory state already advanced; keep serving, disk catches up
		// on the next successful save.
		s.logger.Error("ticket record not persisted", zap.String("channel_id", channelID), zap.Error(err))
	}

	body := fmt.Sprintf("Ticket opened by <@%s>.", actor.ID)
	if p, ok := s.panels.ByCategory(category); ok && len(form) > 0 {
		body += "\n\n" + p.Summary(form)
	}
	s.postNotice(ctx, channelID, gateway.Notice{
		Title:        fmt.Sprintf("%s Ticket", category.Label()),
		Body:         body,
		Color:        category.Color(),
		Buttons:      []gateway.Button{{ID: ControlClose, Label: "Close"}},
		MentionRoles: staffRoles,
	})

	s.metrics.RecordTransition("create")
	s.logger.Info("ticket created",
		zap.String("channel_id", channelID),
		zap.String("user_id", actor.ID),
		zap.String("category", string(category)))
	return rec, nil
}

// RequestClose posts the confirmation prompt and marks the channel as
// awaiting confirmation. The record is not touched.
func (s *Service) RequestClose(ctx context.Context, actor domain.Actor, channelID string) error {
	rec, ok := s.registry.Get(ctx, channelID)
	if !ok {
		return apperrors.NewNotATicket(channelID)
	}
	if rec.Closed {
		return apperrors.NewValidationError("ticket is already closed", nil)
	}

	s.mu.Lock()
	s.pendingClose[channelID] = struct{}{}
	s.mu.Unlock()

	return s.chatNotice(ctx, channelID, gateway.Notice{
		Title: "Close this ticket?",
		Body:  fmt.Sprintf("<@%s> requested to close this ticket. A staff member must confirm.", actor.ID),
		Color: rec.Category.Color(),
		Buttons: []gateway.Button{
			{ID: ControlCloseConfirm, Label: "Confirm"},
			{ID: ControlCloseCancel, Label: "Cancel"},
		},
	})
}

// ConfirmClose finalizes a close: revoke the requester's send permission,
// mark the record closed and post the closed notice with reopen/delete
// controls. After a restart the pending set is empty; a surviving prompt
// still confirms against the open record.
func (s *Service) ConfirmClose(ctx context.Context, actor domain.Actor, channelID string) error {
	rec, ok := s.registry.Get(ctx, channelID)
	if !ok {
		return apperrors.NewNotATicket(channelID)
	}
	if rec.Closed {
		return apperrors.NewValidationError("ticket is already closed", nil)
	}

	if err := s.chat.EditPermission(ctx, channelID, gateway.PermissionOverwrite{
		TargetID:   rec.UserID,
		TargetType: gateway.TargetMember,
		Allow:      []string{gateway.PermissionView},
		Deny:       []string{gateway.PermissionSend},
	}); err != nil {
		return apperrors.NewCollaboratorFailure("permission revoke", err)
	}

	now := s.now().UTC()
	rec.Closed = true
	rec.ClosedAt = &now
	rec.ClosedBy = actor.ID
	if err := s.registry.Set(ctx, rec); err != nil {
		s.logger.Error("closed ticket not persisted", zap.String("channel_id", channelID), zap.Error(err))
	}

	s.clearPending(channelID)

	s.postNotice(ctx, channelID, gateway.Notice{
		Title: "Ticket Closed",
		Body:  fmt.Sprintf("Closed by <@%s>.", actor.ID),
		Color: rec.Category.Color(),
		Buttons: []gateway.Button{
			{ID: ControlReopen, Label: "Reopen"},
			{ID: ControlTranscript, Label: "Transcript"},
			{ID: ControlDelete, Label: "Delete"},
		},
	})

	s.metrics.RecordTransition("close")
	s.logger.Info("ticket closed",
		zap.String("channel_id", channelID),
		zap.String("closed_by", actor.ID))
	return nil
}

// CancelClose discards the confirmation exchange. The record is not touched.
func (s *Service) CancelClose(ctx context.Context, actor domain.Actor, channelID string) error {
	if _, ok := s.registry.Get(ctx, channelID); !ok {
		return apperrors.NewNotATicket(channelID)
	}
	s.clearPending(channelID)
	return s.chatNotice(ctx, channelID, gateway.Notice{
		Title: "Close Cancelled",
		Body:  fmt.Sprintf("<@%s> kept the ticket open.", actor.ID),
	})
}

// PendingClose reports whether the channel awaits close confirmation.
func (s *Service) PendingClose(channelID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pendingClose[channelID]
	return ok
}

// Reopen restores a closed ticket: requester regains send permission, the
// closed flag clears and the standard controls are re-posted. ClosedAt and
// ClosedBy stay set.
func (s *Service) Reopen(ctx context.Context, actor domain.Actor, channelID string) error {
	rec, ok := s.registry.Get(ctx, channelID)
	if !ok {
		return apperrors.NewNotATicket(channelID)
	}
	if !rec.Closed {
		return apperrors.NewValidationError("ticket is not closed", nil)
	}

	if err := s.chat.EditPermission(ctx, channelID, gateway.PermissionOverwrite{
		TargetID:   rec.UserID,
		TargetType: gateway.TargetMember,
		Allow:      []string{gateway.PermissionView, gateway.PermissionSend},
	}); err != nil {
		return apperrors.NewCollaboratorFailure("permission restore", err)
	}

	now := s.now().UTC()
	rec.Closed = false
	rec.ReopenedAt = &now
	rec.ReopenedBy = actor.ID
	if err := s.registry.Set(ctx, rec); err != nil {
		s.logger.Error("reopened ticket not persisted", zap.String("channel_id", channelID), zap.Error(err))
	}

	s.postNotice(ctx, channelID, gateway.Notice{
		Title:   "Ticket Reopened",
		Body:    fmt.Sprintf("Reopened by <@%s>.", actor.ID),
		Color:   rec.Category.Color(),
		Buttons: []gateway.Button{{ID: ControlClose, Label: "Close"}},
	})

	s.metrics.RecordTransition("reopen")
	s.logger.Info("ticket reopened",
		zap.String("channel_id", channelID),
		zap.String("reopened_by", actor.ID))
	return nil
}

// Delete archives a transcript on a best-effort basis, removes the record,
// and tears the channel down after the grace delay. The record is gone
// before the channel is; late events in that window resolve to NotATicket.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, channelID string) error {
	rec, ok := s.registry.Get(ctx, channelID)
	if !ok {
		return apperrors.NewNotATicket(channelID)
	}

	if s.transcripts != nil {
		if artifact, err := s.transcripts.Generate(ctx, channelID, transcript.Options{IncludeTimestamps: true}); err != nil {
			s.logger.Warn("transcript archival failed, deleting anyway",
				zap.String("channel_id", channelID), zap.Error(err))
		} else {
			s.logger.Info("transcript archived",
				zap.String("channel_id", channelID),
				zap.String("path", artifact.Path),
				zap.Int("messages", artifact.Messages))
		}
	}

	if err := s.registry.Delete(ctx, channelID); err != nil {
		s.logger.Error("ticket removal not persisted", zap.String("channel_id", channelID), zap.Error(err))
	}
	s.clearPending(channelID)

	s.schedule(s.deleteGrace, func() {
		if err := s.chat.DeleteChannel(context.Background(), channelID); err != nil {
			s.logger.Error("channel deletion failed", zap.String("channel_id", channelID), zap.Error(err))
		}
	})

	s.metrics.RecordTransition("delete")
	s.logger.Info("ticket deleted",
		zap.String("channel_id", channelID),
		zap.String("user_id", rec.UserID),
		zap.String("deleted_by", actor.ID))
	return nil
}

// Transcript generates an artifact on demand for an existing ticket.
func (s *Service) Transcript(ctx context.Context, channelID string) (*transcript.Artifact, error) {
	if _, ok := s.registry.Get(ctx, channelID); !ok {
		return nil, apperrors.NewNotATicket(channelID)
	}
	artifact, err := s.transcripts.Generate(ctx, channelID, transcript.Options{IncludeTimestamps: true})
	if err != nil {
		return nil, apperrors.NewCollaboratorFailure("transcript generation", err)
	}
	return artifact, nil
}

func (s *Service) clearPending(channelID string) {
	s.mu.Lock()
	delete(s.pendingClose, channelID)
	s.mu.Unlock()
}

// postNotice is the best-effort variant: a notice that fails to send never
// fails the transition that posted it.
func (s *Service) postNotice(ctx context.Context, channelID string, notice gateway.Notice) {
	if err := s.chat.PostNotice(ctx, channelID, notice); err != nil {
		s.logger.Warn("notice not delivered", zap.String("channel_id", channelID), zap.Error(err))
	}
}

// chatNotice is the fallible variant, for transitions whose only side
// effect is the notice itself.
func (s *Service) chatNotice(ctx context.Context, channelID string, notice gateway.Notice) error {
	if err := s.chat.PostNotice(ctx, channelID, notice); err != nil {
		return apperrors.NewCollaboratorFailure("message post", err)
	}
	return nil
}

func channelName(category domain.Category, userID string) string {
	suffix := userID
	if len(suffix) > 4 {
		suffix = suffix[len(suffix)-4:]
	}
	return strings.ToLower(fmt.Sprintf("%s-%s", category, suffix))
}
