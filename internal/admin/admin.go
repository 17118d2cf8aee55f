// Package admin implements the privileged operations: attaching an
// existing channel to the ticket system and dumping diagnostics.
package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/registry"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// Service exposes the administrative surface over the registry.
type Service struct {
	registry *registry.Registry
	logger   *zap.Logger
	now      func() time.Time
}

// NewService constructs the service.
func NewService(reg *registry.Registry, logger *zap.Logger) *Service {
	return &Service{registry: reg, logger: logger, now: time.Now}
}

// AttachChannel registers a pre-existing channel as a ticket of the given
// category and owner. Rejected when the channel is already attached, the
// category is unknown, or either identifier is malformed.
func (s *Service) AttachChannel(ctx context.Context, channelID, categoryRaw, ownerID string) (*domain.TicketRecord, error) {
	if !domain.ValidSnowflake(channelID) {
		return nil, apperrors.NewValidationError("malformed channel identifier", map[string]any{"channel_id": channelID})
	}
	if !domain.ValidSnowflake(ownerID) {
		return nil, apperrors.NewValidationError("malformed user identifier", map[string]any{"user_id": ownerID})
	}
	category, err := domain.ParseCategory(categoryRaw)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"category": categoryRaw})
	}
	if _, exists := s.registry.Get(ctx, channelID); exists {
		return nil, apperrors.NewConflict("channel is already a ticket", map[string]any{"channel_id": channelID})
	}

	rec := &domain.TicketRecord{
		ChannelID:          channelID,
		UserID:             ownerID,
		Category:           category,
		CreatedAt:          s.now().UTC(),
		ManuallyRegistered: true,
	}
	if err := s.registry.Set(ctx, rec); err != nil {
		s.logger.Error("attached ticket not persisted", zap.String("channel_id", channelID), zap.Error(err))
	}

	s.logger.Info("channel attached as ticket",
		zap.String("channel_id", channelID),
		zap.String("user_id", ownerID),
		zap.String("category", string(category)))
	return rec, nil
}

// CategoryStats aggregates counts for one category.
type CategoryStats struct {
	Open   int `json:"open"`
	Closed int `json:"closed"`
}

// Report is the diagnostic summary: the current channel's ticket (if any)
// plus aggregate store statistics.
type Report struct {
	Ticket      *domain.TicketRecord             `json:"ticket,omitempty"`
	TotalOpen   int                              `json:"totalOpen"`
	TotalClosed int                              `json:"totalClosed"`
	PerCategory map[domain.Category]CategoryStats `json:"perCategory"`
}

// Diagnose builds the report for a channel. A channel with no record still
// yields the aggregate half.
func (s *Service) Diagnose(ctx context.Context, channelID string) *Report {
	report := &Report{PerCategory: make(map[domain.Category]CategoryStats)}
	if rec, ok := s.registry.Get(ctx, channelID); ok {
		report.Ticket = rec
	}
	for _, rec := range s.registry.Snapshot(ctx) {
		stats := report.PerCategory[rec.Category]
		if rec.Open() {
			stats.Open++
			report.TotalOpen++
		} else {
			stats.Closed++
			report.TotalClosed++
		}
		report.PerCategory[rec.Category] = stats
	}
	return report
}

// FormatReport renders the report for a chat reply.
func FormatReport(report *Report) string {
	var b strings.Builder
	if report.Ticket == nil {
		b.WriteString("This channel is not a ticket.\n")
	} else {
		t := report.Ticket
		state := "open"
		if t.Closed {
			state = "closed"
		}
		fmt.Fprintf(&b, "Ticket: %s (%s), owner <@%s>, created %s",
			t.Category.Label(), state, t.UserID, t.CreatedAt.UTC().Format(time.RFC3339))
		if t.ManuallyRegistered {
			b.WriteString(", manually registered")
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Store: %d open / %d closed\n", report.TotalOpen, report.TotalClosed)
	for _, cat := range domain.Categories() {
		stats, ok := report.PerCategory[cat]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "  %s: %d open / %d closed\n", cat.Label(), stats.Open, stats.Closed)
	}
	return strings.TrimRight(b.String(), "\n")
}
