// Package quota enforces the per-user open-ticket caps evaluated at
// creation time.
package quota

import (
	"fmt"

	"github.com/spec-kit/ticket-desk/internal/config"
	"github.com/spec-kit/ticket-desk/internal/domain"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// Guard holds the configured caps.
type Guard struct {
	maxTotal       int
	maxPerCategory int
}

// NewGuard builds the guard from configuration.
func NewGuard(cfg config.QuotaConfig) *Guard {
	return &Guard{maxTotal: cfg.MaxTotal, maxPerCategory: cfg.MaxPerCategory}
}

// Check evaluates both caps against the user's currently open tickets.
// Returns nil when creation is allowed, or a QUOTA_EXCEEDED error naming
// the cap that was hit.
func (g *Guard) Check(userID string, category domain.Category, open []*domain.TicketRecord) error {
	total := 0
	inCategory := 0
	for _, rec := range open {
		if rec.UserID != userID || !rec.Open() {
			continue
		}
		total++
		if rec.Category == category {
			inCategory++
		}
	}

	if total >= g.maxTotal {
		return apperrors.NewQuotaExceeded(
			fmt.Sprintf("you already have %d open tickets, the maximum allowed", total),
			map[string]any{"cap": "total", "limit": g.maxTotal},
		)
	}
	if inCategory >= g.maxPerCategory {
		return apperrors.NewQuotaExceeded(
			fmt.Sprintf("you already have %d open %s tickets, the maximum allowed for this category", inCategory, category.Label()),
			map[string]any{"cap": "category", "category": string(category), "limit": g.maxPerCategory},
		)
	}
	return nil
}
