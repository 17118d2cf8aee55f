package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-desk/internal/admin"
	"github.com/spec-kit/ticket-desk/internal/observability"
)

// AdminHandler serves the JWT-gated diagnostics surface.
type AdminHandler struct {
	admin   *admin.Service
	metrics *observability.Metrics
}

// NewAdminHandler returns a new handler instance.
func NewAdminHandler(adminSvc *admin.Service, metrics *observability.Metrics) *AdminHandler {
	return &AdminHandler{admin: adminSvc, metrics: metrics}
}

// Stats dumps aggregate store statistics and process counters. The
// optional channel_id query scopes the per-ticket half of the report.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	report := h.admin.Diagnose(c.UserContext(), c.Query("channel_id"))
	events, transitions, errorCounts := h.metrics.Snapshot()
	return c.JSON(fiber.Map{
		"report": report,
		"counters": fiber.Map{
			"events":      events,
			"transitions": transitions,
			"errors":      errorCounts,
		},
	})
}
