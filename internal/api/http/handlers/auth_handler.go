package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-desk/internal/auth"
	"github.com/spec-kit/ticket-desk/internal/config"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// AuthHandler exchanges the admin password for a bearer token.
type AuthHandler struct {
	cfg    config.AdminConfig
	tokens *auth.TokenManager
}

// NewAuthHandler returns a new handler instance.
func NewAuthHandler(cfg config.AdminConfig, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{cfg: cfg, tokens: tokens}
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login verifies the admin password against its configured bcrypt hash and
// issues a JWT for the administrative routes.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	if h.cfg.PasswordHash == "" {
		return apperrors.NewDomainError("UNAUTHENTICATED", "admin login is not configured", fiber.StatusUnauthorized, nil)
	}

	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if err := auth.ComparePassword(h.cfg.PasswordHash, req.Password); err != nil {
		return apperrors.NewDomainError("UNAUTHENTICATED", "invalid credentials", fiber.StatusUnauthorized, nil)
	}

	token, expiresAt, err := h.tokens.GenerateToken()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(loginResponse{Token: token, ExpiresAt: expiresAt})
}
