package handler

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/chamada/internal/admin"
	"github.com/saturnino-fabrica-de-software/chamada/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/chamada/internal/audit"
	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
)

type AuthHandler struct {
	credentials  admin.Credentials
	jwt          *admin.JWTService
	secureCookie bool
	audit        audit.Logger
	logger       *slog.Logger
}

func NewAuthHandler(credentials admin.Credentials, jwt *admin.JWTService, secureCookie bool, auditLogger audit.Logger, logger *slog.Logger) *AuthHandler {
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}
	return &AuthHandler{
		credentials:  credentials,
		jwt:          jwt,
		secureCookie: secureCookie,
		audit:        auditLogger,
		logger:       logger,
	}
}

type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// MessageResponse is the {success, message} envelope used by mutating endpoints.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Login POST /login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	username := strings.TrimSpace(req.Username)
	if !h.credentials.Check(username, req.Password) {
		h.record(c, audit.Event{EventType: audit.EventLoginFailed, Actor: username, Error: "invalid credentials"})
		return domain.ErrInvalidCredentials
	}

	token, err := h.jwt.GenerateToken(h.credentials.Username)
	if err != nil {
		return domain.ErrInternal.WithError(err)
	}
	middleware.SetSession(c, token, h.jwt.ExpiresIn(), h.secureCookie)

	h.record(c, audit.Event{EventType: audit.EventLoginSucceeded, Actor: h.credentials.Username, Success: true})
	return c.JSON(MessageResponse{Success: true, Message: "Login successful"})
}

func (h *AuthHandler) record(c *fiber.Ctx, event audit.Event) {
	event.IPAddress = c.IP()
	event.UserAgent = c.Get(fiber.HeaderUserAgent)
	if err := h.audit.Log(c.UserContext(), event); err != nil {
		h.logger.Warn("audit log failed", "event_type", event.EventType, "error", err)
	}
}

// Logout GET /logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	middleware.ClearSession(c, h.secureCookie)
	return c.Redirect("/", fiber.StatusFound)
}
