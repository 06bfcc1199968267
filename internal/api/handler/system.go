package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
)

type StatusService interface {
	Overview(ctx context.Context) domain.SystemOverview
}

type SystemHandler struct {
	service StatusService
}

func NewSystemHandler(svc StatusService) *SystemHandler {
	return &SystemHandler{service: svc}
}

// Status GET /api/system-status
func (h *SystemHandler) Status(c *fiber.Ctx) error {
	return c.JSON(h.service.Overview(c.UserContext()))
}
