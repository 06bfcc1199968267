package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
)

type ReportService interface {
	Sheet(ctx context.Context) (domain.AttendanceSheet, error)
	Report(ctx context.Context, filter domain.ReportFilter) ([]domain.ReportRow, error)
	Logs(ctx context.Context, date string) ([]domain.AttendanceRecord, error)
	Festivals(ctx context.Context) (map[string]domain.Festival, error)
}

type AttendanceHandler struct {
	service ReportService
	logger  *slog.Logger
}

func NewAttendanceHandler(svc ReportService, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{service: svc, logger: logger}
}

// Sheet GET /api/attendance
func (h *AttendanceHandler) Sheet(c *fiber.Ctx) error {
	sheet, err := h.service.Sheet(c.UserContext())
	if err != nil {
		return domain.ErrStoreUnavailable.WithError(err)
	}
	return c.JSON(sheet)
}

// Report GET /api/attendance/report?stream=&start_date=&end_date=
func (h *AttendanceHandler) Report(c *fiber.Ctx) error {
	filter := domain.ReportFilter{
		Stream:    c.Query("stream"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	}
	rows, err := h.service.Report(c.UserContext(), filter)
	if err != nil {
		return storeOr(err)
	}
	return c.JSON(rows)
}

// Logs GET /api/attendance/logs?date=
func (h *AttendanceHandler) Logs(c *fiber.Ctx) error {
	logs, err := h.service.Logs(c.UserContext(), c.Query("date"))
	if err != nil {
		return storeOr(err)
	}
	return c.JSON(logs)
}

// Festivals GET /api/festivals
func (h *AttendanceHandler) Festivals(c *fiber.Ctx) error {
	festivals, err := h.service.Festivals(c.UserContext())
	if err != nil {
		return domain.ErrStoreUnavailable.WithError(err)
	}
	return c.JSON(festivals)
}

// storeOr mantém erros de validação e trata o resto como falha do store.
func storeOr(err error) error {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return domain.ErrStoreUnavailable.WithError(err)
}
