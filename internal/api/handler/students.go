package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/chamada/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/chamada/internal/audit"
	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
	"github.com/saturnino-fabrica-de-software/chamada/internal/service"
)

const maxImageSize = 10 * 1024 * 1024 // 10MB

// StudentService interface for the service
type StudentService interface {
	Enroll(ctx context.Context, req service.EnrollRequest) (*domain.Student, error)
	Get(ctx context.Context, id string) (*domain.Student, error)
	List(ctx context.Context) (map[string]domain.StudentSummary, error)
	Delete(ctx context.Context, id string) error
}

type StudentHandler struct {
	service StudentService
	audit   audit.Logger
	logger  *slog.Logger
}

func NewStudentHandler(svc StudentService, auditLogger audit.Logger, logger *slog.Logger) *StudentHandler {
	if auditLogger == nil {
		auditLogger = &audit.NoOpLogger{}
	}
	return &StudentHandler{service: svc, audit: auditLogger, logger: logger}
}

// CreateStudentRequest aceita a foto como data URL (photo_data) ou, em
// multipart, no campo "photo".
type CreateStudentRequest struct {
	ID             string `json:"id" form:"id"`
	Name           string `json:"name" form:"name"`
	Email          string `json:"email" form:"email"`
	Phone          string `json:"phone" form:"phone"`
	Stream         string `json:"stream" form:"stream"`
	EnrollmentDate string `json:"enrollmentDate" form:"enrollmentDate"`
	PhotoData      string `json:"photo_data" form:"photo_data"`
}

type CreateStudentResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Student domain.StudentSummary `json:"student"`
}

// List GET /api/students
func (h *StudentHandler) List(c *fiber.Ctx) error {
	students, err := h.service.List(c.UserContext())
	if err != nil {
		return domain.ErrStoreUnavailable.WithError(err)
	}
	return c.JSON(students)
}

// Get GET /api/students/:id
func (h *StudentHandler) Get(c *fiber.Ctx) error {
	st, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(st.Summary())
}

// Create POST /api/students
func (h *StudentHandler) Create(c *fiber.Ctx) error {
	var req CreateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	photo, err := extractPhoto(c, req.PhotoData)
	if err != nil {
		return err
	}

	st, err := h.service.Enroll(c.UserContext(), service.EnrollRequest{
		Student: domain.Student{
			ID:             req.ID,
			Name:           req.Name,
			Email:          strings.TrimSpace(req.Email),
			Phone:          strings.TrimSpace(req.Phone),
			Stream:         strings.TrimSpace(req.Stream),
			EnrollmentDate: strings.TrimSpace(req.EnrollmentDate),
		},
		Photo: photo,
	})
	h.record(c, audit.EventStudentEnrolled, strings.TrimSpace(req.ID), err)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(CreateStudentResponse{
		Success: true,
		Message: "Student registered successfully",
		Student: st.Summary(),
	})
}

// Delete DELETE /api/students/:id
func (h *StudentHandler) Delete(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	err := h.service.Delete(c.UserContext(), id)
	h.record(c, audit.EventStudentDeleted, id, err)
	if err != nil {
		return err
	}
	return c.JSON(MessageResponse{Success: true, Message: "Student deleted successfully"})
}

func (h *StudentHandler) record(c *fiber.Ctx, eventType audit.EventType, studentID string, err error) {
	actor, _ := middleware.Username(c)
	event := audit.Event{
		EventType:  eventType,
		Actor:      actor,
		ExternalID: studentID,
		Success:    err == nil,
		IPAddress:  c.IP(),
		UserAgent:  c.Get(fiber.HeaderUserAgent),
	}
	if err != nil {
		event.Error = err.Error()
	}
	if logErr := h.audit.Log(c.UserContext(), event); logErr != nil {
		h.logger.Warn("audit log failed", "event_type", eventType, "error", logErr)
	}
}

func extractPhoto(c *fiber.Ctx, dataURL string) ([]byte, error) {
	if dataURL != "" {
		photo, err := service.DecodeDataURL(dataURL)
		if err != nil {
			return nil, err
		}
		if len(photo) > maxImageSize {
			return nil, domain.ErrValidationFailed.WithError(errors.New("photo exceeds 10MB"))
		}
		return photo, nil
	}

	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	file, err := c.FormFile("photo")
	if err != nil {
		// foto é opcional
		return nil, nil
	}
	if file.Size > maxImageSize {
		return nil, domain.ErrValidationFailed.WithError(errors.New("photo exceeds 10MB"))
	}

	f, err := file.Open()
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	defer f.Close()

	photo, err := io.ReadAll(io.LimitReader(f, maxImageSize+1))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}
	return photo, nil
}
