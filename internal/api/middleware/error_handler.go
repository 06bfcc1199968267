package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
)

// ErrorResponse é o envelope de falha de todas as rotas.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorHandler maps AppError to its status and code; fiber errors keep their
// status; anything else is a 500 whose cause is only logged.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(ErrorResponse{Code: "HTTP_ERROR", Message: fiberErr.Message})
		}

		var appErr *domain.AppError
		if !errors.As(err, &appErr) {
			logger.Error("unhandled error", slog.Any("error", err), slog.String("path", c.Path()))
			appErr = domain.ErrInternal
		} else if appErr.StatusCode >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				slog.String("code", appErr.Code),
				slog.Any("cause", appErr.Err),
				slog.String("path", c.Path()),
			)
		}

		return c.Status(appErr.StatusCode).JSON(ErrorResponse{Code: appErr.Code, Message: appErr.Message})
	}
}
