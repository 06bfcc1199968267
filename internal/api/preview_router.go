package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/saturnino-fabrica-de-software/chamada/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/chamada/internal/api/middleware"
)

// NewPreviewApp builds the camera node's HTTP surface: health, the latest
// annotated frame and the loop status.
func NewPreviewApp(logger *slog.Logger, frames handler.FrameSource, loop handler.LoopStatus) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(logger),
		AppName:               "Chamada Camera",
		DisableStartupMessage: true,
	})

	app.Use(requestid.New())
	app.Use(middleware.Recover(logger))

	health := handler.NewHealthHandler(nil)
	app.Get("/health", health.Health)

	preview := handler.NewPreviewHandler(frames, loop)
	app.Get("/preview.jpg", preview.Frame)
	app.Get("/status", preview.Status)

	return app
}
