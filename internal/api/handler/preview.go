package handler

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/chamada/internal/camera"
	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
)

type FrameSource interface {
	Latest() (data []byte, updated time.Time, ok bool)
}

type LoopStatus interface {
	Status() camera.Status
}

// PreviewHandler serves the camera node's annotated frames and loop status.
type PreviewHandler struct {
	frames FrameSource
	loop   LoopStatus
}

func NewPreviewHandler(frames FrameSource, loop LoopStatus) *PreviewHandler {
	return &PreviewHandler{frames: frames, loop: loop}
}

// Frame GET /preview.jpg
func (h *PreviewHandler) Frame(c *fiber.Ctx) error {
	data, updated, ok := h.frames.Latest()
	if !ok {
		return domain.ErrNotFound
	}
	c.Set(fiber.HeaderContentType, "image/jpeg")
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Set(fiber.HeaderLastModified, updated.UTC().Format(http.TimeFormat))
	return c.Send(data)
}

// Status GET /status
func (h *PreviewHandler) Status(c *fiber.Ctx) error {
	return c.JSON(h.loop.Status())
}
