package ws

import (
	"context"
	"log/slog"
	"time"

	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
)

const DefaultPollInterval = 10 * time.Second

// CameraStatusReader returns the camera heartbeat, nil when it never published.
type CameraStatusReader interface {
	Camera(ctx context.Context) (*domain.SystemStatus, error)
}

// StatusWatcher polls the camera node heartbeat and broadcasts camera.status
// whenever it changes.
type StatusWatcher struct {
	reader   CameraStatusReader
	hub      *Hub
	logger   *slog.Logger
	interval time.Duration

	last   domain.SystemStatus
	primed bool
}

func NewStatusWatcher(reader CameraStatusReader, hub *Hub, logger *slog.Logger, interval time.Duration) *StatusWatcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusWatcher{
		reader:   reader,
		hub:      hub,
		logger:   logger,
		interval: interval,
	}
}

func (w *StatusWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("camera status watcher started", "interval", w.interval)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("camera status watcher stopped")
			return
		case <-ticker.C:
			w.Poll(ctx)
		}
	}
}

// Poll reads the heartbeat once and reports whether an event was broadcast.
// Erros de leitura não geram evento; o próximo tick tenta de novo.
func (w *StatusWatcher) Poll(ctx context.Context) bool {
	current, err := w.reader.Camera(ctx)
	if err != nil {
		w.logger.Warn("failed to read camera status", "error", err)
		return false
	}

	status := domain.SystemStatus{Status: domain.StatusDisconnected}
	if current != nil {
		status = *current
	}

	if w.primed && sameStatus(w.last, status) {
		return false
	}
	w.last = status
	w.primed = true

	w.hub.Broadcast(string(EventCameraStatus), status)
	w.logger.Debug("camera status changed", "status", status.Status)
	return true
}

func sameStatus(a, b domain.SystemStatus) bool {
	if a.Status != b.Status || a.LastRecognition != b.LastRecognition || !a.LastUpdate.Equal(b.LastUpdate) {
		return false
	}
	switch {
	case a.CameraActive == nil && b.CameraActive == nil:
		return true
	case a.CameraActive == nil || b.CameraActive == nil:
		return false
	default:
		return *a.CameraActive == *b.CameraActive
	}
}
