package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
	"github.com/saturnino-fabrica-de-software/chamada/internal/store"
)

const overviewConnected = "Connected"

// StatusService publishes the dashboard heartbeat and reads the camera node's.
type StatusService struct {
	store      store.StatusStore
	node       string
	cameraNode string
	now        func() time.Time
	logger     *slog.Logger
}

func NewStatusService(st store.StatusStore, node, cameraNode string, logger *slog.Logger) *StatusService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusService{
		store:      st,
		node:       node,
		cameraNode: cameraNode,
		now:        time.Now,
		logger:     logger,
	}
}

func (s *StatusService) WithClock(now func() time.Time) *StatusService {
	s.now = now
	return s
}

// Overview grava o heartbeat do dashboard e lê o do nó da câmera. Falha no
// store vira um overview "Disconnected", nunca um erro.
func (s *StatusService) Overview(ctx context.Context) domain.SystemOverview {
	now := s.now()
	err := s.store.PutStatus(ctx, s.node, domain.SystemStatus{
		Status:     domain.StatusConnected,
		LastUpdate: now,
	})
	if err != nil {
		s.logger.Error("failed to publish dashboard status", "node", s.node, "error", err)
		return domain.SystemOverview{
			Dashboard: overviewConnected,
			Camera:    "Unknown",
			Store:     domain.StatusDisconnected,
		}
	}

	camera, err := s.Camera(ctx)
	if err != nil {
		s.logger.Error("failed to read camera status", "node", s.cameraNode, "error", err)
		return domain.SystemOverview{
			Dashboard: overviewConnected,
			Camera:    "Unknown",
			Store:     domain.StatusDisconnected,
		}
	}

	cameraStatus := domain.StatusDisconnected
	if camera != nil && camera.Status != "" {
		cameraStatus = camera.Status
	}
	return domain.SystemOverview{
		Dashboard: overviewConnected,
		Camera:    cameraStatus,
		Store:     overviewConnected,
		LastSync:  &now,
	}
}

// Camera returns the camera node heartbeat, or nil when it never published.
func (s *StatusService) Camera(ctx context.Context) (*domain.SystemStatus, error) {
	st, err := s.store.GetStatus(ctx, s.cameraNode)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}
