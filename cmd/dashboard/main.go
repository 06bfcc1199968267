// Command dashboard serves the attendance admin web API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/saturnino-fabrica-de-software/chamada/internal/admin"
	"github.com/saturnino-fabrica-de-software/chamada/internal/api"
	"github.com/saturnino-fabrica-de-software/chamada/internal/config"
	"github.com/saturnino-fabrica-de-software/chamada/internal/face"
	"github.com/saturnino-fabrica-de-software/chamada/internal/store/backend"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.LoadDashboard()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting dashboard",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("store", cfg.Store.Backend),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := backend.Open(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	faceProvider, err := face.NewFaceProvider(cfg.Provider)
	if err != nil {
		return err
	}
	qualityGate, err := face.NewQualityChecker(ctx, cfg.EnrollQualityGate, cfg.AWSRegion)
	if err != nil {
		return err
	}

	creds := admin.Credentials{Username: cfg.AdminUsername, Password: cfg.AdminPassword}
	sessions := admin.NewJWTService(cfg.SessionSecret, admin.Issuer, cfg.SessionTTL).WithCredentials(creds)

	router := api.NewRouter(logger, &api.Dependencies{
		Store:              st,
		FaceProvider:       faceProvider,
		QualityGate:        qualityGate,
		Credentials:        creds,
		JWTService:         sessions,
		SecureCookie:       cfg.IsProduction(),
		NodeName:           cfg.NodeName,
		CameraNode:         cfg.CameraNode,
		UploadDir:          cfg.UploadDir,
		StatusPollInterval: cfg.StatusPollInterval,
	})
	router.Setup()

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload dir: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("dashboard listening", slog.String("addr", addr), slog.String("camera_node", cfg.CameraNode))
		serveErr <- router.Listen(addr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("stopping dashboard")
	if err := router.Shutdown(); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
