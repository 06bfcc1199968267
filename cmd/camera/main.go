// Command camera runs a classroom camera node: it watches for motion,
// recognizes enrolled students and records their attendance.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/saturnino-fabrica-de-software/chamada/internal/api"
	"github.com/saturnino-fabrica-de-software/chamada/internal/attendance"
	"github.com/saturnino-fabrica-de-software/chamada/internal/camera"
	"github.com/saturnino-fabrica-de-software/chamada/internal/config"
	"github.com/saturnino-fabrica-de-software/chamada/internal/face"
	"github.com/saturnino-fabrica-de-software/chamada/internal/matcher"
	"github.com/saturnino-fabrica-de-software/chamada/internal/motion"
	"github.com/saturnino-fabrica-de-software/chamada/internal/roster"
	"github.com/saturnino-fabrica-de-software/chamada/internal/schedule"
	"github.com/saturnino-fabrica-de-software/chamada/internal/store/backend"
	"github.com/saturnino-fabrica-de-software/chamada/internal/syncd"
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
	cfg, err := config.LoadCamera()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment, cfg.LogLevel).With(slog.String("node", cfg.NodeName))
	slog.SetDefault(logger)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	sched := schedule.Default()
	if cfg.ScheduleFile != "" {
		if sched, err = schedule.Load(cfg.ScheduleFile); err != nil {
			return fmt.Errorf("failed to load schedule: %w", err)
		}
	}
	sched.WarnOverlaps(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting camera node",
		slog.String("environment", cfg.Environment),
		slog.String("source", cfg.Source),
		slog.String("store", cfg.Store.Backend),
		slog.String("provider", cfg.Provider.Type),
		slog.Float64("min_confidence", cfg.MinConfidence),
	)

	// Store indisponível não impede a partida: o daemon tenta de novo a cada ciclo.
	st, err := backend.Open(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	faceProvider, err := face.NewFaceProvider(cfg.Provider)
	if err != nil {
		return err
	}

	src, err := camera.Open(ctx, camera.Options{
		Kind:        cfg.Source,
		Device:      cfg.DevicePath(),
		Width:       cfg.Width,
		Height:      cfg.Height,
		SnapshotURL: cfg.SnapshotURL,
	})
	if err != nil {
		return fmt.Errorf("failed to open camera: %w", err)
	}

	gate := motion.NewGate(motion.Config{
		Threshold:       cfg.MotionThreshold,
		NoMotionTimeout: cfg.NoMotionTimeout,
	}, logger)
	known := roster.New()
	cache := attendance.NewCache()

	recorder := attendance.NewRecorder(st, sched, cache, attendance.Config{
		Node:         cfg.NodeName,
		StoreTimeout: cfg.Store.Timeout,
		Location:     loc,
	}, logger)

	syncDaemon := syncd.New(st, known, cache, gate.Active, syncd.Config{
		Node:         cfg.NodeName,
		Interval:     cfg.SyncInterval,
		StoreTimeout: cfg.Store.Timeout,
		Location:     loc,
	}, logger)

	preview := camera.NewPreview()
	loop := camera.NewLoop(camera.Deps{
		Source:   src,
		Gate:     gate,
		Provider: faceProvider,
		Matcher:  matcher.New(cfg.MatchTolerance),
		Roster:   known,
		Marker:   recorder,
		Schedule: sched,
		Display:  preview,
	}, camera.Config{
		MinConfidence:   cfg.MinConfidence,
		ProcessingScale: cfg.ProcessingScale,
		Location:        loc,
	}, logger)
	defer func() { _ = loop.Close() }()

	go syncDaemon.Run(ctx)

	if cfg.PreviewPort > 0 {
		app := api.NewPreviewApp(logger, preview, loop)
		go func() {
			addr := fmt.Sprintf(":%d", cfg.PreviewPort)
			logger.Info("preview listening", slog.String("addr", addr))
			if err := app.Listen(addr); err != nil {
				logger.Error("preview server stopped", slog.Any("error", err))
			}
		}()
		defer func() { _ = app.ShutdownWithTimeout(5 * time.Second) }()
	}

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logger.Debug("sd_notify failed", slog.Any("error", err))
	}

	err = loop.Run(ctx)
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("camera loop stopped", slog.Any("error", err))
		return err
	}
	logger.Info("camera node stopped")
	return nil
}
