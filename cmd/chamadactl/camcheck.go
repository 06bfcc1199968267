package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/chamada/internal/camera"
	"github.com/saturnino-fabrica-de-software/chamada/internal/config"
)

var camcheckCmd = &cobra.Command{
	Use:   "camcheck",
	Short: "Open the configured camera and read one frame",
	Args:  cobra.NoArgs,
	RunE:  runCamcheck,
}

func init() {
	camcheckCmd.Flags().Duration("timeout", 10*time.Second, "How long to wait for the first frame")
}

func runCamcheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadCamera()
	if err != nil {
		return err
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	src, err := camera.Open(ctx, camera.Options{
		Kind:        cfg.Source,
		Device:      cfg.DevicePath(),
		Width:       cfg.Width,
		Height:      cfg.Height,
		SnapshotURL: cfg.SnapshotURL,
	})
	if err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	defer func() { _ = src.Close() }()

	start := time.Now()
	frame, err := src.Read(ctx)
	if err != nil {
		return fmt.Errorf("read frame: %w", err)
	}
	b := frame.Bounds()
	fmt.Fprintf(cmd.OutOrStdout(), "camera ok: %s %dx%d, first frame in %s\n",
		cfg.Source, b.Dx(), b.Dy(), time.Since(start).Round(time.Millisecond))
	return nil
}
