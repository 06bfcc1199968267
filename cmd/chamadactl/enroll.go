package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/chamada/internal/config"
	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
	"github.com/saturnino-fabrica-de-software/chamada/internal/face"
	"github.com/saturnino-fabrica-de-software/chamada/internal/service"
	"github.com/saturnino-fabrica-de-software/chamada/internal/store/backend"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <dir>",
	Short: "Encode and save every <student-id>.jpg|jpeg|png in a directory",
	Long: `Each photo must contain exactly one face. Existing students keep their
name and details; new ones are created with the id as name. With --dry-run
photos are only encoded and nothing is written.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnroll,
}

func init() {
	enrollCmd.Flags().String("stream", "", "Stream assigned to newly created students")
	enrollCmd.Flags().String("upload-dir", "static/uploads", "Directory where photos are saved")
	enrollCmd.Flags().Bool("dry-run", false, "Only encode photos, do not save")
}

type enrollPhoto struct {
	id   string
	path string
}

func listPhotos(dir string) ([]enrollPhoto, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var photos []enrollPhoto
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		switch ext {
		case ".jpg", ".jpeg", ".png":
		default:
			continue
		}
		photos = append(photos, enrollPhoto{
			id:   strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			path: filepath.Join(dir, e.Name()),
		})
	}
	sort.Slice(photos, func(i, j int) bool { return photos[i].id < photos[j].id })
	return photos, nil
}

func runEnroll(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	stream := mustGetString(cmd, "stream")
	uploadDir := mustGetString(cmd, "upload-dir")
	dryRun := mustGetBool(cmd, "dry-run")

	photos, err := listPhotos(args[0])
	if err != nil {
		return err
	}
	if len(photos) == 0 {
		return errors.New("no photos found")
	}

	providerCfg, err := config.LoadProvider()
	if err != nil {
		return err
	}
	faceProvider, err := face.NewFaceProvider(*providerCfg)
	if err != nil {
		return err
	}

	storeCfg := config.Store{Backend: backend.Memory, Timeout: 10 * time.Second}
	if !dryRun {
		loaded, err := config.LoadStore()
		if err != nil {
			return err
		}
		storeCfg = *loaded
	}
	st, err := backend.Open(ctx, storeCfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	svc := service.NewEnrollmentService(st, faceProvider, uploadDir, logger)

	bar := progressbar.NewOptions(len(photos),
		progressbar.OptionSetDescription("Enrolling"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionFullWidth(),
	)

	var failures []string
	for _, p := range photos {
		if err := enrollOne(cmd, svc, p, stream, dryRun); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", p.id, err))
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%d enrolled, %d failed\n", len(photos)-len(failures), len(failures))
	for _, f := range failures {
		fmt.Fprintln(out, "  "+f)
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d photos failed", len(failures))
	}
	return nil
}

func enrollOne(cmd *cobra.Command, svc *service.EnrollmentService, p enrollPhoto, stream string, dryRun bool) error {
	ctx := cmd.Context()
	data, err := os.ReadFile(p.path)
	if err != nil {
		return err
	}

	if dryRun {
		_, err := svc.Encode(ctx, data)
		return err
	}

	student := domain.Student{ID: p.id, Name: p.id, Stream: stream}
	existing, err := svc.Get(ctx, p.id)
	switch {
	case err == nil:
		student = *existing
	case !errors.Is(err, domain.ErrStudentNotFound):
		return err
	}

	_, err = svc.Enroll(ctx, service.EnrollRequest{Student: student, Photo: data})
	return err
}
