package camera

import (
	"context"
	"errors"
	"image"
)

var (
	// ErrCaptureFailed ends the loop: the source stopped producing frames.
	ErrCaptureFailed = errors.New("failed to read from camera")
	ErrUnsupported   = errors.New("camera source not supported on this platform")
)

// Source produces frames. Read blocks until a frame is available or ctx is
// done. Close is called once by the loop.
type Source interface {
	Read(ctx context.Context) (image.Image, error)
	Close() error
}

// Options selects and configures a Source.
type Options struct {
	// Kind is "v4l2" or "snapshot".
	Kind        string
	Device      string
	Width       int
	Height      int
	SnapshotURL string
}

// Open abre a fonte configurada.
func Open(ctx context.Context, opts Options) (Source, error) {
	switch opts.Kind {
	case "", "v4l2":
		cam, err := OpenWebcam(opts.Device, opts.Width, opts.Height)
		if err != nil {
			return nil, err
		}
		return cam, nil
	case "snapshot":
		return NewSnapshotSource(opts.SnapshotURL, nil), nil
	default:
		return nil, errors.New("unknown camera source " + opts.Kind)
	}
}
