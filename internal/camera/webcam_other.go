//go:build !linux

package camera

import (
	"context"
	"image"
)

type Webcam struct{}

func OpenWebcam(device string, width, height int) (*Webcam, error) {
	return nil, ErrUnsupported
}

func (c *Webcam) Read(ctx context.Context) (image.Image, error) {
	return nil, ErrUnsupported
}

func (c *Webcam) Close() error {
	return nil
}
