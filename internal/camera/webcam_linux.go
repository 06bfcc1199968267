//go:build linux

package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/blackjack/webcam"
)

const (
	fourccYUYV  webcam.PixelFormat = 0x56595559
	fourccMJPEG webcam.PixelFormat = 0x47504A4D

	// segundos por espera; o contexto é checado entre esperas
	frameWaitSeconds = 1
)

// Webcam reads frames from a V4L2 device.
type Webcam struct {
	cam    *webcam.Webcam
	format webcam.PixelFormat
	width  int
	height int
}

// OpenWebcam opens device and negotiates YUYV (preferred) or MJPEG at the
// requested size; the driver may pick a nearby size.
func OpenWebcam(device string, width, height int) (*Webcam, error) {
	cam, err := webcam.Open(device)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device, err)
	}

	formats := cam.GetSupportedFormats()
	var want webcam.PixelFormat
	switch {
	case formats[fourccYUYV] != "":
		want = fourccYUYV
	case formats[fourccMJPEG] != "":
		want = fourccMJPEG
	default:
		cam.Close()
		return nil, fmt.Errorf("open %s: no YUYV or MJPEG format", device)
	}

	got, w, h, err := cam.SetImageFormat(want, uint32(width), uint32(height))
	if err != nil {
		cam.Close()
		return nil, fmt.Errorf("set format: %w", err)
	}

	if err := cam.StartStreaming(); err != nil {
		cam.Close()
		return nil, fmt.Errorf("start streaming: %w", err)
	}

	return &Webcam{cam: cam, format: got, width: int(w), height: int(h)}, nil
}

func (c *Webcam) Read(ctx context.Context) (image.Image, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		err := c.cam.WaitForFrame(frameWaitSeconds)
		var timeout *webcam.Timeout
		switch {
		case err == nil:
		case errors.As(err, &timeout):
			continue
		default:
			return nil, fmt.Errorf("wait for frame: %w", err)
		}

		frame, err := c.cam.ReadFrame()
		if err != nil {
			return nil, fmt.Errorf("read frame: %w", err)
		}
		if len(frame) == 0 {
			continue
		}
		return c.decode(frame)
	}
}

func (c *Webcam) decode(frame []byte) (image.Image, error) {
	switch c.format {
	case fourccMJPEG:
		img, err := jpeg.Decode(bytes.NewReader(frame))
		if err != nil {
			return nil, fmt.Errorf("decode mjpeg: %w", err)
		}
		return img, nil
	default:
		return decodeYUYV(frame, c.width, c.height)
	}
}

func (c *Webcam) Close() error {
	if err := c.cam.StopStreaming(); err != nil {
		c.cam.Close()
		return fmt.Errorf("stop streaming: %w", err)
	}
	return c.cam.Close()
}
