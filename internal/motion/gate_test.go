package motion

import (
	"image"
	"image/color"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func grayFrame(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

// withBlock pinta um bloco n x n com o valor v.
func withBlock(base *image.Gray, n int, v uint8) *image.Gray {
	img := image.NewGray(base.Rect)
	copy(img.Pix, base.Pix)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func TestDifference(t *testing.T) {
	base := grayFrame(64, 48, 100)

	tests := []struct {
		name string
		b    image.Image
		want int64
	}{
		{"identical frames", grayFrame(64, 48, 100), 0},
		{"change below pixel threshold", grayFrame(64, 48, 125), 0},
		{"change above pixel threshold", grayFrame(64, 48, 126), 64 * 48 * 255},
		{"small block", withBlock(base, 5, 200), 25 * 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Difference(base, tt.b, DefaultPixelThreshold))
		})
	}
}

func TestDifference_ColorModels(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(0, 0, 8, 8))
	ycc := image.NewYCbCr(image.Rect(0, 0, 8, 8), image.YCbCrSubsampleRatio420)
	for i := range ycc.Y {
		ycc.Y[i] = 200
	}
	for i := 3; i < len(rgba.Pix); i += 4 {
		rgba.Pix[i] = 0xff
	}

	assert.Equal(t, int64(64*255), Difference(rgba, ycc, DefaultPixelThreshold))
	assert.Equal(t, int64(0), Difference(ycc, ycc, DefaultPixelThreshold))
}

func TestDifference_BoundsMismatchCountsAsMotion(t *testing.T) {
	d := Difference(grayFrame(4, 4, 0), grayFrame(8, 8, 0), DefaultPixelThreshold)
	assert.Greater(t, d, DefaultThreshold)
}

func TestGate_StateMachine(t *testing.T) {
	g := NewGate(DefaultConfig(), testLogger())
	still := grayFrame(64, 48, 100)
	moved := withBlock(still, 10, 255) // 100 px * 255 = 25500 > 5000
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.False(t, g.Active(), "starts in standby")
	assert.Equal(t, NoChange, g.Evaluate(nil, still, t0), "first frame is skipped")
	assert.False(t, g.Active())

	assert.Equal(t, NoChange, g.Evaluate(still, still, t0))
	assert.False(t, g.Active(), "identical frames never activate")

	assert.Equal(t, Activated, g.Evaluate(still, moved, t0))
	assert.True(t, g.Active())
	assert.Equal(t, "ACTIVE", g.State())

	assert.Equal(t, NoChange, g.Evaluate(moved, still, t0.Add(time.Second)), "motion while active is not a transition")
	assert.Equal(t, t0.Add(time.Second), g.LastMotion())

	assert.Equal(t, NoChange, g.Evaluate(still, still, t0.Add(6*time.Second)), "timeout is strict")
	assert.True(t, g.Active())

	assert.Equal(t, Deactivated, g.Evaluate(still, still, t0.Add(6*time.Second+time.Millisecond)))
	assert.False(t, g.Active())
	assert.Equal(t, "STANDBY", g.State())

	assert.Equal(t, NoChange, g.Evaluate(still, still, t0.Add(time.Hour)), "no motion in standby is a no-op")
}

func TestGate_SmallMotionDoesNotActivate(t *testing.T) {
	g := NewGate(DefaultConfig(), testLogger())
	still := grayFrame(64, 48, 100)
	twitch := withBlock(still, 4, 255) // 16 px * 255 = 4080 <= 5000

	assert.Equal(t, NoChange, g.Evaluate(still, twitch, time.Now()))
	assert.False(t, g.Active())
}

func TestTransition_String(t *testing.T) {
	assert.Equal(t, "activated", Activated.String())
	assert.Equal(t, "deactivated", Deactivated.String())
	assert.Equal(t, "none", NoChange.String())
	assert.True(t, Activated.Changed())
	assert.False(t, NoChange.Changed())
}
