// Package motion implements the frame-differencing gate that switches the
// camera node between STANDBY and ACTIVE.
package motion

import (
	"image"
	"image/color"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultThreshold       int64 = 5000
	DefaultNoMotionTimeout       = 5 * time.Second
	DefaultPixelThreshold  uint8 = 25
)

type Config struct {
	// Threshold é a soma mínima da diferença binarizada para contar como movimento.
	Threshold       int64
	NoMotionTimeout time.Duration
	PixelThreshold  uint8
}

func DefaultConfig() Config {
	return Config{
		Threshold:       DefaultThreshold,
		NoMotionTimeout: DefaultNoMotionTimeout,
		PixelThreshold:  DefaultPixelThreshold,
	}
}

type Transition int

const (
	NoChange Transition = iota
	Activated
	Deactivated
)

func (t Transition) Changed() bool {
	return t != NoChange
}

func (t Transition) String() string {
	switch t {
	case Activated:
		return "activated"
	case Deactivated:
		return "deactivated"
	default:
		return "none"
	}
}

// Gate holds the STANDBY/ACTIVE state. Evaluate is called by a single
// frame loop; Active may be read from any goroutine.
type Gate struct {
	cfg    Config
	logger *slog.Logger

	active atomic.Bool

	mu         sync.Mutex
	lastMotion time.Time
}

func NewGate(cfg Config, logger *slog.Logger) *Gate {
	if cfg.PixelThreshold == 0 {
		cfg.PixelThreshold = DefaultPixelThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{cfg: cfg, logger: logger}
}

func (g *Gate) Active() bool {
	return g.active.Load()
}

func (g *Gate) State() string {
	if g.Active() {
		return "ACTIVE"
	}
	return "STANDBY"
}

func (g *Gate) LastMotion() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastMotion
}

// Evaluate compares two consecutive frames at time now and reports whether
// the gate changed state. A nil prev (first frame) is skipped.
func (g *Gate) Evaluate(prev, cur image.Image, now time.Time) Transition {
	if prev == nil || cur == nil {
		return NoChange
	}

	amount := Difference(prev, cur, g.cfg.PixelThreshold)

	g.mu.Lock()
	defer g.mu.Unlock()

	if amount > g.cfg.Threshold {
		g.lastMotion = now
		if !g.active.Load() {
			g.active.Store(true)
			g.logger.Info("camera activated - motion detected", "motion", amount)
			return Activated
		}
		return NoChange
	}

	if g.active.Load() && now.Sub(g.lastMotion) > g.cfg.NoMotionTimeout {
		g.active.Store(false)
		g.logger.Info("camera deactivated - no motion", "idle", now.Sub(g.lastMotion).Round(time.Millisecond))
		return Deactivated
	}
	return NoChange
}

// Difference returns the sum of the binarized absolute luma difference:
// every pixel whose difference exceeds pixelThreshold contributes 255.
// Frames with different bounds return math.MaxInt64.
func Difference(a, b image.Image, pixelThreshold uint8) int64 {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return math.MaxInt64
	}

	var sum int64
	w, h := ab.Dx(), ab.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			la := luma(a, ab.Min.X+x, ab.Min.Y+y)
			lb := luma(b, bb.Min.X+x, bb.Min.Y+y)
			d := la - lb
			if d < 0 {
				d = -d
			}
			if d > int(pixelThreshold) {
				sum += 255
			}
		}
	}
	return sum
}

func luma(img image.Image, x, y int) int {
	switch m := img.(type) {
	case *image.YCbCr:
		return int(m.Y[m.YOffset(x, y)])
	case *image.Gray:
		return int(m.Pix[m.PixOffset(x, y)])
	case *image.RGBA:
		i := m.PixOffset(x, y)
		return grayOf(m.Pix[i], m.Pix[i+1], m.Pix[i+2])
	default:
		return int(color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
	}
}

// grayOf usa os mesmos pesos de color.GrayModel.
func grayOf(r, g, b uint8) int {
	r16, g16, b16 := uint32(r)*0x101, uint32(g)*0x101, uint32(b)*0x101
	return int((19595*r16 + 38470*g16 + 7471*b16 + 1<<15) >> 24)
}
