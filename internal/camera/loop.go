// Package camera runs the capture, motion gating and recognition loop of the
// camera node.
package camera

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/chamada/internal/matcher"
	"github.com/saturnino-fabrica-de-software/chamada/internal/motion"
	"github.com/saturnino-fabrica-de-software/chamada/internal/provider"
	"github.com/saturnino-fabrica-de-software/chamada/internal/roster"
	"github.com/saturnino-fabrica-de-software/chamada/internal/schedule"
)

const (
	DefaultMinConfidence   = 0.1
	DefaultProcessingScale = 0.25
)

// Marker records a recognized student; attendance.Recorder implements it.
type Marker interface {
	TryMark(ctx context.Context, studentID, name string, confidence float64, now time.Time) bool
}

type Config struct {
	// MinConfidence is the floor a match must exceed to be marked.
	MinConfidence   float64
	ProcessingScale float64
	Location        *time.Location
}

// Deps são os colaboradores do loop. Display é opcional.
type Deps struct {
	Source   Source
	Gate     *motion.Gate
	Provider provider.FaceProvider
	Matcher  *matcher.Matcher
	Roster   *roster.Roster
	Marker   Marker
	Schedule *schedule.Schedule
	Display  Display
}

// Result is one face found in a frame, in full-frame coordinates.
type Result struct {
	Box        provider.BoundingBox
	StudentID  string
	Name       string
	Distance   float64
	Confidence float64
	Marked     bool
}

// Status is a point-in-time view of the loop for the node's HTTP surface.
type Status struct {
	State           string    `json:"state"`
	Lecture         int       `json:"lecture,omitempty"`
	RosterSize      int       `json:"roster_size"`
	Frames          uint64    `json:"frames"`
	LastFrameAt     time.Time `json:"last_frame_at"`
	LastRecognition string    `json:"last_recognition,omitempty"`
}

type Loop struct {
	deps   Deps
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	closeOnce sync.Once
	closeErr  error

	mu     sync.RWMutex
	status Status
}

func NewLoop(deps Deps, cfg Config, logger *slog.Logger) *Loop {
	if cfg.MinConfidence < 0 {
		cfg.MinConfidence = DefaultMinConfidence
	}
	if cfg.ProcessingScale <= 0 || cfg.ProcessingScale > 1 {
		cfg.ProcessingScale = DefaultProcessingScale
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		deps:   deps,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		status: Status{State: deps.Gate.State()},
	}
}

// WithClock overrides the time source.
func (l *Loop) WithClock(now func() time.Time) *Loop {
	l.now = now
	return l
}

// Run reads frames until ctx is cancelled (returns nil) or the source fails
// (returns an error wrapping ErrCaptureFailed). The source is closed on
// return.
func (l *Loop) Run(ctx context.Context) error {
	defer l.Close()

	l.logger.Info("starting attendance loop",
		"min_confidence", l.cfg.MinConfidence,
		"processing_scale", l.cfg.ProcessingScale,
	)

	var prev image.Image
	for {
		if ctx.Err() != nil {
			l.logger.Info("attendance loop stopped")
			return nil
		}

		frame, err := l.deps.Source.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				l.logger.Info("attendance loop stopped")
				return nil
			}
			l.logger.Error("failed to read from camera", "error", err)
			return fmt.Errorf("%w: %w", ErrCaptureFailed, err)
		}

		l.Step(ctx, prev, frame, l.now())
		prev = frame
	}
}

// Close releases the source. Safe to call more than once.
func (l *Loop) Close() error {
	l.closeOnce.Do(func() {
		l.logger.Info("cleaning up camera resources")
		l.closeErr = l.deps.Source.Close()
	})
	return l.closeErr
}

// Step processes one frame: motion gate, recognition while active,
// rendering. It returns the recognition results (nil in standby).
func (l *Loop) Step(ctx context.Context, prev, frame image.Image, now time.Time) []Result {
	if l.cfg.Location != nil {
		now = now.In(l.cfg.Location)
	}

	l.deps.Gate.Evaluate(prev, frame, now)
	active := l.deps.Gate.Active()
	lecture, _ := l.deps.Schedule.CurrentLecture(now)

	var results []Result
	if active {
		var err error
		results, err = l.Recognize(ctx, frame, now)
		if err != nil {
			l.logger.Warn("recognition failed, frame skipped", "error", err)
		}
	}

	if l.deps.Display != nil {
		out := Render(frame, Overlay{Results: results, Lecture: lecture, Active: active})
		if err := l.deps.Display.Show(out); err != nil {
			l.logger.Warn("failed to publish frame", "error", err)
		}
	}

	l.record(now, lecture, results)
	return results
}

// Recognize detects faces in a downscaled copy of frame, matches them
// against the current roster and marks attendance for confident matches.
func (l *Loop) Recognize(ctx context.Context, frame image.Image, now time.Time) ([]Result, error) {
	scale := l.cfg.ProcessingScale
	small := Downscale(frame, scale)
	data, err := EncodeJPEG(small)
	if err != nil {
		return nil, err
	}

	faces, err := l.deps.Provider.DetectFaces(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	// fatores reais por eixo, já que o redimensionamento arredonda cada um
	fx := float64(frame.Bounds().Dx()) / float64(small.Bounds().Dx())
	fy := float64(frame.Bounds().Dy()) / float64(small.Bounds().Dy())
	origin := frame.Bounds().Min
	snap := l.deps.Roster.Snapshot()

	results := make([]Result, 0, len(faces))
	for _, f := range faces {
		box := f.BoundingBox.ScaleXY(fx, fy)
		box.X += float64(origin.X)
		box.Y += float64(origin.Y)

		m, _ := l.deps.Matcher.BestMatch(snap.Faces, f.Encoding)
		r := Result{
			Box:        box,
			Name:       m.Name(),
			Distance:   m.Distance,
			Confidence: m.Confidence(),
		}
		if m.Matched {
			r.StudentID = m.Face.ID
			if r.Confidence > l.cfg.MinConfidence {
				r.Marked = l.deps.Marker.TryMark(ctx, r.StudentID, r.Name, r.Confidence, now)
			}
		}
		results = append(results, r)
	}
	return results, nil
}

func (l *Loop) record(now time.Time, lecture int, results []Result) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.status.State = l.deps.Gate.State()
	l.status.Lecture = lecture
	l.status.RosterSize = l.deps.Roster.Snapshot().Len()
	l.status.Frames++
	l.status.LastFrameAt = now
	for _, r := range results {
		if r.Marked {
			l.status.LastRecognition = fmt.Sprintf("%s (%.2f)", r.Name, r.Confidence)
		}
	}
}

func (l *Loop) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s := l.status
	s.State = l.deps.Gate.State()
	s.RosterSize = l.deps.Roster.Snapshot().Len()
	return s
}
