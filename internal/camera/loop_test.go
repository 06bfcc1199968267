package camera

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/chamada/internal/attendance"
	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
	"github.com/saturnino-fabrica-de-software/chamada/internal/matcher"
	"github.com/saturnino-fabrica-de-software/chamada/internal/motion"
	"github.com/saturnino-fabrica-de-software/chamada/internal/provider"
	"github.com/saturnino-fabrica-de-software/chamada/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/chamada/internal/roster"
	"github.com/saturnino-fabrica-de-software/chamada/internal/schedule"
	"github.com/saturnino-fabrica-de-software/chamada/internal/store/memstore"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// lecture 1 of the default schedule
var lectureTime = time.Date(2024, time.March, 1, 8, 45, 0, 0, time.UTC)

func solid(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

var (
	black = solid(640, 480, 0)
	white = solid(640, 480, 255)
)

func aliceEncoding() []float64 {
	v := make([]float64, 128)
	v[0] = 1
	return v
}

// shifted returns enc moved by d along the second axis, so its distance to
// enc is exactly d.
func shifted(enc []float64, d float64) []float64 {
	out := append([]float64(nil), enc...)
	out[1] += d
	return out
}

type spyMarker struct {
	mu    sync.Mutex
	calls []string
}

func (s *spyMarker) TryMark(_ context.Context, id, _ string, _ float64, _ time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, id)
	return true
}

func (s *spyMarker) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type fixture struct {
	loop     *Loop
	provider *mock.Provider
	store    *memstore.Store
	preview  *Preview
}

func newFixture(t *testing.T, marker Marker, cfg Config) *fixture {
	t.Helper()

	r := roster.New()
	r.Replace([]domain.Student{{ID: "S1", Name: "Alice", Encoding: aliceEncoding()}}, lectureTime)

	st := memstore.New()
	if marker == nil {
		marker = attendance.NewRecorder(st, schedule.Default(), nil, attendance.Config{Node: "laptop2"}, discard)
	}

	p := mock.New()
	preview := NewPreview()
	loop := NewLoop(Deps{
		Source:   &fakeSource{},
		Gate:     motion.NewGate(motion.DefaultConfig(), discard),
		Provider: p,
		Matcher:  matcher.New(matcher.DefaultTolerance),
		Roster:   r,
		Marker:   marker,
		Schedule: schedule.Default(),
		Display:  preview,
	}, cfg, discard)

	return &fixture{loop: loop, provider: p, store: st, preview: preview}
}

func face(enc []float64) []provider.DetectedFace {
	return []provider.DetectedFace{{
		BoundingBox: provider.BoundingBox{X: 10, Y: 20, Width: 30, Height: 40},
		Encoding:    enc,
		Confidence:  0.99,
	}}
}

func TestLoop_Step_RecognizesAndMarksOnce(t *testing.T) {
	f := newFixture(t, nil, Config{MinConfidence: 0.1, ProcessingScale: 0.25})
	probe := shifted(aliceEncoding(), 0.05)
	f.provider.Script(face(probe), face(probe))

	first := f.loop.Step(context.Background(), black, white, lectureTime)
	require.Len(t, first, 1)
	assert.Equal(t, "Alice", first[0].Name)
	assert.Equal(t, "S1", first[0].StudentID)
	assert.InDelta(t, 0.95, first[0].Confidence, 1e-9)
	assert.True(t, first[0].Marked)

	second := f.loop.Step(context.Background(), white, black, lectureTime.Add(time.Second))
	require.Len(t, second, 1)
	assert.Equal(t, "Alice", second[0].Name)
	assert.False(t, second[0].Marked)

	logs, err := f.store.AttendanceLogs(context.Background(), "2024-03-01")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, 1, logs[0].Lecture)
}

func TestLoop_Step_UnknownFaceIsNotMarked(t *testing.T) {
	spy := &spyMarker{}
	f := newFixture(t, spy, Config{MinConfidence: 0.1, ProcessingScale: 0.25})
	f.provider.Script(face(shifted(aliceEncoding(), 0.9)))

	results := f.loop.Step(context.Background(), black, white, lectureTime)

	require.Len(t, results, 1)
	assert.Equal(t, domain.UnknownName, results[0].Name)
	assert.Empty(t, results[0].StudentID)
	assert.Zero(t, results[0].Confidence)
	assert.False(t, results[0].Marked)
	assert.Equal(t, 0, spy.count())
}

func TestLoop_Step_ConfidenceFloor(t *testing.T) {
	tests := []struct {
		name      string
		distance  float64
		floor     float64
		wantCalls int
	}{
		{"above floor", 0.3, 0.6, 1},
		{"below floor", 0.5, 0.6, 0},
		{"default floor accepts weak match", 0.55, 0.1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := &spyMarker{}
			f := newFixture(t, spy, Config{MinConfidence: tt.floor, ProcessingScale: 0.25})
			f.provider.Script(face(shifted(aliceEncoding(), tt.distance)))

			results := f.loop.Step(context.Background(), black, white, lectureTime)

			require.Len(t, results, 1)
			assert.Equal(t, "Alice", results[0].Name)
			assert.Equal(t, tt.wantCalls, spy.count())
		})
	}
}

func TestLoop_Step_StandbySkipsRecognition(t *testing.T) {
	f := newFixture(t, &spyMarker{}, Config{ProcessingScale: 0.25})

	assert.Nil(t, f.loop.Step(context.Background(), nil, black, lectureTime))
	assert.Nil(t, f.loop.Step(context.Background(), black, black, lectureTime))
	assert.Equal(t, 0, f.provider.Calls())
	assert.Equal(t, "STANDBY", f.loop.Status().State)

	_, _, ok := f.preview.Latest()
	assert.True(t, ok, "standby frames are still rendered")
}

func TestLoop_Step_ScalesBoxesBackUp(t *testing.T) {
	f := newFixture(t, &spyMarker{}, Config{ProcessingScale: 0.25})
	f.provider.Script(face(aliceEncoding()))

	results := f.loop.Step(context.Background(), black, white, lectureTime)

	require.Len(t, results, 1)
	assert.Equal(t, provider.BoundingBox{X: 40, Y: 80, Width: 120, Height: 160}, results[0].Box)
}

func TestLoop_Step_ScalesEachAxisIndependently(t *testing.T) {
	// 101x50 a 0.25 vira 25x12: os fatores horizontal e vertical diferem
	f := newFixture(t, &spyMarker{}, Config{ProcessingScale: 0.25})
	f.provider.Script([]provider.DetectedFace{{
		BoundingBox: provider.BoundingBox{X: 5, Y: 6, Width: 10, Height: 6},
		Encoding:    aliceEncoding(),
		Confidence:  0.99,
	}})

	results := f.loop.Step(context.Background(), solid(101, 50, 0), solid(101, 50, 255), lectureTime)

	require.Len(t, results, 1)
	box := results[0].Box
	assert.InDelta(t, 20.2, box.X, 1e-9)
	assert.InDelta(t, 40.4, box.Width, 1e-9)
	assert.InDelta(t, 25.0, box.Y, 1e-9)
	assert.InDelta(t, 25.0, box.Height, 1e-9)
}

func TestLoop_Step_RecognitionErrorSkipsFrame(t *testing.T) {
	spy := &spyMarker{}
	f := newFixture(t, spy, Config{ProcessingScale: 0.25})
	f.provider.Fail(errors.New("deepface down"))

	results := f.loop.Step(context.Background(), black, white, lectureTime)

	assert.Empty(t, results)
	assert.Equal(t, 0, spy.count())
	_, _, ok := f.preview.Latest()
	assert.True(t, ok)
}

func TestLoop_Step_UpdatesStatus(t *testing.T) {
	f := newFixture(t, nil, Config{ProcessingScale: 0.25})
	f.provider.Script(face(shifted(aliceEncoding(), 0.05)))

	f.loop.Step(context.Background(), black, white, lectureTime)

	s := f.loop.Status()
	assert.Equal(t, "ACTIVE", s.State)
	assert.Equal(t, 1, s.Lecture)
	assert.Equal(t, 1, s.RosterSize)
	assert.Equal(t, uint64(1), s.Frames)
	assert.Equal(t, "Alice (0.95)", s.LastRecognition)
}

type fakeSource struct {
	mu     sync.Mutex
	frames []image.Image
	block  bool
	closes int
}

func (s *fakeSource) Read(ctx context.Context) (image.Image, error) {
	s.mu.Lock()
	if len(s.frames) > 0 {
		f := s.frames[0]
		s.frames = s.frames[1:]
		s.mu.Unlock()
		return f, nil
	}
	block := s.block
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return nil, io.ErrUnexpectedEOF
}

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

func (s *fakeSource) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

func TestLoop_Run_CaptureFailure(t *testing.T) {
	src := &fakeSource{frames: []image.Image{black, white, black}}
	f := newFixture(t, &spyMarker{}, Config{ProcessingScale: 0.25})
	f.loop.deps.Source = src
	f.loop.WithClock(func() time.Time { return lectureTime })

	err := f.loop.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCaptureFailed)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, 1, src.closeCount())
	assert.Equal(t, uint64(3), f.loop.Status().Frames)

	require.NoError(t, f.loop.Close())
	assert.Equal(t, 1, src.closeCount())
}

func TestLoop_Run_StopsOnCancel(t *testing.T) {
	src := &fakeSource{frames: []image.Image{black}, block: true}
	f := newFixture(t, &spyMarker{}, Config{ProcessingScale: 0.25})
	f.loop.deps.Source = src

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.loop.Run(ctx) }()

	require.Eventually(t, func() bool { return f.loop.Status().Frames == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
	assert.Equal(t, 1, src.closeCount())
}

func TestResult_Label(t *testing.T) {
	assert.Equal(t, "Alice (0.95)", Result{Name: "Alice", Confidence: 0.95}.Label())
	assert.Equal(t, "Unknown", Result{Name: domain.UnknownName}.Label())
}

func TestRender(t *testing.T) {
	frame := solid(200, 100, 0)
	out := Render(frame, Overlay{
		Results: []Result{
			{Box: provider.BoundingBox{X: 10, Y: 10, Width: 80, Height: 80}, Name: "Alice", Confidence: 0.9},
			{Box: provider.BoundingBox{X: 110, Y: 10, Width: 80, Height: 80}, Name: domain.UnknownName},
		},
		Lecture: 2,
		Active:  true,
	})

	assert.Equal(t, frame.Bounds(), out.Bounds())
	assert.Equal(t, color.RGBA{G: 255, A: 255}, out.RGBAAt(10, 40))
	assert.Equal(t, color.RGBA{R: 255, A: 255}, out.RGBAAt(110, 40))
	assert.Equal(t, color.RGBA{A: 255}, out.RGBAAt(50, 40), "inside of the box is untouched")
	assert.Equal(t, color.Gray{}, frame.GrayAt(10, 40), "source frame is not modified")
}

func TestDownscale(t *testing.T) {
	small := Downscale(white, 0.25)
	assert.Equal(t, image.Rect(0, 0, 160, 120), small.Bounds())
	assert.Same(t, white, Downscale(white, 1))
}
