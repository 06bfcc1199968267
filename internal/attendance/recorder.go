// Package attendance turns recognitions into persisted attendance marks,
// at most once per student, date and lecture.
package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
	"github.com/saturnino-fabrica-de-software/chamada/internal/schedule"
)

const DefaultStoreTimeout = 10 * time.Second

// Store is the subset of store.Store the recorder writes to.
type Store interface {
	MarkPresent(ctx context.Context, rec domain.AttendanceRecord) error
	AppendLog(ctx context.Context, rec domain.AttendanceRecord) (string, error)
	PutStatus(ctx context.Context, node string, status domain.SystemStatus) error
}

type Config struct {
	// Node is the heartbeat owner, e.g. "laptop2".
	Node         string
	StoreTimeout time.Duration
	// Location define a data e o horário de aula; nil usa o horário de now.
	Location *time.Location
}

type Recorder struct {
	store    Store
	schedule *schedule.Schedule
	cache    *Cache
	cfg      Config
	logger   *slog.Logger
}

func NewRecorder(st Store, sched *schedule.Schedule, cache *Cache, cfg Config, logger *slog.Logger) *Recorder {
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = DefaultStoreTimeout
	}
	if cache == nil {
		cache = NewCache()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		store:    st,
		schedule: sched,
		cache:    cache,
		cfg:      cfg,
		logger:   logger,
	}
}

func (r *Recorder) Cache() *Cache {
	return r.cache
}

// TryMark records studentID as present in the lecture running at now.
// It returns false outside lecture hours, for keys already marked and on
// any store failure; a failed key stays unmarked so the next recognition
// retries it.
func (r *Recorder) TryMark(ctx context.Context, studentID, name string, confidence float64, now time.Time) bool {
	if r.cfg.Location != nil {
		now = now.In(r.cfg.Location)
	}

	lecture, ok := r.schedule.CurrentLecture(now)
	if !ok {
		r.logger.Debug("not in lecture time - attendance not marked", "student_id", studentID)
		return false
	}

	rec := domain.AttendanceRecord{
		StudentID:   studentID,
		StudentName: name,
		Date:        now.Format(domain.DateLayout),
		Lecture:     lecture,
		Time:        now,
		Confidence:  confidence,
		Status:      domain.StatusPresent,
	}
	key := rec.Key()

	if !r.cache.reserve(key) {
		return false
	}

	if err := r.persist(ctx, rec); err != nil {
		r.cache.release(key)
		r.logger.Error("failed to mark attendance",
			"error", err,
			"student_id", studentID,
			"lecture", lecture,
		)
		return false
	}

	r.cache.Add(key)
	r.logger.Info("attendance marked",
		"student_id", studentID,
		"student_name", name,
		"lecture", lecture,
		"confidence", confidence,
	)
	return true
}

func (r *Recorder) persist(ctx context.Context, rec domain.AttendanceRecord) error {
	if err := r.call(ctx, func(ctx context.Context) error {
		return r.store.MarkPresent(ctx, rec)
	}); err != nil {
		return fmt.Errorf("mark present: %w", err)
	}

	if err := r.call(ctx, func(ctx context.Context) error {
		_, err := r.store.AppendLog(ctx, rec)
		return err
	}); err != nil {
		return fmt.Errorf("append log: %w", err)
	}

	status := domain.SystemStatus{
		Status:          domain.StatusConnected,
		LastUpdate:      rec.Time,
		LastRecognition: RecognitionSummary(rec.StudentName, rec.Confidence),
	}
	if err := r.call(ctx, func(ctx context.Context) error {
		return r.store.PutStatus(ctx, r.cfg.Node, status)
	}); err != nil {
		return fmt.Errorf("publish status: %w", err)
	}
	return nil
}

func (r *Recorder) call(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.StoreTimeout)
	defer cancel()
	return fn(ctx)
}

// RecognitionSummary formata o texto de last_recognition, ex.: "Alice (Confidence: 0.95)".
func RecognitionSummary(name string, confidence float64) string {
	return fmt.Sprintf("%s (Confidence: %.2f)", name, confidence)
}
