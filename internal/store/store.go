// Package store defines the persistence contract shared by the camera node
// and the dashboard. Backends live in subpackages.
package store

import (
	"context"
	"errors"

	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
)

var ErrNotFound = errors.New("not found")

type StudentStore interface {
	ListStudents(ctx context.Context) ([]domain.Student, error)
	GetStudent(ctx context.Context, id string) (*domain.Student, error)
	PutStudent(ctx context.Context, s *domain.Student) error
	DeleteStudent(ctx context.Context, id string) error
}

type AttendanceStore interface {
	// MarkPresent grava a célula attendance/{date}/{id}/lecture{n}.
	MarkPresent(ctx context.Context, rec domain.AttendanceRecord) error
	// AppendLog adds an entry to attendance_logs and returns its key.
	AppendLog(ctx context.Context, rec domain.AttendanceRecord) (string, error)
	AttendanceSheet(ctx context.Context) (domain.AttendanceSheet, error)
	// AttendanceLogs returns the log entries for date; empty date means all.
	AttendanceLogs(ctx context.Context, date string) ([]domain.AttendanceRecord, error)
}

type StatusStore interface {
	PutStatus(ctx context.Context, node string, status domain.SystemStatus) error
	// GetStatus returns ErrNotFound when the node never published.
	GetStatus(ctx context.Context, node string) (*domain.SystemStatus, error)
}

type FestivalStore interface {
	Festivals(ctx context.Context) (map[string]domain.Festival, error)
}

// Store is implemented by every backend.
type Store interface {
	StudentStore
	AttendanceStore
	StatusStore
	FestivalStore
	Ping(ctx context.Context) error
	Close() error
}
