// Package memstore is an in-process store backend for tests and dry runs.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
	"github.com/saturnino-fabrica-de-software/chamada/internal/store"
)

// Op names an operation for fault injection.
type Op string

const (
	OpListStudents  Op = "list_students"
	OpGetStudent    Op = "get_student"
	OpPutStudent    Op = "put_student"
	OpDeleteStudent Op = "delete_student"
	OpMarkPresent   Op = "mark_present"
	OpAppendLog     Op = "append_log"
	OpSheet         Op = "attendance_sheet"
	OpLogs          Op = "attendance_logs"
	OpPutStatus     Op = "put_status"
	OpGetStatus     Op = "get_status"
	OpFestivals     Op = "festivals"
	OpPing          Op = "ping"
)

type logEntry struct {
	key string
	rec domain.AttendanceRecord
}

type Store struct {
	mu        sync.RWMutex
	students  map[string]domain.Student
	sheet     domain.AttendanceSheet
	logs      []logEntry
	statuses  map[string]domain.SystemStatus
	festivals map[string]domain.Festival
	failures  map[Op]error
	calls     map[Op]int
}

func New() *Store {
	return &Store{
		students:  make(map[string]domain.Student),
		sheet:     make(domain.AttendanceSheet),
		statuses:  make(map[string]domain.SystemStatus),
		festivals: make(map[string]domain.Festival),
		failures:  make(map[Op]error),
		calls:     make(map[Op]int),
	}
}

// FailOn makes op return err until cleared with FailOn(op, nil).
func (s *Store) FailOn(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Calls counts invocations of op, failed ones included.
func (s *Store) Calls(op Op) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[op]
}

// SetFestival seeds the festival calendar.
func (s *Store) SetFestival(date string, f domain.Festival) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.festivals[date] = f
}

// enter must be called with the write lock held.
func (s *Store) enter(op Op) error {
	s.calls[op]++
	return s.failures[op]
}

func (s *Store) ListStudents(ctx context.Context) ([]domain.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpListStudents); err != nil {
		return nil, err
	}
	out := make([]domain.Student, 0, len(s.students))
	for _, st := range s.students {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetStudent(ctx context.Context, id string) (*domain.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpGetStudent); err != nil {
		return nil, err
	}
	st, ok := s.students[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &st, nil
}

func (s *Store) PutStudent(ctx context.Context, st *domain.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpPutStudent); err != nil {
		return err
	}
	cp := *st
	cp.Encoding = append([]float64(nil), st.Encoding...)
	s.students[st.ID] = cp
	return nil
}

func (s *Store) DeleteStudent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpDeleteStudent); err != nil {
		return err
	}
	if _, ok := s.students[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.students, id)
	return nil
}

func (s *Store) MarkPresent(ctx context.Context, rec domain.AttendanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpMarkPresent); err != nil {
		return err
	}
	s.sheet.Set(rec.Date, rec.StudentID, rec.Lecture, rec.Status)
	return nil
}

func (s *Store) AppendLog(ctx context.Context, rec domain.AttendanceRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpAppendLog); err != nil {
		return "", err
	}
	key := uuid.NewString()
	s.logs = append(s.logs, logEntry{key: key, rec: rec})
	return key, nil
}

func (s *Store) AttendanceSheet(ctx context.Context) (domain.AttendanceSheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpSheet); err != nil {
		return nil, err
	}
	out := make(domain.AttendanceSheet, len(s.sheet))
	for date, day := range s.sheet {
		for id, cells := range day {
			for field, status := range cells {
				if n, ok := domain.ParseLectureField(field); ok {
					out.Set(date, id, n, status)
				}
			}
		}
	}
	return out, nil
}

func (s *Store) AttendanceLogs(ctx context.Context, date string) ([]domain.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpLogs); err != nil {
		return nil, err
	}
	var out []domain.AttendanceRecord
	for _, e := range s.logs {
		if date == "" || e.rec.Date == date {
			out = append(out, e.rec)
		}
	}
	return out, nil
}

func (s *Store) PutStatus(ctx context.Context, node string, status domain.SystemStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpPutStatus); err != nil {
		return err
	}
	s.statuses[node] = status
	return nil
}

func (s *Store) GetStatus(ctx context.Context, node string) (*domain.SystemStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpGetStatus); err != nil {
		return nil, err
	}
	st, ok := s.statuses[node]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &st, nil
}

func (s *Store) Festivals(ctx context.Context) (map[string]domain.Festival, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpFestivals); err != nil {
		return nil, err
	}
	out := make(map[string]domain.Festival, len(s.festivals))
	for k, v := range s.festivals {
		out[k] = v
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enter(OpPing)
}

func (s *Store) Close() error {
	return nil
}

var _ store.Store = (*Store)(nil)
