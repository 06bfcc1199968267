package rtdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
	"github.com/saturnino-fabrica-de-software/chamada/internal/store"
)

const (
	pathStudents   = "students"
	pathAttendance = "attendance"
	pathLogs       = "attendance_logs"
	pathSystem     = "system"
	pathFestivals  = "festivals"
)

// Store implements store.Store. Collections are read whole and normalized
// here, so callers never see the array-shaped payloads the database may
// return for integer-like keys.
type Store struct {
	client *Client
	logger *slog.Logger
}

func New(client *Client, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{client: client, logger: logger}
}

func (s *Store) ListStudents(ctx context.Context) ([]domain.Student, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, pathStudents, &raw); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	nodes, err := children(raw)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}

	out := make([]domain.Student, 0, len(nodes))
	for id, node := range nodes {
		st, ok := s.decodeStudent(id, node)
		if !ok {
			continue
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) decodeStudent(id string, node json.RawMessage) (domain.Student, bool) {
	if !isObject(node) {
		s.logger.Warn("skipping malformed student node", "student_id", id)
		return domain.Student{}, false
	}
	var w studentWire
	if err := json.Unmarshal(node, &w); err != nil {
		s.logger.Warn("skipping malformed student node", "student_id", id, "error", err)
		return domain.Student{}, false
	}
	return domain.Student{
		ID:             id,
		Name:           w.Name,
		Email:          w.Email,
		Phone:          w.Phone,
		Stream:         w.Stream,
		EnrollmentDate: w.EnrollmentDate,
		Encoding:       w.Encoding,
		PhotoPath:      w.PhotoPath,
		UpdatedAt:      parseTime(w.UpdatedAt),
	}, true
}

func (s *Store) GetStudent(ctx context.Context, id string) (*domain.Student, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, Path(pathStudents, id), &raw); err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	if isNull(raw) {
		return nil, store.ErrNotFound
	}
	st, ok := s.decodeStudent(id, raw)
	if !ok {
		return nil, fmt.Errorf("get student %s: %w", id, ErrInvalidResponse)
	}
	return &st, nil
}

func (s *Store) PutStudent(ctx context.Context, st *domain.Student) error {
	w := studentWire{
		ID:             st.ID,
		Name:           st.Name,
		Email:          st.Email,
		Phone:          st.Phone,
		Stream:         st.Stream,
		EnrollmentDate: st.EnrollmentDate,
		Encoding:       st.Encoding,
		PhotoPath:      st.PhotoPath,
		UpdatedAt:      formatTime(st.UpdatedAt),
	}
	if err := s.client.Put(ctx, Path(pathStudents, st.ID), w); err != nil {
		return fmt.Errorf("put student: %w", err)
	}
	return nil
}

func (s *Store) DeleteStudent(ctx context.Context, id string) error {
	var raw json.RawMessage
	if err := s.client.GetShallow(ctx, Path(pathStudents, id), &raw); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if isNull(raw) {
		return store.ErrNotFound
	}
	if err := s.client.Delete(ctx, Path(pathStudents, id)); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}

func (s *Store) MarkPresent(ctx context.Context, rec domain.AttendanceRecord) error {
	p := Path(pathAttendance, rec.Date, rec.StudentID, domain.LectureField(rec.Lecture))
	if err := s.client.Put(ctx, p, rec.Status); err != nil {
		return fmt.Errorf("mark present: %w", err)
	}
	return nil
}

func (s *Store) AppendLog(ctx context.Context, rec domain.AttendanceRecord) (string, error) {
	key, err := s.client.Push(ctx, pathLogs, logWire{
		StudentID:   rec.StudentID,
		StudentName: rec.StudentName,
		Date:        rec.Date,
		Lecture:     flexInt(rec.Lecture),
		Time:        formatTime(rec.Time),
		Confidence:  rec.Confidence,
		Status:      rec.Status,
	})
	if err != nil {
		return "", fmt.Errorf("append attendance log: %w", err)
	}
	return key, nil
}

func (s *Store) AttendanceSheet(ctx context.Context) (domain.AttendanceSheet, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, pathAttendance, &raw); err != nil {
		return nil, fmt.Errorf("attendance sheet: %w", err)
	}
	days, err := children(raw)
	if err != nil {
		return nil, fmt.Errorf("attendance sheet: %w", err)
	}

	sheet := make(domain.AttendanceSheet, len(days))
	for date, dayRaw := range days {
		students, err := children(dayRaw)
		if err != nil {
			s.logger.Warn("skipping malformed attendance day", "date", date, "error", err)
			continue
		}
		for id, cellsRaw := range students {
			cells, err := children(cellsRaw)
			if err != nil {
				continue
			}
			for field, v := range cells {
				lecture, ok := domain.ParseLectureField(field)
				if !ok {
					continue
				}
				var status string
				if err := json.Unmarshal(v, &status); err != nil {
					continue
				}
				sheet.Set(date, id, lecture, status)
			}
		}
	}
	return sheet, nil
}

func (s *Store) AttendanceLogs(ctx context.Context, date string) ([]domain.AttendanceRecord, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, pathLogs, &raw); err != nil {
		return nil, fmt.Errorf("attendance logs: %w", err)
	}
	entries, err := children(raw)
	if err != nil {
		return nil, fmt.Errorf("attendance logs: %w", err)
	}

	out := make([]domain.AttendanceRecord, 0, len(entries))
	for key, v := range entries {
		var w logWire
		if err := json.Unmarshal(v, &w); err != nil {
			s.logger.Warn("skipping malformed attendance log", "key", key, "error", err)
			continue
		}
		if date != "" && w.Date != date {
			continue
		}
		out = append(out, domain.AttendanceRecord{
			StudentID:   w.StudentID,
			StudentName: w.StudentName,
			Date:        w.Date,
			Lecture:     int(w.Lecture),
			Time:        parseTime(w.Time),
			Confidence:  w.Confidence,
			Status:      w.Status,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

func (s *Store) PutStatus(ctx context.Context, node string, st domain.SystemStatus) error {
	w := statusWire{
		Status:          st.Status,
		LastUpdate:      formatTime(st.LastUpdate),
		LastRecognition: st.LastRecognition,
		CameraActive:    st.CameraActive,
	}
	if err := s.client.Put(ctx, Path(pathSystem, domain.StatusNode(node)), w); err != nil {
		return fmt.Errorf("put status: %w", err)
	}
	return nil
}

// GetStatus tolera o formato antigo em lista, em que o primeiro item é o status.
func (s *Store) GetStatus(ctx context.Context, node string) (*domain.SystemStatus, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, Path(pathSystem, domain.StatusNode(node)), &raw); err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	if isNull(raw) {
		return nil, store.ErrNotFound
	}

	if isObject(raw) {
		var w statusWire
		if err := json.Unmarshal(raw, &w); err == nil {
			return &domain.SystemStatus{
				Status:          w.Status,
				LastUpdate:      parseTime(w.LastUpdate),
				LastRecognition: w.LastRecognition,
				CameraActive:    w.CameraActive,
			}, nil
		}
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		var first string
		if err := json.Unmarshal(list[0], &first); err == nil {
			return &domain.SystemStatus{Status: first}, nil
		}
	}
	return &domain.SystemStatus{Status: domain.StatusDisconnected}, nil
}

func (s *Store) Festivals(ctx context.Context) (map[string]domain.Festival, error) {
	var raw json.RawMessage
	if err := s.client.Get(ctx, pathFestivals, &raw); err != nil {
		return nil, fmt.Errorf("festivals: %w", err)
	}
	nodes, err := children(raw)
	if err != nil {
		return nil, fmt.Errorf("festivals: %w", err)
	}

	out := make(map[string]domain.Festival, len(nodes))
	for date, v := range nodes {
		var f domain.Festival
		if isObject(v) {
			if err := json.Unmarshal(v, &f); err != nil {
				continue
			}
		} else if err := json.Unmarshal(v, &f.Name); err != nil {
			continue
		}
		out[date] = f
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	var raw json.RawMessage
	if err := s.client.GetShallow(ctx, pathSystem, &raw); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.client.httpClient.CloseIdleConnections()
	return nil
}

var _ store.Store = (*Store)(nil)
