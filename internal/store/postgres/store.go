// Package postgres is the PostgreSQL store backend. Encodings live in a
// pgvector column.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
	"github.com/saturnino-fabrica-de-software/chamada/internal/store"
)

// PgxPool is satisfied by *pgxpool.Pool and pgxmock.PgxPoolIface.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

type Store struct {
	pool  PgxPool
	newID func() string
}

var _ store.Store = (*Store)(nil)

func New(pool PgxPool) *Store {
	return &Store{
		pool:  pool,
		newID: func() string { return uuid.NewString() },
	}
}

// Open conecta com pgxpool e verifica a conexão.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return New(pool), nil
}

const studentColumns = `id, name, email, phone, stream, enrollment_date, encoding, photo_path, updated_at`

func (s *Store) ListStudents(ctx context.Context) ([]domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students ORDER BY id`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var out []domain.Student
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		out = append(out, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return out, nil
}

func (s *Store) GetStudent(ctx context.Context, id string) (*domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`

	st, err := scanStudent(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	return st, nil
}

func scanStudent(row pgx.Row) (*domain.Student, error) {
	var st domain.Student
	var encoding *pgvector.Vector

	err := row.Scan(
		&st.ID,
		&st.Name,
		&st.Email,
		&st.Phone,
		&st.Stream,
		&st.EnrollmentDate,
		&encoding,
		&st.PhotoPath,
		&st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if encoding != nil && encoding.Slice() != nil {
		st.Encoding = make([]float64, len(encoding.Slice()))
		for i, v := range encoding.Slice() {
			st.Encoding[i] = float64(v)
		}
	}
	return &st, nil
}

func (s *Store) PutStudent(ctx context.Context, st *domain.Student) error {
	query := `
		INSERT INTO students (id, name, email, phone, stream, enrollment_date, encoding, photo_path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			stream = EXCLUDED.stream,
			enrollment_date = EXCLUDED.enrollment_date,
			encoding = EXCLUDED.encoding,
			photo_path = EXCLUDED.photo_path,
			updated_at = NOW()
		RETURNING updated_at
	`

	var encoding *pgvector.Vector
	if len(st.Encoding) > 0 {
		floats := make([]float32, len(st.Encoding))
		for i, v := range st.Encoding {
			floats[i] = float32(v)
		}
		vec := pgvector.NewVector(floats)
		encoding = &vec
	}

	err := s.pool.QueryRow(ctx, query,
		st.ID,
		st.Name,
		st.Email,
		st.Phone,
		st.Stream,
		st.EnrollmentDate,
		encoding,
		st.PhotoPath,
	).Scan(&st.UpdatedAt)
	if err != nil {
		return fmt.Errorf("put student: %w", err)
	}
	return nil
}

func (s *Store) DeleteStudent(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) MarkPresent(ctx context.Context, rec domain.AttendanceRecord) error {
	query := `
		INSERT INTO attendance (date, student_id, lecture, status)
		VALUES ($1::date, $2, $3, $4)
		ON CONFLICT (date, student_id, lecture) DO UPDATE SET status = EXCLUDED.status
	`

	if _, err := s.pool.Exec(ctx, query, rec.Date, rec.StudentID, rec.Lecture, rec.Status); err != nil {
		return fmt.Errorf("mark present: %w", err)
	}
	return nil
}

func (s *Store) AppendLog(ctx context.Context, rec domain.AttendanceRecord) (string, error) {
	query := `
		INSERT INTO attendance_logs (id, student_id, student_name, date, lecture, time, confidence, status)
		VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8)
	`

	id := s.newID()
	_, err := s.pool.Exec(ctx, query,
		id,
		rec.StudentID,
		rec.StudentName,
		rec.Date,
		rec.Lecture,
		rec.Time,
		rec.Confidence,
		rec.Status,
	)
	if err != nil {
		return "", fmt.Errorf("append log: %w", err)
	}
	return id, nil
}

func (s *Store) AttendanceSheet(ctx context.Context) (domain.AttendanceSheet, error) {
	query := `
		SELECT to_char(date, 'YYYY-MM-DD'), student_id, lecture, status
		FROM attendance
		ORDER BY date, student_id, lecture
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("attendance sheet: %w", err)
	}
	defer rows.Close()

	sheet := make(domain.AttendanceSheet)
	for rows.Next() {
		var date, studentID, status string
		var lecture int
		if err := rows.Scan(&date, &studentID, &lecture, &status); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		sheet.Set(date, studentID, lecture, status)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("attendance sheet: %w", err)
	}
	return sheet, nil
}

func (s *Store) AttendanceLogs(ctx context.Context, date string) ([]domain.AttendanceRecord, error) {
	query := `
		SELECT student_id, student_name, to_char(date, 'YYYY-MM-DD'), lecture, time, confidence, status
		FROM attendance_logs
		WHERE $1::text = '' OR date = NULLIF($1::text, '')::date
		ORDER BY time
	`

	rows, err := s.pool.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("attendance logs: %w", err)
	}
	defer rows.Close()

	var out []domain.AttendanceRecord
	for rows.Next() {
		var rec domain.AttendanceRecord
		err := rows.Scan(
			&rec.StudentID,
			&rec.StudentName,
			&rec.Date,
			&rec.Lecture,
			&rec.Time,
			&rec.Confidence,
			&rec.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("attendance logs: %w", err)
	}
	return out, nil
}

func (s *Store) PutStatus(ctx context.Context, node string, status domain.SystemStatus) error {
	query := `
		INSERT INTO system_status (node, status, last_update, last_recognition, camera_active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (node) DO UPDATE SET
			status = EXCLUDED.status,
			last_update = EXCLUDED.last_update,
			last_recognition = EXCLUDED.last_recognition,
			camera_active = EXCLUDED.camera_active
	`

	_, err := s.pool.Exec(ctx, query, node, status.Status, status.LastUpdate, status.LastRecognition, status.CameraActive)
	if err != nil {
		return fmt.Errorf("put status: %w", err)
	}
	return nil
}

func (s *Store) GetStatus(ctx context.Context, node string) (*domain.SystemStatus, error) {
	query := `
		SELECT status, last_update, last_recognition, camera_active
		FROM system_status
		WHERE node = $1
	`

	var st domain.SystemStatus
	var lastUpdate time.Time
	err := s.pool.QueryRow(ctx, query, node).Scan(&st.Status, &lastUpdate, &st.LastRecognition, &st.CameraActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	st.LastUpdate = lastUpdate
	return &st, nil
}

func (s *Store) Festivals(ctx context.Context) (map[string]domain.Festival, error) {
	query := `SELECT to_char(date, 'YYYY-MM-DD'), name, description, type FROM festivals ORDER BY date`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("festivals: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.Festival)
	for rows.Next() {
		var date string
		var f domain.Festival
		if err := rows.Scan(&date, &f.Name, &f.Description, &f.Type); err != nil {
			return nil, fmt.Errorf("scan festival: %w", err)
		}
		out[date] = f
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("festivals: %w", err)
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("database unhealthy: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
