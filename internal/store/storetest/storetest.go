// Package storetest holds behaviour checks every store backend must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
	"github.com/saturnino-fabrica-de-software/chamada/internal/store"
)

// Run executes the suite; newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("students", func(t *testing.T) { testStudents(t, newStore(t)) })
	t.Run("attendance round trip", func(t *testing.T) { testAttendance(t, newStore(t)) })
	t.Run("status", func(t *testing.T) { testStatus(t, newStore(t)) })
	t.Run("ping", func(t *testing.T) { assert.NoError(t, newStore(t).Ping(context.Background())) })
}

func testStudents(t *testing.T, s store.Store) {
	ctx := context.Background()

	students, err := s.ListStudents(ctx)
	require.NoError(t, err)
	assert.Empty(t, students)

	alice := &domain.Student{ID: "S1", Name: "Alice", Stream: "CSE", Encoding: []float64{0.1, 0.2, 0.3}}
	bob := &domain.Student{ID: "S2", Name: "Bob", Stream: "ECE"}
	require.NoError(t, s.PutStudent(ctx, alice))
	require.NoError(t, s.PutStudent(ctx, bob))

	got, err := s.GetStudent(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, "CSE", got.Stream)
	assert.InDeltaSlice(t, []float64{0.1, 0.2, 0.3}, got.Encoding, 1e-6)

	alice.Name = "Alice Doe"
	require.NoError(t, s.PutStudent(ctx, alice))
	got, err = s.GetStudent(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, "Alice Doe", got.Name, "put overwrites")

	students, err = s.ListStudents(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 2)

	require.NoError(t, s.DeleteStudent(ctx, "S2"))
	_, err = s.GetStudent(ctx, "S2")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testAttendance(t *testing.T, s store.Store) {
	ctx := context.Background()
	ts := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	rec := domain.AttendanceRecord{
		StudentID:   "S1",
		StudentName: "Alice",
		Date:        "2024-03-01",
		Lecture:     2,
		Time:        ts,
		Confidence:  0.95,
		Status:      domain.StatusPresent,
	}

	require.NoError(t, s.MarkPresent(ctx, rec))
	key, err := s.AppendLog(ctx, rec)
	require.NoError(t, err)
	assert.NotEmpty(t, key)

	other := rec
	other.Date = "2024-03-02"
	require.NoError(t, s.MarkPresent(ctx, other))
	_, err = s.AppendLog(ctx, other)
	require.NoError(t, err)

	sheet, err := s.AttendanceSheet(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPresent, sheet["2024-03-01"]["S1"]["lecture2"])
	assert.Len(t, sheet, 2)

	logs, err := s.AttendanceLogs(ctx, "2024-03-01")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "S1", logs[0].StudentID)
	assert.Equal(t, 2, logs[0].Lecture)
	assert.Equal(t, domain.StatusPresent, logs[0].Status)
	assert.InDelta(t, 0.95, logs[0].Confidence, 1e-9)
	assert.True(t, ts.Equal(logs[0].Time))

	all, err := s.AttendanceLogs(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func testStatus(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.GetStatus(ctx, "laptop2")
	assert.ErrorIs(t, err, store.ErrNotFound)

	active := true
	ts := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.PutStatus(ctx, "laptop2", domain.SystemStatus{
		Status:       domain.StatusConnected,
		LastUpdate:   ts,
		CameraActive: &active,
	}))
	require.NoError(t, s.PutStatus(ctx, "laptop2", domain.SystemStatus{
		Status:          domain.StatusConnected,
		LastUpdate:      ts.Add(time.Minute),
		LastRecognition: "Alice (Confidence: 0.95)",
	}))

	got, err := s.GetStatus(ctx, "laptop2")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConnected, got.Status)
	assert.Equal(t, "Alice (Confidence: 0.95)", got.LastRecognition)
	assert.Nil(t, got.CameraActive, "status is overwritten, not merged")
	assert.True(t, ts.Add(time.Minute).Equal(got.LastUpdate))
}
