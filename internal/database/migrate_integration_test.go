//go:build integration

package database_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saturnino-fabrica-de-software/chamada/internal/database"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "pgvector/pgvector:pg16",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "chamada_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://test:test@%s:%s/chamada_test?sslmode=disable", host, port.Port())
}

func TestMigratorIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	dsn := startPostgres(t)
	db, err := database.Open(context.Background(), database.DefaultPoolConfig(dsn))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	migrator, err := database.NewMigrator(db, "chamada_test", nil)
	require.NoError(t, err)
	defer func() { _ = migrator.Close() }()

	t.Run("Up runs migrations", func(t *testing.T) {
		require.NoError(t, migrator.Up())
		for _, table := range []string{"students", "attendance", "attendance_logs", "system_status", "festivals"} {
			assertTableExists(t, db, table)
		}
	})

	t.Run("Up is idempotent", func(t *testing.T) {
		require.NoError(t, migrator.Up())
	})

	t.Run("Version returns latest", func(t *testing.T) {
		version, dirty, err := migrator.Version()
		require.NoError(t, err)
		assert.False(t, dirty)
		assert.Equal(t, uint(3), version)
	})

	t.Run("attendance rejects duplicate cells", func(t *testing.T) {
		_, err := db.Exec(`INSERT INTO attendance (date, student_id, lecture, status) VALUES ('2024-03-01', 'S1', 1, 'Present')`)
		require.NoError(t, err)
		_, err = db.Exec(`INSERT INTO attendance (date, student_id, lecture, status) VALUES ('2024-03-01', 'S1', 1, 'Present')`)
		assert.Error(t, err)
	})

	t.Run("Down rolls back one step", func(t *testing.T) {
		require.NoError(t, migrator.Down())
		version, _, err := migrator.Version()
		require.NoError(t, err)
		assert.Equal(t, uint(2), version)
	})
}

func assertTableExists(t *testing.T, db *sql.DB, tableName string) {
	t.Helper()

	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)
	`, tableName).Scan(&exists)

	require.NoError(t, err)
	assert.True(t, exists, "table %s should exist", tableName)
}
