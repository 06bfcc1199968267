package backend

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/chamada/internal/config"
	"github.com/saturnino-fabrica-de-software/chamada/internal/store/memstore"
	"github.com/saturnino-fabrica-de-software/chamada/internal/store/postgres"
	"github.com/saturnino-fabrica-de-software/chamada/internal/store/rtdb"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("null"))
	}))
	defer srv.Close()

	tests := []struct {
		name     string
		cfg      config.Store
		wantType any
		wantErr  bool
	}{
		{
			name:     "memory",
			cfg:      config.Store{Backend: Memory, Timeout: time.Second},
			wantType: &memstore.Store{},
		},
		{
			name:     "rtdb",
			cfg:      config.Store{Backend: RTDB, RTDBURL: srv.URL, Timeout: time.Second},
			wantType: &rtdb.Store{},
		},
		{
			name:     "postgres unreachable still opens",
			cfg:      config.Store{Backend: Postgres, DatabaseURL: "postgres://u:p@127.0.0.1:1/none?connect_timeout=1", Timeout: 2 * time.Second},
			wantType: &postgres.Store{},
		},
		{
			name:    "rtdb without url",
			cfg:     config.Store{Backend: RTDB},
			wantErr: true,
		},
		{
			name:    "unknown",
			cfg:     config.Store{Backend: "sqlite"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(context.Background(), tt.cfg, discard)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer s.Close()
			assert.IsType(t, tt.wantType, s)
		})
	}
}

func TestOpen_RTDBRetriesTransientErrors(t *testing.T) {
	var studentGets atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/students") {
			_, _ = w.Write([]byte("null"))
			return
		}
		if studentGets.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"S1":{"name":"Alice"}}`))
	}))
	defer srv.Close()

	s, err := Open(context.Background(), config.Store{Backend: RTDB, RTDBURL: srv.URL, Timeout: 10 * time.Second}, discard)
	require.NoError(t, err)
	defer s.Close()

	students, err := s.ListStudents(context.Background())
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Alice", students[0].Name)
	assert.Equal(t, int32(2), studentGets.Load())
}
