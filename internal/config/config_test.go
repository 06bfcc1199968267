package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCamera(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*Camera) bool
	}{
		{
			name: "uses defaults when optional vars missing",
			envVars: map[string]string{
				"RTDB_URL": "https://chamada.firebaseio.com",
			},
			check: func(c *Camera) bool {
				return c.NodeName == "laptop2" &&
					c.Width == 640 && c.Height == 480 &&
					c.MotionThreshold == 5000 &&
					c.NoMotionTimeout == 5*time.Second &&
					c.MinConfidence == 0.1 &&
					c.MatchTolerance == 0.6 &&
					c.ProcessingScale == 0.25 &&
					c.SyncInterval == time.Minute &&
					c.Store.Backend == "rtdb" &&
					c.Store.Timeout == 10*time.Second &&
					c.Provider.Type == "deepface"
			},
		},
		{
			name: "overrides recognition parameters",
			envVars: map[string]string{
				"STORE_BACKEND":     "memory",
				"MIN_CONFIDENCE":    "0.6",
				"NO_MOTION_TIMEOUT": "30s",
				"CAMERA_INDEX":      "2",
				"FACE_PROVIDER":     "mock",
			},
			check: func(c *Camera) bool {
				return c.MinConfidence == 0.6 &&
					c.NoMotionTimeout == 30*time.Second &&
					c.DevicePath() == "/dev/video2" &&
					c.Provider.Type == "mock"
			},
		},
		{
			name: "fails when RTDB_URL missing for rtdb backend",
			envVars: map[string]string{
				"STORE_BACKEND": "rtdb",
			},
			wantErr: true,
		},
		{
			name: "fails when DATABASE_URL missing for postgres backend",
			envVars: map[string]string{
				"STORE_BACKEND": "postgres",
			},
			wantErr: true,
		},
		{
			name: "fails on processing scale above one",
			envVars: map[string]string{
				"STORE_BACKEND":    "memory",
				"PROCESSING_SCALE": "2",
			},
			wantErr: true,
		},
		{
			name: "fails when snapshot source has no url",
			envVars: map[string]string{
				"STORE_BACKEND": "memory",
				"CAMERA_SOURCE": "snapshot",
			},
			wantErr: true,
		},
		{
			name: "fails on unknown backend",
			envVars: map[string]string{
				"STORE_BACKEND": "sqlite",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := LoadCamera()

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			if tt.check != nil {
				assert.True(t, tt.check(cfg), "config check failed, got: %+v", cfg)
			}
		})
	}
}

func TestLoadDashboard(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
	}{
		{
			name: "loads with required vars",
			envVars: map[string]string{
				"ADMIN_PASSWORD": "admin123",
				"SESSION_SECRET": "secret",
				"STORE_BACKEND":  "memory",
			},
		},
		{
			name: "fails when SESSION_SECRET missing",
			envVars: map[string]string{
				"ADMIN_PASSWORD": "admin123",
				"STORE_BACKEND":  "memory",
			},
			wantErr: true,
		},
		{
			name: "fails when ADMIN_PASSWORD missing",
			envVars: map[string]string{
				"SESSION_SECRET": "secret",
				"STORE_BACKEND":  "memory",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := LoadDashboard()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 5000, cfg.Port)
			assert.Equal(t, "admin", cfg.AdminUsername)
			assert.Equal(t, "laptop2", cfg.CameraNode)
			assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	os.Clearenv()
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("NODE_NAME=sala-3\n"), 0o600))

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	t.Cleanup(func() { os.Unsetenv("NODE_NAME") })

	assert.Equal(t, "sala-3", os.Getenv("NODE_NAME"))
}

func TestCamera_Location(t *testing.T) {
	c := &Camera{}
	loc, err := c.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	c.Timezone = "Asia/Kolkata"
	loc, err = c.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())

	c.Timezone = "Nowhere/City"
	_, err = c.Location()
	assert.Error(t, err)
}

func TestConfig_Environment(t *testing.T) {
	tests := []struct {
		env      string
		wantDev  bool
		wantProd bool
	}{
		{"development", true, false},
		{"production", false, true},
		{"staging", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			c := &Camera{Environment: tt.env}
			d := &Dashboard{Environment: tt.env}
			assert.Equal(t, tt.wantDev, c.IsDevelopment())
			assert.Equal(t, tt.wantProd, c.IsProduction())
			assert.Equal(t, tt.wantDev, d.IsDevelopment())
			assert.Equal(t, tt.wantProd, d.IsProduction())
		})
	}
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer

	logger := newLogger(&buf, "production", "")
	logger.Debug("hidden")
	logger.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	logger = newLogger(&buf, "development", "warn")
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")

	assert.Equal(t, slog.LevelError, parseLevel("ERROR", slog.LevelInfo))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus", slog.LevelInfo))
}

func TestLoadStore(t *testing.T) {
	os.Clearenv()
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/chamada")

	cfg, err := LoadStore()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Backend)
	assert.Equal(t, 10*time.Second, cfg.Timeout)

	os.Clearenv()
	t.Setenv("STORE_BACKEND", "postgres")
	_, err = LoadStore()
	assert.Error(t, err)
}
