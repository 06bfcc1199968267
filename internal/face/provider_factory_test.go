package face

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/chamada/internal/config"
	"github.com/saturnino-fabrica-de-software/chamada/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/chamada/internal/provider/mock"
)

func TestNewFaceProvider(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Provider
		wantType any
		wantErr  bool
	}{
		{
			name:     "explicit deepface provider",
			cfg:      config.Provider{Type: "deepface", DeepFaceURL: "http://localhost:5005"},
			wantType: &deepface.Provider{},
		},
		{
			name:     "empty provider defaults to deepface",
			cfg:      config.Provider{},
			wantType: &deepface.Provider{},
		},
		{
			name:     "mock provider",
			cfg:      config.Provider{Type: "mock"},
			wantType: &mock.Provider{},
		},
		{
			name:    "unknown provider",
			cfg:     config.Provider{Type: "opencv"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewFaceProvider(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "unknown provider type")
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.wantType, p)
		})
	}
}

func TestNewQualityChecker(t *testing.T) {
	c, err := NewQualityChecker(context.Background(), "none", "us-east-1")
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = NewQualityChecker(context.Background(), "magic", "us-east-1")
	assert.Error(t, err)
}
