package face

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/chamada/internal/config"
	"github.com/saturnino-fabrica-de-software/chamada/internal/provider"
	"github.com/saturnino-fabrica-de-software/chamada/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/chamada/internal/provider/dlib"
	"github.com/saturnino-fabrica-de-software/chamada/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/chamada/internal/provider/rekognition"
)

// ProviderType defines supported face recognition provider types
type ProviderType string

const (
	// ProviderTypeDeepFace is the DeepFace HTTP service (default)
	ProviderTypeDeepFace ProviderType = "deepface"
	// ProviderTypeDlib runs dlib in-process (requires -tags dlib)
	ProviderTypeDlib ProviderType = "dlib"
	// ProviderTypeMock gera encodings determinísticos, para dev/test
	ProviderTypeMock ProviderType = "mock"
)

// Quality gate types for enrollment photos
const (
	QualityGateNone        = "none"
	QualityGateRekognition = "rekognition"
)

// NewFaceProvider creates a FaceProvider based on FACE_PROVIDER.
func NewFaceProvider(cfg config.Provider) (provider.FaceProvider, error) {
	switch ProviderType(cfg.Type) {
	case ProviderTypeDeepFace, "":
		return createDeepFaceProvider(cfg), nil

	case ProviderTypeDlib:
		p, err := dlib.New(cfg.DlibModelsDir)
		if err != nil {
			return nil, fmt.Errorf("create dlib provider: %w", err)
		}
		return p, nil

	case ProviderTypeMock:
		return mock.New(), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s, %s)",
			cfg.Type, ProviderTypeDeepFace, ProviderTypeDlib, ProviderTypeMock)
	}
}

// NewQualityChecker returns nil when no gate is configured.
func NewQualityChecker(ctx context.Context, gate, region string) (provider.QualityChecker, error) {
	switch gate {
	case QualityGateNone, "":
		return nil, nil
	case QualityGateRekognition:
		c, err := rekognition.NewChecker(ctx, rekognition.Config{Region: region})
		if err != nil {
			return nil, fmt.Errorf("create rekognition quality gate: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown quality gate: %s (supported: %s, %s)", gate, QualityGateNone, QualityGateRekognition)
	}
}

func createDeepFaceProvider(cfg config.Provider) provider.FaceProvider {
	deepfaceConfig := deepface.DefaultConfig()
	if cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = cfg.DeepFaceURL
	}
	if cfg.DeepFaceModel != "" {
		deepfaceConfig.Model = cfg.DeepFaceModel
	}
	if cfg.DeepFaceDetector != "" {
		deepfaceConfig.Detector = cfg.DeepFaceDetector
	}
	if cfg.DeepFaceTimeout > 0 {
		deepfaceConfig.Timeout = cfg.DeepFaceTimeout
	}

	return deepface.NewProvider(deepfaceConfig)
}
