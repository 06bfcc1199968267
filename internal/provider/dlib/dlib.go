//go:build dlib

// Package dlib runs face detection and encoding in-process with dlib models.
package dlib

import (
	"context"
	"fmt"
	"sync"

	face "github.com/Kagami/go-face"

	"github.com/saturnino-fabrica-de-software/chamada/internal/provider"
)

// Provider wraps a go-face recognizer. The recognizer is not safe for
// concurrent use, so calls are serialized.
type Provider struct {
	mu  sync.Mutex
	rec *face.Recognizer
}

// New carrega shape_predictor_5_face_landmarks.dat e
// dlib_face_recognition_resnet_model_v1.dat de modelsDir.
func New(modelsDir string) (*Provider, error) {
	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, fmt.Errorf("load dlib models from %s: %w", modelsDir, err)
	}
	return &Provider{rec: rec}, nil
}

// DetectFaces expects JPEG bytes.
func (p *Provider) DetectFaces(ctx context.Context, img []byte) ([]provider.DetectedFace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	faces, err := p.rec.Recognize(img)
	p.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	out := make([]provider.DetectedFace, 0, len(faces))
	for _, f := range faces {
		r := f.Rectangle
		enc := make([]float64, len(f.Descriptor))
		for i, v := range f.Descriptor {
			enc[i] = float64(v)
		}
		out = append(out, provider.DetectedFace{
			BoundingBox: provider.BoundingBox{
				X:      float64(r.Min.X),
				Y:      float64(r.Min.Y),
				Width:  float64(r.Dx()),
				Height: float64(r.Dy()),
			},
			Encoding:   enc,
			Confidence: 1,
		})
	}
	return out, nil
}

func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rec.Close()
	return nil
}

var _ provider.FaceProvider = (*Provider)(nil)
