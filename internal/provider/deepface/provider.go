package deepface

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/saturnino-fabrica-de-software/chamada/internal/provider"
)

// Provider adapts the DeepFace client to provider.FaceProvider.
type Provider struct {
	client *Client
}

func NewProvider(config Config) *Provider {
	return &Provider{client: NewClient(config)}
}

// DetectFaces returns one located and encoded face per DeepFace result.
// With enforce_detection off DeepFace answers an image without faces with a
// single whole-image result of zero confidence; those are dropped. Boxes are
// clipped to the image when its size can be read locally.
func (p *Provider) DetectFaces(ctx context.Context, img []byte) ([]provider.DetectedFace, error) {
	if len(img) == 0 {
		return nil, fmt.Errorf("detect faces: %w", ErrEmptyImage)
	}

	resp, err := p.client.Represent(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}

	bounds := image.Rectangle{}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(img)); err == nil {
		bounds = image.Rect(0, 0, cfg.Width, cfg.Height)
	}

	faces := make([]provider.DetectedFace, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.FaceConfidence <= 0 || len(r.Embedding) == 0 {
			continue
		}
		area := image.Rect(r.FacialArea.X, r.FacialArea.Y, r.FacialArea.X+r.FacialArea.W, r.FacialArea.Y+r.FacialArea.H)
		if !bounds.Empty() {
			area = area.Intersect(bounds)
		}
		faces = append(faces, provider.DetectedFace{
			BoundingBox: provider.BoundingBox{
				X:      float64(area.Min.X),
				Y:      float64(area.Min.Y),
				Width:  float64(area.Dx()),
				Height: float64(area.Dy()),
			},
			Encoding:   r.Embedding,
			Confidence: r.FaceConfidence,
		})
	}
	return faces, nil
}

var _ provider.FaceProvider = (*Provider)(nil)
