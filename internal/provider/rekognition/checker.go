package rekognition

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/chamada/internal/provider"
)

// Checker screens enrollment photos with DetectFaces before they are encoded.
type Checker struct {
	api DetectFacesAPI
}

func NewChecker(ctx context.Context, cfg Config) (*Checker, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Checker{api: client}, nil
}

func NewCheckerWithAPI(api DetectFacesAPI) *Checker {
	return &Checker{api: api}
}

// CheckQuality returns one entry per face with the bounding box converted
// from Rekognition ratios to pixels.
func (c *Checker) CheckQuality(ctx context.Context, img []byte) ([]provider.FaceQuality, error) {
	if len(img) == 0 {
		return nil, ErrEmptyImage
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	output, err := c.api.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image:      &types.Image{Bytes: img},
		Attributes: []types.Attribute{types.AttributeDefault},
	})
	if err != nil {
		return nil, mapError(err)
	}

	w, h := float64(cfg.Width), float64(cfg.Height)
	faces := make([]provider.FaceQuality, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		var box provider.BoundingBox
		if b := detail.BoundingBox; b != nil {
			box = provider.BoundingBox{
				X:      float64(deref(b.Left)) * w,
				Y:      float64(deref(b.Top)) * h,
				Width:  float64(deref(b.Width)) * w,
				Height: float64(deref(b.Height)) * h,
			}
		}
		faces = append(faces, provider.FaceQuality{
			BoundingBox:  box,
			Confidence:   float64(deref(detail.Confidence)) / 100.0,
			QualityScore: qualityScore(detail.Quality),
		})
	}

	return faces, nil
}

// qualityScore pondera nitidez acima de brilho, ambos normalizados de 0-100.
func qualityScore(quality *types.ImageQuality) float64 {
	if quality == nil {
		return 0.0
	}
	brightness := float64(deref(quality.Brightness)) / 100.0
	sharpness := float64(deref(quality.Sharpness)) / 100.0
	return brightness*0.3 + sharpness*0.7
}

func deref(p *float32) float32 {
	if p == nil {
		return 0
	}
	return *p
}

var _ provider.QualityChecker = (*Checker)(nil)
