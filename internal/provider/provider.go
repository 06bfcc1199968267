package provider

import (
	"context"
	"image"
	"math"
)

// FaceProvider localiza as faces de uma imagem e extrai o encoding de cada
// uma. A imagem é JPEG ou PNG codificada.
type FaceProvider interface {
	DetectFaces(ctx context.Context, image []byte) ([]DetectedFace, error)
}

// QualityChecker avalia se uma foto serve para cadastro.
type QualityChecker interface {
	CheckQuality(ctx context.Context, image []byte) ([]FaceQuality, error)
}

// DetectedFace represents a detected face in the image
type DetectedFace struct {
	BoundingBox BoundingBox `json:"bounding_box"`
	Encoding    []float64   `json:"encoding"`
	Confidence  float64     `json:"confidence"`
}

// FaceQuality is the enrollment quality of one detected face.
type FaceQuality struct {
	BoundingBox  BoundingBox `json:"bounding_box"`
	Confidence   float64     `json:"confidence"`
	QualityScore float64     `json:"quality_score"`
}

// BoundingBox represents the face area in the image, in pixels
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Scale multiplica todas as coordenadas por f.
func (b BoundingBox) Scale(f float64) BoundingBox {
	return b.ScaleXY(f, f)
}

// ScaleXY escala o eixo horizontal por fx e o vertical por fy.
func (b BoundingBox) ScaleXY(fx, fy float64) BoundingBox {
	return BoundingBox{X: b.X * fx, Y: b.Y * fy, Width: b.Width * fx, Height: b.Height * fy}
}

func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(
		int(math.Round(b.X)),
		int(math.Round(b.Y)),
		int(math.Round(b.X+b.Width)),
		int(math.Round(b.Y+b.Height)),
	)
}

func (b BoundingBox) Area() float64 {
	return b.Width * b.Height
}
