package mock

import (
	"bytes"
	"context"
	"crypto/sha256"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"sync"

	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
	"github.com/saturnino-fabrica-de-software/chamada/internal/provider"
)

const EncodingDimension = 128

// Provider implementa provider.FaceProvider para testes e desenvolvimento.
// Sem faces programadas, devolve uma face central com encoding determinístico
// derivado do hash da imagem.
type Provider struct {
	mu     sync.Mutex
	script [][]provider.DetectedFace
	err    error
	calls  int
}

func New() *Provider {
	return &Provider{}
}

// Script enfileira respostas; cada chamada consome uma. Quando a fila acaba
// volta ao comportamento determinístico.
func (p *Provider) Script(responses ...[]provider.DetectedFace) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.script = append(p.script, responses...)
	return p
}

// Fail faz todas as chamadas seguintes falharem com err.
func (p *Provider) Fail(err error) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
	return p
}

func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *Provider) DetectFaces(ctx context.Context, img []byte) ([]provider.DetectedFace, error) {
	p.mu.Lock()
	p.calls++
	if p.err != nil {
		err := p.err
		p.mu.Unlock()
		return nil, err
	}
	if len(p.script) > 0 {
		next := p.script[0]
		p.script = p.script[1:]
		p.mu.Unlock()
		return next, nil
	}
	p.mu.Unlock()

	cfg, _, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return nil, domain.ErrInvalidImage.WithError(err)
	}

	return []provider.DetectedFace{
		{
			BoundingBox: provider.BoundingBox{
				X:      float64(cfg.Width) * 0.25,
				Y:      float64(cfg.Height) * 0.25,
				Width:  float64(cfg.Width) * 0.5,
				Height: float64(cfg.Height) * 0.5,
			},
			Encoding:   Encoding(img),
			Confidence: 0.99,
		},
	}, nil
}

// CheckQuality reports every detected face as good enough.
func (p *Provider) CheckQuality(ctx context.Context, img []byte) ([]provider.FaceQuality, error) {
	faces, err := p.DetectFaces(ctx, img)
	if err != nil {
		return nil, err
	}
	out := make([]provider.FaceQuality, len(faces))
	for i, f := range faces {
		out[i] = provider.FaceQuality{BoundingBox: f.BoundingBox, Confidence: f.Confidence, QualityScore: 0.95}
	}
	return out, nil
}

// Encoding gera um vetor unitário determinístico a partir do hash dos bytes.
func Encoding(data []byte) []float64 {
	hash := sha256.Sum256(data)
	encoding := make([]float64, EncodingDimension)

	for i := range encoding {
		encoding[i] = (float64(hash[i%len(hash)])/255.0)*2 - 1
	}

	norm := 0.0
	for _, v := range encoding {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return encoding
	}
	for i := range encoding {
		encoding[i] /= norm
	}

	return encoding
}

var (
	_ provider.FaceProvider   = (*Provider)(nil)
	_ provider.QualityChecker = (*Provider)(nil)
)
