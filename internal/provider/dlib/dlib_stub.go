//go:build !dlib

package dlib

import (
	"context"
	"errors"

	"github.com/saturnino-fabrica-de-software/chamada/internal/provider"
)

// ErrNotBuilt is returned when the binary was built without the dlib tag.
var ErrNotBuilt = errors.New("dlib provider not compiled in; rebuild with -tags dlib")

type Provider struct{}

func New(modelsDir string) (*Provider, error) {
	return nil, ErrNotBuilt
}

func (p *Provider) DetectFaces(ctx context.Context, img []byte) ([]provider.DetectedFace, error) {
	return nil, ErrNotBuilt
}

func (p *Provider) Close() error {
	return nil
}
