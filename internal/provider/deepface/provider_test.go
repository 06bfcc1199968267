package deepface

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"strings"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/chamada/internal/provider"
)

func TestProviderImplementsInterface(t *testing.T) {
	var _ provider.FaceProvider = (*Provider)(nil)
}

func TestProvider_DetectFaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(RepresentResponse{
			Results: []RepresentResult{
				{Embedding: []float64{0.1, 0.2}, FacialArea: FacialArea{X: 10, Y: 20, W: 30, H: 40}, FaceConfidence: 0.9},
				{Embedding: []float64{0.3, 0.4}, FacialArea: FacialArea{X: 0, Y: 0, W: 640, H: 480}, FaceConfidence: 0},
			},
		})
	}))
	defer server.Close()

	p := NewProvider(testConfig(server.URL))
	faces, err := p.DetectFaces(context.Background(), []byte{0xff, 0xd8})
	require.NoError(t, err)

	require.Len(t, faces, 1, "whole-image fallback must be dropped")
	assert.Equal(t, provider.BoundingBox{X: 10, Y: 20, Width: 30, Height: 40}, faces[0].BoundingBox)
	assert.Equal(t, []float64{0.1, 0.2}, faces[0].Encoding)
	assert.Equal(t, 0.9, faces[0].Confidence)
}

func TestProvider_DetectFaces_Errors(t *testing.T) {
	p := NewProvider(testConfig("http://127.0.0.1:1"))

	_, err := p.DetectFaces(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyImage)

	cfg := testConfig("http://127.0.0.1:1")
	cfg.RetryCount = 0
	_, err = NewProvider(cfg).DetectFaces(context.Background(), []byte{1})
	assert.ErrorIs(t, err, ErrDeepFaceUnavailable)
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestDataURL(t *testing.T) {
	assert.True(t, strings.HasPrefix(dataURL(testPNG(t, 2, 2)), "data:image/png;base64,"))
	assert.True(t, strings.HasPrefix(dataURL([]byte("not an image")), "data:image/jpeg;base64,"))
}

func TestProvider_DetectFaces_ClipsToImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req RepresentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, strings.HasPrefix(req.Img, "data:image/png;base64,"))
		_ = json.NewEncoder(w).Encode(RepresentResponse{
			Results: []RepresentResult{
				{Embedding: []float64{1}, FacialArea: FacialArea{X: 80, Y: -5, W: 40, H: 30}, FaceConfidence: 0.8},
			},
		})
	}))
	defer server.Close()

	faces, err := NewProvider(testConfig(server.URL)).DetectFaces(context.Background(), testPNG(t, 100, 50))
	require.NoError(t, err)
	require.Len(t, faces, 1)
	assert.Equal(t, provider.BoundingBox{X: 80, Y: 0, Width: 20, Height: 25}, faces[0].BoundingBox)
}
