package camera

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"
)

const (
	snapshotTimeout  = 5 * time.Second
	maxSnapshotSize  = 16 << 20
	snapshotAttempts = 3
	snapshotBackoff  = 250 * time.Millisecond
)

// SnapshotSource polls an IP camera still-image endpoint, one GET per frame.
// A frame is retried a few times before Read gives up, so a single dropped
// request does not stop the camera loop.
type SnapshotSource struct {
	url      string
	client   *http.Client
	attempts int
	backoff  time.Duration
}

func NewSnapshotSource(url string, client *http.Client) *SnapshotSource {
	if client == nil {
		client = &http.Client{Timeout: snapshotTimeout}
	}
	return &SnapshotSource{url: url, client: client, attempts: snapshotAttempts, backoff: snapshotBackoff}
}

func (s *SnapshotSource) Read(ctx context.Context) (image.Image, error) {
	var lastErr error
	for attempt := 0; attempt < max(s.attempts, 1); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.backoff * time.Duration(1<<(attempt-1))):
			}
		}

		img, err := s.readOnce(ctx)
		if err == nil {
			return img, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, fmt.Errorf("after %d attempts: %w", max(s.attempts, 1), lastErr)
}

func (s *SnapshotSource) readOnce(ctx context.Context) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get snapshot: status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxSnapshotSize))
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return img, nil
}

func (s *SnapshotSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
