package camera

import (
	"image"
	"sync"
	"time"
)

// Display receives every rendered frame.
type Display interface {
	Show(frame image.Image) error
}

// Preview keeps the latest rendered frame as JPEG for the HTTP preview.
type Preview struct {
	mu      sync.RWMutex
	jpeg    []byte
	updated time.Time
	now     func() time.Time
}

func NewPreview() *Preview {
	return &Preview{now: time.Now}
}

func (p *Preview) Show(frame image.Image) error {
	data, err := EncodeJPEG(frame)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.jpeg = data
	p.updated = p.now()
	p.mu.Unlock()
	return nil
}

// Latest returns the last frame; ok is false before the first one.
func (p *Preview) Latest() (data []byte, updated time.Time, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.jpeg == nil {
		return nil, time.Time{}, false
	}
	return p.jpeg, p.updated, true
}
