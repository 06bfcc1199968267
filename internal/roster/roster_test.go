package roster

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
)

func TestRoster_Replace(t *testing.T) {
	r := New()
	assert.Equal(t, 0, r.Snapshot().Len())

	enc := []float64{0.1, 0.2}
	now := time.Now()
	snap := r.Replace([]domain.Student{
		{ID: "S1", Name: "Alice", Encoding: enc},
		{ID: "S2", Name: "Bob"},
	}, now)

	assert.Equal(t, 1, snap.Len())
	assert.Same(t, snap, r.Snapshot())
	assert.Equal(t, now, snap.LoadedAt)

	enc[0] = 9
	assert.Equal(t, 0.1, r.Snapshot().Faces[0].Encoding[0], "snapshot must not alias caller slices")
}

func TestRoster_OldSnapshotSurvivesSwap(t *testing.T) {
	r := New()
	first := r.Replace([]domain.Student{{ID: "S1", Encoding: []float64{1}}}, time.Now())
	r.Replace(nil, time.Now())

	assert.Equal(t, 1, first.Len())
	assert.Equal(t, 0, r.Snapshot().Len())
}

func TestRoster_ConcurrentReaders(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = r.Snapshot().Len()
			}
		}()
	}
	for j := 0; j < 100; j++ {
		r.Replace([]domain.Student{{ID: "S", Encoding: []float64{float64(j)}}}, time.Now())
	}
	wg.Wait()
	assert.Equal(t, 1, r.Snapshot().Len())
}
