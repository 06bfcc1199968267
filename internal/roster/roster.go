// Package roster holds the in-memory set of known faces used for recognition.
package roster

import (
	"sync/atomic"
	"time"

	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
)

// Snapshot is immutable once published.
type Snapshot struct {
	Faces    []domain.KnownFace
	LoadedAt time.Time
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Faces)
}

// Roster publishes snapshots atomically; readers keep whatever snapshot they
// loaded until they ask again.
type Roster struct {
	current atomic.Pointer[Snapshot]
}

func New() *Roster {
	r := &Roster{}
	r.current.Store(&Snapshot{})
	return r
}

func (r *Roster) Snapshot() *Snapshot {
	return r.current.Load()
}

// Replace troca o roster inteiro. Alunos sem encoding ficam de fora.
func (r *Roster) Replace(students []domain.Student, now time.Time) *Snapshot {
	faces := make([]domain.KnownFace, 0, len(students))
	for _, s := range students {
		if !s.HasEncoding() {
			continue
		}
		f := s.KnownFace()
		f.Encoding = append([]float64(nil), f.Encoding...)
		faces = append(faces, f)
	}
	snap := &Snapshot{Faces: faces, LoadedAt: now}
	r.current.Store(snap)
	return snap
}
