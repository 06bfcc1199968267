// Package matcher compares face encodings by Euclidean distance.
package matcher

import (
	"math"

	"github.com/saturnino-fabrica-de-software/chamada/internal/domain"
)

// DefaultTolerance é a distância máxima aceita como a mesma pessoa para
// encodings dlib de 128 dimensões.
const DefaultTolerance = 0.6

// Distance returns the Euclidean distance between two encodings, or +Inf
// when their lengths differ.
func Distance(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Distances returns the distance from probe to every known encoding, in order.
func Distances(known [][]float64, probe []float64) []float64 {
	out := make([]float64, len(known))
	for i, k := range known {
		out[i] = Distance(k, probe)
	}
	return out
}

// Compare reports, for every known encoding, whether it is within tolerance.
func Compare(known [][]float64, probe []float64, tolerance float64) []bool {
	out := make([]bool, len(known))
	for i, d := range Distances(known, probe) {
		out[i] = d <= tolerance
	}
	return out
}

// Match is the outcome for one probe encoding.
type Match struct {
	Face     domain.KnownFace
	Distance float64
	// Matched é falso quando o vizinho mais próximo está fora da tolerância.
	Matched bool
}

// Confidence is 1 - distance for matched faces and 0 otherwise.
func (m Match) Confidence() float64 {
	if !m.Matched {
		return 0
	}
	return 1 - m.Distance
}

func (m Match) Name() string {
	if !m.Matched {
		return domain.UnknownName
	}
	return m.Face.Name
}

type Matcher struct {
	tolerance float64
}

func New(tolerance float64) *Matcher {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Matcher{tolerance: tolerance}
}

func (m *Matcher) Tolerance() float64 {
	return m.tolerance
}

// BestMatch picks the nearest known face. ok is false only for an empty roster.
func (m *Matcher) BestMatch(known []domain.KnownFace, probe []float64) (Match, bool) {
	if len(known) == 0 {
		return Match{Distance: math.Inf(1)}, false
	}
	best := -1
	bestDist := math.Inf(1)
	for i, k := range known {
		if d := Distance(k.Encoding, probe); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return Match{Distance: bestDist}, true
	}
	return Match{
		Face:     known[best],
		Distance: bestDist,
		Matched:  bestDist <= m.tolerance,
	}, true
}
