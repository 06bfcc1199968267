// Package schedule maps wall-clock time to the lecture slot in progress.
package schedule

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// TimeOfDay is a minute-resolution wall-clock time.
type TimeOfDay int

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

func At(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t *TimeOfDay) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t TimeOfDay) MarshalYAML() (any, error) {
	return t.String(), nil
}

type Slot struct {
	Index int       `yaml:"lecture"`
	Start TimeOfDay `yaml:"start"`
	End   TimeOfDay `yaml:"end"`
}

func (s Slot) Contains(t TimeOfDay) bool {
	return s.Start <= t && t <= s.End
}

// Schedule é a tabela de aulas, imutável depois de construída.
type Schedule struct {
	slots []Slot
}

var ErrInvalidSlot = errors.New("invalid lecture slot")

func New(slots []Slot) (*Schedule, error) {
	seen := make(map[int]bool, len(slots))
	for _, s := range slots {
		if s.Index <= 0 {
			return nil, fmt.Errorf("%w: lecture index must be positive, got %d", ErrInvalidSlot, s.Index)
		}
		if seen[s.Index] {
			return nil, fmt.Errorf("%w: duplicate lecture %d", ErrInvalidSlot, s.Index)
		}
		if s.End < s.Start {
			return nil, fmt.Errorf("%w: lecture %d ends (%s) before it starts (%s)", ErrInvalidSlot, s.Index, s.End, s.Start)
		}
		seen[s.Index] = true
	}
	out := make([]Slot, len(slots))
	copy(out, slots)
	return &Schedule{slots: out}, nil
}

// Default is the built-in timetable.
func Default() *Schedule {
	s, _ := New([]Slot{
		{Index: 1, Start: 8*60 + 30, End: 9*60 + 25},
		{Index: 2, Start: 9*60 + 25, End: 10*60 + 20},
		{Index: 3, Start: 10*60 + 20, End: 11*60 + 15},
		{Index: 4, Start: 11*60 + 40, End: 12*60 + 35},
		{Index: 5, Start: 12*60 + 35, End: 13*60 + 30},
	})
	return s
}

type file struct {
	Lectures []Slot `yaml:"lectures"`
}

// Load lê a tabela de um arquivo YAML; path vazio devolve Default.
func Load(path string) (*Schedule, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Schedule, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}
	if len(f.Lectures) == 0 {
		return nil, fmt.Errorf("%w: schedule has no lectures", ErrInvalidSlot)
	}
	return New(f.Lectures)
}

// CurrentLecture returns the first slot, in table order, whose inclusive
// window contains now.
func (s *Schedule) CurrentLecture(now time.Time) (int, bool) {
	t := At(now)
	for _, slot := range s.slots {
		if slot.Contains(t) {
			return slot.Index, true
		}
	}
	return 0, false
}

func (s *Schedule) Slots() []Slot {
	out := make([]Slot, len(s.slots))
	copy(out, s.slots)
	return out
}

// Overlaps lists pairs of slots whose windows share at least one minute.
// With first-match lookup the earlier slot wins those minutes.
func (s *Schedule) Overlaps() [][2]Slot {
	var out [][2]Slot
	for i := 0; i < len(s.slots); i++ {
		for j := i + 1; j < len(s.slots); j++ {
			a, b := s.slots[i], s.slots[j]
			if a.Start <= b.End && b.Start <= a.End {
				out = append(out, [2]Slot{a, b})
			}
		}
	}
	return out
}

// WarnOverlaps logs every overlapping pair.
func (s *Schedule) WarnOverlaps(logger *slog.Logger) {
	for _, p := range s.Overlaps() {
		logger.Warn("lecture slots overlap, earlier slot wins",
			"lecture", p[0].Index,
			"end", p[0].End.String(),
			"next_lecture", p[1].Index,
			"next_start", p[1].Start.String(),
		)
	}
}
