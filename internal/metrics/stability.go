package metrics

import (
	"math"

	"github.com/san-kum/fieldsim/internal/dynamo"
)

// Stability counts steps whose position leaves a box of half-width
// threshold or turns non-finite, and remembers when that first happened.
type Stability[T dynamo.Vector[T]] struct {
	name       string
	threshold  float64
	violations int
	samples    int
	firstExit  float64
}

func NewStability[T dynamo.Vector[T]](threshold float64) *Stability[T] {
	return &Stability[T]{
		name:      "stability",
		threshold: threshold,
		firstExit: math.NaN(),
	}
}

func (s *Stability[T]) Name() string {
	return s.name
}

func (s *Stability[T]) OnStep(st dynamo.State[T], t float64) {
	s.samples++
	for _, val := range st.X.Components() {
		if !dynamo.IsFinite(val) || math.Abs(val) > s.threshold {
			if s.violations == 0 {
				s.firstExit = t
			}
			s.violations++
			return
		}
	}
}

// Value is the fraction of observed steps spent inside the box.
func (s *Stability[T]) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

// FirstExit is the simulated time of the first violation, or NaN.
func (s *Stability[T]) FirstExit() float64 { return s.firstExit }

func (s *Stability[T]) Reset() {
	s.violations = 0
	s.samples = 0
	s.firstExit = math.NaN()
}
