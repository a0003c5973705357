package metrics

import (
	"math"

	"github.com/san-kum/fieldsim/internal/dynamo"
)

// Metric is a step observer that reduces a run to one number.
type Metric[T dynamo.Vector[T]] interface {
	Name() string
	OnStep(s dynamo.State[T], t float64)
	Value() float64
	Reset()
}

// EnergyDrift tracks the largest relative departure of a model's energy
// from its value at the first observed step.
type EnergyDrift[T dynamo.Vector[T]] struct {
	name          string
	h             dynamo.Hamiltonian
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
	history       []float64
	keep          int
}

// NewEnergyDrift samples h after every step. If keep > 0 the last keep
// energies are retained for plotting.
func NewEnergyDrift[T dynamo.Vector[T]](h dynamo.Hamiltonian, keep int) *EnergyDrift[T] {
	return &EnergyDrift[T]{
		name: "energy_drift",
		h:    h,
		keep: keep,
	}
}

func (e *EnergyDrift[T]) Name() string { return e.name }

func (e *EnergyDrift[T]) OnStep(_ dynamo.State[T], _ float64) {
	energy := e.h.Energy()

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.currentEnergy = energy
	e.samples++

	if e.keep > 0 {
		if len(e.history) == e.keep {
			copy(e.history, e.history[1:])
			e.history = e.history[:e.keep-1]
		}
		e.history = append(e.history, energy)
	}

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift[T]) Value() float64   { return e.maxDrift }
func (e *EnergyDrift[T]) Current() float64 { return e.currentEnergy }
func (e *EnergyDrift[T]) Initial() float64 { return e.initialEnergy }
func (e *EnergyDrift[T]) Samples() int     { return e.samples }

// History returns a copy of the retained energies, oldest first.
func (e *EnergyDrift[T]) History() []float64 {
	out := make([]float64, len(e.history))
	copy(out, e.history)
	return out
}

func (e *EnergyDrift[T]) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
	e.history = e.history[:0]
}
