package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/fieldsim/internal/dynamo"
	"github.com/stretchr/testify/assert"
)

type fixedEnergy struct{ e float64 }

func (f *fixedEnergy) Energy() float64 { return f.e }

func TestEnergyDrift(t *testing.T) {
	h := &fixedEnergy{e: 2.0}
	m := NewEnergyDrift[dynamo.Vec3](h, 0)
	var _ Metric[dynamo.Vec3] = m

	m.OnStep(dynamo.State[dynamo.Vec3]{}, 0.01)
	assert.Equal(t, 0.0, m.Value())
	assert.Equal(t, 2.0, m.Initial())

	h.e = 2.2
	m.OnStep(dynamo.State[dynamo.Vec3]{}, 0.02)
	h.e = 1.9
	m.OnStep(dynamo.State[dynamo.Vec3]{}, 0.03)

	assert.InDelta(t, 0.1, m.Value(), 1e-12)
	assert.Equal(t, 1.9, m.Current())
	assert.Equal(t, 3, m.Samples())
	assert.Empty(t, m.History())
}

func TestEnergyDrift_ZeroInitialEnergy(t *testing.T) {
	h := &fixedEnergy{}
	m := NewEnergyDrift[dynamo.Scalar](h, 0)

	m.OnStep(dynamo.State[dynamo.Scalar]{}, 0)
	h.e = 5
	m.OnStep(dynamo.State[dynamo.Scalar]{}, 0)

	assert.Zero(t, m.Value(), "relative drift is undefined from zero energy")
}

func TestEnergyDrift_History(t *testing.T) {
	h := &fixedEnergy{}
	m := NewEnergyDrift[dynamo.Vec3](h, 3)

	for i := 1; i <= 5; i++ {
		h.e = float64(i)
		m.OnStep(dynamo.State[dynamo.Vec3]{}, 0)
	}

	assert.Equal(t, []float64{3, 4, 5}, m.History())
}

func TestEnergyDrift_Reset(t *testing.T) {
	h := &fixedEnergy{e: 1}
	m := NewEnergyDrift[dynamo.Vec3](h, 4)
	m.OnStep(dynamo.State[dynamo.Vec3]{}, 0)
	h.e = 3
	m.OnStep(dynamo.State[dynamo.Vec3]{}, 0)

	m.Reset()

	assert.Zero(t, m.Value())
	assert.Zero(t, m.Samples())
	assert.Empty(t, m.History())

	m.OnStep(dynamo.State[dynamo.Vec3]{}, 0)
	assert.Equal(t, 3.0, m.Initial())
}

func TestStability(t *testing.T) {
	m := NewStability[dynamo.Vec3](10)
	assert.Equal(t, 1.0, m.Value())
	assert.True(t, math.IsNaN(m.FirstExit()))

	m.OnStep(dynamo.State[dynamo.Vec3]{X: dynamo.Vec3{X: -9}}, 0.1)
	m.OnStep(dynamo.State[dynamo.Vec3]{X: dynamo.Vec3{X: -11}}, 0.2)
	m.OnStep(dynamo.State[dynamo.Vec3]{X: dynamo.Vec3{Z: math.NaN()}}, 0.3)
	m.OnStep(dynamo.State[dynamo.Vec3]{}, 0.4)

	assert.InDelta(t, 0.5, m.Value(), 1e-12)
	assert.Equal(t, 0.2, m.FirstExit())

	m.Reset()
	assert.Equal(t, 1.0, m.Value())
	assert.True(t, math.IsNaN(m.FirstExit()))
}
