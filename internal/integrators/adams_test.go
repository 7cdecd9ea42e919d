package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/entrosim/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decay struct {
	rate  float64
	calls int
}

func (d *decay) StateDim() int { return 1 }

func (d *decay) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	d.calls++
	return dynamo.State{-d.rate * x[0]}, nil
}

func TestCoefficientsConstantStep(t *testing.T) {
	tests := []struct {
		order int
		want  []float64
	}{
		{1, []float64{1}},
		{2, []float64{3.0 / 2.0, -1.0 / 2.0}},
		{3, []float64{23.0 / 12.0, -16.0 / 12.0, 5.0 / 12.0}},
		{4, []float64{55.0 / 24.0, -59.0 / 24.0, 37.0 / 24.0, -9.0 / 24.0}},
	}

	h := 0.1
	for _, tt := range tests {
		times := make([]float64, tt.order)
		for j := range times {
			times[j] = 2.0 - float64(j)*h
		}
		got := Coefficients(times, h)
		require.Len(t, got, tt.order)
		for j := range got {
			assert.InDelta(t, tt.want[j]*h, got[j], 1e-13, "order %d beta_%d", tt.order, j)
		}
	}
}

func TestCoefficientsVariableStepSumToStep(t *testing.T) {
	times := []float64{1.0, 0.7, 0.65, 0.2}
	h := 0.37

	sum := 0.0
	for _, b := range Coefficients(times, h) {
		sum += b
	}
	assert.InDelta(t, h, sum, 1e-14)
}

func TestNewAdamsBashforthOrder(t *testing.T) {
	for _, order := range []int{0, 5, -1} {
		_, err := NewAdamsBashforth(order)
		assert.ErrorIs(t, err, dynamo.ErrConfiguration)
	}
}

func TestAdamsBashforthAccuracy(t *testing.T) {
	for order := 1; order <= 4; order++ {
		ab, err := NewAdamsBashforth(order)
		require.NoError(t, err)
		sys := &decay{rate: 1}

		x := dynamo.State{1}
		dt := 0.001
		steps := 1000
		for i := 0; i < steps; i++ {
			x, err = ab.Step(sys, x, float64(i)*dt, dt)
			require.NoError(t, err)
		}

		tol := map[int]float64{1: 5e-4, 2: 1e-6, 3: 1e-9, 4: 1e-11}[order]
		assert.InDelta(t, math.Exp(-1), x[0], tol, "order %d", order)
	}
}

func TestAdamsBashforthVariableStep(t *testing.T) {
	ab, err := NewAdamsBashforth(4)
	require.NoError(t, err)
	sys := &decay{rate: 0.5}

	x := dynamo.State{1}
	tNow, dt := 0.0, 1e-4
	for tNow < 1 {
		if tNow+dt > 1 {
			dt = 1 - tNow
		}
		x, err = ab.Step(sys, x, tNow, dt)
		require.NoError(t, err)
		tNow += dt
		dt *= 1.15
	}

	assert.InDelta(t, math.Exp(-0.5*tNow), x[0], 1e-5)
}

func TestAdamsBashforthStartsWithRK4(t *testing.T) {
	ab, err := NewAdamsBashforth(4)
	require.NoError(t, err)
	sys := &decay{rate: 1}

	x := dynamo.State{1}
	dt := 0.01
	for i := 0; i < 3; i++ {
		x, err = ab.Step(sys, x, float64(i)*dt, dt)
		require.NoError(t, err)
	}
	assert.Equal(t, 12, sys.calls, "three RK4 start-up steps")

	_, err = ab.Step(sys, x, 3*dt, dt)
	require.NoError(t, err)
	assert.Equal(t, 13, sys.calls, "one evaluation per multistep step")
}

func TestAdamsBashforthResetsWhenTimeStalls(t *testing.T) {
	ab, err := NewAdamsBashforth(3)
	require.NoError(t, err)
	sys := &decay{rate: 1}

	x := dynamo.State{1}
	for i := 0; i < 5; i++ {
		x, err = ab.Step(sys, x, float64(i)*0.1, 0.1)
		require.NoError(t, err)
	}
	before := sys.calls

	_, err = ab.Step(sys, x, 0.2, 0.1)
	require.NoError(t, err)
	assert.Equal(t, before+4, sys.calls, "restart takes an RK4 step")

	ab.Reset()
	_, err = ab.Step(sys, x, 5, 0.1)
	require.NoError(t, err)
	assert.Equal(t, before+8, sys.calls)
}
