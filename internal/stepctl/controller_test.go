package stepctl

import (
	"testing"

	"github.com/san-kum/entrosim/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

type fixedAdvisor float64

func (f fixedAdvisor) RecommendedStep(prevDt, regT, regY, yMin float64) float64 {
	return float64(f)
}

func TestNext(t *testing.T) {
	c := New()

	tests := []struct {
		name    string
		x, xOld dynamo.State
		dt      float64
		advisor dynamo.StepAdvisor
		want    float64
	}{
		{
			name: "relative change of x0",
			x:    dynamo.State{1.1, 0.5, 1e-6}, xOld: dynamo.State{1.0, 0.5, 1e-6},
			dt: 0.01, advisor: fixedAdvisor(1), want: 0.15 * 0.01 * 1.1 / 0.1,
		},
		{
			name: "advisor is tighter",
			x:    dynamo.State{1.1, 0.5, 1e-6}, xOld: dynamo.State{1.0, 0.5, 1e-6},
			dt: 0.01, advisor: fixedAdvisor(1e-4), want: 1e-4,
		},
		{
			name: "x1 below its floor is ignored",
			x:    dynamo.State{1, 0.5, 20}, xOld: dynamo.State{1, 0.1, 20},
			dt: 0.01, advisor: fixedAdvisor(1), want: 1,
		},
		{
			name: "entropy change",
			x:    dynamo.State{1, 0.5, 20}, xOld: dynamo.State{1, 0.5, 18},
			dt: 0.02, advisor: fixedAdvisor(1), want: 0.15 * 0.02 / 0.1,
		},
		{
			name: "no change and no advisor keeps dt",
			x:    dynamo.State{1, 2, 3}, xOld: dynamo.State{1, 2, 3},
			dt: 0.3, advisor: nil, want: 0.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, c.Next(tt.x, tt.xOld, tt.dt, tt.advisor), 1e-15)
		})
	}
}

func TestClamp(t *testing.T) {
	dt, clamped := Clamp(9.5, 1, 10)
	assert.True(t, clamped)
	assert.Equal(t, 0.5, dt)

	dt, clamped = Clamp(0, 1e-15, 10)
	assert.False(t, clamped)
	assert.Equal(t, 1e-15, dt)

	dt, clamped = Clamp(0, 100, 10)
	assert.True(t, clamped)
	assert.Equal(t, 10.0, dt)
}

func TestClampNeverPassesEndProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tEnd := rapid.Float64Range(1e-6, 1e3).Draw(t, "tEnd")
		now := rapid.Float64Range(0, 1).Draw(t, "frac") * tEnd
		dt := rapid.Float64Range(1e-18, 1e4).Draw(t, "dt")

		got, clamped := Clamp(now, dt, tEnd)
		if got > dt*(1+1e-12) || got < 0 {
			t.Fatalf("clamp grew the step: %v -> %v", dt, got)
		}
		if clamped {
			// the driver lands on tEnd exactly when clamped
			return
		}
		if now+got > tEnd {
			t.Fatalf("t+dt = %v passes tEnd %v", now+got, tEnd)
		}
	})
}
