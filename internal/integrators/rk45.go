package integrators

import (
	"math"

	"github.com/san-kum/entrosim/internal/dynamo"
)

// Dormand-Prince 5(4) tableau.
var (
	dpC = [7]float64{0, 1.0 / 5.0, 3.0 / 10.0, 4.0 / 5.0, 8.0 / 9.0, 1, 1}
	dpA = [7][6]float64{
		{},
		{1.0 / 5.0},
		{3.0 / 40.0, 9.0 / 40.0},
		{44.0 / 45.0, -56.0 / 15.0, 32.0 / 9.0},
		{19372.0 / 6561.0, -25360.0 / 2187.0, 64448.0 / 6561.0, -212.0 / 729.0},
		{9017.0 / 3168.0, -355.0 / 33.0, 46732.0 / 5247.0, 49.0 / 176.0, -5103.0 / 18656.0},
		{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0},
	}
	dpB5 = [7]float64{35.0 / 384.0, 0, 500.0 / 1113.0, 125.0 / 192.0, -2187.0 / 6784.0, 11.0 / 84.0, 0}
	dpB4 = [7]float64{5179.0 / 57600.0, 0, 7571.0 / 16695.0, 393.0 / 640.0, -92097.0 / 339200.0, 187.0 / 2100.0, 1.0 / 40.0}
)

// RK45 takes one Dormand-Prince step of the size it is given. The embedded
// error estimate is kept for ErrorEstimate but never used to retry.
type RK45 struct {
	k       [7]dynamo.State
	lastErr float64
}

func NewRK45() *RK45 {
	return &RK45{}
}

// ErrorEstimate is the max-norm relative difference between the fifth and
// fourth order solutions of the last successful step.
func (r *RK45) ErrorEstimate() float64 {
	return r.lastErr
}

func (r *RK45) Step(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	n := len(x)
	stage := make(dynamo.State, n)

	for s := 0; s < 7; s++ {
		copy(stage, x)
		for j := 0; j < s; j++ {
			if a := dpA[s][j]; a != 0 {
				for i := 0; i < n; i++ {
					stage[i] += dt * a * r.k[j][i]
				}
			}
		}
		k, err := sys.Derive(stage, t+dpC[s]*dt)
		if err != nil {
			return nil, err
		}
		r.k[s] = k.Clone()
	}

	next := make(dynamo.State, n)
	errMax := 0.0
	for i := 0; i < n; i++ {
		hi, lo := x[i], x[i]
		for s := 0; s < 7; s++ {
			hi += dt * dpB5[s] * r.k[s][i]
			lo += dt * dpB4[s] * r.k[s][i]
		}
		next[i] = hi
		scale := math.Abs(x[i]) + math.Abs(dt*r.k[0][i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(hi-lo)/scale)
	}

	r.lastErr = errMax
	return next, nil
}
