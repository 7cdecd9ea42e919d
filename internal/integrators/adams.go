package integrators

import (
	"fmt"

	"github.com/san-kum/entrosim/internal/dynamo"
)

// 3-point Gauss-Legendre rule on [-1, 1]; exact up to degree 5.
var (
	glNodes   = [3]float64{-0.7745966692414834, 0, 0.7745966692414834}
	glWeights = [3]float64{5.0 / 9.0, 8.0 / 9.0, 5.0 / 9.0}
)

type sample struct {
	t    float64
	dxdt dynamo.State
}

// AdamsBashforth is an explicit multistep integrator of order 1 to 4 with
// variable step coefficients. It evaluates the right-hand side once per
// step; until enough history exists it takes RK4 steps instead.
type AdamsBashforth struct {
	order int
	hist  []sample // newest first, at most order-1 entries
	rk    RK4
}

func NewAdamsBashforth(order int) (*AdamsBashforth, error) {
	if order < 1 || order > 4 {
		return nil, fmt.Errorf("%w: adams-bashforth order %d not in [1, 4]", dynamo.ErrConfiguration, order)
	}
	return &AdamsBashforth{order: order}, nil
}

func (ab *AdamsBashforth) Order() int {
	return ab.order
}

// Reset drops the derivative history; the next steps restart with RK4.
func (ab *AdamsBashforth) Reset() {
	ab.hist = ab.hist[:0]
}

func (ab *AdamsBashforth) Step(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	if len(ab.hist) > 0 && (t <= ab.hist[0].t || len(ab.hist[0].dxdt) != len(x)) {
		ab.Reset()
	}

	f, err := sys.Derive(x, t)
	if err != nil {
		return nil, err
	}
	f = f.Clone()

	var next dynamo.State
	if len(ab.hist) < ab.order-1 {
		next, err = ab.rk.stepFrom(sys, x, f, t, dt)
		if err != nil {
			return nil, err
		}
	} else {
		times := make([]float64, 0, ab.order)
		slopes := make([]dynamo.State, 0, ab.order)
		times = append(times, t)
		slopes = append(slopes, f)
		for _, s := range ab.hist[:ab.order-1] {
			times = append(times, s.t)
			slopes = append(slopes, s.dxdt)
		}

		next = x.Clone()
		for j, beta := range Coefficients(times, dt) {
			for i := range next {
				next[i] += beta * slopes[j][i]
			}
		}
	}

	ab.push(sample{t: t, dxdt: f})
	return next, nil
}

func (ab *AdamsBashforth) push(s sample) {
	if ab.order == 1 {
		return
	}
	ab.hist = append([]sample{s}, ab.hist...)
	if len(ab.hist) > ab.order-1 {
		ab.hist = ab.hist[:ab.order-1]
	}
}

// Coefficients returns beta_j = integral over [times[0], times[0]+h] of the
// Lagrange basis polynomial through times at node j. times[0] is the
// current time; the rest are earlier, newest first.
func Coefficients(times []float64, h float64) []float64 {
	beta := make([]float64, len(times))
	t0 := times[0]
	for q, xi := range glNodes {
		s := t0 + 0.5*h*(1+xi)
		w := 0.5 * h * glWeights[q]
		for j := range times {
			l := 1.0
			for m := range times {
				if m != j {
					l *= (s - times[m]) / (times[j] - times[m])
				}
			}
			beta[j] += w * l
		}
	}
	return beta
}
