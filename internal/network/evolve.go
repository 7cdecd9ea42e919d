package network

import (
	"fmt"
	"math"

	"github.com/san-kum/entrosim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

const (
	maxNewtonIterations = 20
	maxHalvings         = 12
	newtonAbsTol        = 1e-15
	newtonRelTol        = 1e-10
)

// flow is the rate of reaction r in dY/dt units at the zone's T9 and rho.
func (e *Engine) flow(r *compiledReaction, y []float64) float64 {
	f := r.Rate.Lambda(e.zone.T9) * r.symm
	if f == 0 {
		return 0
	}
	if r.order > 1 {
		f *= math.Pow(e.zone.Rho, float64(r.order-1))
	}
	for _, i := range r.in {
		f *= y[i]
	}
	return f
}

// Evolve advances the abundances of view by dt with backward Euler.
func (e *Engine) Evolve(v dynamo.View, dt float64) error {
	view, err := e.viewOf(v)
	if err != nil {
		return err
	}
	switch {
	case dt == 0:
		return nil
	case dt < 0 || math.IsNaN(dt):
		return fmt.Errorf("%w: negative time step %g", dynamo.ErrEngine, dt)
	case !(e.zone.T9 > 0) || !(e.zone.Rho > 0):
		return fmt.Errorf("%w: evolve at T9=%g rho=%g", dynamo.ErrEngine, e.zone.T9, e.zone.Rho)
	}

	y0 := append([]float64(nil), e.y...)
	y, err := e.evolveSplit(view, y0, dt, 0)
	if err != nil {
		return err
	}

	for i := range e.y {
		e.dy[i] = y[i] - y0[i]
	}
	copy(e.y, y)
	return nil
}

func (e *Engine) evolveSplit(view *View, y []float64, dt float64, depth int) ([]float64, error) {
	next, err := e.backwardEuler(view, y, dt)
	if err == nil {
		return next, nil
	}
	if depth >= maxHalvings {
		return nil, fmt.Errorf("%w: step %g failed after %d halvings: %v", dynamo.ErrEngine, dt, depth, err)
	}
	mid, err := e.evolveSplit(view, y, dt/2, depth+1)
	if err != nil {
		return nil, err
	}
	return e.evolveSplit(view, mid, dt/2, depth+1)
}

// backwardEuler solves Y - Y0 - dt f(Y) = 0 over the view's species.
func (e *Engine) backwardEuler(view *View, y0 []float64, dt float64) ([]float64, error) {
	n := len(view.species)
	y := append([]float64(nil), y0...)
	if n == 0 || len(view.reactions) == 0 {
		return y, nil
	}

	pos := make(map[int]int, n)
	for k, i := range view.species {
		pos[i] = k
	}

	jac := mat.NewDense(n, n, nil)
	g := mat.NewVecDense(n, nil)
	var delta mat.VecDense

	for iter := 0; iter < maxNewtonIterations; iter++ {
		jac.Zero()
		for k, i := range view.species {
			jac.Set(k, k, 1)
			g.SetVec(k, y[i]-y0[i])
		}

		for _, j := range view.reactions {
			r := &e.net.reactions[j]
			f := e.flow(r, y)
			for _, i := range r.in {
				g.SetVec(pos[i], g.AtVec(pos[i])+dt*f)
			}
			for _, i := range r.out {
				g.SetVec(pos[i], g.AtVec(pos[i])-dt*f)
			}

			for p, ip := range r.in {
				dfdy := r.Rate.Lambda(e.zone.T9) * r.symm
				if r.order > 1 {
					dfdy *= math.Pow(e.zone.Rho, float64(r.order-1))
				}
				for q, iq := range r.in {
					if q != p {
						dfdy *= y[iq]
					}
				}
				c := pos[ip]
				for _, i := range r.in {
					jac.Set(pos[i], c, jac.At(pos[i], c)+dt*dfdy)
				}
				for _, i := range r.out {
					jac.Set(pos[i], c, jac.At(pos[i], c)-dt*dfdy)
				}
			}
		}

		if err := delta.SolveVec(jac, g); err != nil {
			return nil, fmt.Errorf("newton iteration %d: %w", iter, err)
		}

		converged := true
		for k, i := range view.species {
			d := delta.AtVec(k)
			if math.IsNaN(d) || math.IsInf(d, 0) {
				return nil, fmt.Errorf("newton iteration %d: non-finite update", iter)
			}
			y[i] -= d
			if math.Abs(d) > newtonAbsTol+newtonRelTol*math.Abs(y[i]) {
				converged = false
			}
		}
		if converged {
			for _, i := range view.species {
				if y[i] < 0 {
					y[i] = 0
				}
			}
			return y, nil
		}
	}

	return nil, fmt.Errorf("newton did not converge in %d iterations", maxNewtonIterations)
}
