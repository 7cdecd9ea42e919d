// Package coupling evaluates the right-hand side of the trajectory ODE
// against a stateful reaction-network engine.
package coupling

import (
	"fmt"

	"github.com/san-kum/entrosim/internal/dynamo"
)

// Trajectory is the part of the trajectory model the RHS needs.
type Trajectory interface {
	Density(x dynamo.State) (float64, error)
	Acceleration(x dynamo.State, t float64) float64
}

// TemperatureSolver finds the T9 matching a target entropy.
type TemperatureSolver interface {
	ForEntropy(src dynamo.EntropySource, target float64) (float64, error)
}

// RHS is a dynamo.System whose evaluation trial-evolves the engine by
// t - zone.Time. The committed T9 and the composition are restored before
// Derive returns; Dtime, Rho and Entropy keep their trial values until the
// driver commits.
type RHS struct {
	engine   dynamo.Engine
	model    Trajectory
	solver   TemperatureSolver
	view     dynamo.View
	observer dynamo.Observer
}

// Option configures an RHS.
type Option func(*RHS)

// WithView evaluates evolution and entropy generation over view instead of
// the engine's current evolution view.
func WithView(view dynamo.View) Option {
	return func(r *RHS) { r.view = view }
}

func WithObserver(o dynamo.Observer) Option {
	return func(r *RHS) { r.observer = o }
}

func New(engine dynamo.Engine, model Trajectory, solver TemperatureSolver, opts ...Option) *RHS {
	r := &RHS{engine: engine, model: model, solver: solver}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RHS) StateDim() int {
	return 3
}

func (r *RHS) Derive(x dynamo.State, t float64) (dxdt dynamo.State, err error) {
	if len(x) != 3 {
		return nil, fmt.Errorf("%w: state has %d components, want 3", dynamo.ErrInvalidState, len(x))
	}
	zone := r.engine.Zone()

	dt := t - zone.Time
	zone.Dtime = dt

	saved := r.engine.Save()
	t9Old := zone.T9
	defer func() {
		r.engine.Restore(saved)
		zone.T9 = t9Old
	}()

	zone.Entropy = x[2]

	rho, err := r.model.Density(x)
	if err != nil {
		return nil, err
	}
	zone.Rho = rho

	t9, err := r.solver.ForEntropy(r.engine, x[2])
	if err != nil {
		return nil, fmt.Errorf("temperature at t=%g: %w", t, err)
	}
	zone.T9 = t9

	view := r.view
	if view == nil {
		view = r.engine.EvolutionView()
	}

	if err := r.engine.Evolve(view, dt); err != nil {
		return nil, err
	}

	sdot, err := r.engine.EntropyGenerationRate(view)
	if err != nil {
		return nil, err
	}

	dxdt = dynamo.State{x[1], r.model.Acceleration(x, t), sdot}

	if r.observer != nil {
		r.observer.Observe(x.Clone(), dxdt.Clone(), t)
	}

	return dxdt, nil
}
