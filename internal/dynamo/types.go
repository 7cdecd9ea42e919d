package dynamo

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// State is the ODE state vector: x[0] scale factor, x[1] its rate, x[2]
// entropy per nucleon.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	if len(s) == 0 {
		return 0
	}
	return floats.Norm(s, 2)
}

// Add returns s + other. Both vectors must have the same length.
func (s State) Add(other State) State {
	result := s.Clone()
	floats.Add(result, other)
	return result
}

func (s State) Scale(factor float64) State {
	result := s.Clone()
	floats.Scale(factor, result)
	return result
}

// Sub returns s - other. Both vectors must have the same length.
func (s State) Sub(other State) State {
	result := s.Clone()
	floats.Sub(result, other)
	return result
}

// AddScaled returns s + alpha*other.
func (s State) AddScaled(alpha float64, other State) State {
	result := s.Clone()
	floats.AddScaled(result, alpha, other)
	return result
}

// System is a right-hand side dX/dt = f(X, t). Evaluation may have side
// effects on external state and may fail.
type System interface {
	Derive(x State, t float64) (State, error)
	StateDim() int
}

// Integrator advances a System by one step of size dt.
type Integrator interface {
	Step(sys System, x State, t, dt float64) (State, error)
}

// ErrorEstimator is implemented by integrators with an embedded error
// estimate. ErrorEstimate reports it for the last step taken.
type ErrorEstimator interface {
	ErrorEstimate() float64
}

// Resetter is implemented by integrators that keep history between steps.
type Resetter interface {
	Reset()
}

// Observer sees every right-hand side evaluation. It must not mutate x or
// dxdt.
type Observer interface {
	Observe(x, dxdt State, t float64)
}

// StepInfo describes one accepted step. Metrics also receive the initial
// state as step 0. ErrorEstimate is zero unless the integrator is an
// ErrorEstimator.
type StepInfo struct {
	Step          int
	Time          float64
	Dt            float64
	TEnd          float64
	State         State
	T9            float64
	Rho           float64
	Entropy       float64
	ErrorEstimate float64
}

// StepObserver sees every accepted step.
type StepObserver interface {
	OnStep(info StepInfo)
}

type Metric interface {
	Name() string
	Observe(info StepInfo)
	Value() float64
	Reset()
}

// Config holds the run-level integration settings.
type Config struct {
	Time                 float64
	Dt                   float64
	TEnd                 float64
	Steps                int
	GuessT9              bool
	Observe              bool
	PruneCutoff          float64
	WriteEveryCheckpoint bool
	MuNueKT              float64
}

func DefaultConfig() Config {
	return Config{
		Time:        0,
		Dt:          1e-15,
		TEnd:        10,
		Steps:       20,
		GuessT9:     true,
		PruneCutoff: 1e-25,
		MuNueKT:     math.Inf(-1),
	}
}

// Thermo is the committed thermodynamic trace of one accepted step.
type Thermo struct {
	T9  float64
	Rho float64
	Dt  float64
}

type Result struct {
	States      []State
	Times       []float64
	Thermo      []Thermo
	Metrics     map[string]float64
	StepsTaken  int
	Checkpoints int
}

// Final returns the last recorded state, or nil for an empty result.
func (r *Result) Final() State {
	if len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}
