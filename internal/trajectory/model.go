package trajectory

import (
	"fmt"
	"math"

	"github.com/san-kum/entrosim/internal/dynamo"
)

type Model struct {
	p Params
}

func NewModel(p Params) *Model {
	return &Model{p: p}
}

func (m *Model) Params() Params {
	return m.p
}

func (m *Model) StateDim() int {
	return 3
}

// InitialState returns x with x[0] = 1. x[2] is left zero for the caller
// to fill with the engine's entropy.
func (m *Model) InitialState() dynamo.State {
	x := make(dynamo.State, 3)
	x[0] = 1
	x[1] = math.Pow(x[0], 4) * (m.p.Rho1/m.p.Tau + 2*m.p.Rho2/m.p.Delta) / (3 * m.p.Rho0)
	return x
}

func (m *Model) Density(x dynamo.State) (float64, error) {
	if len(x) == 0 || !(x[0] > 0) {
		return 0, dynamo.Domainf("density undefined for x[0] = %v", first(x))
	}
	return m.p.Rho0 / (x[0] * x[0] * x[0]), nil
}

// Acceleration is dx[1]/dt.
func (m *Model) Acceleration(x dynamo.State, t float64) float64 {
	return x[1] / (3 * m.p.Tau)
}

// Jerk is the third-order term of the density profile. It does not feed
// back into the state.
func (m *Model) Jerk(x dynamo.State, t float64) float64 {
	decay := math.Exp(-t / m.p.Tau)
	drive := m.p.Rho1/m.p.Tau*decay + 2*m.p.Rho2/m.p.Delta
	restore := m.p.Rho1/(m.p.Tau*m.p.Tau)*decay + 6*m.p.Rho2/(m.p.Delta*m.p.Delta)
	return x[0] * x[0] * x[0] * (4*x[1]*drive - x[0]*restore) / (3 * m.p.Rho0)
}

func (m *Model) GetParams() map[string]float64 {
	return map[string]float64{
		"t9_0":             m.p.T9_0,
		"rho_0":            m.p.Rho0,
		"rho_1":            m.p.Rho1,
		"tau":              m.p.Tau,
		"delta_trajectory": m.p.Delta,
		"root_factor":      m.p.RootFactor,
	}
}

// SetParam replaces one parameter, revalidating the whole set.
func (m *Model) SetParam(name string, value float64) error {
	p := m.p
	switch name {
	case "t9_0":
		p.T9_0 = value
	case "rho_0":
		p.Rho0 = value
	case "rho_1":
		p.Rho1 = value
	case "tau":
		p.Tau = value
	case "delta_trajectory":
		p.Delta = value
	case "root_factor":
		p.RootFactor = value
	default:
		return fmt.Errorf("%w: unknown param: %s", dynamo.ErrConfiguration, name)
	}
	np, err := NewParams(p.T9_0, p.Rho0, p.Rho1, p.Tau, p.Delta, p.RootFactor)
	if err != nil {
		return err
	}
	m.p = np
	return nil
}

func first(x dynamo.State) any {
	if len(x) == 0 {
		return "<empty>"
	}
	return x[0]
}
