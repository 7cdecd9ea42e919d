package trajectory

import (
	"fmt"
	"math"

	"github.com/san-kum/entrosim/internal/dynamo"
)

// Params is the immutable parameter set of a trajectory.
type Params struct {
	T9_0       float64
	Rho0       float64
	Rho1       float64
	Rho2       float64
	Tau        float64
	Delta      float64
	RootFactor float64
}

// DefaultParams returns the parameter set of the reference run.
func DefaultParams() Params {
	p, _ := NewParams(10, 1e8, 9e7, 0.1, 0.1, 1.001)
	return p
}

// NewParams validates the parameter relationships and derives Rho2.
func NewParams(t9_0, rho0, rho1, tau, delta, rootFactor float64) (Params, error) {
	for name, v := range map[string]float64{
		"t9_0": t9_0, "rho_0": rho0, "rho_1": rho1,
		"tau": tau, "delta_trajectory": delta, "root_factor": rootFactor,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Params{}, dynamo.Configf("%s must be finite, got %g", name, v)
		}
	}

	switch {
	case t9_0 <= 0:
		return Params{}, dynamo.Configf("t9_0 must be positive, got %g", t9_0)
	case rho0 <= 0:
		return Params{}, dynamo.Configf("rho_0 must be positive, got %g", rho0)
	case rho1 < 0:
		return Params{}, dynamo.Configf("rho_1 must not be negative, got %g", rho1)
	case rho1 > rho0:
		return Params{}, dynamo.Configf("rho_1 (%g) must be <= rho_0 (%g)", rho1, rho0)
	case tau <= 0:
		return Params{}, dynamo.Configf("tau must be positive, got %g", tau)
	case delta <= 0:
		return Params{}, dynamo.Configf("delta_trajectory must be positive, got %g", delta)
	case rootFactor <= 1:
		return Params{}, dynamo.Configf("root_factor must be > 1, got %g", rootFactor)
	}

	return Params{
		T9_0:       t9_0,
		Rho0:       rho0,
		Rho1:       rho1,
		Rho2:       rho0 - rho1,
		Tau:        tau,
		Delta:      delta,
		RootFactor: rootFactor,
	}, nil
}

func (p Params) String() string {
	return fmt.Sprintf("t9_0=%g rho_0=%g rho_1=%g rho_2=%g tau=%g delta=%g root_factor=%g",
		p.T9_0, p.Rho0, p.Rho1, p.Rho2, p.Tau, p.Delta, p.RootFactor)
}
