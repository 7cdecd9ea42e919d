package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/entrosim/internal/dynamo"
	"github.com/san-kum/entrosim/internal/integrators"
	"github.com/san-kum/entrosim/internal/metrics"
)

type Registry struct {
	integrators map[string]func() (dynamo.Integrator, error)
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func() (dynamo.Integrator, error)),
	}

	for order := 1; order <= 4; order++ {
		r.integrators[fmt.Sprintf("ab%d", order)] = func() (dynamo.Integrator, error) {
			ab, err := integrators.NewAdamsBashforth(order)
			if err != nil {
				return nil, err
			}
			return ab, nil
		}
	}
	r.integrators["euler"] = func() (dynamo.Integrator, error) { return integrators.NewEuler(), nil }
	r.integrators["rk4"] = func() (dynamo.Integrator, error) { return integrators.NewRK4(), nil }
	r.integrators["rk45"] = func() (dynamo.Integrator, error) { return integrators.NewRK45(), nil }

	return r
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown integrator %q (available: %v)", dynamo.ErrConfiguration, name, r.ListIntegrators())
	}
	return fn()
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics() []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewPeakTemperature(),
		metrics.NewEntropyGain(),
		metrics.NewExpansion(),
		metrics.NewMinStep(),
		metrics.NewMeanStep(),
	}
}
