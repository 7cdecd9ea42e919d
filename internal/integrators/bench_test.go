package integrators

import (
	"testing"

	"github.com/san-kum/entrosim/internal/dynamo"
)

type benchDynamics struct{}

func (b *benchDynamics) StateDim() int { return 3 }
func (b *benchDynamics) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	return dynamo.State{x[1], x[1] / 0.3, 0.01 * x[0]}, nil
}

func benchIntegrator(b *testing.B, integ dynamo.Integrator) {
	dyn := &benchDynamics{}
	x := dynamo.State{1.0, 3.6, 10}
	t := 0.0

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		next, err := integ.Step(dyn, x, t, 1e-6)
		if err != nil {
			b.Fatal(err)
		}
		x = next
		t += 1e-6
	}
}

func BenchmarkEuler(b *testing.B) {
	benchIntegrator(b, NewEuler())
}

func BenchmarkRK4(b *testing.B) {
	benchIntegrator(b, NewRK4())
}

func BenchmarkRK45(b *testing.B) {
	benchIntegrator(b, NewRK45())
}

func BenchmarkAdamsBashforth4(b *testing.B) {
	ab, _ := NewAdamsBashforth(4)
	benchIntegrator(b, ab)
}
