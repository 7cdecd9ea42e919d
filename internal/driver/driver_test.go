package driver_test

import (
	"context"
	"errors"
	"strconv"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/entrosim/internal/driver"
	"github.com/san-kum/entrosim/internal/dynamo"
	"github.com/san-kum/entrosim/internal/integrators"
	"github.com/san-kum/entrosim/internal/network"
	"github.com/san-kum/entrosim/internal/trajectory"
)

type memWriter struct {
	records []dynamo.Checkpoint
	flushes int
}

func (w *memWriter) Record(c dynamo.Checkpoint) error {
	w.records = append(w.records, c)
	return nil
}

func (w *memWriter) Flush() error {
	w.flushes++
	return nil
}

type countingObserver struct{ calls int }

func (c *countingObserver) Observe(x, dxdt dynamo.State, t float64) { c.calls++ }

type stepCounter struct{ last dynamo.StepInfo }

func (s *stepCounter) OnStep(info dynamo.StepInfo) { s.last = info }

// driftingEntropy reports a different entropy after initialization, so no
// temperature matches the state.
type driftingEntropy struct {
	*network.Engine
	calls int
}

func (d *driftingEntropy) Entropy() (float64, error) {
	d.calls++
	if d.calls == 1 {
		return 5, nil
	}
	return 7, nil
}

type brokenEvolve struct {
	*network.Engine
}

var errNewton = errors.New("newton diverged")

func (b *brokenEvolve) Evolve(view dynamo.View, dt float64) error {
	if dt > 0 {
		return errNewton
	}
	return nil
}

type negativeStep struct{}

func (negativeStep) Step(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	return dynamo.State{-1, x[1], x[2]}, nil
}

func newEngine() *network.Engine {
	net, err := network.NewNet(
		[]network.Species{
			{Name: "n", Z: 0, A: 1, MassExcess: 8.0713, Spin: 0.5},
			{Name: "h1", Z: 1, A: 1, MassExcess: 7.2890, Spin: 0.5},
			{Name: "h2", Z: 1, A: 2, MassExcess: 13.1357, Spin: 1},
		},
		// capture heating fades with density, keeping the entropy equation non-stiff
		[]network.Reaction{
			{Label: "n capture", Reactants: []string{"h1", "n"}, Products: []string{"h2"}, Rate: network.Rate{A: 1e-7}},
		},
	)
	Expect(err).NotTo(HaveOccurred())

	y, err := net.AbundancesFromMassFractions(map[string]float64{"n": 0.1, "h1": 0.9})
	Expect(err).NotTo(HaveOccurred())

	eng, err := network.NewEngine(net, dynamo.NewZone("0"), y, nil)
	Expect(err).NotTo(HaveOccurred())
	return eng
}

func newModel() *trajectory.Model {
	p, err := trajectory.NewParams(10, 1e8, 9e7, 0.1, 0.1, 1.001)
	Expect(err).NotTo(HaveOccurred())
	return trajectory.NewModel(p)
}

func newAB4() dynamo.Integrator {
	ab, err := integrators.NewAdamsBashforth(4)
	Expect(err).NotTo(HaveOccurred())
	return ab
}

var _ = Describe("Driver", func() {
	var (
		out *memWriter
		cfg dynamo.Config
	)

	BeforeEach(func() {
		out = &memWriter{}
		cfg = dynamo.DefaultConfig()
		cfg.TEnd = 10
		cfg.Steps = 20
	})

	Describe("the reference expansion", func() {
		var (
			d      *driver.Driver
			result *dynamo.Result
			runErr error
			steps  *stepCounter
		)

		BeforeEach(func() {
			steps = &stepCounter{}
			d = driver.New(newEngine(), newModel(), newAB4(), out)
			d.AddObserver(steps)
			result, runErr = d.Run(context.Background(), cfg)
		})

		It("finishes exactly at the end time", func() {
			Expect(runErr).NotTo(HaveOccurred())
			Expect(d.Phase()).To(Equal(driver.Done))
			Expect(result.Times[len(result.Times)-1]).To(Equal(10.0))
			Expect(steps.last.Time).To(Equal(10.0))
			Expect(d.Engine().Zone().Time).To(Equal(10.0))
		})

		It("expands monotonically", func() {
			Expect(runErr).NotTo(HaveOccurred())
			Expect(result.StepsTaken).To(BeNumerically(">", 1))
			for i := 1; i < len(result.States); i++ {
				Expect(result.States[i][0]).To(BeNumerically(">", result.States[i-1][0]))
				Expect(result.Thermo[i].Rho).To(BeNumerically("<=", result.Thermo[i-1].Rho))
				Expect(result.Times[i]).To(BeNumerically(">", result.Times[i-1]))
			}
		})

		It("cools as it expands", func() {
			Expect(runErr).NotTo(HaveOccurred())
			last := result.Thermo[len(result.Thermo)-1]
			Expect(last.T9).To(BeNumerically("<", 10))
			Expect(last.T9).To(BeNumerically(">", 0))
		})

		It("checkpoints on cadence and flushes once", func() {
			Expect(runErr).NotTo(HaveOccurred())
			Expect(out.flushes).To(Equal(1))
			Expect(out.records).To(HaveLen(result.Checkpoints))
			n := result.StepsTaken
			Expect(result.Checkpoints).To(Equal((n-1)/20 + 1 + btoi((n-1)%20 != 0)))
			Expect(out.records[0].Step).To(Equal(1))
			if n > 21 {
				Expect(out.records[1].Step).To(Equal(21))
			}

			final := out.records[len(out.records)-1]
			Expect(final.Time).To(Equal(10.0))
			Expect(final.Label).To(Equal("0"))
			Expect(final.Properties).To(HaveKeyWithValue(dynamo.PropMuNueKT, "-Inf"))
			Expect(final.Properties).To(HaveKey(dynamo.PropX0))
			Expect(final.Properties).To(HaveKey(dynamo.PropJerk))
			jerk, err := strconv.ParseFloat(final.Properties[dynamo.PropJerk], 64)
			Expect(err).NotTo(HaveOccurred())
			Expect(jerk).To(Equal(newModel().Jerk(result.Final(), final.Time)))
			Expect(final.Species).To(HaveLen(3))
		})
	})

	It("writes the first and final steps even when no other checkpoint is due", func() {
		cfg.Steps = 1 << 30
		d := driver.New(newEngine(), newModel(), newAB4(), out)

		result, err := d.Run(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.StepsTaken).To(BeNumerically(">", 1))
		Expect(result.Checkpoints).To(Equal(2))
		Expect(out.records).To(HaveLen(2))
		Expect(out.records[0].Step).To(Equal(1))
		Expect(out.records[1].Step).To(Equal(result.StepsTaken))
		Expect(out.flushes).To(Equal(1))
	})

	It("flushes every checkpoint when asked to", func() {
		cfg.TEnd = 0.01
		cfg.Steps = 5
		cfg.WriteEveryCheckpoint = true
		d := driver.New(newEngine(), newModel(), newAB4(), out)

		result, err := d.Run(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.flushes).To(Equal(result.Checkpoints + 1))
	})

	It("takes a single step when dtime exceeds the end time", func() {
		cfg.Dt = 100
		d := driver.New(newEngine(), newModel(), newAB4(), out)

		result, err := d.Run(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.StepsTaken).To(Equal(1))
		Expect(result.Times).To(Equal([]float64{0, 10}))
		Expect(result.Thermo[1].Dt).To(Equal(10.0))
	})

	It("runs without temperature extrapolation and with rk4", func() {
		cfg.TEnd = 1
		cfg.GuessT9 = false
		d := driver.New(newEngine(), newModel(), integrators.NewRK4(), out)

		result, err := d.Run(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Times[len(result.Times)-1]).To(Equal(1.0))
	})

	It("reports every right-hand side evaluation when observing", func() {
		cfg.TEnd = 0.001
		cfg.Observe = true
		obs := &countingObserver{}
		d := driver.New(newEngine(), newModel(), newAB4(), out)
		d.SetObserver(obs)

		result, err := d.Run(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())
		// three RK4 start-up steps, one evaluation per step afterwards
		Expect(obs.calls).To(Equal(12 + result.StepsTaken - 3))
	})

	Context("when a step fails", func() {
		It("aborts on a trajectory leaving its domain", func() {
			d := driver.New(newEngine(), newModel(), negativeStep{}, out)

			result, err := d.Run(context.Background(), cfg)
			Expect(err).To(MatchError(dynamo.ErrDomain))

			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Step).To(Equal(1))
			Expect(result.StepsTaken).To(Equal(0))
			Expect(out.flushes).To(Equal(1))
			Expect(d.Phase()).To(Equal(driver.Done))
		})

		It("aborts when the temperature cannot be bracketed", func() {
			eng := &driftingEntropy{Engine: newEngine()}
			d := driver.New(eng, newModel(), newAB4(), out)

			_, err := d.Run(context.Background(), cfg)
			Expect(err).To(MatchError(dynamo.ErrRootNotBracketed))
		})

		It("propagates engine failures unchanged", func() {
			eng := &brokenEvolve{Engine: newEngine()}
			d := driver.New(eng, newModel(), newAB4(), out)

			_, err := d.Run(context.Background(), cfg)
			Expect(err).To(MatchError(errNewton))
		})
	})

	It("rejects invalid configuration before touching the engine", func() {
		cfg.Dt = 0
		eng := newEngine()
		d := driver.New(eng, newModel(), newAB4(), out)

		_, err := d.Run(context.Background(), cfg)
		Expect(err).To(MatchError(dynamo.ErrConfiguration))
		Expect(eng.Zone().T9).To(BeZero())
		Expect(out.flushes).To(BeZero())
	})

	It("stops on cancellation and still flushes", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		d := driver.New(newEngine(), newModel(), newAB4(), out)

		result, err := d.Run(ctx, cfg)
		Expect(err).To(MatchError(context.Canceled))
		Expect(result.StepsTaken).To(BeZero())
		Expect(out.flushes).To(Equal(1))
	})
})

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
