package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/san-kum/entrosim/internal/coupling"
	"github.com/san-kum/entrosim/internal/dynamo"
	"github.com/san-kum/entrosim/internal/stepctl"
	"github.com/san-kum/entrosim/internal/thermo"
	"github.com/san-kum/entrosim/internal/trajectory"
)

type Phase int

const (
	Initializing Phase = iota
	Stepping
	Done
)

func (p Phase) String() string {
	switch p {
	case Initializing:
		return "initializing"
	case Stepping:
		return "stepping"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

type Driver struct {
	engine     dynamo.Engine
	model      *trajectory.Model
	integrator dynamo.Integrator
	output     dynamo.CheckpointWriter
	ctrl       *stepctl.Controller
	sdotView   dynamo.View
	observer   dynamo.Observer
	metrics    []dynamo.Metric
	observers  []dynamo.StepObserver
	logger     *log.Logger
	phase      Phase
}

// New builds a driver. output may be nil, in which case no checkpoints are
// written.
func New(engine dynamo.Engine, model *trajectory.Model, integrator dynamo.Integrator, output dynamo.CheckpointWriter) *Driver {
	return &Driver{
		engine:     engine,
		model:      model,
		integrator: integrator,
		output:     output,
		ctrl:       stepctl.New(),
		logger:     log.New(io.Discard),
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.StepObserver, 0),
	}
}

func (d *Driver) SetLogger(l *log.Logger)             { d.logger = l }
func (d *Driver) SetController(c *stepctl.Controller) { d.ctrl = c }
func (d *Driver) SetEntropyView(v dynamo.View)        { d.sdotView = v }
func (d *Driver) SetObserver(o dynamo.Observer)       { d.observer = o }
func (d *Driver) AddMetric(m dynamo.Metric)           { d.metrics = append(d.metrics, m) }
func (d *Driver) AddObserver(o dynamo.StepObserver)   { d.observers = append(d.observers, o) }
func (d *Driver) Phase() Phase                        { return d.phase }
func (d *Driver) Engine() dynamo.Engine               { return d.engine }

func validateConfig(cfg dynamo.Config) error {
	switch {
	case !(cfg.Dt > 0) || math.IsInf(cfg.Dt, 0):
		return dynamo.Configf("dtime must be positive, got %g", cfg.Dt)
	case !(cfg.TEnd > cfg.Time) || math.IsInf(cfg.TEnd, 0):
		return dynamo.Configf("tend (%g) must be after time (%g)", cfg.TEnd, cfg.Time)
	case cfg.Steps < 1:
		return dynamo.Configf("steps must be at least 1, got %d", cfg.Steps)
	case cfg.PruneCutoff < 0:
		return dynamo.Configf("prune cutoff must not be negative, got %g", cfg.PruneCutoff)
	}
	return nil
}

// Run integrates from cfg.Time to cfg.TEnd. On failure it returns the
// partial result together with a *dynamo.SimulationError.
func (d *Driver) Run(ctx context.Context, cfg dynamo.Config) (*dynamo.Result, error) {
	d.phase = Initializing
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	p := d.model.Params()
	zone := d.engine.Zone()
	zone.T9 = p.T9_0
	zone.Rho = p.Rho0
	zone.Time = cfg.Time
	zone.Dtime = cfg.Dt
	if !zone.Props.Has(dynamo.PropParticle) {
		zone.Props.SetString(dynamo.PropParticle, "0")
	}
	if !zone.Props.Has(dynamo.PropSolver) {
		zone.Props.SetString(dynamo.PropSolver, "arrow")
	}
	zone.Props.SetFloat(dynamo.PropMuNueKT, cfg.MuNueKT)

	x := d.model.InitialState()
	s0, err := d.engine.Entropy()
	if err != nil {
		d.phase = Done
		return nil, fmt.Errorf("initial entropy: %w", err)
	}
	x[2] = s0
	zone.Entropy = s0
	zone.Props.SetFloat(dynamo.PropX0, x[0])
	zone.Props.SetFloat(dynamo.PropX1, x[1])

	d.engine.Prune(cfg.PruneCutoff)
	if r, ok := d.integrator.(dynamo.Resetter); ok {
		r.Reset()
	}
	initial := dynamo.StepInfo{
		Time: cfg.Time, Dt: cfg.Dt, TEnd: cfg.TEnd,
		State: x.Clone(), T9: zone.T9, Rho: zone.Rho, Entropy: s0,
	}
	for _, m := range d.metrics {
		m.Reset()
		m.Observe(initial)
	}

	solver := thermo.NewSolver(p.RootFactor)
	var opts []coupling.Option
	if d.sdotView != nil {
		opts = append(opts, coupling.WithView(d.sdotView))
	}
	if cfg.Observe {
		obs := d.observer
		if obs == nil {
			obs = &LogObserver{Logger: d.logger}
		}
		opts = append(opts, coupling.WithObserver(obs))
	}

	result := &dynamo.Result{
		States:  []dynamo.State{x.Clone()},
		Times:   []float64{cfg.Time},
		Thermo:  []dynamo.Thermo{{T9: zone.T9, Rho: zone.Rho}},
		Metrics: make(map[string]float64),
	}

	t := cfg.Time
	dt, clamped := stepctl.Clamp(t, cfg.Dt, cfg.TEnd)
	t9Old := zone.T9
	dT9dt := 0.0

	d.logger.Info("start", "zone", zone.Label, "t9", zone.T9, "rho", zone.Rho, "entropy", s0, "tend", cfg.TEnd)
	d.phase = Stepping

	var runErr error
	for step := 1; t < cfg.TEnd; step++ {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
		}
		if runErr != nil {
			break
		}

		fail := func(err error) {
			runErr = &dynamo.SimulationError{Step: step, Time: t, State: x.Clone(), Wrapped: err}
		}

		zone.Time = t
		xOld := x.Clone()
		rhs := coupling.New(d.engine, d.model, solver, opts...)

		next, err := d.integrator.Step(rhs, x, t, dt)
		if err != nil {
			fail(err)
			break
		}
		if !next.IsValid() {
			fail(fmt.Errorf("%w: %v", dynamo.ErrInvalidState, next))
			break
		}
		rho, err := d.model.Density(next)
		if err != nil {
			fail(err)
			break
		}
		x = next

		if clamped {
			t = cfg.TEnd
		} else {
			t += dt
		}

		zone.Dtime = dt
		zone.Time = t
		zone.Rho = rho
		zone.Entropy = x[2]

		if cfg.GuessT9 {
			if guess := t9Old + dT9dt*dt; guess > 0 && !math.IsInf(guess, 0) {
				zone.T9 = guess
			}
		}
		t9, err := solver.ForEntropy(d.engine, x[2])
		if err != nil {
			zone.T9 = t9Old
			fail(fmt.Errorf("temperature at t=%g: %w", t, err))
			break
		}
		zone.T9 = t9
		dT9dt = (t9 - t9Old) / dt
		t9Old = t9

		if err := d.engine.Evolve(d.engine.EvolutionView(), dt); err != nil {
			fail(err)
			break
		}
		zone.Props.SetFloat(dynamo.PropX0, x[0])
		zone.Props.SetFloat(dynamo.PropX1, x[1])

		d.logger.Debug("step", "n", step, "t", t, "dt", dt, "t9", t9, "rho", rho, "entropy", x[2], "x0", x[0])

		result.States = append(result.States, x.Clone())
		result.Times = append(result.Times, t)
		result.Thermo = append(result.Thermo, dynamo.Thermo{T9: t9, Rho: rho, Dt: dt})
		result.StepsTaken++

		info := dynamo.StepInfo{
			Step: step, Time: t, Dt: dt, TEnd: cfg.TEnd,
			State: x.Clone(), T9: t9, Rho: rho, Entropy: x[2],
		}
		if est, ok := d.integrator.(dynamo.ErrorEstimator); ok {
			info.ErrorEstimate = est.ErrorEstimate()
		}
		for _, m := range d.metrics {
			m.Observe(info)
		}
		for _, o := range d.observers {
			o.OnStep(info)
		}

		// the first step opens each block of Steps
		if (step-1)%cfg.Steps == 0 || t >= cfg.TEnd {
			if err := d.checkpoint(step, d.model.Jerk(x, t), cfg.WriteEveryCheckpoint); err != nil {
				fail(err)
				break
			}
			result.Checkpoints++
		}

		d.engine.Prune(cfg.PruneCutoff)

		if t < cfg.TEnd {
			dt = d.ctrl.Next(x, xOld, dt, d.engine)
			dt, clamped = stepctl.Clamp(t, dt, cfg.TEnd)
		}
	}

	d.phase = Done
	for _, m := range d.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	if d.output != nil {
		if err := d.output.Flush(); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("flush output: %w", err))
		}
	}

	if runErr != nil {
		d.logger.Error("run aborted", "err", runErr)
	} else {
		d.logger.Info("done", "steps", result.StepsTaken, "t", t, "t9", zone.T9, "entropy", x[2])
	}
	return result, runErr
}

func (d *Driver) checkpoint(step int, jerk float64, flush bool) error {
	if d.output == nil {
		return nil
	}
	zone := d.engine.Zone()

	props := make(map[string]string)
	for _, k := range zone.Props.Keys() {
		v, err := zone.Props.String(k)
		if err != nil {
			return err
		}
		props[k] = v
	}
	props[dynamo.PropJerk] = strconv.FormatFloat(jerk, 'g', -1, 64)
	x0, _ := zone.Props.Float(dynamo.PropX0)
	x1, _ := zone.Props.Float(dynamo.PropX1)

	cp := dynamo.Checkpoint{
		Label:      zone.Label,
		Step:       step,
		Time:       zone.Time,
		Dtime:      zone.Dtime,
		T9:         zone.T9,
		Rho:        zone.Rho,
		Entropy:    zone.Entropy,
		X0:         x0,
		X1:         x1,
		Properties: props,
		Species:    d.engine.Abundances(),
	}
	if err := d.output.Record(cp); err != nil {
		return fmt.Errorf("record checkpoint: %w", err)
	}
	d.logger.Info("checkpoint", "step", step, "t", cp.Time, "t9", cp.T9, "rho", cp.Rho)

	if flush {
		if err := d.output.Flush(); err != nil {
			return fmt.Errorf("flush output: %w", err)
		}
	}
	return nil
}

// LogObserver logs every right-hand side evaluation.
type LogObserver struct {
	Logger *log.Logger
}

func (o *LogObserver) Observe(x, dxdt dynamo.State, t float64) {
	o.Logger.Info("rhs", "t", t,
		"x0", x[0], "x1", x[1], "x2", x[2],
		"dx0", dxdt[0], "dx1", dxdt[1], "dx2", dxdt[2])
}
