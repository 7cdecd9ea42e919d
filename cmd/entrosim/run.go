package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/san-kum/entrosim/internal/config"
	"github.com/san-kum/entrosim/internal/dynamo"
	"github.com/san-kum/entrosim/internal/experiment"
	"github.com/san-kum/entrosim/internal/storage"
	"github.com/san-kum/entrosim/internal/trajectory"
	"github.com/san-kum/entrosim/internal/viz"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type runFlags struct {
	// flag targets; copied into the effective config only when set
	cfg        config.Config
	configFile string
	preset     string
	live       bool
}

// flagFields copies one flag's value from the flag targets into the
// effective config.
var flagFields = map[string]func(dst, src *config.Config){
	"time":                   func(d, s *config.Config) { d.Time = s.Time },
	"dtime":                  func(d, s *config.Config) { d.Dtime = s.Dtime },
	"tend":                   func(d, s *config.Config) { d.TEnd = s.TEnd },
	"steps":                  func(d, s *config.Config) { d.Steps = s.Steps },
	"mu-nue-kt":              func(d, s *config.Config) { d.MuNueKT = s.MuNueKT },
	"t9-guess":               func(d, s *config.Config) { d.T9Guess = s.T9Guess },
	"observe":                func(d, s *config.Config) { d.Observe = s.Observe },
	"integrator":             func(d, s *config.Config) { d.Integrator = s.Integrator },
	"write-every-checkpoint": func(d, s *config.Config) { d.WriteEveryCheckpoint = s.WriteEveryCheckpoint },
	"nuc-filter":             func(d, s *config.Config) { d.Filters.Nuc = s.Filters.Nuc },
	"reac-filter":            func(d, s *config.Config) { d.Filters.Reac = s.Filters.Reac },
	"sdot-nuc-filter":        func(d, s *config.Config) { d.Filters.SdotNuc = s.Filters.SdotNuc },
	"sdot-reac-filter":       func(d, s *config.Config) { d.Filters.SdotReac = s.Filters.SdotReac },
	"t9-0":                   func(d, s *config.Config) { d.Trajectory.T9_0 = s.Trajectory.T9_0 },
	"rho-0":                  func(d, s *config.Config) { d.Trajectory.Rho0 = s.Trajectory.Rho0 },
	"rho-1":                  func(d, s *config.Config) { d.Trajectory.Rho1 = s.Trajectory.Rho1 },
	"tau":                    func(d, s *config.Config) { d.Trajectory.Tau = s.Trajectory.Tau },
	"delta":                  func(d, s *config.Config) { d.Trajectory.Delta = s.Trajectory.Delta },
	"root-factor":            func(d, s *config.Config) { d.Trajectory.RootFactor = s.Trajectory.RootFactor },
}

func bindRunFlags(fs *pflag.FlagSet, f *runFlags) {
	f.cfg = *config.DefaultConfig()
	c := &f.cfg

	fs.Float64Var(&c.Time, "time", c.Time, "initial time (s)")
	fs.Float64Var(&c.Dtime, "dtime", c.Dtime, "initial time step (s)")
	fs.Float64Var(&c.TEnd, "tend", c.TEnd, "end time (s)")
	fs.IntVar(&c.Steps, "steps", c.Steps, "write a checkpoint every this many steps")
	fs.Float64Var(&c.MuNueKT, "mu-nue-kt", c.MuNueKT, "electron-neutrino chemical potential / kT")
	fs.Var(&c.T9Guess, "t9-guess", "extrapolate the temperature guess between steps")
	fs.Var(&c.Observe, "observe", "log every right-hand side evaluation")
	fs.StringVar(&c.Integrator, "integrator", c.Integrator, "integrator (ab1-ab4, rk4, rk45, euler)")
	fs.BoolVar(&c.WriteEveryCheckpoint, "write-every-checkpoint", c.WriteEveryCheckpoint, "rewrite the output at every checkpoint")
	fs.StringVar(&c.Filters.Nuc, "nuc-filter", "", "species filter of the evolution view")
	fs.StringVar(&c.Filters.Reac, "reac-filter", "", "reaction filter of the evolution view")
	fs.StringVar(&c.Filters.SdotNuc, "sdot-nuc-filter", "", "species filter of the entropy-generation view")
	fs.StringVar(&c.Filters.SdotReac, "sdot-reac-filter", "", "reaction filter of the entropy-generation view")
	fs.Float64Var(&c.Trajectory.T9_0, "t9-0", c.Trajectory.T9_0, "initial temperature (10^9 K)")
	fs.Float64Var(&c.Trajectory.Rho0, "rho-0", c.Trajectory.Rho0, "initial density (g/cc)")
	fs.Float64Var(&c.Trajectory.Rho1, "rho-1", c.Trajectory.Rho1, "exponential density component (g/cc)")
	fs.Float64Var(&c.Trajectory.Tau, "tau", c.Trajectory.Tau, "exponential expansion timescale (s)")
	fs.Float64Var(&c.Trajectory.Delta, "delta", c.Trajectory.Delta, "power-law expansion timescale (s)")
	fs.Float64Var(&c.Trajectory.RootFactor, "root-factor", c.Trajectory.RootFactor, "initial bracketing factor of the temperature solve")
	fs.StringVar(&f.configFile, "config", "", "config file path (yaml)")
	fs.StringVar(&f.preset, "preset", "", "start from a preset configuration")
	fs.BoolVar(&f.live, "live", false, "show the live terminal view")
}

// effectiveConfig layers preset, config file and explicitly set flags, in
// that order.
func effectiveConfig(fs *pflag.FlagSet, f *runFlags) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if f.preset != "" {
		cfg = config.GetPreset(f.preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", f.preset, config.ListPresets())
		}
	}

	if f.configFile != "" {
		loaded, err := config.LoadOver(f.configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	fs.Visit(func(flag *pflag.Flag) {
		if apply, ok := flagFields[flag.Name]; ok {
			apply(cfg, &f.cfg)
		}
	})
	return cfg, nil
}

func newRunCmd(g *globalFlags) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run [net.yaml] [zone.yaml] [output.{xml,json,yaml}]",
		Short: "integrate a zone along the expansion trajectory",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := effectiveConfig(cmd.Flags(), f)
			if err != nil {
				return err
			}
			return runSimulation(cmd.Context(), g, experiment.Config{
				NetPath:    args[0],
				ZonePath:   args[1],
				OutputPath: args[2],
				Options:    cfg,
			}, f.live)
		},
	}
	bindRunFlags(cmd.Flags(), f)
	return cmd
}

func runSimulation(ctx context.Context, g *globalFlags, cfg experiment.Config, live bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	st := storage.New(g.dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	logger := g.logger()
	if live {
		// the live view owns the terminal
		logger = log.New(io.Discard)
	}

	registry := experiment.NewRegistry()
	exp := experiment.New(cfg)
	if err := exp.Setup(registry, logger, registry.DefaultMetrics()); err != nil {
		return err
	}

	if !live {
		fmt.Fprintf(g.stdout, "running zone %s (%s, t_end=%g s)...\n", exp.Engine().Zone().Label, cfg.Options.Integrator, cfg.Options.TEnd)
	}
	start := time.Now()

	var result *dynamo.Result
	var runErr error
	if live {
		result, runErr = runLive(ctx, exp, cfg.Options.TEnd)
	} else {
		result, runErr = exp.Run(ctx)
	}
	elapsed := time.Since(start)

	meta := newRunMetadata(cfg, exp.Params(), elapsed, runErr)

	runID, err := st.Save(meta, result)
	if err != nil {
		return errors.Join(runErr, err)
	}

	fmt.Fprintf(g.stdout, "%s in %v\n", meta.Status, elapsed.Round(time.Millisecond))
	fmt.Fprintf(g.stdout, "run id: %s\n", runID)
	if result != nil {
		fmt.Fprintf(g.stdout, "steps: %d\n", result.StepsTaken)
		fmt.Fprintf(g.stdout, "checkpoints: %d\n", result.Checkpoints)
		printMetrics(g.stdout, result.Metrics)
	}
	return runErr
}

// newRunMetadata describes one finished run for the store.
func newRunMetadata(cfg experiment.Config, params trajectory.Params, elapsed time.Duration, runErr error) storage.RunMetadata {
	meta := storage.RunMetadata{
		Status:     storage.StatusCompleted,
		Network:    cfg.NetPath,
		Zone:       cfg.ZonePath,
		Output:     cfg.OutputPath,
		Integrator: cfg.Options.Integrator,
		Dtime:      cfg.Options.Dtime,
		TEnd:       cfg.Options.TEnd,
		Params:     trajectory.NewModel(params).GetParams(),
		Elapsed:    elapsed,
	}
	switch {
	case errors.Is(runErr, context.Canceled):
		meta.Status = storage.StatusCancelled
	case runErr != nil:
		meta.Status = storage.StatusFailed
	}
	if runErr != nil {
		meta.Error = runErr.Error()
	}
	return meta
}

func printMetrics(w io.Writer, metrics map[string]float64) {
	if len(metrics) == 0 {
		return
	}
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "\nmetrics:")
	for _, name := range names {
		v := metrics[name]
		if math.IsInf(v, 0) || math.IsNaN(v) {
			fmt.Fprintf(w, "  %s: n/a\n", name)
			continue
		}
		fmt.Fprintf(w, "  %s: %.6g\n", name, v)
	}
}

// runLive drives the integration in a goroutine while the live view owns
// the terminal. Quitting the view cancels the run.
func runLive(ctx context.Context, exp *experiment.Experiment, tEnd float64) (*dynamo.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := viz.NewModel(exp.Engine().Zone().Label, tEnd, cancel)
	p := tea.NewProgram(m)
	exp.Driver().AddObserver(viz.NewProgramObserver(p))

	var result *dynamo.Result
	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		result, runErr = exp.Run(ctx)
		p.Send(viz.DoneMsg{Result: result, Err: runErr})
	}()

	_, uiErr := p.Run()
	cancel()
	<-done
	return result, errors.Join(runErr, uiErr)
}
