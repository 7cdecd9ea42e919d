package experiment

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/san-kum/entrosim/internal/config"
	"github.com/san-kum/entrosim/internal/driver"
	"github.com/san-kum/entrosim/internal/dynamo"
	"github.com/san-kum/entrosim/internal/metrics"
	"github.com/san-kum/entrosim/internal/network"
	"github.com/san-kum/entrosim/internal/snapshot"
	"github.com/san-kum/entrosim/internal/trajectory"
)

// Config names the inputs of one run. OutputPath may be empty to skip the
// snapshot document.
type Config struct {
	NetPath    string
	ZonePath   string
	OutputPath string
	Options    *config.Config
}

type Experiment struct {
	cfg    Config
	params trajectory.Params
	engine *network.Engine
	output *snapshot.Writer
	driver *driver.Driver
}

func New(cfg Config) *Experiment {
	if cfg.Options == nil {
		cfg.Options = config.DefaultConfig()
	}
	return &Experiment{cfg: cfg}
}

// Setup loads the network and zone, builds the views, engine and
// integrator, and wires them into a driver.
func (e *Experiment) Setup(registry *Registry, logger *log.Logger, runMetrics []dynamo.Metric) error {
	opts := e.cfg.Options

	params, err := opts.Params()
	if err != nil {
		return err
	}
	integ, err := registry.GetIntegrator(opts.Integrator)
	if err != nil {
		return err
	}

	net, err := network.LoadNet(e.cfg.NetPath)
	if err != nil {
		return err
	}
	zf, err := network.LoadZone(e.cfg.ZonePath)
	if err != nil {
		return err
	}
	zone, y, err := zf.NewZone(net)
	if err != nil {
		return err
	}

	view, err := net.NewView("evolution", opts.Filters.Nuc, opts.Filters.Reac)
	if err != nil {
		return fmt.Errorf("evolution view: %w", err)
	}
	engine, err := network.NewEngine(net, zone, y, view)
	if err != nil {
		return err
	}

	var out dynamo.CheckpointWriter
	if e.cfg.OutputPath != "" {
		w, err := snapshot.NewWriter(e.cfg.OutputPath)
		if err != nil {
			return err
		}
		e.output = w
		out = w
	}

	d := driver.New(engine, trajectory.NewModel(params), integ, out)
	if logger != nil {
		d.SetLogger(logger)
	}
	if opts.Filters.HasSdotView() {
		sdot, err := net.NewView("sdot", opts.Filters.SdotNuc, opts.Filters.SdotReac)
		if err != nil {
			return fmt.Errorf("entropy-generation view: %w", err)
		}
		d.SetEntropyView(sdot)
	}
	for _, m := range runMetrics {
		d.AddMetric(m)
	}
	if _, ok := integ.(dynamo.ErrorEstimator); ok {
		d.AddMetric(metrics.NewMaxErrorEstimate())
	}

	e.params = params
	e.engine = engine
	e.driver = d
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.driver == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.driver.Run(ctx, e.cfg.Options.RunConfig())
}

// Driver returns the underlying driver for adding observers.
func (e *Experiment) Driver() *driver.Driver {
	return e.driver
}

func (e *Experiment) Engine() *network.Engine {
	return e.engine
}

func (e *Experiment) Params() trajectory.Params {
	return e.params
}

// Output returns the snapshot writer, or nil when no output path was set.
func (e *Experiment) Output() *snapshot.Writer {
	return e.output
}
