// Package automation runs a scripted sequence of zone integrations read
// from a YAML scenario file.
package automation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/san-kum/entrosim/internal/config"
	"github.com/san-kum/entrosim/internal/dynamo"
	"github.com/san-kum/entrosim/internal/experiment"
	"github.com/san-kum/entrosim/internal/trajectory"
	"gopkg.in/yaml.v3"
)

// Scenario is a named list of runs.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one run of a scenario. Options layer like the command line:
// preset, then config file, then the fields set here.
type Step struct {
	Name       string             `yaml:"name"`
	Net        string             `yaml:"net"`
	Zone       string             `yaml:"zone"`
	Output     string             `yaml:"output,omitempty"`
	Preset     string             `yaml:"preset,omitempty"`
	Config     string             `yaml:"config,omitempty"`
	Integrator string             `yaml:"integrator,omitempty"`
	TEnd       float64            `yaml:"tend,omitempty"`
	Params     map[string]float64 `yaml:"params,omitempty"`
}

// LoadScenario reads a scenario. Relative paths in its steps are taken
// relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("%w: parse scenario: %v", dynamo.ErrConfiguration, err)
	}
	if len(sc.Steps) == 0 {
		return nil, dynamo.Configf("scenario %s has no steps", path)
	}

	dir := filepath.Dir(path)
	for i := range sc.Steps {
		s := &sc.Steps[i]
		if s.Name == "" {
			s.Name = fmt.Sprintf("step%d", i+1)
		}
		if s.Net == "" || s.Zone == "" {
			return nil, dynamo.Configf("scenario step %s: net and zone are required", s.Name)
		}
		s.Net = resolve(dir, s.Net)
		s.Zone = resolve(dir, s.Zone)
		s.Output = resolve(dir, s.Output)
		s.Config = resolve(dir, s.Config)
	}
	return &sc, nil
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// Options builds the effective run config of the step.
func (s Step) Options() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, dynamo.Configf("step %s: unknown preset %s", s.Name, s.Preset)
		}
	}
	if s.Config != "" {
		loaded, err := config.LoadOver(s.Config, cfg)
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", s.Name, err)
		}
		cfg = loaded
	}
	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
	}
	if s.TEnd > 0 {
		cfg.TEnd = s.TEnd
	}
	for k, v := range s.Params {
		if err := cfg.SetParam(k, v); err != nil {
			return nil, fmt.Errorf("step %s: %w", s.Name, err)
		}
	}
	return cfg, nil
}

// Experiment returns the experiment config of the step.
func (s Step) Experiment() (experiment.Config, error) {
	opts, err := s.Options()
	if err != nil {
		return experiment.Config{}, err
	}
	return experiment.Config{
		NetPath:    s.Net,
		ZonePath:   s.Zone,
		OutputPath: s.Output,
		Options:    opts,
	}, nil
}

// StepResult is the outcome of one step. Result may be partial when Err
// is set. Started reports whether integration began.
type StepResult struct {
	Started bool
	Step    Step
	Config  experiment.Config
	Params  trajectory.Params
	Result  *dynamo.Result
	Err     error
	Elapsed time.Duration
}

// RunScenario executes the steps in order. It stops at the first failing
// step unless keepGoing is set; cancellation always stops it.
func RunScenario(ctx context.Context, sc *Scenario, registry *experiment.Registry, logger *log.Logger, keepGoing bool) ([]StepResult, error) {
	results := make([]StepResult, 0, len(sc.Steps))
	var errs []error

	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		logger.Info("scenario step", "n", i+1, "of", len(sc.Steps), "name", step.Name)

		sr := runStep(ctx, step, registry, logger)
		results = append(results, sr)
		if sr.Err == nil {
			continue
		}
		if errors.Is(sr.Err, context.Canceled) {
			return results, sr.Err
		}
		err := fmt.Errorf("step %d (%s): %w", i+1, step.Name, sr.Err)
		if !keepGoing {
			return results, err
		}
		logger.Error("scenario step failed", "name", step.Name, "err", sr.Err)
		errs = append(errs, err)
	}
	return results, errors.Join(errs...)
}

func runStep(ctx context.Context, step Step, registry *experiment.Registry, logger *log.Logger) StepResult {
	sr := StepResult{Step: step}
	cfg, err := step.Experiment()
	if err != nil {
		sr.Err = err
		return sr
	}
	sr.Config = cfg

	exp := experiment.New(cfg)
	if err := exp.Setup(registry, logger, registry.DefaultMetrics()); err != nil {
		sr.Err = err
		return sr
	}
	sr.Params = exp.Params()
	sr.Started = true

	start := time.Now()
	sr.Result, sr.Err = exp.Run(ctx)
	sr.Elapsed = time.Since(start)
	return sr
}
