package config

import (
	"fmt"
	"math"
	"os"

	"github.com/san-kum/entrosim/internal/dynamo"
	"github.com/san-kum/entrosim/internal/trajectory"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDtime      = 1e-15
	DefaultTEnd       = 10.0
	DefaultSteps      = 20
	DefaultIntegrator = "ab4"
	DefaultT9_0       = 10.0
	DefaultRho0       = 1e8
	DefaultRho1       = 9e7
	DefaultTau        = 0.1
	DefaultDelta      = 0.1
	DefaultRootFactor = 1.001
)

type Config struct {
	Integrator           string           `yaml:"integrator"`
	Time                 float64          `yaml:"time"`
	Dtime                float64          `yaml:"dtime"`
	TEnd                 float64          `yaml:"tend"`
	Steps                int              `yaml:"steps"`
	MuNueKT              float64          `yaml:"mu_nue_kT"`
	T9Guess              YesNo            `yaml:"t9_guess"`
	Observe              YesNo            `yaml:"observe"`
	WriteEveryCheckpoint bool             `yaml:"write_every_checkpoint"`
	Filters              FilterConfig     `yaml:"filters"`
	Trajectory           TrajectoryConfig `yaml:"trajectory"`
}

// FilterConfig selects the evolution and entropy-generation views.
type FilterConfig struct {
	Nuc      string `yaml:"nuc"`
	Reac     string `yaml:"reac"`
	SdotNuc  string `yaml:"sdot_nuc"`
	SdotReac string `yaml:"sdot_reac"`
}

// HasSdotView reports whether a separate entropy-generation view is set.
func (f FilterConfig) HasSdotView() bool {
	return f.SdotNuc != "" || f.SdotReac != ""
}

type TrajectoryConfig struct {
	T9_0       float64 `yaml:"t9_0"`
	Rho0       float64 `yaml:"rho_0"`
	Rho1       float64 `yaml:"rho_1"`
	Tau        float64 `yaml:"tau"`
	Delta      float64 `yaml:"delta_trajectory"`
	RootFactor float64 `yaml:"root_factor"`
}

func DefaultConfig() *Config {
	return &Config{
		Integrator: DefaultIntegrator,
		Dtime:      DefaultDtime,
		TEnd:       DefaultTEnd,
		Steps:      DefaultSteps,
		MuNueKT:    math.Inf(-1),
		T9Guess:    true,
		Trajectory: TrajectoryConfig{
			T9_0:       DefaultT9_0,
			Rho0:       DefaultRho0,
			Rho1:       DefaultRho1,
			Tau:        DefaultTau,
			Delta:      DefaultDelta,
			RootFactor: DefaultRootFactor,
		},
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads path on top of base, keeping base values for keys the file
// does not set. base is modified and returned.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, base); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return base, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Params validates the trajectory section.
func (c *Config) Params() (trajectory.Params, error) {
	t := c.Trajectory
	return trajectory.NewParams(t.T9_0, t.Rho0, t.Rho1, t.Tau, t.Delta, t.RootFactor)
}

// RunConfig converts the run options into driver settings.
func (c *Config) RunConfig() dynamo.Config {
	rc := dynamo.DefaultConfig()
	rc.Time = c.Time
	rc.Dt = c.Dtime
	rc.TEnd = c.TEnd
	rc.Steps = c.Steps
	rc.GuessT9 = bool(c.T9Guess)
	rc.Observe = bool(c.Observe)
	rc.WriteEveryCheckpoint = c.WriteEveryCheckpoint
	rc.MuNueKT = c.MuNueKT
	return rc
}

// SetParam sets one trajectory parameter by its config key.
func (c *Config) SetParam(name string, value float64) error {
	t := &c.Trajectory
	switch name {
	case "t9_0":
		t.T9_0 = value
	case "rho_0":
		t.Rho0 = value
	case "rho_1":
		t.Rho1 = value
	case "tau":
		t.Tau = value
	case "delta_trajectory", "delta":
		t.Delta = value
	case "root_factor":
		t.RootFactor = value
	default:
		return fmt.Errorf("%w: unknown param: %s", dynamo.ErrConfiguration, name)
	}
	return nil
}
