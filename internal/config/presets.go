package config

import "sort"

type preset struct {
	description string
	apply       func(c *Config)
}

var presets = map[string]preset{
	"reference": {
		description: "default trajectory, ab4, t_end 10 s",
		apply:       func(c *Config) {},
	},
	"fast": {
		description: "rapid expansion, tau = delta = 0.01 s, t_end 1 s",
		apply: func(c *Config) {
			c.Trajectory.Tau = 0.01
			c.Trajectory.Delta = 0.01
			c.TEnd = 1
		},
	},
	"slow": {
		description: "slow expansion, tau = delta = 1 s, t_end 50 s",
		apply: func(c *Config) {
			c.Trajectory.Tau = 1
			c.Trajectory.Delta = 1
			c.TEnd = 50
			c.Steps = 50
		},
	},
	"hot": {
		description: "t9_0 = 20",
		apply: func(c *Config) {
			c.Trajectory.T9_0 = 20
		},
	},
	"dense": {
		description: "rho_0 = 1e10 g/cc, rho_1 = 9e9 g/cc",
		apply: func(c *Config) {
			c.Trajectory.Rho0 = 1e10
			c.Trajectory.Rho1 = 9e9
		},
	},
	"rk4": {
		description: "reference trajectory on the RK4 integrator",
		apply: func(c *Config) {
			c.Integrator = "rk4"
		},
	},
}

// GetPreset returns a fresh config with the named preset applied, or nil.
func GetPreset(name string) *Config {
	p, ok := presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	p.apply(cfg)
	return cfg
}

func PresetDescription(name string) string {
	return presets[name].description
}

func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
