package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/entrosim/internal/dynamo"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "ab4", cfg.Integrator)
	assert.Equal(t, 1e-15, cfg.Dtime)
	assert.Equal(t, 10.0, cfg.TEnd)
	assert.Equal(t, 20, cfg.Steps)
	assert.True(t, bool(cfg.T9Guess))
	assert.False(t, bool(cfg.Observe))
	assert.True(t, math.IsInf(cfg.MuNueKT, -1))

	p, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, 1e7, p.Rho2)
}

func TestRunConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Time = 1
	cfg.Observe = true
	cfg.T9Guess = false
	cfg.WriteEveryCheckpoint = true

	rc := cfg.RunConfig()
	assert.Equal(t, 1.0, rc.Time)
	assert.Equal(t, cfg.Dtime, rc.Dt)
	assert.Equal(t, cfg.TEnd, rc.TEnd)
	assert.True(t, rc.Observe)
	assert.False(t, rc.GuessT9)
	assert.True(t, rc.WriteEveryCheckpoint)
	assert.Equal(t, dynamo.DefaultConfig().PruneCutoff, rc.PruneCutoff)
}

func TestParams_RejectsRho1AboveRho0(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Trajectory.Rho1 = 2 * cfg.Trajectory.Rho0

	_, err := cfg.Params()
	assert.True(t, errors.Is(err, dynamo.ErrConfiguration))
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	cfg := DefaultConfig()
	cfg.Integrator = "rk4"
	cfg.Observe = true
	cfg.Filters.SdotReac = `label != "n decay"`
	cfg.Trajectory.Tau = 0.5
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := "tend: 2\nt9_guess: no\ntrajectory:\n  t9_0: 5\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2.0, cfg.TEnd)
	assert.False(t, bool(cfg.T9Guess))
	assert.Equal(t, 5.0, cfg.Trajectory.T9_0)
	assert.Equal(t, DefaultRho0, cfg.Trajectory.Rho0)
	assert.Equal(t, DefaultSteps, cfg.Steps)
}

func TestLoadOver_Preset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("steps: 5\n"), 0644))

	cfg, err := LoadOver(path, GetPreset("fast"))
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Steps)
	assert.Equal(t, 0.01, cfg.Trajectory.Tau)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("observe: maybe\n"), 0644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "maybe")
}

func TestYesNo(t *testing.T) {
	tests := []struct {
		in      string
		want    YesNo
		wantErr bool
	}{
		{"yes", true, false},
		{"YES", true, false},
		{"no", false, false},
		{"true", true, false},
		{"0", false, false},
		{"", false, true},
		{"perhaps", false, true},
	}

	for _, tt := range tests {
		got, err := ParseYesNo(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "ParseYesNo(%q)", tt.in)
			continue
		}
		require.NoError(t, err, "ParseYesNo(%q)", tt.in)
		assert.Equal(t, tt.want, got, "ParseYesNo(%q)", tt.in)
	}
}

func TestYesNo_Flag(t *testing.T) {
	v := YesNo(true)
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Var(&v, "t9-guess", "")

	require.NoError(t, fs.Parse([]string{"--t9-guess", "no"}))
	assert.False(t, bool(v))
	assert.Equal(t, "no", fs.Lookup("t9-guess").Value.String())

	assert.Error(t, fs.Parse([]string{"--t9-guess=sometimes"}))
}

func TestExpandResponseFiles(t *testing.T) {
	dir := t.TempDir()
	rsp := filepath.Join(dir, "opts.rsp")
	content := "# trajectory\n--tau 0.5 --delta=0.2\n\n--nuc-filter 'z <= 2 && name != \"h3\"'\n"
	require.NoError(t, os.WriteFile(rsp, []byte(content), 0644))

	args, err := ExpandResponseFiles([]string{"net.yaml", "@" + rsp, "--tend", "1", "@"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"net.yaml",
		"--tau", "0.5", "--delta=0.2",
		"--nuc-filter", `z <= 2 && name != "h3"`,
		"--tend", "1", "@",
	}, args)

	_, err = ExpandResponseFiles([]string{"@" + filepath.Join(dir, "missing.rsp")})
	assert.Error(t, err)
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("fast")
	require.NotNil(t, cfg)
	assert.Equal(t, 0.01, cfg.Trajectory.Tau)
	assert.Equal(t, 1.0, cfg.TEnd)

	// presets never leak mutations into each other
	cfg.TEnd = 99
	assert.Equal(t, 1.0, GetPreset("fast").TEnd)

	assert.Nil(t, GetPreset("nonexistent"))
}

func TestPresetsAreValid(t *testing.T) {
	names := ListPresets()
	require.NotEmpty(t, names)
	assert.IsIncreasing(t, names)

	for _, name := range names {
		cfg := GetPreset(name)
		_, err := cfg.Params()
		assert.NoError(t, err, "preset %s", name)
		assert.NotEmpty(t, PresetDescription(name), "preset %s", name)
	}
}

func TestSetParam(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.SetParam("tau", 0.25))
	require.NoError(t, cfg.SetParam("delta", 0.5))
	require.NoError(t, cfg.SetParam("rho_1", 0))
	assert.Equal(t, 0.25, cfg.Trajectory.Tau)
	assert.Equal(t, 0.5, cfg.Trajectory.Delta)

	p, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, cfg.Trajectory.Rho0, p.Rho2)

	assert.ErrorIs(t, cfg.SetParam("gravity", 9.81), dynamo.ErrConfiguration)
}
