package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/san-kum/entrosim/internal/snapshot"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestEffectiveConfig_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("steps: 5\ntrajectory:\n  tau: 0.3\n"), 0644))

	f := &runFlags{}
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	bindRunFlags(fs, f)
	require.NoError(t, fs.Parse([]string{"--preset", "fast", "--config", path, "--tau", "0.5", "--t9-guess", "no"}))

	cfg, err := effectiveConfig(fs, f)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Trajectory.Tau, "flag beats config file")
	assert.Equal(t, 5, cfg.Steps, "config file beats preset")
	assert.Equal(t, 1.0, cfg.TEnd, "preset beats defaults")
	assert.Equal(t, 0.01, cfg.Trajectory.Delta)
	assert.False(t, bool(cfg.T9Guess))
	assert.Equal(t, "ab4", cfg.Integrator, "unset flags keep their source value")
}

func TestEffectiveConfig_UnknownPreset(t *testing.T) {
	f := &runFlags{}
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	bindRunFlags(fs, f)
	require.NoError(t, fs.Parse([]string{"--preset", "warp"}))

	_, err := effectiveConfig(fs, f)
	assert.ErrorContains(t, err, "unknown preset")
}

var runIDPattern = regexp.MustCompile(`run id: (\S+)`)

func TestRunAndInspect(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "runs")

	out, err := execute(t, "example", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "net.yaml")

	output := filepath.Join(dir, "out.xml")
	out, err = execute(t, "run",
		filepath.Join(dir, "net.yaml"), filepath.Join(dir, "zone.yaml"), output,
		"--data", data,
		"--tend", "0.01",
		"--reac-filter", `label == "n capture on h1"`,
	)
	require.NoError(t, err, out)
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "peak_t9")

	m := runIDPattern.FindStringSubmatch(out)
	require.Len(t, m, 2)
	runID := m[1]

	doc, err := snapshot.Read(output)
	require.NoError(t, err)
	assert.NotEmpty(t, doc.Zones)

	out, err = execute(t, "list", "--data", data)
	require.NoError(t, err)
	assert.Contains(t, out, runID[:8])
	assert.Contains(t, out, "completed")

	out, err = execute(t, "export-csv", runID[:8], "--data", data)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "time,x0,x1,entropy,t9,rho,dt\n"))

	out, err = execute(t, "export-json", runID, "--data", data)
	require.NoError(t, err)
	assert.Contains(t, out, `"integrator": "ab4"`)

	out, err = execute(t, "plot", runID, "--data", data, "--series", "t9")
	require.NoError(t, err)
	assert.Contains(t, out, "t9 vs step")

	png := filepath.Join(dir, "run.png")
	_, err = execute(t, "plot", runID, "--data", data, "--png", png)
	require.NoError(t, err)
	assert.FileExists(t, png)
}

func TestRunFailures(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "example", dir)
	require.NoError(t, err)

	_, err = execute(t, "run",
		filepath.Join(dir, "net.yaml"), filepath.Join(dir, "zone.yaml"), filepath.Join(dir, "out.xml"),
		"--data", filepath.Join(dir, "runs"),
		"--integrator", "leapfrog",
	)
	assert.ErrorContains(t, err, "unknown integrator")

	_, err = execute(t, "run", "only-one-arg")
	assert.Error(t, err)

	_, err = execute(t, "plot", "nope", "--data", filepath.Join(dir, "runs"))
	assert.Error(t, err)
}

func TestPresetsCommand(t *testing.T) {
	out, err := execute(t, "presets")
	require.NoError(t, err)
	assert.Contains(t, out, "reference")
	assert.Contains(t, out, "fast")
}

func TestSweepCommand(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "example", dir)
	require.NoError(t, err)

	net, zone := filepath.Join(dir, "net.yaml"), filepath.Join(dir, "zone.yaml")
	out, err := execute(t, "sweep", net, zone,
		"--tend", "0.01",
		"--reac-filter", `label == "n capture on h1"`,
		"--param", "t9_0=8,10",
		"--workers", "2",
		"--metric", "peak_t9",
		"--maximize",
	)
	require.NoError(t, err, out)
	assert.Contains(t, out, "2 points, 0 failed")
	assert.Contains(t, out, "best peak_t9")
	assert.Contains(t, out, "t9_0=10")

	_, err = execute(t, "sweep", net, zone, "--param", "bogus=1,2")
	assert.ErrorContains(t, err, "unknown param")

	_, err = execute(t, "sweep", net, zone)
	assert.ErrorContains(t, err, "--param")
}

func TestScenarioCommand(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "example", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "capture.yaml"), []byte(`
filters:
  reac: 'label == "n capture on h1"'
`), 0644))
	scenario := filepath.Join(dir, "short.yaml")
	require.NoError(t, os.WriteFile(scenario, []byte(`
name: short
steps:
  - name: warm
    net: net.yaml
    zone: zone.yaml
    config: capture.yaml
    tend: 0.01
  - name: typo
    net: net.yaml
    zone: zone.yaml
    integrator: leapfrog
`), 0644))
	data := filepath.Join(dir, "runs")

	out, err := execute(t, "scenario", scenario, "--data", data)
	assert.ErrorContains(t, err, "typo")
	assert.Contains(t, out, "warm")
	assert.Contains(t, out, "completed")

	out, err = execute(t, "list", "--data", data)
	require.NoError(t, err)
	assert.Contains(t, out, "completed")
}

func TestCompareCommand(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "example", dir)
	require.NoError(t, err)

	out, err := execute(t, "compare",
		filepath.Join(dir, "net.yaml"), filepath.Join(dir, "zone.yaml"),
		"ab4", "rk4", "leapfrog",
		"--tend", "0.01",
		"--reac-filter", `label == "n capture on h1"`,
	)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`(?m)^ab4\s+\d+`), out)
	assert.Regexp(t, regexp.MustCompile(`(?m)^rk4\s+\d+`), out)
	assert.Contains(t, out, "leapfrog    error")
}
