package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/san-kum/entrosim/internal/config"
	"github.com/spf13/cobra"
)

// main expands @response files, builds the command tree and runs it. It
// exits with status 1 when the command fails.
func main() {
	args, err := config.ExpandResponseFiles(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type globalFlags struct {
	dataDir string
	verbose bool
	stdout  io.Writer
	stderr  io.Writer
}

func (g *globalFlags) logger() *log.Logger {
	level := log.InfoLevel
	if g.verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(g.stderr, log.Options{
		Level:           level,
		Prefix:          "entrosim",
		ReportTimestamp: true,
	})
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globalFlags{stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:          "entrosim",
		Short:        "entropy generation along a parameterized expansion trajectory",
		SilenceUsage: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.PersistentFlags().StringVar(&g.dataDir, "data", ".entrosim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log every step")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, args []string) error { return listRuns(g) },
	}

	var series []string
	var pngPath string
	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return plotRun(g, args[0], series, pngPath)
		},
	}
	plotCmd.Flags().StringSliceVar(&series, "series", nil, "series to plot (time, x0, x1, entropy, t9, rho, dt)")
	plotCmd.Flags().StringVar(&pngPath, "png", "", "write a PNG chart to this path instead of the terminal")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return exportCSV(g, args[0]) },
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  func(cmd *cobra.Command, args []string) error { return exportJSON(g, args[0]) },
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(g.stdout, "presets:")
			for _, p := range config.ListPresets() {
				fmt.Fprintf(g.stdout, "  %-10s %s\n", p, config.PresetDescription(p))
			}
			return nil
		},
	}

	var overwrite bool
	exampleCmd := &cobra.Command{
		Use:   "example [dir]",
		Short: "write an example network, zone, config and response file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return writeExample(g, dir, overwrite)
		},
	}
	exampleCmd.Flags().BoolVar(&overwrite, "force", false, "overwrite existing files")

	rootCmd.AddCommand(newRunCmd(g), newCompareCmd(g), newSweepCmd(g), newScenarioCmd(g), listCmd, plotCmd, exportCSVCmd, exportJSONCmd, presetsCmd, exampleCmd)
	return rootCmd
}
