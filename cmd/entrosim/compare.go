package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/san-kum/entrosim/internal/experiment"
	"github.com/spf13/cobra"
)

func newCompareCmd(g *globalFlags) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "compare [net.yaml] [zone.yaml] [integrator1] [integrator2] ...",
		Short: "compare integrators on the same zone",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := effectiveConfig(cmd.Flags(), f)
			if err != nil {
				return err
			}
			return compareIntegrators(cmd.Context(), g, experiment.Config{
				NetPath:  args[0],
				ZonePath: args[1],
				Options:  cfg,
			}, args[2:])
		},
	}
	bindRunFlags(cmd.Flags(), f)
	_ = cmd.Flags().MarkHidden("live")
	return cmd
}

func compareIntegrators(ctx context.Context, g *globalFlags, base experiment.Config, names []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	registry := experiment.NewRegistry()

	fmt.Fprintf(g.stdout, "comparing integrators (t_end=%g s)\n\n", base.Options.TEnd)
	fmt.Fprintf(g.stdout, "%-10s  %8s  %14s  %14s  %10s\n", "integrator", "steps", "final_s", "final_t9", "time_ms")
	fmt.Fprintln(g.stdout, strings.Repeat("-", 62))

	for _, name := range names {
		opts := *base.Options
		opts.Integrator = name
		cfg := base
		cfg.Options = &opts

		exp := experiment.New(cfg)
		if err := exp.Setup(registry, quietLogger(g), nil); err != nil {
			fmt.Fprintf(g.stdout, "%-10s  error: %v\n", name, err)
			continue
		}

		start := time.Now()
		result, err := exp.Run(ctx)
		elapsed := time.Since(start)
		if err != nil {
			fmt.Fprintf(g.stdout, "%-10s  error: %v\n", name, err)
			continue
		}

		final := result.Final()
		last := result.Thermo[len(result.Thermo)-1]
		fmt.Fprintf(g.stdout, "%-10s  %8d  %14.8g  %14.8g  %10.2f\n",
			name, result.StepsTaken, final[2], last.T9, float64(elapsed.Microseconds())/1000)
	}

	return nil
}

// quietLogger reports only failures unless --verbose is set.
func quietLogger(g *globalFlags) *log.Logger {
	l := g.logger()
	if !g.verbose {
		l.SetLevel(log.ErrorLevel)
	}
	return l
}
