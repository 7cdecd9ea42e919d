package main

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/entrosim/internal/dynamo"
	"github.com/san-kum/entrosim/internal/experiment"
	"github.com/san-kum/entrosim/internal/sweep"
	"github.com/spf13/cobra"
)

type sweepFlags struct {
	axes     []string
	workers  int
	metric   string
	maximize bool
}

func newSweepCmd(g *globalFlags) *cobra.Command {
	f := &runFlags{}
	sf := &sweepFlags{}
	cmd := &cobra.Command{
		Use:   "sweep [net.yaml] [zone.yaml]",
		Short: "run the zone over a grid of trajectory parameters",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := effectiveConfig(cmd.Flags(), f)
			if err != nil {
				return err
			}
			axes := make([]sweep.Axis, 0, len(sf.axes))
			for _, arg := range sf.axes {
				axis, err := sweep.ParseAxis(arg)
				if err != nil {
					return err
				}
				axes = append(axes, axis)
			}
			if len(axes) == 0 {
				return dynamo.Configf("sweep needs at least one --param")
			}
			return runSweep(cmd.Context(), g, experiment.Config{
				NetPath:  args[0],
				ZonePath: args[1],
				Options:  cfg,
			}, axes, sf)
		},
	}
	bindRunFlags(cmd.Flags(), f)
	_ = cmd.Flags().MarkHidden("live")
	cmd.Flags().StringArrayVar(&sf.axes, "param", nil, "swept parameter, name=v1,v2 or name=lo:hi:n[:log] (repeatable)")
	cmd.Flags().IntVar(&sf.workers, "workers", runtime.NumCPU(), "concurrent runs")
	cmd.Flags().StringVar(&sf.metric, "metric", "entropy_gain", "metric used to pick the best point")
	cmd.Flags().BoolVar(&sf.maximize, "maximize", false, "pick the largest metric value instead of the smallest")
	return cmd
}

func runSweep(ctx context.Context, g *globalFlags, base experiment.Config, axes []sweep.Axis, sf *sweepFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	registry := experiment.NewRegistry()
	logger := quietLogger(g)

	// validate names up front so a typo fails once instead of per point
	for _, a := range axes {
		probe := *base.Options
		if err := probe.SetParam(a.Param, a.Values[0]); err != nil {
			return err
		}
	}

	s := sweep.New(axes, sf.workers)
	points, err := s.Run(ctx, func(ctx context.Context, params map[string]float64) (*dynamo.Result, error) {
		opts := *base.Options
		for name, v := range params {
			if err := opts.SetParam(name, v); err != nil {
				return nil, err
			}
		}
		cfg := base
		cfg.Options = &opts

		exp := experiment.New(cfg)
		if err := exp.Setup(registry, logger, registry.DefaultMetrics()); err != nil {
			return nil, err
		}
		return exp.Run(ctx)
	})
	if err != nil {
		return err
	}

	params := s.ParamNames()
	metrics := sweep.MetricNames(points)

	tw := tabwriter.NewWriter(g.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(append(append(params, "steps"), metrics...), "\t"))
	failed := 0
	for _, p := range points {
		row := make([]string, 0, len(params)+len(metrics)+1)
		for _, name := range params {
			row = append(row, fmt.Sprintf("%.6g", p.Params[name]))
		}
		if p.Err != nil {
			failed++
			row = append(row, "error: "+p.Err.Error())
			fmt.Fprintln(tw, strings.Join(row, "\t"))
			continue
		}
		row = append(row, fmt.Sprintf("%d", p.Steps))
		for _, m := range metrics {
			row = append(row, fmt.Sprintf("%.6g", p.Metrics[m]))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(g.stdout, "\n%d points, %d failed\n", len(points), failed)
	if best, ok := sweep.Best(points, sf.metric, sf.maximize); ok {
		var parts []string
		for _, name := range params {
			parts = append(parts, fmt.Sprintf("%s=%.6g", name, best.Params[name]))
		}
		fmt.Fprintf(g.stdout, "best %s: %.8g at %s\n", sf.metric, best.Metrics[sf.metric], strings.Join(parts, " "))
	}
	if failed == len(points) {
		return fmt.Errorf("all %d sweep points failed", failed)
	}
	return nil
}
