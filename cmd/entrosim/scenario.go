package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/san-kum/entrosim/internal/automation"
	"github.com/san-kum/entrosim/internal/experiment"
	"github.com/san-kum/entrosim/internal/storage"
	"github.com/spf13/cobra"
)

func newScenarioCmd(g *globalFlags) *cobra.Command {
	var keepGoing bool
	cmd := &cobra.Command{
		Use:   "scenario [scenario.yaml]",
		Short: "run every step of a scenario file and store each run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := automation.LoadScenario(args[0])
			if err != nil {
				return err
			}
			return runScenario(cmd.Context(), g, sc, keepGoing)
		},
	}
	cmd.Flags().BoolVar(&keepGoing, "keep-going", false, "continue after a failing step")
	return cmd
}

func runScenario(ctx context.Context, g *globalFlags, sc *automation.Scenario, keepGoing bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	st := storage.New(g.dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Fprintf(g.stdout, "scenario %s: %d steps\n", sc.Name, len(sc.Steps))
	results, runErr := automation.RunScenario(ctx, sc, experiment.NewRegistry(), quietLogger(g), keepGoing)

	tw := tabwriter.NewWriter(g.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tSTATUS\tSTEPS\tENTROPY_GAIN\tELAPSED\tRUN")
	for _, r := range results {
		// steps that failed before integrating have nothing to store
		if !r.Started {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\t-\n", r.Step.Name, storage.StatusFailed)
			continue
		}
		meta := newRunMetadata(r.Config, r.Params, r.Elapsed, r.Err)
		id, err := st.Save(meta, r.Result)
		if err != nil {
			return errors.Join(runErr, err)
		}
		steps, gain := "-", "-"
		if r.Result != nil {
			steps = fmt.Sprintf("%d", r.Result.StepsTaken)
			if v, ok := r.Result.Metrics["entropy_gain"]; ok {
				gain = fmt.Sprintf("%.6g", v)
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%v\t%s\n",
			r.Step.Name, meta.Status, steps, gain, r.Elapsed.Round(time.Millisecond), shortID(id))
	}
	if err := tw.Flush(); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}
