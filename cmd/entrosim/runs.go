package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/entrosim/internal/examples"
	"github.com/san-kum/entrosim/internal/export"
	"github.com/san-kum/entrosim/internal/storage"
)

func listRuns(g *globalFlags) error {
	st := storage.New(g.dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(g.stdout, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(g.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSTATUS\tINTEG\tTEND\tSTEPS\tNETWORK")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%gs\t%d\t%s\n",
			shortID(run.ID),
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Status,
			run.Integrator,
			run.TEnd,
			run.Steps,
			run.Network,
		)
	}

	return w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func plotRun(g *globalFlags, runID string, series []string, pngPath string) error {
	st := storage.New(g.dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	run, err := st.LoadRun(meta.ID)
	if err != nil {
		return err
	}

	if len(run.Times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	if pngPath != "" {
		if err := export.SavePNG(pngPath, run, series); err != nil {
			return err
		}
		fmt.Fprintf(g.stdout, "wrote %s\n", pngPath)
		return nil
	}

	if len(series) == 0 {
		series = export.DefaultSeries
	}

	fmt.Fprintf(g.stdout, "run: %s\n", meta.ID)
	fmt.Fprintf(g.stdout, "network: %s\n", meta.Network)
	fmt.Fprintf(g.stdout, "samples: %d\n\n", len(run.Times))

	for _, name := range series {
		data, err := run.Series(name)
		if err != nil {
			return err
		}

		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" vs step"),
		)
		fmt.Fprintln(g.stdout, graph)
		fmt.Fprintln(g.stdout)
	}

	return nil
}

func exportCSV(g *globalFlags, runID string) error {
	st := storage.New(g.dataDir)
	run, err := st.LoadRun(runID)
	if err != nil {
		return err
	}

	if len(run.Times) == 0 {
		return fmt.Errorf("no data to export")
	}
	return storage.ExportCSV(g.stdout, run)
}

func exportJSON(g *globalFlags, runID string) error {
	st := storage.New(g.dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	run, err := st.LoadRun(meta.ID)
	if err != nil {
		return err
	}
	return storage.ExportJSON(g.stdout, meta, run)
}

func writeExample(g *globalFlags, dir string, overwrite bool) error {
	paths, err := examples.Write(dir, overwrite)
	for _, p := range paths {
		fmt.Fprintf(g.stdout, "wrote %s\n", p)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(g.stdout, "\ntry:")
	fmt.Fprintf(g.stdout, "  entrosim run --config %s/run.yaml %s/net.yaml %s/zone.yaml out.xml\n", dir, dir, dir)
	return nil
}
