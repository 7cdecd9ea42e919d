package export

import (
	"fmt"
	"io"
	"os"

	"github.com/san-kum/entrosim/internal/storage"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// DefaultSeries are the panels drawn when none are requested.
var DefaultSeries = []string{"t9", "rho", "entropy", "x0"}

var labels = map[string]string{
	"x0":      "scale factor x0",
	"x1":      "dx0/dt (1/s)",
	"entropy": "entropy (kB/nucleon)",
	"t9":      "T9",
	"rho":     "rho (g/cc)",
	"dt":      "dt (s)",
}

// logScaled series span many decades.
var logScaled = map[string]bool{"rho": true, "dt": true}

// WritePNG draws one panel per series against time, stacked vertically,
// sharing the time axis extent.
func WritePNG(w io.Writer, run *storage.Run, series []string, width, height vg.Length) error {
	if len(run.Times) == 0 {
		return fmt.Errorf("no data to plot")
	}
	if len(series) == 0 {
		series = DefaultSeries
	}

	plots := make([][]*plot.Plot, len(series))
	for i, name := range series {
		p, err := panel(run, name)
		if err != nil {
			return err
		}
		if i < len(series)-1 {
			p.X.Label.Text = ""
		}
		plots[i] = []*plot.Plot{p}
	}

	img := vgimg.New(width, height)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      len(series),
		Cols:      1,
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(4),
		PadRight:  vg.Points(8),
		PadY:      vg.Points(6),
	}

	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	png := vgimg.PngCanvas{Canvas: img}
	_, err := png.WriteTo(w)
	return err
}

func SavePNG(path string, run *storage.Run, series []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	height := vg.Length(len(series)) * 2 * vg.Inch
	if len(series) == 0 {
		height = vg.Length(len(DefaultSeries)) * 2 * vg.Inch
	}
	if err := WritePNG(f, run, series, 8*vg.Inch, height); err != nil {
		return err
	}
	return f.Close()
}

func panel(run *storage.Run, name string) (*plot.Plot, error) {
	ys, err := run.Series(name)
	if err != nil {
		return nil, err
	}

	pts := make(plotter.XYs, 0, len(ys))
	for i, y := range ys {
		if logScaled[name] && y <= 0 {
			continue
		}
		pts = append(pts, plotter.XY{X: run.Times[i], Y: y})
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("series %s has no plottable points", name)
	}

	p := plot.New()
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = labels[name]
	if logScaled[name] {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("series %s: %w", name, err)
	}
	p.Add(line)
	return p, nil
}
