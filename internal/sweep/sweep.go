// Package sweep runs one experiment per point of a parameter grid, several
// at a time, and collects their metrics.
package sweep

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/entrosim/internal/dynamo"
	"golang.org/x/sync/errgroup"
)

// Axis is one swept parameter.
type Axis struct {
	Param  string
	Values []float64
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

// Logspace returns n logarithmically spaced values from lo to hi inclusive.
func Logspace(lo, hi float64, n int) []float64 {
	out := Linspace(math.Log10(lo), math.Log10(hi), n)
	for i, v := range out {
		out[i] = math.Pow(10, v)
	}
	out[0] = lo
	if n > 1 {
		out[n-1] = hi
	}
	return out
}

// ParseAxis reads "name=v1,v2,..." or "name=lo:hi:n" (add "log" as a
// fourth field for logarithmic spacing).
func ParseAxis(arg string) (Axis, error) {
	name, values, ok := strings.Cut(arg, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" || values == "" {
		return Axis{}, fmt.Errorf("%w: axis %q: want name=v1,v2 or name=lo:hi:n", dynamo.ErrConfiguration, arg)
	}

	if strings.Contains(values, ":") {
		parts := strings.Split(values, ":")
		if len(parts) != 3 && len(parts) != 4 {
			return Axis{}, fmt.Errorf("%w: axis %q: range needs lo:hi:n", dynamo.ErrConfiguration, arg)
		}
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil || n < 1 {
			return Axis{}, fmt.Errorf("%w: axis %q: bad range", dynamo.ErrConfiguration, arg)
		}
		if len(parts) == 4 {
			if parts[3] != "log" || lo <= 0 || hi <= 0 {
				return Axis{}, fmt.Errorf("%w: axis %q: log spacing needs positive bounds", dynamo.ErrConfiguration, arg)
			}
			return Axis{Param: name, Values: Logspace(lo, hi, n)}, nil
		}
		return Axis{Param: name, Values: Linspace(lo, hi, n)}, nil
	}

	var vals []float64
	for _, field := range strings.Split(values, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return Axis{}, fmt.Errorf("%w: axis %q: %v", dynamo.ErrConfiguration, arg, err)
		}
		vals = append(vals, v)
	}
	return Axis{Param: name, Values: vals}, nil
}

// Runner integrates one grid point and returns its result.
type Runner func(ctx context.Context, params map[string]float64) (*dynamo.Result, error)

// Point is the outcome of one grid point.
type Point struct {
	Params  map[string]float64
	Metrics map[string]float64
	Steps   int
	Final   dynamo.State
	Err     error
}

type Sweep struct {
	axes    []Axis
	workers int
}

func New(axes []Axis, workers int) *Sweep {
	if workers < 1 {
		workers = 1
	}
	return &Sweep{axes: axes, workers: workers}
}

// Grid returns the cartesian product of the axes, the last axis varying
// fastest.
func (s *Sweep) Grid() []map[string]float64 {
	var grid []map[string]float64
	s.expand(0, map[string]float64{}, &grid)
	return grid
}

func (s *Sweep) expand(depth int, current map[string]float64, grid *[]map[string]float64) {
	if depth == len(s.axes) {
		*grid = append(*grid, current)
		return
	}
	axis := s.axes[depth]
	for _, v := range axis.Values {
		next := make(map[string]float64, len(current)+1)
		for k, cv := range current {
			next[k] = cv
		}
		next[axis.Param] = v
		s.expand(depth+1, next, grid)
	}
}

// Run evaluates every grid point with at most workers runs in flight.
// A failed point records its error and does not stop the others; the
// returned error is only ctx's.
func (s *Sweep) Run(ctx context.Context, run Runner) ([]Point, error) {
	grid := s.Grid()
	points := make([]Point, len(grid))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, params := range grid {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			p := Point{Params: params}
			result, err := run(gctx, params)
			p.Err = err
			if result != nil {
				p.Metrics = result.Metrics
				p.Steps = result.StepsTaken
				p.Final = result.Final()
			}
			points[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return points, err
	}
	return points, ctx.Err()
}

// Best returns the successful point with the smallest (or, with maximize,
// largest) value of metric.
func Best(points []Point, metric string, maximize bool) (Point, bool) {
	var best Point
	found := false
	for _, p := range points {
		if p.Err != nil {
			continue
		}
		v, ok := p.Metrics[metric]
		if !ok || math.IsNaN(v) {
			continue
		}
		if !found {
			best, found = p, true
			continue
		}
		bv := best.Metrics[metric]
		if (maximize && v > bv) || (!maximize && v < bv) {
			best = p
		}
	}
	return best, found
}

// ParamNames returns the swept parameter names in axis order.
func (s *Sweep) ParamNames() []string {
	names := make([]string, len(s.axes))
	for i, a := range s.axes {
		names[i] = a.Param
	}
	return names
}

// MetricNames returns the sorted union of metric names over points.
func MetricNames(points []Point) []string {
	seen := map[string]bool{}
	for _, p := range points {
		for k := range p.Metrics {
			seen[k] = true
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
