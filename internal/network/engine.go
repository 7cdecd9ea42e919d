package network

import (
	"fmt"
	"math"

	"github.com/san-kum/entrosim/internal/dynamo"
)

// Engine evolves the abundances of one zone over a Net.
type Engine struct {
	net       *Net
	zone      *dynamo.Zone
	y, dy     []float64
	base      *View
	evolution *View
}

// NewEngine takes ownership of y (abundances in Net species order). A nil
// view evolves the full network.
func NewEngine(net *Net, zone *dynamo.Zone, y []float64, view *View) (*Engine, error) {
	if len(y) != len(net.species) {
		return nil, dynamo.Configf("%d abundances for %d species", len(y), len(net.species))
	}
	for i, v := range y {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, dynamo.Configf("abundance of %s is %g", net.species[i].Name, v)
		}
	}
	if view == nil {
		view = net.FullView("full")
	}
	if view.net != net {
		return nil, dynamo.Configf("view %s belongs to another network", view.label)
	}
	return &Engine{
		net:       net,
		zone:      zone,
		y:         y,
		dy:        make([]float64, len(y)),
		base:      view,
		evolution: view,
	}, nil
}

func (e *Engine) Net() *Net {
	return e.net
}

func (e *Engine) Zone() *dynamo.Zone {
	return e.zone
}

// EvolutionView is the configured view restricted by the last Prune.
func (e *Engine) EvolutionView() dynamo.View {
	return e.evolution
}

func (e *Engine) Y(name string) float64 {
	if i, ok := e.net.index[name]; ok {
		return e.y[i]
	}
	return 0
}

func (e *Engine) Save() dynamo.Composition {
	return dynamo.Composition{
		Abundances: append([]float64(nil), e.y...),
		Changes:    append([]float64(nil), e.dy...),
	}
}

func (e *Engine) Restore(c dynamo.Composition) {
	copy(e.y, c.Abundances)
	copy(e.dy, c.Changes)
}

func (e *Engine) Abundances() []dynamo.Abundance {
	out := make([]dynamo.Abundance, len(e.net.species))
	for i, s := range e.net.species {
		out[i] = dynamo.Abundance{
			Name:         s.Name,
			Z:            s.Z,
			A:            s.A,
			Y:            e.y[i],
			MassFraction: float64(s.A) * e.y[i],
		}
	}
	return out
}

// MassFractionSum is sum(A*Y) over all species.
func (e *Engine) MassFractionSum() float64 {
	sum := 0.0
	for i, s := range e.net.species {
		sum += float64(s.A) * e.y[i]
	}
	return sum
}

// RecommendedStep limits the relative abundance change of the last
// evolution to regY and the step growth to 1+regT.
func (e *Engine) RecommendedStep(prevDt, regT, regY, yMin float64) float64 {
	dt := prevDt * (1 + regT)
	for _, i := range e.evolution.species {
		if e.y[i] > yMin && e.dy[i] != 0 {
			dt = math.Min(dt, regY*prevDt*e.y[i]/math.Abs(e.dy[i]))
		}
	}
	return dt
}

// Prune limits evolution to species above threshold and the products of
// reactions among them.
func (e *Engine) Prune(threshold float64) {
	active := make([]bool, len(e.y))
	for i, y := range e.y {
		active[i] = y > threshold
	}
	grown := append([]bool(nil), active...)
	for _, j := range e.base.reactions {
		r := e.net.reactions[j]
		all := true
		for _, i := range r.in {
			all = all && active[i]
		}
		if all {
			for _, i := range r.out {
				grown[i] = true
			}
		}
	}
	e.evolution = e.base.Restrict(grown)
}

func (e *Engine) viewOf(v dynamo.View) (*View, error) {
	nv, ok := v.(*View)
	if !ok || nv == nil {
		return nil, fmt.Errorf("%w: view %T is not a network view", dynamo.ErrEngine, v)
	}
	if nv.net != e.net {
		return nil, fmt.Errorf("%w: view %s belongs to another network", dynamo.ErrEngine, nv.label)
	}
	return nv, nil
}
