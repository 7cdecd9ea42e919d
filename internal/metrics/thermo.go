package metrics

import (
	"math"

	"github.com/san-kum/entrosim/internal/dynamo"
)

type PeakTemperature struct {
	name string
	peak float64
}

func NewPeakTemperature() *PeakTemperature {
	return &PeakTemperature{name: "peak_t9"}
}

func (p *PeakTemperature) Name() string { return p.name }

func (p *PeakTemperature) Observe(info dynamo.StepInfo) {
	p.peak = math.Max(p.peak, info.T9)
}

func (p *PeakTemperature) Value() float64 {
	return p.peak
}

func (p *PeakTemperature) Reset() {
	p.peak = 0
}

// Expansion is the final scale factor relative to the initial one.
type Expansion struct {
	name    string
	initial float64
	current float64
}

func NewExpansion() *Expansion {
	return &Expansion{name: "expansion"}
}

func (e *Expansion) Name() string { return e.name }

func (e *Expansion) Observe(info dynamo.StepInfo) {
	if len(info.State) == 0 {
		return
	}
	if e.initial == 0 {
		e.initial = info.State[0]
	}
	e.current = info.State[0]
}

func (e *Expansion) Value() float64 {
	if e.initial == 0 {
		return 1
	}
	return e.current / e.initial
}

func (e *Expansion) Reset() {
	e.initial = 0
	e.current = 0
}
