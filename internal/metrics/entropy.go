package metrics

import "github.com/san-kum/entrosim/internal/dynamo"

// EntropyGain is the entropy per nucleon generated since the initial state.
type EntropyGain struct {
	name    string
	initial float64
	current float64
	samples int
}

func NewEntropyGain() *EntropyGain {
	return &EntropyGain{name: "entropy_gain"}
}

func (e *EntropyGain) Name() string { return e.name }

func (e *EntropyGain) Observe(info dynamo.StepInfo) {
	if e.samples == 0 {
		e.initial = info.Entropy
	}
	e.current = info.Entropy
	e.samples++
}

func (e *EntropyGain) Value() float64 {
	return e.current - e.initial
}

func (e *EntropyGain) Reset() {
	e.initial = 0
	e.current = 0
	e.samples = 0
}
