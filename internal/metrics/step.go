package metrics

import (
	"math"

	"github.com/san-kum/entrosim/internal/dynamo"
)

// MinStep is the smallest accepted step size. The initial state carries no
// step and is ignored.
type MinStep struct {
	name string
	min  float64
}

func NewMinStep() *MinStep {
	return &MinStep{name: "min_dt", min: math.Inf(1)}
}

func (m *MinStep) Name() string { return m.name }

func (m *MinStep) Observe(info dynamo.StepInfo) {
	if info.Step == 0 {
		return
	}
	m.min = math.Min(m.min, info.Dt)
}

func (m *MinStep) Value() float64 {
	return m.min
}

func (m *MinStep) Reset() {
	m.min = math.Inf(1)
}

// MaxErrorEstimate is the largest local error estimate reported by the
// integrator.
type MaxErrorEstimate struct {
	name string
	max  float64
}

func NewMaxErrorEstimate() *MaxErrorEstimate {
	return &MaxErrorEstimate{name: "max_error_estimate"}
}

func (m *MaxErrorEstimate) Name() string { return m.name }

func (m *MaxErrorEstimate) Observe(info dynamo.StepInfo) {
	m.max = math.Max(m.max, info.ErrorEstimate)
}

func (m *MaxErrorEstimate) Value() float64 {
	return m.max
}

func (m *MaxErrorEstimate) Reset() {
	m.max = 0
}

// MeanStep is the average accepted step size.
type MeanStep struct {
	name    string
	sum     float64
	samples int
}

func NewMeanStep() *MeanStep {
	return &MeanStep{name: "mean_dt"}
}

func (m *MeanStep) Name() string { return m.name }

func (m *MeanStep) Observe(info dynamo.StepInfo) {
	if info.Step == 0 {
		return
	}
	m.sum += info.Dt
	m.samples++
}

func (m *MeanStep) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanStep) Reset() {
	m.sum = 0
	m.samples = 0
}
