// Package stepctl chooses the next integration step from the last
// accepted one.
package stepctl

import (
	"math"

	"github.com/san-kum/entrosim/internal/dynamo"
)

// Controller bounds the relative change of every state component and
// honors the engine's own recommendation. Steps are never retried.
type Controller struct {
	RegX float64
	XLim []float64
	RegT float64
	RegY float64
	YMin float64
}

func New() *Controller {
	return &Controller{
		RegX: 0.15,
		XLim: []float64{1e-10, 1, 1e-5},
		RegT: 0.15,
		RegY: 0.15,
		YMin: 1e-10,
	}
}

// Next proposes the step following one of size dt that took xOld to x.
func (c *Controller) Next(x, xOld dynamo.State, dt float64, advisor dynamo.StepAdvisor) float64 {
	next := math.Inf(1)

	for i := range x {
		lim := 0.0
		if i < len(c.XLim) {
			lim = c.XLim[i]
		}
		if math.Abs(x[i]) <= lim {
			continue
		}
		delta := math.Abs(x[i]-xOld[i]) / math.Abs(x[i])
		if delta > 0 {
			next = math.Min(next, c.RegX*dt/delta)
		}
	}

	if advisor != nil {
		if rec := advisor.RecommendedStep(dt, c.RegT, c.RegY, c.YMin); rec > 0 {
			next = math.Min(next, rec)
		}
	}

	if math.IsInf(next, 1) {
		return dt
	}
	return next
}

// Clamp shrinks dt so that t + dt does not pass tEnd and reports whether
// it did. A clamped step is meant to land exactly on tEnd.
func Clamp(t, dt, tEnd float64) (float64, bool) {
	if t+dt >= tEnd {
		return tEnd - t, true
	}
	return dt, false
}
