package network

import (
	"fmt"
	"math"

	"github.com/san-kum/entrosim/internal/dynamo"
)

const (
	avogadro = 6.02214076e23
	kBoltz   = 0.0861733 // MeV per T9
	// photon entropy per nucleon is photonCoeff * T9^3 / rho_5
	photonCoeff = 1.2133
	// n_Q = quantumDensity * (quantumScale * A * T9)^1.5 per cm^3
	quantumDensity = 1e39
	quantumScale   = 3.28097e-4
)

// Entropy is the entropy per nucleon (in units of k) of photons and an
// ideal Boltzmann gas of nuclei at the zone's T9 and rho.
func (e *Engine) Entropy() (float64, error) {
	t9, rho := e.zone.T9, e.zone.Rho
	if !(t9 > 0) || !(rho > 0) || math.IsInf(t9, 0) || math.IsInf(rho, 0) {
		return 0, fmt.Errorf("%w: entropy at T9=%g rho=%g", dynamo.ErrEngine, t9, rho)
	}

	s := photonCoeff * t9 * t9 * t9 / (rho / 1e5)
	for i, sp := range e.net.species {
		y := e.y[i]
		if y <= 0 {
			continue
		}
		// log(n_Q / n_i) stays finite as y goes to 0, where the ratio
		// itself overflows
		logNQ := math.Log(quantumDensity) + 1.5*math.Log(quantumScale*float64(sp.A)*t9)
		logNI := math.Log(rho*avogadro) + math.Log(y)
		s += y * (2.5 + math.Log(sp.Weight()) + logNQ - logNI)
	}
	return s, nil
}

// EntropyGenerationRate is sum(flow * Q) / kT over the view's reactions.
func (e *Engine) EntropyGenerationRate(v dynamo.View) (float64, error) {
	view, err := e.viewOf(v)
	if err != nil {
		return 0, err
	}
	t9 := e.zone.T9
	if !(t9 > 0) {
		return 0, fmt.Errorf("%w: entropy generation at T9=%g", dynamo.ErrEngine, t9)
	}

	sum := 0.0
	for _, j := range view.reactions {
		r := &e.net.reactions[j]
		sum += e.flow(r, e.y) * r.q
	}
	return sum / (kBoltz * t9), nil
}
