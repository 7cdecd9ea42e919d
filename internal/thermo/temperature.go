package thermo

import (
	"fmt"
	"math"

	"github.com/san-kum/entrosim/internal/dynamo"
)

const (
	DefaultMaxExpansions = 64
	DefaultTolerance     = 1e-12
	DefaultMaxIterations = 200
)

// Solver finds the temperature at which an objective changes sign. The
// initial bracket is [guess/k, guess*k] with k = RootFactor; k is squared
// on every failed expansion.
type Solver struct {
	RootFactor    float64
	MaxExpansions int
	Tolerance     float64
	MaxIterations int
}

func NewSolver(rootFactor float64) *Solver {
	return &Solver{
		RootFactor:    rootFactor,
		MaxExpansions: DefaultMaxExpansions,
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
	}
}

// Solve returns T9 with f(T9) = 0, searching outward from guess.
func (s *Solver) Solve(guess float64, f func(float64) (float64, error)) (float64, error) {
	if !(guess > 0) || math.IsInf(guess, 0) {
		return 0, fmt.Errorf("%w: guess %g outside (0, +Inf)", dynamo.ErrRootNotBracketed, guess)
	}
	if !(s.RootFactor > 1) {
		return 0, fmt.Errorf("%w: root factor %g must be > 1", dynamo.ErrConfiguration, s.RootFactor)
	}

	k := s.RootFactor
	lo, hi := guess/k, guess*k
	flo, err := f(lo)
	if err != nil {
		return 0, err
	}
	fhi, err := f(hi)
	if err != nil {
		return 0, err
	}

	for n := 0; sameSign(flo, fhi); n++ {
		if n >= s.MaxExpansions {
			return 0, fmt.Errorf("%w: [%g, %g] after %d expansions", dynamo.ErrRootNotBracketed, lo, hi, n)
		}
		k *= k
		lo, hi = guess/k, guess*k
		if !(lo > 0) || math.IsInf(hi, 1) {
			return 0, fmt.Errorf("%w: bracket around %g left (0, +Inf)", dynamo.ErrRootNotBracketed, guess)
		}
		if flo, err = f(lo); err != nil {
			return 0, err
		}
		if fhi, err = f(hi); err != nil {
			return 0, err
		}
	}

	return brent(f, lo, hi, flo, fhi, s.Tolerance, s.MaxIterations)
}

// ForEntropy solves entropy(T9) = target at the zone's density and the
// source's current composition, using the zone's T9 as the guess. Every
// trial temperature is written to the zone; the caller commits or restores.
func (s *Solver) ForEntropy(src dynamo.EntropySource, target float64) (float64, error) {
	zone := src.Zone()
	return s.Solve(zone.T9, func(t9 float64) (float64, error) {
		zone.T9 = t9
		e, err := src.Entropy()
		if err != nil {
			return 0, err
		}
		return e - target, nil
	})
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}
