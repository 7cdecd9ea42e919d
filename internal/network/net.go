package network

import (
	"fmt"
	"strings"

	"github.com/san-kum/entrosim/internal/dynamo"
)

type compiledReaction struct {
	Reaction
	in    []int // nuclide reactant indices, repeated per multiplicity
	out   []int
	q     float64
	symm  float64 // 1 / prod(n_k!) over identical reactants
	order int
}

// Net is an immutable, validated reaction network.
type Net struct {
	species   []Species
	index     map[string]int
	reactions []compiledReaction
}

func NewNet(species []Species, reactions []Reaction) (*Net, error) {
	n := &Net{index: make(map[string]int, len(species))}

	for _, s := range species {
		switch {
		case s.Name == "":
			return nil, dynamo.Configf("species with empty name")
		case isLepton(s.Name):
			return nil, dynamo.Configf("species %q is reserved for leptons", s.Name)
		case s.A < 1 || s.Z < 0 || s.Z > s.A:
			return nil, dynamo.Configf("species %s: invalid z=%d a=%d", s.Name, s.Z, s.A)
		case s.Spin < 0:
			return nil, dynamo.Configf("species %s: negative spin", s.Name)
		}
		if _, dup := n.index[s.Name]; dup {
			return nil, dynamo.Configf("duplicate species %s", s.Name)
		}
		n.index[s.Name] = len(n.species)
		n.species = append(n.species, s)
	}

	labels := make(map[string]bool, len(reactions))
	for _, r := range reactions {
		cr, err := n.compile(r)
		if err != nil {
			return nil, err
		}
		if labels[cr.Label] {
			return nil, dynamo.Configf("duplicate reaction %q", cr.Label)
		}
		labels[cr.Label] = true
		n.reactions = append(n.reactions, cr)
	}

	return n, nil
}

func (n *Net) compile(r Reaction) (compiledReaction, error) {
	if len(r.Reactants) == 0 || len(r.Products) == 0 {
		return compiledReaction{}, dynamo.Configf("reaction %q needs reactants and products", r.Label)
	}
	if r.Label == "" {
		r.Label = strings.Join(r.Reactants, " + ") + " -> " + strings.Join(r.Products, " + ")
	}
	if r.Rate.A < 0 {
		return compiledReaction{}, dynamo.Configf("reaction %q: negative rate", r.Label)
	}

	cr := compiledReaction{Reaction: r, symm: 1}
	var charge, baryons int

	side := func(names []string, sign int, idx *[]int) error {
		for _, name := range names {
			if c, ok := leptonCharge[name]; ok {
				charge += sign * c
				continue
			}
			i, ok := n.index[name]
			if !ok {
				return dynamo.Configf("reaction %q: unknown species %s", r.Label, name)
			}
			s := n.species[i]
			charge += sign * s.Z
			baryons += sign * s.A
			cr.q += float64(sign) * s.MassExcess
			*idx = append(*idx, i)
		}
		return nil
	}

	if err := side(r.Reactants, 1, &cr.in); err != nil {
		return compiledReaction{}, err
	}
	if err := side(r.Products, -1, &cr.out); err != nil {
		return compiledReaction{}, err
	}
	if len(cr.in) == 0 {
		return compiledReaction{}, dynamo.Configf("reaction %q has no nuclide reactant", r.Label)
	}
	if charge != 0 {
		return compiledReaction{}, dynamo.Configf("reaction %q does not conserve charge", r.Label)
	}
	if baryons != 0 {
		return compiledReaction{}, dynamo.Configf("reaction %q does not conserve baryon number", r.Label)
	}

	counts := make(map[int]int)
	for _, i := range cr.in {
		counts[i]++
	}
	for _, c := range counts {
		for k := 2; k <= c; k++ {
			cr.symm /= float64(k)
		}
	}
	cr.order = len(cr.in)

	return cr, nil
}

func (n *Net) Species() []Species {
	return append([]Species(nil), n.species...)
}

func (n *Net) Reactions() []Reaction {
	out := make([]Reaction, len(n.reactions))
	for i, r := range n.reactions {
		out[i] = r.Reaction
	}
	return out
}

// Lookup returns the index of a species.
func (n *Net) Lookup(name string) (int, bool) {
	i, ok := n.index[name]
	return i, ok
}

// Q returns the energy released by a reaction in MeV.
func (n *Net) Q(label string) (float64, bool) {
	for _, r := range n.reactions {
		if r.Label == label {
			return r.q, true
		}
	}
	return 0, false
}

// AbundancesFromMassFractions converts X to Y = X/A in species order.
func (n *Net) AbundancesFromMassFractions(x map[string]float64) ([]float64, error) {
	y := make([]float64, len(n.species))
	for name, xi := range x {
		i, ok := n.index[name]
		if !ok {
			return nil, dynamo.Configf("mass fraction for unknown species %s", name)
		}
		if xi < 0 {
			return nil, dynamo.Configf("negative mass fraction for %s", name)
		}
		y[i] = xi / float64(n.species[i].A)
	}
	return y, nil
}

func (n *Net) String() string {
	return fmt.Sprintf("net(%d species, %d reactions)", len(n.species), len(n.reactions))
}
