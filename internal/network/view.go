package network

import (
	"fmt"
	"slices"
)

// View is a subset of a Net's species and reactions. It implements
// dynamo.View.
type View struct {
	label     string
	net       *Net
	species   []int
	reactions []int
	member    []bool
}

func (v *View) Label() string {
	return v.label
}

func (v *View) Net() *Net {
	return v.net
}

func (v *View) Contains(species int) bool {
	return species >= 0 && species < len(v.member) && v.member[species]
}

func (v *View) SpeciesNames() []string {
	names := make([]string, len(v.species))
	for k, i := range v.species {
		names[k] = v.net.species[i].Name
	}
	return names
}

func (v *View) ReactionLabels() []string {
	labels := make([]string, len(v.reactions))
	for k, j := range v.reactions {
		labels[k] = v.net.reactions[j].Label
	}
	return labels
}

// NewView selects species with nucFilter and, among the reactions whose
// nuclides are all selected, those matching reacFilter.
func (n *Net) NewView(label, nucFilter, reacFilter string) (*View, error) {
	nf, err := CompileFilter(nucFilter)
	if err != nil {
		return nil, err
	}
	rf, err := CompileFilter(reacFilter)
	if err != nil {
		return nil, err
	}

	member := make([]bool, len(n.species))
	for i, s := range n.species {
		ok, err := nf.Match(map[string]any{"z": s.Z, "a": s.A, "n": s.N(), "name": s.Name})
		if err != nil {
			return nil, fmt.Errorf("view %s: %w", label, err)
		}
		member[i] = ok
	}

	return n.restrict(label, member, func(_ int, r compiledReaction) (bool, error) {
		return rf.Match(map[string]any{
			"label":     r.Label,
			"q":         r.q,
			"reactants": r.Reactants,
			"products":  r.Products,
		})
	})
}

// FullView selects the whole network.
func (n *Net) FullView(label string) *View {
	member := make([]bool, len(n.species))
	for i := range member {
		member[i] = true
	}
	v, _ := n.restrict(label, member, nil)
	return v
}

// Restrict returns v limited to the species marked active.
func (v *View) Restrict(active []bool) *View {
	member := make([]bool, len(v.member))
	for i := range member {
		member[i] = v.member[i] && i < len(active) && active[i]
	}
	inView := make(map[int]bool, len(v.reactions))
	for _, j := range v.reactions {
		inView[j] = true
	}
	r, _ := v.net.restrict(v.label, member, func(j int, _ compiledReaction) (bool, error) {
		return inView[j], nil
	})
	return r
}

func (n *Net) restrict(label string, member []bool, keep func(int, compiledReaction) (bool, error)) (*View, error) {
	v := &View{label: label, net: n, member: member}
	for i, ok := range member {
		if ok {
			v.species = append(v.species, i)
		}
	}

	for j, r := range n.reactions {
		if !slices.ContainsFunc(r.in, func(i int) bool { return !member[i] }) &&
			!slices.ContainsFunc(r.out, func(i int) bool { return !member[i] }) {
			if keep != nil {
				ok, err := keep(j, r)
				if err != nil {
					return nil, fmt.Errorf("view %s: %w", label, err)
				}
				if !ok {
					continue
				}
			}
			v.reactions = append(v.reactions, j)
		}
	}
	return v, nil
}
