package network

import "math"

// Species is a nuclide of a network.
type Species struct {
	Name       string  `yaml:"name" json:"name"`
	Z          int     `yaml:"z" json:"z"`
	A          int     `yaml:"a" json:"a"`
	MassExcess float64 `yaml:"mass_excess" json:"mass_excess"` // MeV
	Spin       float64 `yaml:"spin" json:"spin"`
}

func (s Species) N() int {
	return s.A - s.Z
}

// Weight is the ground-state statistical weight 2J+1.
func (s Species) Weight() float64 {
	return 2*s.Spin + 1
}

var leptonCharge = map[string]int{
	"electron":        -1,
	"positron":        1,
	"neutrino_e":      0,
	"anti-neutrino_e": 0,
}

func isLepton(name string) bool {
	_, ok := leptonCharge[name]
	return ok
}

// Rate is lambda(T9) = A * T9^N * exp(-B/T9).
type Rate struct {
	A float64 `yaml:"a" json:"a"`
	N float64 `yaml:"n" json:"n"`
	B float64 `yaml:"b" json:"b"`
}

func (r Rate) Lambda(t9 float64) float64 {
	if r.A == 0 {
		return 0
	}
	l := r.A
	if r.N != 0 {
		l *= math.Pow(t9, r.N)
	}
	if r.B != 0 {
		l *= math.Exp(-r.B / t9)
	}
	return l
}

// Reaction names its participants by species (or lepton) name.
type Reaction struct {
	Label     string   `yaml:"label" json:"label"`
	Reactants []string `yaml:"reactants" json:"reactants"`
	Products  []string `yaml:"products" json:"products"`
	Rate      Rate     `yaml:"rate" json:"rate"`
}
