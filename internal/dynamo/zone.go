package dynamo

import (
	"fmt"
	"sort"
	"strconv"
)

// Well-known extension property keys.
const (
	PropMuNueKT  = "mu_nue_kT"
	PropParticle = "particle"
	PropSolver   = "solver"
	PropX0       = "x0"
	PropX1       = "x1"
	// PropJerk is written to checkpoints only; the engine never reads it.
	PropJerk = "jerk"
)

// PropertyStore is the engine-specific extension state of a zone.
type PropertyStore interface {
	Float(key string) (float64, error)
	SetFloat(key string, v float64)
	String(key string) (string, error)
	SetString(key, v string)
	Has(key string) bool
	Keys() []string
}

// Zone is the committed physical state of one network zone.
type Zone struct {
	Label   string
	Time    float64
	Dtime   float64
	T9      float64
	Rho     float64
	Entropy float64
	Props   PropertyStore
}

func NewZone(label string) *Zone {
	return &Zone{Label: label, Props: NewProperties()}
}

// Properties is a string-backed PropertyStore.
type Properties struct {
	values map[string]string
}

func NewProperties() *Properties {
	return &Properties{values: make(map[string]string)}
}

func (p *Properties) Float(key string) (float64, error) {
	s, ok := p.values[key]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingProperty, key)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("property %s: %w", key, err)
	}
	return v, nil
}

func (p *Properties) SetFloat(key string, v float64) {
	p.values[key] = strconv.FormatFloat(v, 'g', -1, 64)
}

func (p *Properties) String(key string) (string, error) {
	s, ok := p.values[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingProperty, key)
	}
	return s, nil
}

func (p *Properties) SetString(key, v string) {
	p.values[key] = v
}

func (p *Properties) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Keys returns the property names in sorted order.
func (p *Properties) Keys() []string {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
