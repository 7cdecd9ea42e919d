package network

import (
	"testing"

	"github.com/san-kum/entrosim/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lightSpecies() []Species {
	return []Species{
		{Name: "n", Z: 0, A: 1, MassExcess: 8.0713, Spin: 0.5},
		{Name: "h1", Z: 1, A: 1, MassExcess: 7.2890, Spin: 0.5},
		{Name: "h2", Z: 1, A: 2, MassExcess: 13.1357, Spin: 1},
		{Name: "he4", Z: 2, A: 4, MassExcess: 2.4249, Spin: 0},
	}
}

func decayReaction() Reaction {
	return Reaction{
		Label:     "n decay",
		Reactants: []string{"n"},
		Products:  []string{"h1", "electron", "anti-neutrino_e"},
		Rate:      Rate{A: 1.0 / 880},
	}
}

func TestNewNetValidation(t *testing.T) {
	tests := []struct {
		name      string
		species   []Species
		reactions []Reaction
	}{
		{"duplicate species", append(lightSpecies(), Species{Name: "n", A: 1}), nil},
		{"lepton as species", []Species{{Name: "electron", A: 1}}, nil},
		{"z above a", []Species{{Name: "x", Z: 3, A: 2}}, nil},
		{"charge", lightSpecies(), []Reaction{{Label: "bad", Reactants: []string{"n"}, Products: []string{"h1"}}}},
		{"baryons", lightSpecies(), []Reaction{{Label: "bad", Reactants: []string{"h2"}, Products: []string{"h1"}}}},
		{"unknown", lightSpecies(), []Reaction{{Label: "bad", Reactants: []string{"li7"}, Products: []string{"he4"}}}},
		{"no products", lightSpecies(), []Reaction{{Label: "bad", Reactants: []string{"n"}}}},
		{"duplicate reaction", lightSpecies(), []Reaction{decayReaction(), decayReaction()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNet(tt.species, tt.reactions)
			assert.ErrorIs(t, err, dynamo.ErrConfiguration)
		})
	}
}

func TestNetQAndLabels(t *testing.T) {
	net, err := NewNet(lightSpecies(), []Reaction{
		decayReaction(),
		{Reactants: []string{"h2", "h2"}, Products: []string{"he4"}, Rate: Rate{A: 1}},
	})
	require.NoError(t, err)

	q, ok := net.Q("n decay")
	require.True(t, ok)
	assert.InDelta(t, 0.7823, q, 1e-9)

	q, ok = net.Q("h2 + h2 -> he4")
	require.True(t, ok, "default label")
	assert.InDelta(t, 2*13.1357-2.4249, q, 1e-9)
	assert.Equal(t, 0.5, net.reactions[1].symm)

	_, ok = net.Q("missing")
	assert.False(t, ok)
}

func TestRateLambda(t *testing.T) {
	assert.Equal(t, 0.0, Rate{}.Lambda(1))
	assert.Equal(t, 2.0, Rate{A: 2}.Lambda(5))
	assert.InDelta(t, 3*4*0.36787944117144233, Rate{A: 3, N: 2, B: 2}.Lambda(2), 1e-12)
}

func TestAbundancesFromMassFractions(t *testing.T) {
	net, err := NewNet(lightSpecies(), nil)
	require.NoError(t, err)

	y, err := net.AbundancesFromMassFractions(map[string]float64{"h1": 0.7, "he4": 0.3})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.7, 0, 0.075}, y)

	_, err = net.AbundancesFromMassFractions(map[string]float64{"c12": 1})
	assert.ErrorIs(t, err, dynamo.ErrConfiguration)
}

func TestLoadNet(t *testing.T) {
	net, err := LoadNet("testdata/net.yaml")
	require.NoError(t, err)
	assert.Len(t, net.Species(), 4)
	assert.Len(t, net.Reactions(), 3)

	_, err = LoadNet("testdata/bad_charge.yaml")
	assert.ErrorIs(t, err, dynamo.ErrConfiguration)

	_, err = LoadNet("testdata/missing.yaml")
	assert.Error(t, err)
}

func TestLoadZone(t *testing.T) {
	net, err := LoadNet("testdata/net.yaml")
	require.NoError(t, err)
	zf, err := LoadZone("testdata/zone.yaml")
	require.NoError(t, err)

	zone, y, err := zf.NewZone(net)
	require.NoError(t, err)
	assert.Equal(t, "0", zone.Label)
	assert.Equal(t, []float64{0.1, 0.9, 0, 0}, y)

	solver, err := zone.Props.String(dynamo.PropSolver)
	require.NoError(t, err)
	assert.Equal(t, "arrow", solver)
}
