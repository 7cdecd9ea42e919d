package network

import (
	"fmt"
	"os"

	"github.com/san-kum/entrosim/internal/dynamo"
	"gopkg.in/yaml.v3"
)

type netFile struct {
	Species   []Species  `yaml:"species"`
	Reactions []Reaction `yaml:"reactions"`
}

// ZoneFile is the initial state of a zone.
type ZoneFile struct {
	Label         string             `yaml:"label"`
	MassFractions map[string]float64 `yaml:"mass_fractions"`
	Properties    map[string]string  `yaml:"properties,omitempty"`
}

func LoadNet(path string) (*Net, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read network: %w", err)
	}
	return ParseNet(data)
}

func ParseNet(data []byte) (*Net, error) {
	var f netFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parse network: %v", dynamo.ErrConfiguration, err)
	}
	if len(f.Species) == 0 {
		return nil, dynamo.Configf("network defines no species")
	}
	return NewNet(f.Species, f.Reactions)
}

func LoadZone(path string) (*ZoneFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read zone: %w", err)
	}
	var z ZoneFile
	if err := yaml.Unmarshal(data, &z); err != nil {
		return nil, fmt.Errorf("%w: parse zone: %v", dynamo.ErrConfiguration, err)
	}
	if z.Label == "" {
		z.Label = "0"
	}
	return &z, nil
}

// NewZone builds the dynamo zone and abundances of zf over net.
func (zf *ZoneFile) NewZone(net *Net) (*dynamo.Zone, []float64, error) {
	y, err := net.AbundancesFromMassFractions(zf.MassFractions)
	if err != nil {
		return nil, nil, fmt.Errorf("zone %s: %w", zf.Label, err)
	}
	zone := dynamo.NewZone(zf.Label)
	for k, v := range zf.Properties {
		zone.Props.SetString(k, v)
	}
	return zone, y, nil
}
