package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// YesNo is a boolean option spelled yes/no on the command line and in
// config files. true/false and 1/0 are accepted too.
type YesNo bool

func ParseYesNo(s string) (YesNo, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1", "on":
		return true, nil
	case "no", "n", "false", "0", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid yes/no value %q", s)
}

func (v YesNo) String() string {
	if v {
		return "yes"
	}
	return "no"
}

func (v *YesNo) Set(s string) error {
	parsed, err := ParseYesNo(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v *YesNo) Type() string {
	return "yes|no"
}

func (v *YesNo) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: yes/no value must be a scalar", node.Line)
	}
	if err := v.Set(node.Value); err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	return nil
}

func (v YesNo) MarshalYAML() (any, error) {
	return v.String(), nil
}
