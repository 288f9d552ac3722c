package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// PathList is a list of site paths. In YAML it accepts both a single
// scalar and a sequence, so `paths: /` and `paths: [/, /about]` are
// equally valid.
type PathList []string

func (p *PathList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*p = PathList{s}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := value.Decode(&items); err != nil {
			return err
		}
		*p = PathList(items)
		return nil
	default:
		return fmt.Errorf("paths must be a string or a list of strings (line %d)", value.Line)
	}
}
