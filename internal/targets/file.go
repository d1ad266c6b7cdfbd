package targets

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hamed0406/pingwatch/internal/domain"
)

// LoadFile reads targets from a YAML or JSON file. Two shapes are accepted:
//
//	- {address: 10.0.0.1, label: core-switch}
//
// or a mapping of label to address, kept in document order:
//
//	core-switch: 10.0.0.1
func LoadFile(path string) ([]domain.Target, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}
	ts, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("parse targets file %s: %w", path, err)
	}
	return ts, nil
}

// Parse decodes the LoadFile formats from memory.
func Parse(b []byte) ([]domain.Target, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var ts []domain.Target
		if err := root.Decode(&ts); err != nil {
			return nil, err
		}
		return ts, nil

	case yaml.MappingNode:
		ts := make([]domain.Target, 0, len(root.Content)/2)
		for i := 0; i+1 < len(root.Content); i += 2 {
			k, v := root.Content[i], root.Content[i+1]
			if v.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: address for %q must be a string", v.Line, k.Value)
			}
			ts = append(ts, domain.Target{Address: v.Value, Label: k.Value})
		}
		return ts, nil
	}
	return nil, fmt.Errorf("line %d: expected a list or a mapping of targets", root.Line)
}
