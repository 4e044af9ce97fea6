package mapping

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"formflow/internal/common"
)

// UnmarshalYAML accepts a scalar or a sequence of scalars. Entries are
// trimmed; an empty scalar yields no names, an empty sequence entry is an
// error.
func (n *Names) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}

		if s = strings.TrimSpace(s); s == "" {
			*n = Names{}
		} else {
			*n = Names{s}
		}

		return nil

	case yaml.SequenceNode:
		out := make(Names, 0, len(node.Content))

		for _, item := range node.Content {
			var s string
			if err := item.Decode(&s); err != nil {
				return err
			}

			s = strings.TrimSpace(s)
			if s == "" {
				return fmt.Errorf("line %d: empty name in list", item.Line)
			}

			out = append(out, s)
		}

		*n = out

		return nil

	default:
		return fmt.Errorf("line %d: expected a name or a list of names", node.Line)
	}
}

// MarshalYAML writes a single name as a scalar.
func (n Names) MarshalYAML() (any, error) {
	if len(n) == 1 {
		return n[0], nil
	}

	return []string(n), nil
}

// First returns the first name, or "" when there is none.
func (n Names) First() string {
	v, _ := common.First(n)
	return v
}

func (n Names) IsEmpty() bool {
	return common.IsEmpty(n)
}
