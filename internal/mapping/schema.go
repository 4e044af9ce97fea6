package mapping

import (
	"formflow/internal/common"
)

// MappingFile is the root of a translation table document.
type MappingFile struct {
	Version string        `yaml:"version,omitempty"`
	Forms   []FormMapping `yaml:"forms"`
}

// FormMapping translates aggregated keys into one form's field names.
type FormMapping struct {
	// Form is the target form type, e.g. "SchedC" or "Schedule 1".
	Form string `yaml:"form"`

	// Columns marks a form aggregated per property column. Each column is
	// mapped separately and its letter is appended to every target name.
	Columns bool `yaml:"columns,omitempty"`

	// OneToOne maps an aggregated key straight to a field name. The loader
	// expands it into Fields ahead of the explicit mappings.
	OneToOne map[string]string `yaml:"121,omitempty"`

	Fields []FieldMapping `yaml:"fields,omitempty"`

	// Ignore lists aggregated keys that are deliberately left unmapped,
	// typically because only the calculation reads them.
	Ignore []string `yaml:"ignore,omitempty"`
}

// FieldMapping fills Target fields from Source keys.
type FieldMapping struct {
	Source Names `yaml:"source"`
	Target Names `yaml:"target"`

	// Transform names a registered transform. Required when more than one
	// key feeds the mapping.
	Transform string `yaml:"transform,omitempty"`
}

// Names is a list of aggregated keys or field names. In YAML it is written
// either as a single scalar or as a sequence.
type Names []string

// Arity describes how many keys feed how many fields.
type Arity int

const (
	OneToOne Arity = iota // one key, one field
	Fanout                // one key copied into several fields
	Combine               // several keys folded into one field
	Reshape               // several keys spread over several fields
)

func (a Arity) String() string {
	switch a {
	case OneToOne:
		return "1:1"
	case Fanout:
		return "1:N"
	case Combine:
		return "N:1"
	case Reshape:
		return "N:M"
	default:
		return common.UnknownStr
	}
}

// NeedsTransform reports whether values for a can only be produced by a
// transform. A single key can always be copied as is.
func (a Arity) NeedsTransform() bool {
	return a == Combine || a == Reshape
}

// Arity classifies fm by its source and target counts.
func (fm *FieldMapping) Arity() Arity {
	many := func(n Names) bool { return len(n) > 1 }

	switch {
	case many(fm.Source) && many(fm.Target):
		return Reshape
	case many(fm.Source):
		return Combine
	case many(fm.Target):
		return Fanout
	default:
		return OneToOne
	}
}
