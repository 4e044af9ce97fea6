package mapping

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"formflow/internal/aggregate"
	"formflow/internal/common"
	"formflow/internal/taxdoc"
)

// TransformFunc computes target values from source values. inputs is aligned
// with the mapping's sources and holds nil for absent keys; the result must be
// aligned with the targets, nil meaning "leave the target unset".
type TransformFunc func(inputs []*aggregate.Value, targets int) ([]*aggregate.Value, error)

// TransformDef describes a registered transform.
type TransformDef struct {
	// Name is the transform identifier used in field mappings.
	Name string

	// Sources is the exact number of source keys accepted, 0 for any.
	Sources int

	// Targets is the exact number of target fields produced, 0 for any.
	Targets int

	// Description is an optional human-readable description.
	Description string

	Func TransformFunc
}

// Accepts reports whether the transform fits a mapping's arity.
func (d *TransformDef) Accepts(sources, targets int) bool {
	if d.Sources != 0 && d.Sources != sources {
		return false
	}

	return d.Targets == 0 || d.Targets == targets
}

// TransformRegistry holds transform definitions and provides lookup.
type TransformRegistry struct {
	transforms map[string]*TransformDef
}

// NewTransformRegistry creates a new empty transform registry.
func NewTransformRegistry() *TransformRegistry {
	return &TransformRegistry{
		transforms: make(map[string]*TransformDef),
	}
}

// DefaultRegistry returns a registry holding the built-in transforms.
func DefaultRegistry() *TransformRegistry {
	r := NewTransformRegistry()
	r.Add(&TransformDef{
		Name:        "SplitName",
		Sources:     1,
		Targets:     2,
		Description: "splits a full name on the first whitespace run into first name and last name",
		Func:        splitName,
	})
	r.Add(&TransformDef{
		Name:        "SumAmounts",
		Targets:     1,
		Description: "adds the amounts of every present source",
		Func:        sumAmounts,
	})
	r.Add(&TransformDef{
		Name:        "FirstPresent",
		Targets:     1,
		Description: "takes the first source that is present",
		Func:        firstPresent,
	})

	return r
}

// Add adds a transform to the registry.
func (r *TransformRegistry) Add(def *TransformDef) {
	r.transforms[def.Name] = def
}

// Get returns a transform by name, or nil if not found.
func (r *TransformRegistry) Get(name string) *TransformDef {
	return r.transforms[name]
}

// Has returns true if a transform with the given name exists.
func (r *TransformRegistry) Has(name string) bool {
	_, exists := r.transforms[name]
	return exists
}

// Names returns all transform names, sorted.
func (r *TransformRegistry) Names() []string {
	names := make([]string, 0, len(r.transforms))
	for name := range r.transforms {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

var errNotText = errors.New("SplitName needs a text value")

// splitName fans one full name out to first name and last name. Both halves
// carry the sources of the full name.
func splitName(inputs []*aggregate.Value, targets int) ([]*aggregate.Value, error) {
	out := make([]*aggregate.Value, targets)

	in := inputs[0]
	if in == nil {
		return out, nil
	}

	if in.Policy != aggregate.Mode {
		return nil, errNotText
	}

	full := strings.TrimSpace(in.Text)

	if full == "" {
		return out, nil
	}

	first, rest := full, ""
	if i := strings.IndexFunc(full, unicode.IsSpace); i >= 0 {
		first, rest = full[:i], strings.TrimSpace(full[i:])
	}

	out[0] = &aggregate.Value{Policy: aggregate.Mode, Text: first, Sources: in.Sources}
	if rest != "" {
		out[1] = &aggregate.Value{Policy: aggregate.Mode, Text: rest, Sources: in.Sources}
	}

	return out, nil
}

func sumAmounts(inputs []*aggregate.Value, targets int) ([]*aggregate.Value, error) {
	out := make([]*aggregate.Value, targets)

	total := decimal.Zero
	present := false

	var sources []taxdoc.DocumentRef

	for _, in := range inputs {
		if in == nil {
			continue
		}

		amount := in.Amount
		if in.Policy != aggregate.Sum {
			d, err := taxdoc.ParseAmount(in.Text)
			if err != nil {
				return nil, fmt.Errorf("SumAmounts: %w", err)
			}

			amount = d
		}

		total = total.Add(amount)
		sources = append(sources, in.Sources...)
		present = true
	}

	if present {
		out[0] = &aggregate.Value{Policy: aggregate.Sum, Amount: total, Sources: sortedSources(sources)}
	}

	return out, nil
}

func firstPresent(inputs []*aggregate.Value, targets int) ([]*aggregate.Value, error) {
	out := make([]*aggregate.Value, targets)

	for _, in := range inputs {
		if in != nil {
			v := *in
			out[0] = &v

			break
		}
	}

	return out, nil
}

func sortedSources(srcs []taxdoc.DocumentRef) []taxdoc.DocumentRef {
	out := common.Dedupe(srcs)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}
