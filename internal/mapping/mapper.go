package mapping

import (
	"fmt"

	"formflow/internal/aggregate"
	"formflow/internal/diagnostic"
	"formflow/internal/taxdoc"
)

// CodeTransformFailed is reported when a transform rejects its inputs.
const CodeTransformFailed = "transform_failed"

// Mapper applies normalized translation tables.
type Mapper struct {
	forms    map[string]*FormMapping
	registry *TransformRegistry
}

// NewMapper indexes mf by form. mf is expected to be normalized, as returned
// by Parse or LoadFile.
func NewMapper(mf *MappingFile, registry *TransformRegistry) (*Mapper, error) {
	if mf == nil {
		return nil, fmt.Errorf("mapping file is nil")
	}

	if registry == nil {
		registry = DefaultRegistry()
	}

	m := &Mapper{forms: make(map[string]*FormMapping, len(mf.Forms)), registry: registry}

	for i := range mf.Forms {
		fm := &mf.Forms[i]
		NormalizeFormMapping(fm)

		if _, dup := m.forms[fm.Form]; dup {
			return nil, fmt.Errorf("form %q mapped twice", fm.Form)
		}

		m.forms[fm.Form] = fm
	}

	return m, nil
}

// Columns reports whether formName is mapped per property column.
func (m *Mapper) Columns(formName string) bool {
	fm, ok := m.forms[formName]
	return ok && fm.Columns
}

// Targets lists every field name the table for formName can write. Column
// forms list each target once per column letter.
func (m *Mapper) Targets(formName string, letters ...string) []string {
	fm, ok := m.forms[formName]
	if !ok {
		return nil
	}

	var out []string

	for _, f := range fm.Fields {
		for _, t := range f.Target {
			if !fm.Columns {
				out = append(out, t)
				continue
			}

			for _, l := range letters {
				out = append(out, t+l)
			}
		}
	}

	return out
}

// Map translates aggregated keys into field names for formName. Keys the
// table does not mention are dropped. An unknown form maps to nothing.
func (m *Mapper) Map(formName string, agg aggregate.Result) (map[string]aggregate.Value, diagnostic.Diagnostics) {
	out := make(map[string]aggregate.Value)

	var diags diagnostic.Diagnostics

	fm, ok := m.forms[formName]
	if !ok {
		return out, diags
	}

	m.apply(fm, agg, "", out, &diags)

	return out, diags
}

// MapColumns maps each property column separately, appending the column
// letter to every target field name.
func (m *Mapper) MapColumns(formName string, cols []aggregate.PropertyColumn) (map[string]aggregate.Value, diagnostic.Diagnostics) {
	out := make(map[string]aggregate.Value)

	var diags diagnostic.Diagnostics

	fm, ok := m.forms[formName]
	if !ok {
		return out, diags
	}

	for _, col := range cols {
		m.apply(fm, col.Values, col.Letter, out, &diags)
	}

	return out, diags
}

func (m *Mapper) apply(fm *FormMapping, agg aggregate.Result, suffix string, out map[string]aggregate.Value, diags *diagnostic.Diagnostics) {
	for i := range fm.Fields {
		f := &fm.Fields[i]

		inputs := make([]*aggregate.Value, len(f.Source))
		present := false

		for j, s := range f.Source {
			if v, ok := agg[taxdoc.Key(s)]; ok {
				inputs[j] = &v
				present = true
			}
		}

		if !present {
			continue
		}

		values, err := m.run(f, inputs)
		if err != nil {
			diags.AddWarning(CodeTransformFailed, err.Error(), fm.Form, f.Target.First()+suffix)
			continue
		}

		for j, t := range f.Target {
			if j >= len(values) || values[j] == nil {
				continue
			}

			name := t + suffix
			if _, taken := out[name]; taken {
				continue
			}

			out[name] = *values[j]
		}
	}
}

// run produces one value per target. Without a transform the single source
// is copied to every target, sources included.
func (m *Mapper) run(f *FieldMapping, inputs []*aggregate.Value) ([]*aggregate.Value, error) {
	if f.Transform == "" {
		if f.Arity().NeedsTransform() {
			return nil, fmt.Errorf("%s mapping to %v has no transform", f.Arity(), []string(f.Target))
		}

		values := make([]*aggregate.Value, len(f.Target))
		for j := range values {
			values[j] = inputs[0]
		}

		return values, nil
	}

	def := m.registry.Get(f.Transform)
	if def == nil {
		return nil, fmt.Errorf("transform %q is not registered", f.Transform)
	}

	if !def.Accepts(len(f.Source), len(f.Target)) {
		return nil, fmt.Errorf("transform %q does not accept %d source(s) and %d target(s)", f.Transform, len(f.Source), len(f.Target))
	}

	values, err := def.Func(inputs, len(f.Target))
	if err != nil {
		return nil, fmt.Errorf("transform %q: %w", f.Transform, err)
	}

	return values, nil
}
