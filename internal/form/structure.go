package form

import (
	"github.com/shopspring/decimal"

	"formflow/internal/taxdoc"
)

// Visit calls fn for every field in page order.
func (s *Structure) Visit(fn func(p *Page, f *Field)) {
	if s == nil {
		return
	}

	for _, p := range s.Pages {
		for _, f := range p.Fields {
			fn(p, f)
		}
	}
}

// Field returns the first field named name.
func (s *Structure) Field(name string) (*Field, bool) {
	if s == nil {
		return nil, false
	}

	for _, p := range s.Pages {
		for _, f := range p.Fields {
			if f.FieldName == name {
				return f, true
			}
		}
	}

	return nil, false
}

// Value returns the raw value of a field, nil when absent or unset.
func (s *Structure) Value(name string) any {
	f, ok := s.Field(name)
	if !ok {
		return nil
	}

	return f.Value
}

// Number returns the numeric value of a field. Missing fields, unset fields
// and values that do not parse as amounts report false.
func (s *Structure) Number(name string) (decimal.Decimal, bool) {
	v := s.Value(name)
	if v == nil {
		return decimal.Zero, false
	}

	d, err := taxdoc.ParseAmount(v)
	if err != nil {
		return decimal.Zero, false
	}

	return d, true
}

// Text returns the cleaned string value of a field, "" when unset.
func (s *Structure) Text(name string) string {
	out, _ := taxdoc.Clean(s.Value(name))

	return out
}

// Set writes value and sources to the named field. An extensible structure
// gains the field on its last page when it is missing; otherwise a missing
// field reports false and nothing changes.
func (s *Structure) Set(name string, value any, sources []string) bool {
	f, ok := s.Field(name)
	if !ok {
		if s == nil || !s.Extensible {
			return false
		}

		f = s.addField(name)
	}

	f.Value = value
	f.Sources = sources

	return true
}

func (s *Structure) addField(name string) *Field {
	if len(s.Pages) == 0 {
		s.Pages = append(s.Pages, &Page{Name: "page_1"})
	}

	last := s.Pages[len(s.Pages)-1]
	f := &Field{FieldName: name, LabelText: name}
	last.Fields = append(last.Fields, f)

	return f
}

// Declare adds blank fields for names the structure does not have yet.
func (s *Structure) Declare(names ...string) {
	for _, n := range names {
		if _, ok := s.Field(n); !ok {
			s.addField(n)
		}
	}
}

// Clear resets every value and source, yielding a blank structure.
func (s *Structure) Clear() {
	s.Visit(func(_ *Page, f *Field) {
		f.Value = nil
		f.Sources = nil
	})
}

// Populated counts fields that carry a value.
func (s *Structure) Populated() int {
	n := 0

	s.Visit(func(_ *Page, f *Field) {
		if f.IsSet() {
			n++
		}
	})

	return n
}

// Values returns a flat field name to value view of populated fields.
func (s *Structure) Values() map[string]any {
	out := make(map[string]any)

	s.Visit(func(_ *Page, f *Field) {
		if f.IsSet() {
			out[f.FieldName] = f.Value
		}
	})

	return out
}

// Clone returns a deep copy of the structure.
func (s *Structure) Clone() *Structure {
	if s == nil {
		return nil
	}

	out := &Structure{Form: s.Form, Extensible: s.Extensible, Pages: make([]*Page, len(s.Pages))}

	for i, p := range s.Pages {
		np := &Page{Name: p.Name, Fields: make([]*Field, len(p.Fields))}

		for j, f := range p.Fields {
			nf := *f
			if f.Sources != nil {
				nf.Sources = append([]string(nil), f.Sources...)
			}

			if list, ok := f.Value.([]string); ok {
				nf.Value = append([]string(nil), list...)
			}

			np.Fields[j] = &nf
		}

		out.Pages[i] = np
	}

	return out
}
