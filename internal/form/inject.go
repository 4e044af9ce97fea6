package form

import (
	"formflow/internal/aggregate"
)

// Inject writes mapped values into every field whose name matches a mapped
// target. Unmatched fields keep their nil value and sources; mapped targets
// the structure does not declare are dropped. It returns the number of
// fields written. Injecting the same values into a fresh blank structure
// always yields the same result.
func Inject(s *Structure, mapped map[string]aggregate.Value) int {
	n := 0

	s.Visit(func(_ *Page, f *Field) {
		v, ok := mapped[f.FieldName]
		if !ok {
			return
		}

		f.Value = v.Raw()
		f.Sources = v.SourceStrings()
		n++
	})

	return n
}

// FillMissing sets values for fields that are still unset, never
// overwriting a value that is already present. It is the contract for the
// downstream review pass. It returns the number of fields filled.
func FillMissing(s *Structure, values map[string]any, source string) int {
	n := 0

	s.Visit(func(_ *Page, f *Field) {
		if f.IsSet() {
			return
		}

		v, ok := values[f.FieldName]
		if !ok || v == nil {
			return
		}

		f.Value = v
		f.Sources = []string{source}
		n++
	})

	return n
}
