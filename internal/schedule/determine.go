package schedule

import (
	"slices"

	"formflow/internal/form"
	"formflow/internal/rules"
	"formflow/internal/taxdoc"
)

// DetermineForms returns the forms required by records, in precedence order.
// A form is included when it is always required, when a document of one of
// its trigger types is present, when any of its indicator keys appears in a
// document it accepts indicators from, or when a form listed in its
// IncludedBy is included.
func DetermineForms(reg *rules.Registry, records *taxdoc.Records) []form.Type {
	included := make(map[form.Type]bool)
	precedence := reg.Precedence()

	for _, t := range precedence {
		fr, _ := reg.Rule(t)
		if fr.Always || triggered(fr, records) || hinted(fr, records) {
			included[t] = true
		}
	}

	for changed := true; changed; {
		changed = false

		for _, t := range precedence {
			if included[t] {
				continue
			}

			fr, _ := reg.Rule(t)
			for _, by := range fr.IncludedBy {
				if included[by] {
					included[t] = true
					changed = true

					break
				}
			}
		}
	}

	out := make([]form.Type, 0, len(included))
	for _, t := range precedence {
		if included[t] {
			out = append(out, t)
		}
	}

	return out
}

func triggered(fr *rules.FormRule, records *taxdoc.Records) bool {
	for _, dt := range fr.TriggerDocs {
		if len(records.OfType(dt)) > 0 {
			return true
		}
	}

	return false
}

func hinted(fr *rules.FormRule, records *taxdoc.Records) bool {
	if len(fr.Indicators) == 0 {
		return false
	}

	for _, rec := range records.All() {
		if len(fr.IndicatorDocs) > 0 && !slices.Contains(fr.IndicatorDocs, rec.Type) {
			continue
		}

		if rec.HasAny(fr.Indicators) {
			return true
		}
	}

	return false
}
