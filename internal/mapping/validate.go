package mapping

import (
	"fmt"

	"formflow/internal/diagnostic"
	"formflow/internal/taxdoc"
)

// Validate checks a mapping file against the keys each form aggregates.
// known maps a form name to its aggregated keys; a form absent from known is
// reported as unknown. This is a structural check: it never looks at values.
func Validate(mf *MappingFile, registry *TransformRegistry, known map[string][]taxdoc.Key) *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}
	if mf == nil {
		res.AddError("mapping_is_nil", "mapping file is nil", "", "")
		return res
	}

	if registry == nil {
		res.AddError("registry_is_nil", "transform registry is nil", "", "")
		return res
	}

	seenForms := map[string]struct{}{}

	for i := range mf.Forms {
		fm := &mf.Forms[i]

		if fm.Form == "" {
			res.AddError("missing_form", fmt.Sprintf("form mapping #%d has no form", i), "", "")
			continue
		}

		if _, ok := seenForms[fm.Form]; ok {
			res.AddError("duplicate_form", fmt.Sprintf("form %q mapped twice", fm.Form), fm.Form, "")
			continue
		}

		seenForms[fm.Form] = struct{}{}

		keys, ok := known[fm.Form]
		if !ok {
			res.AddError("unknown_form", fmt.Sprintf("form %q has no rule table", fm.Form), fm.Form, "")
			continue
		}

		validateFormMapping(res, fm, registry, keySet(keys), keys)
	}

	return res
}

func validateFormMapping(
	res *diagnostic.Diagnostics,
	fm *FormMapping,
	registry *TransformRegistry,
	known map[string]struct{},
	ordered []taxdoc.Key,
) {
	used := map[string]struct{}{}
	targets := map[string]struct{}{}

	// 121 entries that were not normalized yet.
	for source, target := range fm.OneToOne {
		validateFieldMapping(res, fm.Form, &FieldMapping{
			Source: Names{source},
			Target: Names{target},
		}, registry, known, used, targets)
	}

	for i := range fm.Fields {
		validateFieldMapping(res, fm.Form, &fm.Fields[i], registry, known, used, targets)
	}

	for _, ig := range fm.Ignore {
		if _, ok := known[ig]; !ok {
			res.AddWarning("unknown_ignore_key", fmt.Sprintf("ignored key %q is not aggregated for this form", ig), fm.Form, ig)
		}

		used[ig] = struct{}{}
	}

	for _, k := range ordered {
		if _, ok := used[string(k)]; !ok {
			res.AddInfo("unmapped_key", fmt.Sprintf("aggregated key %q is neither mapped nor ignored", k), fm.Form, string(k))
		}
	}
}

func validateFieldMapping(
	res *diagnostic.Diagnostics,
	formName string,
	fm *FieldMapping,
	registry *TransformRegistry,
	known map[string]struct{},
	used map[string]struct{},
	targets map[string]struct{},
) {
	if fm.Target.IsEmpty() {
		res.AddError("missing_target", "field mapping has no target", formName, fm.Source.First())
	}

	if fm.Source.IsEmpty() {
		res.AddError("missing_source", "field mapping has no source", formName, fm.Target.First())
	}

	for _, s := range fm.Source {
		used[s] = struct{}{}

		if _, ok := known[s]; !ok {
			res.AddError("unknown_source_key", fmt.Sprintf("key %q is not aggregated for this form", s), formName, s)
		}
	}

	for _, t := range fm.Target {
		if _, dup := targets[t]; dup {
			res.AddError("duplicate_target", fmt.Sprintf("field %q is written by more than one mapping", t), formName, t)
		}

		targets[t] = struct{}{}
	}

	if fm.Transform == "" {
		if fm.Arity().NeedsTransform() {
			res.AddError("transform_required",
				fmt.Sprintf("%s mapping to %v needs a transform", fm.Arity(), []string(fm.Target)),
				formName, fm.Target.First())
		}

		return
	}

	def := registry.Get(fm.Transform)
	if def == nil {
		res.AddError("unknown_transform", fmt.Sprintf("transform %q is not registered", fm.Transform), formName, fm.Transform)
		return
	}

	if !def.Accepts(len(fm.Source), len(fm.Target)) {
		res.AddError("transform_arity",
			fmt.Sprintf("transform %q does not accept %d source(s) and %d target(s)", fm.Transform, len(fm.Source), len(fm.Target)),
			formName, fm.Transform)
	}
}

func keySet(keys []taxdoc.Key) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[string(k)] = struct{}{}
	}

	return set
}
