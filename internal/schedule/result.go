package schedule

import (
	"formflow/internal/diagnostic"
	"formflow/internal/form"
	"formflow/internal/validate"
)

// Status is the outcome of processing one form.
type Status string

const (
	StatusProcessed Status = "PROCESSED"
	StatusSkipped   Status = "SKIPPED"
	StatusFailed    Status = "FAILED"
)

// FormResult records what happened to one form.
type FormResult struct {
	Form   form.Type
	Status Status

	// Structure is the final populated structure; nil when skipped or when
	// the form failed before calculation finished.
	Structure *form.Structure

	// OutputPath is where the sink wrote the structure, if anywhere.
	OutputPath string

	// Err is why the form was skipped or failed.
	Err error

	// ReviewErr is a review hook failure. The form is still processed.
	ReviewErr error

	// Validation holds the consistency findings for the final structure. Its
	// diagnostics are also merged into Diagnostics.
	Validation *validate.Report

	Diagnostics diagnostic.Diagnostics
}

// NeedsReview reports whether validation flagged the form for a human.
func (r *FormResult) NeedsReview() bool {
	return r.Validation != nil && r.Validation.NeedsReview()
}

// Outcome is the result of one scheduler run.
type Outcome struct {
	Order       []form.Type
	Cache       *form.Cache
	Results     map[form.Type]*FormResult
	Diagnostics diagnostic.Diagnostics
}

// Count returns how many forms ended with status s.
func (o *Outcome) Count(s Status) int {
	n := 0
	for _, r := range o.Results {
		if r.Status == s {
			n++
		}
	}

	return n
}

// ReviewErrors reports whether any form's review hook failed.
func (o *Outcome) ReviewErrors() bool {
	for _, r := range o.Results {
		if r.ReviewErr != nil {
			return true
		}
	}

	return false
}
