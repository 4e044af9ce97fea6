// Package validate checks finished form structures for internal consistency.
//
// Checks run after calculation and never change a structure. A check that
// finds a reported line disagreeing with the lines it is derived from records
// an error; a line that is missing altogether is a warning. Any error flags
// the form for human review.
package validate

import (
	"fmt"

	"github.com/shopspring/decimal"

	"formflow/internal/diagnostic"
	"formflow/internal/form"
)

// Diagnostic codes reported by checks.
const (
	CodeLineMismatch      = "line_mismatch"
	CodeMissingLine       = "missing_line"
	CodeScheduleBRequired = "schedule_b_required"
	CodeValidatorFailed   = "validator_failed"
)

// Tolerance is the largest difference accepted between a reported line and
// its recomputed value.
var Tolerance = decimal.RequireFromString("0.01")

// Check inspects s and records findings on r.
type Check func(r *Report, s *form.Structure)

// Report is the outcome of validating one structure.
type Report struct {
	Form        form.Type              `json:"form"`
	Diagnostics diagnostic.Diagnostics `json:"diagnostics"`
}

// NeedsReview reports whether any check failed.
func (r *Report) NeedsReview() bool {
	return r.Diagnostics.HasErrors()
}

// Identity records whether the reported value of field equals want within
// Tolerance. expr names the derivation for the message.
func (r *Report) Identity(s *form.Structure, field, expr string, want decimal.Decimal) {
	got, ok := s.Number(field)
	if !ok {
		r.Diagnostics.AddWarning(CodeMissingLine,
			fmt.Sprintf("%s is not reported; expected %s = %s", field, expr, want.StringFixed(2)),
			string(r.Form), field)

		return
	}

	if got.Sub(want).Abs().GreaterThan(Tolerance) {
		r.Diagnostics.AddError(CodeLineMismatch,
			fmt.Sprintf("%s is %s but %s = %s", field, got.StringFixed(2), expr, want.StringFixed(2)),
			string(r.Form), field)
	}
}

// Validator holds the checks registered per form.
type Validator struct {
	checks map[form.Type][]Check
}

// New returns a validator with no checks.
func New() *Validator {
	return &Validator{checks: make(map[form.Type][]Check)}
}

// Register adds c to the checks of form t. Checks run in registration order.
func (v *Validator) Register(t form.Type, c Check) {
	v.checks[t] = append(v.checks[t], c)
}

// Has reports whether any check is registered for t.
func (v *Validator) Has(t form.Type) bool {
	return len(v.checks[t]) > 0
}

// Validate runs the checks of form t against s. A panicking check is
// reported as an error and the remaining checks still run.
func (v *Validator) Validate(t form.Type, s *form.Structure) *Report {
	r := &Report{Form: t}
	if s == nil {
		return r
	}

	for _, c := range v.checks[t] {
		v.run(r, s, c)
	}

	return r
}

func (v *Validator) run(r *Report, s *form.Structure, c Check) {
	defer func() {
		if rec := recover(); rec != nil {
			r.Diagnostics.AddError(CodeValidatorFailed, fmt.Sprintf("check panicked: %v", rec), string(r.Form), "")
		}
	}()

	c(r, s)
}

// sum adds the named lines of s, treating unset lines as zero.
func sum(s *form.Structure, names ...string) decimal.Decimal {
	total := decimal.Zero

	for _, n := range names {
		if d, ok := s.Number(n); ok {
			total = total.Add(d)
		}
	}

	return total
}

func num(s *form.Structure, name string) decimal.Decimal {
	d, _ := s.Number(name)
	return d
}
