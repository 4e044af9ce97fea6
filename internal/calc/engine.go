package calc

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"formflow/internal/aggregate"
	"formflow/internal/diagnostic"
	"formflow/internal/form"
	"formflow/internal/taxdoc"
)

// Diagnostic codes reported by calculations.
const (
	CodeMissingDependency = "missing_dependency"
	CodeFieldNotFound     = "field_not_found"
	CodePALNotApplied     = "pal_not_applied"
)

// ErrNilStructure is returned when Calculate is given no structure.
var ErrNilStructure = errors.New("nil form structure")

// Func derives the computed lines of one form on a sheet.
type Func func(sh *Sheet)

// Engine dispatches calculations by form type.
type Engine struct {
	params *Parameters
	funcs  map[form.Type]Func
}

// NewEngine returns an engine with every built-in calculation registered.
// A nil params uses Default2023.
func NewEngine(params *Parameters) *Engine {
	if params == nil {
		params = Default2023()
	}

	e := &Engine{params: params, funcs: make(map[form.Type]Func)}
	e.Register(form.SchedC, scheduleC)
	e.Register(form.SchedE, scheduleE)
	e.Register(form.SchedSE, scheduleSE)
	e.Register(form.Schedule1, schedule1)
	e.Register(form.Schedule2, schedule2)
	e.Register(form.Schedule3, schedule3)
	e.Register(form.Form2441, form2441)
	e.Register(form.Form8812, form8812)
	e.Register(form.ScheduleA, scheduleA)
	e.Register(form.Form1040, form1040)

	return e
}

// Register sets the calculation for t, replacing any previous one.
func (e *Engine) Register(t form.Type, fn Func) {
	e.funcs[t] = fn
}

// Params returns the tax-year parameters in use.
func (e *Engine) Params() *Parameters {
	return e.params
}

// Calculate derives the computed lines of s, which holds the injected values
// of form t, writing them into s and returning it. Forms without a
// registered calculation are returned unchanged.
func (e *Engine) Calculate(
	s *form.Structure,
	t form.Type,
	cache *form.Cache,
	agg aggregate.Result,
) (*form.Structure, diagnostic.Diagnostics, error) {
	var diags diagnostic.Diagnostics

	if s == nil {
		return nil, diags, ErrNilStructure
	}

	if s.Form != "" && s.Form != t {
		return nil, diags, fmt.Errorf("structure is %s, calculation requested for %s", s.Form, t)
	}

	s.Form = t

	fn, ok := e.funcs[t]
	if !ok {
		return s, diags, nil
	}

	sh := &Sheet{
		s:      s,
		form:   t,
		cache:  cache,
		agg:    agg,
		params: e.params,
		diags:  &diags,
		missed: make(map[form.Type]struct{}),
	}
	fn(sh)

	return s, diags, nil
}

var calculatedSources = []string{string(taxdoc.Calculated)}

// Sheet is the working view a calculation reads from and writes to.
type Sheet struct {
	s      *form.Structure
	form   form.Type
	cache  *form.Cache
	agg    aggregate.Result
	params *Parameters
	diags  *diagnostic.Diagnostics
	missed map[form.Type]struct{}
}

// Params returns the tax-year parameters.
func (sh *Sheet) Params() *Parameters {
	return sh.params
}

// Num returns a field's numeric value, zero when missing or unparseable.
func (sh *Sheet) Num(name string) decimal.Decimal {
	v, _ := sh.s.Number(name)
	return v
}

// Has reports whether a field carries a numeric value.
func (sh *Sheet) Has(name string) bool {
	_, ok := sh.s.Number(name)
	return ok
}

// Sum adds the numeric values of names.
func (sh *Sheet) Sum(names ...string) decimal.Decimal {
	total := decimal.Zero
	for _, n := range names {
		total = total.Add(sh.Num(n))
	}

	return total
}

// Set writes a derived amount. It returns the amount so lines can chain.
func (sh *Sheet) Set(name string, v decimal.Decimal) decimal.Decimal {
	sh.write(name, v)
	return v
}

// SetValue writes a derived non-numeric value.
func (sh *Sheet) SetValue(name string, v any) {
	sh.write(name, v)
}

func (sh *Sheet) write(name string, v any) {
	if !sh.s.Set(name, v, calculatedSources) {
		sh.diags.AddWarning(CodeFieldNotFound,
			fmt.Sprintf("derived field %q is not in the %s structure", name, sh.form), string(sh.form), name)
	}
}

// Dep reads a numeric field of a form processed earlier. A form that is not
// cached yields false and one missing_dependency info per form.
func (sh *Sheet) Dep(t form.Type, field string) (decimal.Decimal, bool) {
	s, ok := sh.cache.Get(t)
	if !ok {
		if _, seen := sh.missed[t]; !seen {
			sh.missed[t] = struct{}{}
			sh.diags.AddInfo(CodeMissingDependency,
				fmt.Sprintf("%s was not processed; its values count as zero", t), string(sh.form), string(t))
		}

		return decimal.Zero, false
	}

	v, _ := s.Number(field)

	return v, true
}

// DepOr reads a dependency field, falling back to the local field of the same
// meaning when the dependency was not processed.
func (sh *Sheet) DepOr(t form.Type, field, local string) decimal.Decimal {
	if v, ok := sh.Dep(t, field); ok {
		return v
	}

	return sh.Num(local)
}

// Cached returns the structure of a processed form without reporting a miss.
func (sh *Sheet) Cached(t form.Type) (*form.Structure, bool) {
	return sh.cache.Get(t)
}

// Amount returns an aggregated amount of the form's own record.
func (sh *Sheet) Amount(k taxdoc.Key) decimal.Decimal {
	return sh.agg.Amount(k)
}

// Count returns the number of aggregated items for k.
func (sh *Sheet) Count(k taxdoc.Key) int {
	return sh.agg.Count(k)
}

// Info records an informational diagnostic against this form.
func (sh *Sheet) Info(code, message, key string) {
	sh.diags.AddInfo(code, message, string(sh.form), key)
}

// Warn records a warning against this form.
func (sh *Sheet) Warn(code, message, key string) {
	sh.diags.AddWarning(code, message, string(sh.form), key)
}

func maxZero(v decimal.Decimal) decimal.Decimal {
	return decimal.Max(v, decimal.Zero)
}

