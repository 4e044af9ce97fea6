// Package calc derives the computed lines of each tax form.
//
// A calculation reads the values already injected into a form's structure,
// the structures of forms processed earlier (through form.Cache) and the
// form's own aggregated record, and writes derived lines back with the
// "Calculated" source. Arithmetic is decimal throughout; tax and percentage
// results are rounded to cents.
//
// Missing inputs count as zero. A dependency form that was not processed is
// reported as a missing_dependency info and its value falls back to zero or
// to the injected value. A derived field that the structure cannot hold is
// reported as field_not_found. Neither is fatal.
package calc
