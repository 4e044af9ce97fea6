// Package diagnostic provides structured warnings, errors, and
// informational notes collected while building tax forms.
//
// Key capabilities:
//   - Unparseable amounts skipped during aggregation
//   - Extractor keys and mapping targets that matched nothing
//   - Calculation fallbacks taken when an upstream form is missing
//   - Per-form grouping for the run summary
package diagnostic
