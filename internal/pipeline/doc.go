// Package pipeline drives one run end to end.
//
// A run takes a list of source document references. Each document is checked,
// classified and extracted concurrently (bounded by Options.Concurrency); the
// per-page results are folded into one record per document and grouped by
// document type in input order. The pipeline then determines the target
// forms, hands them to the sequential schedule.Runner and condenses the
// outcome into a Summary.
//
// Nothing short of an empty input list fails a run: classification failures
// become the "Other" document type, extraction failures are collected per
// document or page, and per-form failures are recorded in the summary.
package pipeline
