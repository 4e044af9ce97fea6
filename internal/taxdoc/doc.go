// Package taxdoc is the value model for extracted source-document data.
//
// The external extractor returns, per document, one key/value map per page.
// FoldPages merges those pages into a single Record (the last page wins when
// a key repeats), canonicalising each extractor key against the closed set
// of keys the form rules know about. Keys that match nothing are kept apart
// in Record.Unmapped so they can be reported without ever reaching the
// aggregator.
//
// Records are grouped by their classified DocType; inside a group records
// keep input order, which is the order every later stage iterates in.
package taxdoc
