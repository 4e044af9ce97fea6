package taxdoc

import (
	"fmt"
	"sort"
)

// DocumentRef identifies a source document.
type DocumentRef string

// Calculated is the provenance marker written on derived values.
const Calculated DocumentRef = "Calculated"

// Key is an extractor key from the closed set known to the form rules.
type Key string

// Datum is one extracted value together with the document it came from.
type Datum struct {
	Key    Key
	Value  any
	Source DocumentRef
}

// Page is the extraction result for a single page. A page that failed to
// extract carries Err and no data.
type Page struct {
	Data map[string]any `json:"data,omitempty"`
	Err  string         `json:"error,omitempty"`
}

// PageError reports a page whose extraction failed.
type PageError struct {
	Ref     DocumentRef
	Page    int
	Message string
}

func (e PageError) Error() string {
	return fmt.Sprintf("%s page %d: %s", e.Ref, e.Page, e.Message)
}

// Record is the folded extraction result of one source document.
type Record struct {
	Ref      DocumentRef
	Type     DocType
	Data     map[Key]Datum
	Unmapped map[string]Datum
}

// Has reports whether the record carries key k.
func (r *Record) Has(k Key) bool {
	_, ok := r.Data[k]

	return ok
}

// HasAny reports whether the record carries at least one of keys.
func (r *Record) HasAny(keys []Key) bool {
	for _, k := range keys {
		if r.Has(k) {
			return true
		}
	}

	return false
}

// FoldPages merges the per-page extraction results of one document into a
// Record. Pages are applied in ascending page number; when a key repeats
// across pages the last page wins. Failed pages contribute nothing and are
// returned as PageErrors.
func FoldPages(ref DocumentRef, docType DocType, pages map[int]Page, canon *Canonicalizer) (*Record, []PageError) {
	rec := &Record{
		Ref:      ref,
		Type:     docType,
		Data:     make(map[Key]Datum),
		Unmapped: make(map[string]Datum),
	}

	numbers := make([]int, 0, len(pages))
	for n := range pages {
		numbers = append(numbers, n)
	}

	sort.Ints(numbers)

	var errs []PageError

	for _, n := range numbers {
		page := pages[n]
		if page.Err != "" {
			errs = append(errs, PageError{Ref: ref, Page: n, Message: page.Err})

			continue
		}

		raw := make([]string, 0, len(page.Data))
		for k := range page.Data {
			raw = append(raw, k)
		}

		sort.Strings(raw)

		for _, name := range raw {
			v := page.Data[name]

			key, ok := canon.Lookup(name)
			if !ok {
				rec.Unmapped[name] = Datum{Key: Key(name), Value: v, Source: ref}

				continue
			}

			rec.Data[key] = Datum{Key: key, Value: v, Source: ref}
		}
	}

	return rec, errs
}

// Records groups document records by classified type. Each group keeps the
// order in which records were added.
type Records struct {
	byType map[DocType][]*Record
	order  []*Record
}

// NewRecords groups recs, preserving their order within each type.
func NewRecords(recs ...*Record) *Records {
	rs := &Records{byType: make(map[DocType][]*Record)}
	for _, r := range recs {
		rs.Add(r)
	}

	return rs
}

// Add appends r to its type's group.
func (rs *Records) Add(r *Record) {
	if r == nil {
		return
	}

	if rs.byType == nil {
		rs.byType = make(map[DocType][]*Record)
	}

	rs.byType[r.Type] = append(rs.byType[r.Type], r)
	rs.order = append(rs.order, r)
}

// OfType returns the records classified as t, in input order.
func (rs *Records) OfType(t DocType) []*Record {
	if rs == nil {
		return nil
	}

	return rs.byType[t]
}

// All returns every record in input order.
func (rs *Records) All() []*Record {
	if rs == nil {
		return nil
	}

	return rs.order
}

// Types returns the document types present, in order of first appearance.
func (rs *Records) Types() []DocType {
	if rs == nil {
		return nil
	}

	seen := make(map[DocType]struct{}, len(rs.byType))

	var types []DocType

	for _, r := range rs.order {
		if _, ok := seen[r.Type]; ok {
			continue
		}

		seen[r.Type] = struct{}{}
		types = append(types, r.Type)
	}

	return types
}

// Len returns the number of records.
func (rs *Records) Len() int {
	if rs == nil {
		return 0
	}

	return len(rs.order)
}

// Unmapped returns every unmatched extractor key across all records, sorted.
func (rs *Records) Unmapped() []string {
	if rs == nil {
		return nil
	}

	seen := make(map[string]struct{})
	for _, r := range rs.order {
		for k := range r.Unmapped {
			seen[k] = struct{}{}
		}
	}

	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
