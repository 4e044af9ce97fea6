package aggregate

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"formflow/internal/common"
	"formflow/internal/diagnostic"
	"formflow/internal/taxdoc"
)

// Diagnostic codes emitted by the aggregator.
const (
	CodeUnparseableAmount = "unparseable_amount"
	CodeTooManyProperties = "too_many_properties"
	CodePropertyFallback  = "property_id_fallback"
)

// PropertyAddressKey identifies the rental property a document belongs to.
const PropertyAddressKey taxdoc.Key = "PropertyAddress"

// propertyLetters are the Schedule E column letters in assignment order.
var propertyLetters = []string{"A", "B", "C"}

type sumAcc struct {
	total   decimal.Decimal
	sources []taxdoc.DocumentRef
	any     bool
}

type modeAcc struct {
	order   []string
	counts  map[string]int
	sources map[string][]taxdoc.DocumentRef
}

func (m *modeAcc) add(value string, src taxdoc.DocumentRef) {
	if m.counts == nil {
		m.counts = make(map[string]int)
		m.sources = make(map[string][]taxdoc.DocumentRef)
	}

	if _, seen := m.counts[value]; !seen {
		m.order = append(m.order, value)
	}

	m.counts[value]++
	m.sources[value] = append(m.sources[value], src)
}

// winner returns the most frequent value. Ties go to the value encountered
// first because only a strictly greater count replaces the current best.
func (m *modeAcc) winner() (string, []taxdoc.DocumentRef, bool) {
	if len(m.order) == 0 {
		return "", nil, false
	}

	best := m.order[0]
	for _, v := range m.order[1:] {
		if m.counts[v] > m.counts[best] {
			best = v
		}
	}

	return best, m.sources[best], true
}

// Aggregate merges every record of a relevant type into one Value per key,
// using the key's merge policy. Keys without a policy are ignored. Absent
// inputs produce absent keys, never zero or empty values.
func Aggregate(in Input) (Result, diagnostic.Diagnostics) {
	return aggregateRecords(in, relevantRecords(in))
}

func relevantRecords(in Input) []*taxdoc.Record {
	var recs []*taxdoc.Record
	for _, t := range common.Dedupe(in.Relevant) {
		recs = append(recs, in.Records.OfType(t)...)
	}

	return recs
}

func aggregateRecords(in Input, recs []*taxdoc.Record) (Result, diagnostic.Diagnostics) {
	var diags diagnostic.Diagnostics

	proprietor := common.SetOf(in.ProprietorKeys)

	sums := make(map[taxdoc.Key]*sumAcc)
	modes := make(map[taxdoc.Key]*modeAcc)
	lists := make(map[taxdoc.Key][]Item)

	for _, rec := range recs {
		isProprietorDoc := rec.HasAny(in.ProprietorIndicators)

		for _, key := range sortedKeys(rec.Data) {
			datum := rec.Data[key]

			cleaned, ok := taxdoc.Clean(datum.Value)
			if !ok {
				continue
			}

			src := datum.Source
			if src == "" {
				src = rec.Ref
			}

			if _, isProp := proprietor[key]; isProp {
				if !isProprietorDoc {
					continue
				}

				acc := modes[key]
				if acc == nil {
					acc = &modeAcc{}
					modes[key] = acc
				}

				acc.add(cleaned, src)

				continue
			}

			policy, known := in.Policies[key]
			if !known {
				continue
			}

			switch policy {
			case Sum:
				amount, err := taxdoc.ParseAmount(cleaned)
				if err != nil {
					diags.AddWarning(CodeUnparseableAmount,
						fmt.Sprintf("skipping %q from %s: %v", cleaned, src, err), in.Form, string(key))

					continue
				}

				acc := sums[key]
				if acc == nil {
					acc = &sumAcc{}
					sums[key] = acc
				}

				acc.total = acc.total.Add(amount)
				acc.sources = append(acc.sources, src)
				acc.any = true
			case Mode:
				acc := modes[key]
				if acc == nil {
					acc = &modeAcc{}
					modes[key] = acc
				}

				acc.add(cleaned, src)
			case List:
				lists[key] = append(lists[key], Item{Value: cleaned, Source: src})
			}
		}
	}

	result := make(Result, len(sums)+len(modes)+len(lists))

	for key, acc := range sums {
		if !acc.any {
			continue
		}

		result[key] = Value{Policy: Sum, Amount: acc.total, Sources: normalizeSources(acc.sources)}
	}

	for key, acc := range modes {
		text, srcs, ok := acc.winner()
		if !ok {
			continue
		}

		result[key] = Value{Policy: Mode, Text: text, Sources: normalizeSources(srcs)}
	}

	for key, items := range lists {
		if len(items) == 0 {
			continue
		}

		srcs := make([]taxdoc.DocumentRef, len(items))
		for i, it := range items {
			srcs[i] = it.Source
		}

		result[key] = Value{Policy: List, Items: items, Sources: normalizeSources(srcs)}
	}

	return result, diags
}

// AggregateProperties partitions the relevant records by rental property and
// aggregates each property separately. A property is identified by its
// cleaned PropertyAddress, or by the document ref when no address was
// extracted. Properties beyond maxColumns (at most three) are dropped with a
// too_many_properties warning.
func AggregateProperties(in Input, maxColumns int) ([]PropertyColumn, diagnostic.Diagnostics) {
	var diags diagnostic.Diagnostics

	if maxColumns <= 0 || maxColumns > len(propertyLetters) {
		maxColumns = len(propertyLetters)
	}

	var (
		columns []PropertyColumn
		members [][]*taxdoc.Record
	)

	index := make(map[string]int)
	dropped := make(map[string]struct{})

	for _, rec := range relevantRecords(in) {
		id := propertyID(rec)
		if id == "" {
			id = string(rec.Ref)
			diags.AddInfo(CodePropertyFallback,
				fmt.Sprintf("no property address in %s, using the document as property identity", rec.Ref),
				in.Form, string(PropertyAddressKey))
		}

		col, ok := index[id]
		if !ok {
			if len(columns) >= maxColumns {
				if _, warned := dropped[id]; !warned {
					dropped[id] = struct{}{}
					diags.AddWarning(CodeTooManyProperties,
						fmt.Sprintf("more than %d properties, dropping %q", maxColumns, id),
						in.Form, string(PropertyAddressKey))
				}

				continue
			}

			col = len(columns)
			index[id] = col
			columns = append(columns, PropertyColumn{Letter: propertyLetters[col], PropertyID: id})
			members = append(members, nil)
		}

		members[col] = append(members[col], rec)
		columns[col].Refs = append(columns[col].Refs, rec.Ref)
	}

	for i := range columns {
		values, d := aggregateRecords(in, members[i])
		columns[i].Values = values
		diags.Merge(d)
	}

	return columns, diags
}

func propertyID(rec *taxdoc.Record) string {
	datum, ok := rec.Data[PropertyAddressKey]
	if !ok {
		return ""
	}

	s, _ := taxdoc.Clean(datum.Value)

	return s
}

func sortedKeys(m map[taxdoc.Key]taxdoc.Datum) []taxdoc.Key {
	keys := make([]taxdoc.Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return keys
}

func normalizeSources(srcs []taxdoc.DocumentRef) []taxdoc.DocumentRef {
	out := common.Dedupe(srcs)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}
