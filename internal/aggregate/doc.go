// Package aggregate merges the records of many source documents into one
// consolidated value per key for a single target form.
//
// Every key a form cares about carries a MergePolicy:
//
//   - Sum adds the parsed amounts of every contributing document.
//     Values that do not parse are skipped with an unparseable_amount warning.
//   - Mode picks the most frequent cleaned string; ties go to the value seen
//     first. Only documents that reported the winner are credited.
//   - List keeps every contributed value with its own source, in encounter order.
//
// Documents are visited in the form's relevant-type order and, inside a type,
// in input order. That order is the only thing Mode tie-breaking depends on,
// so runs over the same inputs are reproducible.
//
// Proprietor keys (the business owner's name and SSN) are a special case:
// they are merged by Mode but only from documents carrying one of the
// proprietor indicator keys, so a customer name on an invoice never becomes
// the owner's name.
package aggregate
