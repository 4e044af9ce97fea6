// Package rules holds the static per-form tables: which document types feed
// a form, how each key is merged, which keys hint that the form is needed,
// and which forms it reads from the dependency cache.
//
// The tables form the closed key set of the system. Extractor keys are
// canonicalised against Registry.KnownKeys; anything else is routed to a
// record's unmapped bucket.
package rules
