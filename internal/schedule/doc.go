// Package schedule decides which forms a run needs and processes them one at
// a time in dependency order.
//
// DetermineForms picks forms from the hint keys and document types present
// in the run's records, then adds forms that an included form pulls in
// (Schedule C pulls in Schedule SE). Order sorts the forms so that every form
// comes after the forms it reads, breaking ties by the fixed precedence of
// the rule registry. Runner.Run then, per form: loads the blank template,
// aggregates, maps, injects, calculates, optionally reviews, caches and
// optionally writes the result.
//
// Processing is strictly sequential. Each form reads only cache entries of
// forms finished before it, and every cache entry is written once.
// A failing form is recorded and the remaining forms still run.
package schedule
