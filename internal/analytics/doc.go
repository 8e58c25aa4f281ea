// Package analytics computes read-only summaries over a snag list snapshot:
// completion and breakdown statistics, a velocity based completion forecast,
// the activity timeline and action recommendations.
//
// Every function is pure. Callers pass the reference time explicitly so that
// results are deterministic for a fixed snapshot.
package analytics
