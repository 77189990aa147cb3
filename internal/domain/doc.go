// Package domain models QuietSpotter's noise-report data.
//
// # Entities
//
// A Location is a cafe or coworking space that users rate for noise. A
// NoiseReport is a single observation of a location's noise on a 1–10 scale
// (1 = library-quiet, 10 = can't hear yourself think), authored by a User.
// Reports are append-only: they are never edited or deleted once accepted.
//
// # Noise bands
//
// User-facing presentation collapses the 1–10 scale into three bands:
//
//	level < 3  → quiet
//	level < 7  → moderate
//	level ≥ 7  → noisy
//
// [Classify] is total over all integers so it also behaves for a location's
// rounded average, which lands in [0,10].
//
// # Aggregates
//
// Each location carries two derived fields, AverageNoiseLevel and
// TotalReports, recomputed from the full report set on every accepted report:
//
//	AverageNoiseLevel = round(mean(levels))   // half rounds away from zero
//	TotalReports      = len(levels)
//
// A location with no reports has AverageNoiseLevel 0. Rounding happens only
// when producing the field, never mid-computation, so the same report history
// always yields the same aggregate regardless of submission order. Callers
// never set these fields directly.
//
// # Report counters
//
// Each User carries a Reports counter incremented by exactly one per accepted
// report. The report also snapshots the author's username at submission time;
// the snapshot is not rewritten if the user later renames.
package domain
