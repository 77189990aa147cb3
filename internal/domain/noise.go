package domain

import (
	"math"
	"sort"
)

// Classify maps a numeric noise level to its presentation band. Total over
// all integers; levels below the reporting range (including a fresh
// location's zero average) classify as quiet.
func Classify(level int) NoiseBand {
	switch {
	case level < 3:
		return BandQuiet
	case level < 7:
		return BandModerate
	default:
		return BandNoisy
	}
}

// Aggregate is the derived averageNoiseLevel/totalReports pair for a location.
type Aggregate struct {
	AverageNoiseLevel int
	TotalReports      int
}

// ComputeAggregate recomputes a location's aggregate from the full report
// set. Only reports matching locationID count. The mean is rounded once, at
// the end, with halves away from zero (math.Round); intermediate values stay
// in float64. Zero reports yields a zero aggregate.
func ComputeAggregate(reports []NoiseReport, locationID string) Aggregate {
	var sum, n int
	for _, r := range reports {
		if r.LocationID == locationID {
			sum += r.NoiseLevel
			n++
		}
	}
	if n == 0 {
		return Aggregate{}
	}
	return Aggregate{
		AverageNoiseLevel: int(math.Round(float64(sum) / float64(n))),
		TotalReports:      n,
	}
}

// FilterByMaxNoise returns the locations whose average noise level does not
// exceed max, preserving input order. A nil max means no filter: the input
// slice is returned as-is.
func FilterByMaxNoise(locations []Location, max *int) []Location {
	if max == nil {
		return locations
	}
	out := make([]Location, 0, len(locations))
	for _, loc := range locations {
		if loc.AverageNoiseLevel <= *max {
			out = append(out, loc)
		}
	}
	return out
}

// SortByQuietest returns a copy of locations ordered by ascending average
// noise level. The sort is stable: ties keep their original insertion order.
func SortByQuietest(locations []Location) []Location {
	out := make([]Location, len(locations))
	copy(out, locations)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AverageNoiseLevel < out[j].AverageNoiseLevel
	})
	return out
}

// ReportsForLocation returns the reports for one location, preserving
// submission order.
func ReportsForLocation(reports []NoiseReport, locationID string) []NoiseReport {
	out := make([]NoiseReport, 0)
	for _, r := range reports {
		if r.LocationID == locationID {
			out = append(out, r)
		}
	}
	return out
}
