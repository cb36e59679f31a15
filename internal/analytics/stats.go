// Package analytics computes the read-only dashboard views from enriched
// events and reconciled groups. Every function here is pure.
package analytics

import (
	"math"
	"slices"

	"github.com/montanaflynn/stats"
)

// Attendance describes the spread of a group's per-event attendance.
type Attendance struct {
	Count       int     `json:"count"`
	Median      int     `json:"median"`
	Mean        float64 `json:"mean"`
	Variance    float64 `json:"variance"`
	StdDev      float64 `json:"stdDev"`
	CV          float64 `json:"cv"`
	Consistency int     `json:"consistency"`
}

// Describe summarises attendance counts. The median is the upper median
// (the element at index n/2 once sorted), variance is the population
// variance, and the coefficient of variation is 0 when the mean is 0.
// Consistency is 100 minus the coefficient of variation, rounded and not
// clamped. An empty input yields the zero value with Consistency 100.
func Describe(counts []int) Attendance {
	a := Attendance{Count: len(counts), Consistency: 100}
	if len(counts) == 0 {
		return a
	}

	sorted := slices.Clone(counts)
	slices.Sort(sorted)
	a.Median = sorted[len(sorted)/2]

	data := stats.LoadRawData(counts)
	// Errors only occur on empty input, which is handled above.
	a.Mean, _ = stats.Mean(data)
	a.Variance, _ = stats.PopulationVariance(data)
	a.StdDev, _ = stats.StandardDeviationPopulation(data)
	if a.Mean > 0 {
		a.CV = a.StdDev / a.Mean * 100
	}
	a.Consistency = Round(100 - a.CV)
	return a
}

// Round rounds half-way values towards positive infinity, so 2.5 becomes 3
// and -2.5 becomes -2.
func Round(x float64) int {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return int(math.Floor(x + 0.5))
}

// Rate returns part as a rounded percentage of whole, or 0 when whole is 0.
func Rate(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return Round(float64(part) / float64(whole) * 100)
}

// truncateLabel shortens long names for chart axes: names longer than max
// keep their first max-3 characters followed by "...".
func truncateLabel(name string, max int) string {
	r := []rune(name)
	if len(r) <= max {
		return name
	}
	return string(r[:max-3]) + "..."
}
