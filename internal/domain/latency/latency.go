// Package latency holds the pure math behind query performance reporting.
package latency

import (
	"math"
	"sort"
	"time"
)

// SLA thresholds for the search path, in milliseconds.
const (
	// AvgTargetMS is the "should" threshold for the overall average.
	AvgTargetMS = 500
	// P99TargetMS is the "must" threshold for the 99th percentile.
	P99TargetMS = 1000
	// SlowThresholdMS marks an individual query as slow.
	SlowThresholdMS = 1000
)

// Sample is one recorded query execution. Seq is a process-wide monotonic
// sequence used to order samples across ring shards.
type Sample struct {
	Seq        uint64
	At         time.Time
	Tenant     string
	QueryType  string
	DurationMS int64
}

// Stats summarizes a set of samples.
type Stats struct {
	Count int
	AvgMS float64
	MinMS int64
	MaxMS int64
	P50MS int64
	P95MS int64
	P99MS int64
}

// Compute derives Stats from samples. The zero value is returned for an
// empty input.
func Compute(samples []Sample) Stats {
	if len(samples) == 0 {
		return Stats{}
	}

	durations := make([]int64, len(samples))
	var sum int64
	for i, s := range samples {
		durations[i] = s.DurationMS
		sum += s.DurationMS
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	return Stats{
		Count: len(samples),
		AvgMS: float64(sum) / float64(len(samples)),
		MinMS: durations[0],
		MaxMS: durations[len(durations)-1],
		P50MS: Percentile(durations, 50),
		P95MS: Percentile(durations, 95),
		P99MS: Percentile(durations, 99),
	}
}

// Percentile returns the nearest-rank percentile of an ascending-sorted
// duration slice: index = ceil(p/100 * n) - 1, clamped to [0, n-1].
func Percentile(sorted []int64, p float64) int64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

// Distribution buckets samples into fixed latency ranges.
type Distribution struct {
	Under100MS     int
	From100To500   int
	From500To1000  int
	From1000To2000 int
	Over2000MS     int
}

// Distribute counts samples per latency bucket.
func Distribute(samples []Sample) Distribution {
	var d Distribution
	for _, s := range samples {
		switch {
		case s.DurationMS < 100:
			d.Under100MS++
		case s.DurationMS < 500:
			d.From100To500++
		case s.DurationMS < 1000:
			d.From500To1000++
		case s.DurationMS < 2000:
			d.From1000To2000++
		default:
			d.Over2000MS++
		}
	}
	return d
}

// SLAReport states whether the recorded samples meet the latency SLA.
type SLAReport struct {
	Samples         int
	AvgMS           float64
	P99MS           int64
	AvgWithinTarget bool
	P99WithinTarget bool
	Compliant       bool
	SlowCount       int
	SlowPercent     float64
}

// Evaluate checks the samples against the SLA thresholds. An empty sample
// set is compliant.
func Evaluate(samples []Sample) SLAReport {
	stats := Compute(samples)

	slow := 0
	for _, s := range samples {
		if s.DurationMS > SlowThresholdMS {
			slow++
		}
	}

	report := SLAReport{
		Samples:         stats.Count,
		AvgMS:           stats.AvgMS,
		P99MS:           stats.P99MS,
		AvgWithinTarget: stats.AvgMS < AvgTargetMS,
		P99WithinTarget: stats.P99MS < P99TargetMS,
		SlowCount:       slow,
	}
	if stats.Count > 0 {
		report.SlowPercent = float64(slow) / float64(stats.Count) * 100
	}
	report.Compliant = report.AvgWithinTarget && report.P99WithinTarget
	return report
}
