package scoring

import "math"

// mean returns the arithmetic mean of values. Callers guarantee len(values) > 0.
func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// meanStdev returns the mean and sample standard deviation of values.
// With a single value the standard deviation falls back to 15% of the mean
// so that deviation-based scoring never divides by zero.
func meanStdev(values []float64) (float64, float64) {
	m := mean(values)
	if len(values) < 2 {
		return m, m * 0.15
	}

	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return m, math.Sqrt(ss / float64(len(values)-1))
}

// deviationScore centers a sub-score at mid and shifts it by
// (cohortMean - value) / stdev * slope, clamped to [0, max]. A value exactly
// at the cohort mean scores the midpoint; cheaper-than-cohort values score
// higher. A zero standard deviation yields the midpoint.
func deviationScore(value, cohortMean, stdev, mid, slope, max float64) float64 {
	deviation := 0.0
	if stdev > 0 {
		deviation = (cohortMean - value) / stdev
	}
	return clamp(mid+deviation*slope, 0, max)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// round1 rounds to one decimal place, the precision reported to callers.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func intValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
