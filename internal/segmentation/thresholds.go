package segmentation

import (
	"math"
	"sort"
)

// ComputeThresholds derives the segmentation cut points for one market
// from the full set of its trade sizes.
//
// The whale threshold is mean + 2*stddev (sample standard deviation)
// computed over ALL sizes, including would-be whales. Q33 and Q66 are
// the 33rd and 66th percentiles of the subset of sizes strictly below
// the whale threshold, using linear interpolation between order
// statistics at rank p*(n-1).
//
// Markets with fewer than 4 sizes, or where every size is numerically
// identical, are flagged Degenerate: the whale threshold is reported as
// +Inf and every trade is later assigned Small. If the non-whale subset
// is empty the AllWhales flag is set and Q33/Q66 are left undefined.
func ComputeThresholds(sizes []float64) Thresholds {
	valid := make([]float64, 0, len(sizes))
	for _, s := range sizes {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			continue
		}
		valid = append(valid, s)
	}

	if len(valid) < 4 || allIdentical(valid) {
		t := Thresholds{
			Whale:      math.Inf(1),
			Q33:        math.Inf(1),
			Q66:        math.Inf(1),
			Degenerate: true,
		}
		if len(valid) > 0 {
			// Only meaningful when all sizes are identical; unused by
			// Assign either way.
			mx := maxValue(valid)
			t.Q33 = mx
			t.Q66 = mx
		}
		return t
	}

	mean, std := meanStddev(valid)
	if std == 0 {
		return Thresholds{
			Whale:      math.Inf(1),
			Q33:        valid[0],
			Q66:        valid[0],
			Degenerate: true,
		}
	}

	whale := mean + 2*std

	nonWhale := make([]float64, 0, len(valid))
	for _, s := range valid {
		if s < whale {
			nonWhale = append(nonWhale, s)
		}
	}
	if len(nonWhale) == 0 {
		return Thresholds{Whale: whale, AllWhales: true}
	}

	sorted := make([]float64, len(nonWhale))
	copy(sorted, nonWhale)
	sort.Float64s(sorted)

	return Thresholds{
		Whale: whale,
		Q33:   percentile(sorted, 0.33),
		Q66:   percentile(sorted, 0.66),
	}
}

// meanStddev computes the mean and sample standard deviation
func meanStddev(values []float64) (mean, std float64) {
	n := float64(len(values))
	if n == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / n

	if n < 2 {
		return mean, 0
	}
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / (n - 1))
}

// percentile returns the p-th quantile of a sorted slice using linear
// interpolation between order statistics at rank p*(n-1)
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	index := p * float64(n-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func allIdentical(values []float64) bool {
	for i := 1; i < len(values); i++ {
		if values[i] != values[0] {
			return false
		}
	}
	return len(values) > 0
}

func maxValue(values []float64) float64 {
	mx := values[0]
	for _, v := range values[1:] {
		if v > mx {
			mx = v
		}
	}
	return mx
}
