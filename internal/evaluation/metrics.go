// Package evaluation scores retrieval quality. Rank metrics operate on
// binary relevance flags; latency summaries use linear-interpolated
// percentiles.
package evaluation

import (
	"math"
	"sort"
)

// PrecisionAtK is the fraction of the first k flags that are relevant.
// k is clamped to the flag count; an empty cutoff scores 0.
func PrecisionAtK(flags []int, k int) float64 {
	if k > len(flags) {
		k = len(flags)
	}
	if k <= 0 {
		return 0
	}
	sum := 0
	for _, f := range flags[:k] {
		sum += f
	}
	return float64(sum) / float64(k)
}

// RecallAtK is the fraction of all relevant items found in the first k
// flags. With no relevant items the recall is 0.
func RecallAtK(flags []int, totalRelevant, k int) float64 {
	if totalRelevant == 0 {
		return 0
	}
	if k > len(flags) {
		k = len(flags)
	}
	if k <= 0 {
		return 0
	}
	sum := 0
	for _, f := range flags[:k] {
		sum += f
	}
	return float64(sum) / float64(totalRelevant)
}

// MeanReciprocalRank is 1/rank of the first relevant flag, 0 when none.
func MeanReciprocalRank(flags []int) float64 {
	for i, f := range flags {
		if f != 0 {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

// NDCGAtK is the discounted cumulative gain over the first k entries,
// normalized by the ideal ordering of all gains.
func NDCGAtK(gains []float64, k int) float64 {
	if k > len(gains) {
		k = len(gains)
	}
	if k <= 0 {
		return 0
	}
	dcg := discountedCumulativeGain(gains, k)
	ideal := append([]float64(nil), gains...)
	sort.Sort(sort.Reverse(sort.Float64Slice(ideal)))
	idealDCG := discountedCumulativeGain(ideal, k)
	if idealDCG == 0 {
		return 0
	}
	return dcg / idealDCG
}

func discountedCumulativeGain(gains []float64, k int) float64 {
	var score float64
	for i := 0; i < k; i++ {
		score += (math.Pow(2, gains[i]) - 1) / math.Log2(float64(i+2))
	}
	return score
}

// SummarizeLatency returns the median and 95th percentile of the
// samples. Empty input yields zeros.
func SummarizeLatency(samplesMS []float64) (median, p95 float64) {
	if len(samplesMS) == 0 {
		return 0, 0
	}
	sorted := append([]float64(nil), samplesMS...)
	sort.Float64s(sorted)
	return percentile(sorted, 0.5), percentile(sorted, 0.95)
}

// percentile interpolates linearly between the neighbouring samples.
// values must be sorted ascending.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	idx := p * float64(len(values)-1)
	lower := math.Floor(idx)
	upper := math.Ceil(idx)
	if lower == upper {
		return values[int(idx)]
	}
	fraction := idx - lower
	return values[int(lower)] + (values[int(upper)]-values[int(lower)])*fraction
}
