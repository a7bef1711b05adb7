package rfm

import (
	"sort"

	"salesInsight/domain"
)

const numBins = 4

// quantile returns the q-th quantile of sorted using linear interpolation
// between closest ranks.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

func distinctCount(sorted []float64) int {
	if len(sorted) == 0 {
		return 0
	}
	n := 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1] {
			n++
		}
	}
	return n
}

// quartileBins cuts values into four equal-population bins over the whole
// population and returns the 0-based bin per value (0 = lowest values).
// Bins are right-closed and the first bin includes the minimum.
func quartileBins(metric string, values []float64) ([]int, error) {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	popErr := &domain.InsufficientPopulationError{
		Metric:    metric,
		Distinct:  distinctCount(sorted),
		Required:  numBins,
		Customers: len(values),
	}
	if popErr.Distinct < numBins {
		return nil, popErr
	}

	var edges [numBins + 1]float64
	for i := 0; i < numBins+1; i++ {
		edges[i] = quantile(sorted, float64(i)/numBins)
	}
	for i := 1; i <= numBins; i++ {
		if edges[i] <= edges[i-1] {
			return nil, popErr
		}
	}

	bins := make([]int, len(values))
	var counts [numBins]int
	for i, v := range values {
		b := numBins - 1
		for j := 1; j < numBins; j++ {
			if v <= edges[j] {
				b = j - 1
				break
			}
		}
		bins[i] = b
		counts[b]++
	}
	for _, c := range counts {
		if c == 0 {
			return nil, popErr
		}
	}

	return bins, nil
}

// scoreBins maps 0-based bins to 1..4 scores. Inverted scales give the
// lowest bin the highest score.
func scoreBins(bins []int, inverted bool) []int {
	scores := make([]int, len(bins))
	for i, b := range bins {
		if inverted {
			scores[i] = numBins - b
		} else {
			scores[i] = b + 1
		}
	}
	return scores
}
