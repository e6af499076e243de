package boardgen

import (
	"k8s.io/utils/set"
)

// computeStats summarizes pairwise overlap and how the realized appearance
// counts spread across items. Single-board batches have no pairs; their
// overlap and Jaccard figures are reported as zero.
func computeStats(boards []set.Set[int], itemCount int) Stats {
	var s Stats

	pairs := 0
	totalOverlap := 0
	jaccardSum := 0.0
	s.JaccardMin = 1.0
	for p := 0; p < len(boards); p++ {
		for q := p + 1; q < len(boards); q++ {
			inter := boards[p].Intersection(boards[q]).Len()
			union := boards[p].Union(boards[q]).Len()

			pairs++
			totalOverlap += inter
			if inter > s.MaxOverlap {
				s.MaxOverlap = inter
			}

			j := 0.0
			if union > 0 {
				j = float64(inter) / float64(union)
			}
			jaccardSum += j
			if j < s.JaccardMin {
				s.JaccardMin = j
			}
			if j > s.JaccardMax {
				s.JaccardMax = j
			}
		}
	}
	if pairs > 0 {
		s.AvgOverlap = float64(totalOverlap) / float64(pairs)
		s.JaccardAvg = jaccardSum / float64(pairs)
	} else {
		s.JaccardMin = 0
	}

	s.FrequencyVariance = frequencyVariance(boards, itemCount)
	return s
}

// frequencyVariance is the population variance of how many boards each item
// landed on. Uniform distributions should keep this at or below one.
func frequencyVariance(boards []set.Set[int], itemCount int) float64 {
	if itemCount == 0 {
		return 0
	}
	counts := make([]int, itemCount)
	for _, b := range boards {
		for _, i := range b.UnsortedList() {
			counts[i]++
		}
	}

	mean := 0.0
	for _, c := range counts {
		mean += float64(c)
	}
	mean /= float64(itemCount)

	variance := 0.0
	for _, c := range counts {
		d := float64(c) - mean
		variance += d * d
	}
	return variance / float64(itemCount)
}
