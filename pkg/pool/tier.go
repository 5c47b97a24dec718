package pool

import (
	"sort"
)

// SelectTier returns the index of the smallest threshold >= capacity.
// Requests above the largest threshold map to the last tier, which acts as
// the catch-all. thresholds must be non-empty and strictly increasing.
//
// Selection is monotonic: for c1 < c2, SelectTier(t, c1) <= SelectTier(t, c2).
func SelectTier(thresholds []int, capacity int) int {
	i := sort.SearchInts(thresholds, capacity)
	if i == len(thresholds) {
		return len(thresholds) - 1
	}
	return i
}
