package core

import "sort"

// madScale makes the median absolute deviation a consistent estimator of the
// standard deviation under a normal distribution.
const madScale = 1.4826

// Median returns the midpoint of the values: the middle element for odd
// counts, the mean of the two middle elements for even counts. The input is
// not modified. Returns false for an empty slice.
func Median(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], true
	}
	return (sorted[mid-1] + sorted[mid]) / 2, true
}

// MAD returns the median absolute deviation of the values about the given
// median. Returns false for an empty slice.
func MAD(values []float64, median float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	devs := make([]float64, len(values))
	for i, v := range values {
		d := v - median
		if d < 0 {
			d = -d
		}
		devs[i] = d
	}
	return Median(devs)
}

// RobustZ returns the scaled deviation of value from the median in MAD units.
// A zero or negative MAD carries no spread information, so no score is
// available and false is returned.
func RobustZ(value, median, mad float64) (float64, bool) {
	if mad <= 0 {
		return 0, false
	}
	return (value - median) / (madScale * mad), true
}
