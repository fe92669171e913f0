package relief

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/forestrank/core/dataset"
	"github.com/YuminosukeSato/forestrank/pkg/errors"
)

// seriesDistance dispatches on the measure of a time-series attribute.
func seriesDistance(m dataset.SeriesMeasure, a, b []float64) (float64, error) {
	switch m {
	case dataset.DTW:
		return dtw(a, b), nil
	case dataset.QDM:
		return qdm(a, b)
	case dataset.TSC:
		return tsc(a, b)
	default:
		return 0, errors.NewValidationError("measure", "unknown time series distance", int(m))
	}
}

// dtw is the dynamic time warping distance with absolute difference cost.
// Series may differ in length. An empty series against a non-empty one
// counts as missing.
func dtw(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		if len(a) == len(b) {
			return 0
		}
		return bothMissing
	}
	prev := make([]float64, len(b)+1)
	cur := make([]float64, len(b)+1)
	for j := 1; j <= len(b); j++ {
		prev[j] = math.Inf(1)
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = math.Inf(1)
		for j := 1; j <= len(b); j++ {
			cost := math.Abs(a[i-1] - b[j-1])
			cur[j] = cost + math.Min(prev[j-1], math.Min(prev[j], cur[j-1]))
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// qdm is the qualitative distance: for every pair of time points it compares
// the direction of change in both series. The result lies in [0, 1].
func qdm(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, errors.NewSeriesLengthError(dataset.QDM.String(), len(a), len(b))
	}
	n := len(a)
	if n < 2 {
		return 0, nil
	}
	var diff float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			diff += math.Abs(direction(a[j]-a[i]) - direction(b[j]-b[i]))
		}
	}
	return diff / float64(n*(n-1)), nil
}

func direction(d float64) float64 {
	switch {
	case d > 0:
		return 1
	case d < 0:
		return -1
	default:
		return 0
	}
}

// tsc is the correlation distance (1-r)/2 in [0, 1]. A constant series has no
// defined correlation and is at distance 0.5 from everything.
func tsc(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, errors.NewSeriesLengthError(dataset.TSC.String(), len(a), len(b))
	}
	if len(a) < 2 {
		return 0, nil
	}
	r := stat.Correlation(a, b, nil)
	if math.IsNaN(r) {
		return 0.5, nil
	}
	return (1 - r) / 2, nil
}
