// Package indicator holds the numeric building blocks used by the trend and
// exit logic. Every function here fails closed: too little history or a
// non-finite intermediate yields ok=false, NaN in a series, or a 0 sentinel.
package indicator

import "math"

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// SMA is the mean of the last window values.
func SMA(values []float64, window int) (float64, bool) {
	return SMAAt(values, window, len(values)-1)
}

// SMAAt is the mean of the window values ending at index end (inclusive).
func SMAAt(values []float64, window, end int) (float64, bool) {
	if window <= 0 || end < window-1 || end >= len(values) {
		return 0, false
	}
	sum := 0.0
	for _, v := range values[end-window+1 : end+1] {
		sum += v
	}
	mean := sum / float64(window)
	if !finite(mean) {
		return 0, false
	}
	return mean, true
}

// RollingMean returns a series aligned with values; positions without a
// full window (or with a NaN inside it) are NaN.
func RollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		out[i] = math.NaN()
		if window <= 0 || i < window-1 {
			continue
		}
		if mean, ok := SMAAt(values, window, i); ok {
			out[i] = mean
		}
	}
	return out
}

// RollingStd is the sample (n-1) standard deviation over a trailing window.
func RollingStd(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		out[i] = math.NaN()
		if window <= 1 || i < window-1 {
			continue
		}
		mean, ok := SMAAt(values, window, i)
		if !ok {
			continue
		}
		sq := 0.0
		for _, v := range values[i-window+1 : i+1] {
			sq += (v - mean) * (v - mean)
		}
		out[i] = math.Sqrt(sq / float64(window-1))
	}
	return out
}

// Mean of all values, NaN for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// lastFinite walks back from the end and returns the most recent finite value.
func lastFinite(values []float64) (float64, bool) {
	for i := len(values) - 1; i >= 0; i-- {
		if finite(values[i]) {
			return values[i], true
		}
	}
	return 0, false
}
