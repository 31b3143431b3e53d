package indicator

import (
	"math"

	"stockfinder/internal/md"
)

// ATR is the simple mean of the last period true ranges. It returns 0 when
// fewer than period+1 bars exist or the result is not finite.
func ATR(series md.Series, period int) float64 {
	if period <= 0 || len(series) < period+1 {
		return 0
	}
	sum := 0.0
	for i := len(series) - period; i < len(series); i++ {
		sum += trueRange(series[i], series[i-1].Close)
	}
	atr := sum / float64(period)
	if !finite(atr) {
		return 0
	}
	return atr
}

func trueRange(bar md.Bar, prevClose float64) float64 {
	return math.Max(bar.High-bar.Low, math.Max(math.Abs(bar.High-prevClose), math.Abs(bar.Low-prevClose)))
}
