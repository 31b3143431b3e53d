package strategy

import "stockfinder/internal/md"

// PriceVolumeCorrelation is the percentage of days in the trailing window on
// which price and volume moved in the same direction. The first day of the
// window has no change and counts only in the denominator.
func PriceVolumeCorrelation(series md.Series, days int) float64 {
	window := series.Tail(days)
	if len(window) == 0 {
		return 0
	}
	together := 0
	for i := 1; i < len(window); i++ {
		price := window[i].Close - window[i-1].Close
		volume := window[i].Volume - window[i-1].Volume
		if (price >= 0 && volume >= 0) || (price < 0 && volume < 0) {
			together++
		}
	}
	return float64(together) / float64(len(window)) * 100
}
