package strategy

import (
	"stockfinder/internal/indicator"
	"stockfinder/internal/md"
)

// Snapshot is the per-cycle view of one symbol that the trend template reads.
// HasMAs is false when the history is too short for the moving averages; the
// template then fails closed.
type Snapshot struct {
	Symbol       string
	Bars         int
	CurrentPrice float64
	High52w      float64
	Low52w       float64
	MA50         float64
	MA150        float64
	MA200        float64
	MA200Prior   float64
	HasMAs       bool

	UpVolumeDays   int
	DownVolumeDays int
}

func NewSnapshot(symbol string, series md.Series, params Params) Snapshot {
	snapshot := Snapshot{
		Symbol:       symbol,
		Bars:         len(series),
		CurrentPrice: series.LastClose(),
		High52w:      series.HighestHigh(),
		Low52w:       series.LowestLow(),
	}
	snapshot.UpVolumeDays, snapshot.DownVolumeDays = volumeDays(series.Tail(params.VolumeWindowDays))

	if len(series) < params.MinHistory() {
		return snapshot
	}
	closes := series.Closes()
	ma50, ok50 := indicator.SMA(closes, params.MA50Days)
	ma150, ok150 := indicator.SMA(closes, params.MA150Days)
	ma200, ok200 := indicator.SMA(closes, params.MA200Days)
	prior, okPrior := indicator.SMAAt(closes, params.MA200Days, len(closes)-1-params.MAIncreaseCheckDays)
	if !ok50 || !ok150 || !ok200 || !okPrior {
		return snapshot
	}
	snapshot.MA50 = ma50
	snapshot.MA150 = ma150
	snapshot.MA200 = ma200
	snapshot.MA200Prior = prior
	snapshot.HasMAs = true
	return snapshot
}

// volumeDays counts, among days with above-average volume in the window, the
// days the close rose (or held) and the days it fell.
func volumeDays(window md.Series) (up int, down int) {
	if len(window) < 2 {
		return 0, 0
	}
	average := indicator.Mean(window.Volumes())
	for i := 1; i < len(window); i++ {
		if window[i].Volume <= average {
			continue
		}
		if window[i].Close-window[i-1].Close >= 0 {
			up++
		} else {
			down++
		}
	}
	return up, down
}
