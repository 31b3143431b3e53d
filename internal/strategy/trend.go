package strategy

import "log/slog"

// TrendTemplate evaluates the ten conjunctive structural-strength conditions.
// margin relaxes every right-hand side to threshold*(1-margin).
type TrendTemplate struct {
	params Params
}

func NewTrendTemplate(params Params) TrendTemplate {
	return TrendTemplate{params: params}
}

type condition struct {
	name string
	ok   bool
}

func (t TrendTemplate) Evaluate(s Snapshot, margin float64) bool {
	if !s.HasMAs {
		slog.Debug("trend template insufficient history", "symbol", s.Symbol, "bars", s.Bars, "required", t.params.MinHistory())
		return false
	}
	keep := 1 - margin
	price := s.CurrentPrice
	conditions := []condition{
		{"price_above_ma150", price >= s.MA150*keep},
		{"price_above_ma200", price >= s.MA200*keep},
		{"ma150_above_ma200", s.MA150 >= s.MA200*keep},
		{"ma200_rising", s.MA200 >= s.MA200Prior*keep},
		{"ma50_above_ma150", s.MA50 >= s.MA150*keep},
		{"ma50_above_ma200", s.MA50 >= s.MA200*keep},
		{"price_above_ma50", price >= s.MA50*keep},
		{"above_52w_low", t.IsAbove52WeekLow(s, margin)},
		{"near_52w_high", t.IsNear52WeekHigh(s, margin)},
		{"volume_confirms_price", t.VolumeConfirmsPrice(s, margin)},
	}
	for _, c := range conditions {
		if !c.ok {
			slog.Debug("trend template failed", "symbol", s.Symbol, "margin", margin, "condition", c.name)
			return false
		}
	}
	return true
}

// IsAbove52WeekLow requires the price to sit LowIncreasePercent above the
// 52-week low. A non-positive low, or one under MinPriceThreshold, is never
// divided by.
func (t TrendTemplate) IsAbove52WeekLow(s Snapshot, margin float64) bool {
	if s.Low52w <= 0 || s.Low52w < t.params.MinPriceThreshold {
		return false
	}
	increase := (s.CurrentPrice - s.Low52w) / s.Low52w * 100
	return increase >= t.params.LowIncreasePercent*(1-margin)
}

// IsNear52WeekHigh requires the price above HighThresholdRatio of the 52-week high.
func (t TrendTemplate) IsNear52WeekHigh(s Snapshot, margin float64) bool {
	if s.High52w <= 0 || s.High52w < t.params.MinPriceThreshold {
		return false
	}
	return s.CurrentPrice > s.High52w*t.params.HighThresholdRatio*(1-margin)
}

// VolumeConfirmsPrice compares up-days and down-days among above-average volume sessions.
func (t TrendTemplate) VolumeConfirmsPrice(s Snapshot, margin float64) bool {
	return float64(s.UpVolumeDays) >= float64(s.DownVolumeDays)*(1-margin)
}
