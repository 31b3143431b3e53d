package strategy

import (
	"log/slog"

	"stockfinder/internal/md"
)

// Assessment is the trend verdict pair and correlation figures of one symbol.
type Assessment struct {
	Snapshot     Snapshot
	Strict       bool
	Relaxed      bool
	Correlation  float64
	Correlations map[int]float64
}

func (a Assessment) Symbol() string {
	return a.Snapshot.Symbol
}

// Assess runs the template with both margins and the correlation windows.
func (t TrendTemplate) Assess(symbol string, series md.Series) Assessment {
	snapshot := NewSnapshot(symbol, series, t.params)
	report := make(map[int]float64, len(t.params.ReportCorrelationDays))
	for _, days := range t.params.ReportCorrelationDays {
		report[days] = PriceVolumeCorrelation(series, days)
	}
	assessment := Assessment{
		Snapshot:     snapshot,
		Strict:       t.Evaluate(snapshot, t.params.Margin),
		Relaxed:      t.Evaluate(snapshot, t.params.MarginRelaxed),
		Correlation:  PriceVolumeCorrelation(series, t.params.CorrelationDays),
		Correlations: report,
	}
	slog.Debug("symbol assessed", "symbol", symbol, "strict", assessment.Strict, "relaxed", assessment.Relaxed, "correlations", report)
	return assessment
}

// Classify maps an assessment onto an action: buy-eligible, hold-eligible, or neither.
func (t TrendTemplate) Classify(a Assessment) Action {
	if a.Strict && a.Correlation >= t.params.CorrelationStrict {
		return Buy
	}
	if a.Relaxed && a.Correlation >= t.params.CorrelationRelaxed {
		return Hold
	}
	return Sell
}

// Selection is the buy-eligible and hold-eligible symbol sets of one cycle.
type Selection struct {
	Buy  []string
	Hold []string
}

func (s Selection) Keeps(symbol string) bool {
	return contains(s.Buy, symbol) || contains(s.Hold, symbol)
}

func (s Selection) IsBuy(symbol string) bool {
	return contains(s.Buy, symbol)
}

// Select classifies every assessment, preserving input order.
func (t TrendTemplate) Select(assessments []Assessment) Selection {
	selection := Selection{Buy: []string{}, Hold: []string{}}
	for _, a := range assessments {
		switch t.Classify(a) {
		case Buy:
			selection.Buy = append(selection.Buy, a.Symbol())
		case Hold:
			selection.Hold = append(selection.Hold, a.Symbol())
		}
	}
	slog.Info("candidates selected", "buy", len(selection.Buy), "hold", len(selection.Hold), "evaluated", len(assessments))
	return selection
}

func contains(items []string, item string) bool {
	for _, v := range items {
		if v == item {
			return true
		}
	}
	return false
}
