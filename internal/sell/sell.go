// Package sell decides, per held symbol, whether to exit and why. Tiers are
// checked in priority order and the first that fires wins.
package sell

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"stockfinder/internal/broker"
	"stockfinder/internal/indicator"
	"stockfinder/internal/md"
	"stockfinder/internal/risk"
	"stockfinder/internal/state"
	"stockfinder/internal/strategy"
	"stockfinder/internal/trailing"
)

// Reason values are ordered by priority: a larger value outranks a smaller one.
type Reason int

const (
	None Reason = iota
	Trend
	AVSL
	Trailing
	StopLoss
)

func (r Reason) String() string {
	switch r {
	case Trend:
		return "TREND"
	case AVSL:
		return "AVSL"
	case Trailing:
		return "TRAILING"
	case StopLoss:
		return "STOP_LOSS"
	default:
		return "NONE"
	}
}

func (r Reason) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

type Params struct {
	StopLossPct float64         `yaml:"stop_loss_pct"`
	Trailing    trailing.Params `yaml:"trailing"`
}

func DefaultParams() Params {
	return Params{StopLossPct: 0.10, Trailing: trailing.DefaultParams()}
}

// Decision has a zero Quantity exactly when Reason is None.
type Decision struct {
	Symbol   string
	Reason   Reason
	Quantity float64
	Price    float64
	Holding  broker.Holding

	lossPct *float64
	high    float64
}

func (d Decision) Sells() bool {
	return d.Reason != None
}

// Market is the read-only view of one cycle the tiers consult.
type Market struct {
	Series    map[string]md.Series
	Quotes    map[string]float64
	Selection strategy.Selection
}

// CurrentPrice prefers the live quote over the price reported with the holding.
func (m Market) CurrentPrice(h broker.Holding) float64 {
	if q, ok := m.Quotes[h.Symbol]; ok && q > 0 {
		return q
	}
	return h.CurrentPrice
}

type Engine struct {
	params  Params
	support indicator.SupportModel
	tracker *trailing.Tracker
	ledger  *risk.Ledger
}

func NewEngine(params Params, support indicator.SupportModel, tracker *trailing.Tracker, ledger *risk.Ledger) *Engine {
	return &Engine{params: params, support: support, tracker: tracker, ledger: ledger}
}

// Decide runs the tiers for one holding without touching persisted state.
func (e *Engine) Decide(h broker.Holding, m Market) Decision {
	d := Decision{Symbol: h.Symbol, Reason: None, Holding: h}
	if h.Quantity <= 0 {
		return d
	}
	price := m.CurrentPrice(h)
	d.Price = price
	series := m.Series[h.Symbol]

	var change float64
	priced := h.AvgPrice > 0 && price > 0
	if priced {
		change = (price - h.AvgPrice) / h.AvgPrice
		d.lossPct = &change
	}

	switch {
	case priced && change <= -e.params.StopLossPct:
		d.Reason = StopLoss
	case priced && e.trailingHit(&d, series, price, change):
		d.Reason = Trailing
	case e.support != nil && e.support.Breached(h.Symbol, series):
		d.Reason = AVSL
	case !m.Selection.Keeps(h.Symbol):
		d.Reason = Trend
	}
	if d.Reason != None {
		d.Quantity = h.Quantity
		slog.Info("sell signal", "symbol", h.Symbol, "reason", d.Reason.String(), "qty", d.Quantity, "price", price, "avg_price", h.AvgPrice)
	}
	return d
}

func (e *Engine) trailingHit(d *Decision, series md.Series, price, change float64) bool {
	tp := e.params.Trailing
	if !tp.Enabled || change < tp.MinProfitPct {
		return false
	}
	closePrice := series.LastClose()
	if closePrice <= 0 {
		closePrice = price
	}
	d.high = e.tracker.NextHigh(d.Symbol, closePrice)
	atr := indicator.ATR(series, tp.ATRPeriod)
	if atr <= 0 {
		slog.Debug("atr unavailable, trailing skipped", "symbol", d.Symbol)
		return false
	}
	stop := trailing.StopPrice(d.high, atr, tp.ATRMultiplier)
	slog.Debug("trailing stop", "symbol", d.Symbol, "highest_close", d.high, "atr", atr, "stop", stop, "price", price)
	return price <= stop
}

// Evaluate decides every holding, then applies cooldown events and trailing
// updates and flushes each store once.
func (e *Engine) Evaluate(holdings []broker.Holding, m Market, today state.Date) ([]Decision, error) {
	decisions := make([]Decision, 0, len(holdings))
	for _, h := range holdings {
		decisions = append(decisions, e.Decide(h, m))
	}

	for _, d := range decisions {
		if d.Sells() {
			e.ledger.Record(d.Symbol, d.lossPct, today)
			e.tracker.Clear(d.Symbol)
			continue
		}
		if d.high > 0 {
			e.tracker.UpdateHighestClose(d.Symbol, d.high, today)
		}
	}

	var errs []error
	if err := e.tracker.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("flush trailing state: %w", err))
	}
	if err := e.ledger.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("flush cooldown state: %w", err))
	}
	return decisions, errors.Join(errs...)
}

// Sold lists the symbols with a sell decision.
func Sold(decisions []Decision) []string {
	var out []string
	for _, d := range decisions {
		if d.Sells() {
			out = append(out, d.Symbol)
		}
	}
	return out
}
