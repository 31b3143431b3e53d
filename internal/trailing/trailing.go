// Package trailing tracks the highest close reached by profitable positions
// and derives the ATR-offset trailing stop from it.
package trailing

import (
	"log/slog"

	"stockfinder/internal/state"
)

type Entry struct {
	HighestClose float64    `json:"highest_close"`
	LastUpdate   state.Date `json:"last_update"`
}

type Params struct {
	Enabled       bool    `yaml:"enabled"`
	MinProfitPct  float64 `yaml:"min_profit_pct"`
	ATRPeriod     int     `yaml:"atr_period"`
	ATRMultiplier float64 `yaml:"atr_multiplier"`
}

func DefaultParams() Params {
	return Params{
		Enabled:       true,
		MinProfitPct:  0.05,
		ATRPeriod:     14,
		ATRMultiplier: 3.0,
	}
}

// Tracker owns the trailing-stop map for one cycle: loaded once, flushed once.
type Tracker struct {
	store   state.Store[Entry]
	entries map[string]Entry
	dirty   bool
}

func NewTracker(store state.Store[Entry]) *Tracker {
	return &Tracker{store: store, entries: store.Load()}
}

func (t *Tracker) Entry(symbol string) (Entry, bool) {
	e, ok := t.entries[symbol]
	return e, ok
}

func (t *Tracker) Len() int {
	return len(t.entries)
}

// NextHigh is the high UpdateHighestClose would store, without storing it.
func (t *Tracker) NextHigh(symbol string, closePrice float64) float64 {
	prev := t.entries[symbol].HighestClose
	if closePrice <= 0 {
		return prev
	}
	if prev > 0 && prev > closePrice {
		return prev
	}
	return closePrice
}

// UpdateHighestClose never lowers the stored high for a symbol.
func (t *Tracker) UpdateHighestClose(symbol string, closePrice float64, today state.Date) float64 {
	if closePrice <= 0 {
		return t.entries[symbol].HighestClose
	}
	newHigh := t.NextHigh(symbol, closePrice)
	next := Entry{HighestClose: newHigh, LastUpdate: today}
	if cur, ok := t.entries[symbol]; !ok || cur != next {
		t.entries[symbol] = next
		t.dirty = true
	}
	return newHigh
}

func (t *Tracker) Clear(symbol string) {
	if _, ok := t.entries[symbol]; !ok {
		return
	}
	delete(t.entries, symbol)
	t.dirty = true
	slog.Debug("trailing state cleared", "symbol", symbol)
}

func (t *Tracker) Dirty() bool {
	return t.dirty
}

// Flush persists the map if anything changed since load.
func (t *Tracker) Flush() error {
	if !t.dirty {
		return nil
	}
	if err := t.store.Save(t.entries); err != nil {
		return err
	}
	t.dirty = false
	slog.Info("trailing state saved", "entries", len(t.entries))
	return nil
}

func StopPrice(highestClose, atr, multiplier float64) float64 {
	return highestClose - atr*multiplier
}
