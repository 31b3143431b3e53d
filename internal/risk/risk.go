// Package risk holds the post-exit cooldown ledger that keeps recently sold
// symbols out of the buy candidates.
package risk

import (
	"log/slog"
	"math"

	"stockfinder/internal/state"
)

// lossBlock is the loss size that earns one extra block of cooldown days.
const lossBlock = 0.10

type Entry struct {
	LastEventDate state.Date `json:"last_stop_loss_date"`
	LossPct       float64    `json:"loss_pct"`
}

type Params struct {
	BaseDays       int `yaml:"base_days"`
	ExtraDaysPer10 int `yaml:"extra_days_per_10pct"`
	MaxDays        int `yaml:"max_days"`
}

func DefaultParams() Params {
	return Params{BaseDays: 5, ExtraDaysPer10: 5, MaxDays: 60}
}

// CooldownDays grows with the size of the loss; non-losses get the base period.
func (p Params) CooldownDays(lossPct float64) int {
	if lossPct >= 0 {
		return p.BaseDays
	}
	extraBlocks := int(math.Floor(math.Abs(lossPct) / lossBlock))
	days := p.BaseDays + extraBlocks*p.ExtraDaysPer10
	if p.MaxDays > 0 && days > p.MaxDays {
		days = p.MaxDays
	}
	return days
}

type Ledger struct {
	params  Params
	store   state.Store[Entry]
	entries map[string]Entry
	dirty   bool
}

func NewLedger(params Params, store state.Store[Entry]) *Ledger {
	return &Ledger{params: params, store: store, entries: store.Load()}
}

func (l *Ledger) Entry(symbol string) (Entry, bool) {
	e, ok := l.entries[symbol]
	return e, ok
}

// Record overwrites any earlier event. A nil or non-negative loss is stored as 0.
func (l *Ledger) Record(symbol string, lossPct *float64, today state.Date) {
	loss := 0.0
	if lossPct != nil && *lossPct < 0 {
		loss = *lossPct
	}
	l.entries[symbol] = Entry{LastEventDate: today, LossPct: loss}
	l.dirty = true
	slog.Info("cooldown recorded", "symbol", symbol, "loss_pct", loss, "days", l.params.CooldownDays(loss))
}

func (l *Ledger) InCooldown(symbol string, today state.Date) bool {
	e, ok := l.entries[symbol]
	if !ok {
		return false
	}
	return today.DaysSince(e.LastEventDate) < l.params.CooldownDays(e.LossPct)
}

// Filter drops every symbol still cooling down, preserving order.
func (l *Ledger) Filter(symbols []string, today state.Date) []string {
	kept := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		if l.InCooldown(symbol, today) {
			slog.Debug("cooldown active", "symbol", symbol)
			continue
		}
		kept = append(kept, symbol)
	}
	if removed := len(symbols) - len(kept); removed > 0 {
		slog.Info("cooldown filter applied", "removed", removed, "remaining", len(kept))
	}
	return kept
}

func (l *Ledger) Flush() error {
	if !l.dirty {
		return nil
	}
	if err := l.store.Save(l.entries); err != nil {
		return err
	}
	l.dirty = false
	slog.Info("cooldown state saved", "entries", len(l.entries))
	return nil
}
