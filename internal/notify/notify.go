// Package notify formats the cycle report and delivers it to the operator.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"stockfinder/internal/sizing"
	"stockfinder/internal/state"
)

var ErrDelivery = errors.New("notify: delivery failed")

// Notifier delivers one text block. Transient network failures are logged
// and swallowed; anything else is returned wrapping ErrDelivery.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

type Report struct {
	Date  state.Date
	Buys  []sizing.BuyPlan
	Sells []sizing.SellPlan
}

func (r Report) Empty() bool {
	return len(r.Buys) == 0 && len(r.Sells) == 0
}

// Format renders the date line followed by one line per action. An empty
// report formats to "".
func Format(r Report) string {
	if r.Empty() {
		return ""
	}
	lines := []string{r.Date.String()}
	for _, b := range r.Buys {
		lines = append(lines, fmt.Sprintf("BUY %s %d shares @ %s (invest %s, %s -> %s shares)",
			b.Symbol, b.SharesToBuy, price(b.CurrentPrice), Money(b.InvestmentAmount),
			shares(b.CurrentShares), shares(b.TotalShares())))
	}
	for _, s := range r.Sells {
		lines = append(lines, fmt.Sprintf("SELL %s %d shares @ %s [%s] (amount %s, P/L %s, %s%%)",
			s.Symbol, s.Shares, price(s.Price), s.Reason, Money(s.Amount),
			Money(decimal.NewFromFloat(s.ProfitLoss)),
			decimal.NewFromFloat(s.ProfitLossRate*100).StringFixed(2)))
	}
	return strings.Join(lines, "\n")
}

// Money renders two decimals with thousands separators.
func Money(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	if d.IsNegative() && !d.Round(2).IsZero() {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

func price(v float64) string {
	return Money(decimal.NewFromFloat(v))
}

func shares(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// Writer prints reports instead of sending them.
type Writer struct {
	W io.Writer
}

func (w Writer) Send(ctx context.Context, text string) error {
	if _, err := fmt.Fprintln(w.W, text); err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	slog.Info("report printed", "lines", strings.Count(text, "\n")+1)
	return nil
}

// Recorder keeps every message in memory.
type Recorder struct {
	mu       sync.Mutex
	Messages []string
	Err      error
}

func (r *Recorder) Send(ctx context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Messages = append(r.Messages, text)
	return nil
}
