// Package broker reads account balance and holdings. It never places orders.
package broker

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrBalanceUnavailable  = errors.New("broker: balance unavailable")
	ErrHoldingsUnavailable = errors.New("broker: holdings unavailable")
)

type Balance struct {
	AvailableCash decimal.Decimal
	BuyableCash   decimal.Decimal
	TotalBalance  decimal.Decimal
}

type Holding struct {
	Symbol         string
	Quantity       float64
	AvgPrice       float64
	CurrentPrice   float64
	ProfitLoss     float64
	ProfitLossRate float64
}

// Account is the read side of a brokerage account.
type Account interface {
	Balance(ctx context.Context) (Balance, error)
	Holdings(ctx context.Context) ([]Holding, error)
}

// HoldingsBySymbol indexes holdings; later duplicates win.
func HoldingsBySymbol(holdings []Holding) map[string]Holding {
	out := make(map[string]Holding, len(holdings))
	for _, h := range holdings {
		out[h.Symbol] = h
	}
	return out
}

func WaitForContext(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
