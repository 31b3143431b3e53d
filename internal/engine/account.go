package engine

import (
	"context"
	"log/slog"

	"stockfinder/internal/broker"
)

// accountView is what the cycle knows about the brokerage account. Either
// half may be missing; the cycle degrades instead of aborting.
type accountView struct {
	holdings    []broker.Holding
	holdingsErr error
	balance     broker.Balance
	balanceErr  error
}

func (v accountView) heldSymbols() []string {
	out := make([]string, 0, len(v.holdings))
	for _, h := range v.holdings {
		if h.Quantity > 0 {
			out = append(out, h.Symbol)
		}
	}
	return out
}

func (v accountView) index() map[string]broker.Holding {
	return broker.HoldingsBySymbol(v.holdings)
}

func readHoldings(ctx context.Context, account broker.Account) ([]broker.Holding, error) {
	holdings, err := account.Holdings(ctx)
	if err != nil {
		slog.Error("holdings unavailable, selling skipped", "error", err)
		return nil, err
	}
	slog.Info("holdings loaded", "count", len(holdings))
	return holdings, nil
}

func readBalance(ctx context.Context, account broker.Account) (broker.Balance, error) {
	balance, err := account.Balance(ctx)
	if err != nil {
		slog.Error("balance unavailable, buy sizing skipped", "error", err)
		return broker.Balance{}, err
	}
	slog.Info("balance loaded", "buyable", balance.BuyableCash.StringFixed(2), "total", balance.TotalBalance.StringFixed(2))
	return balance, nil
}
