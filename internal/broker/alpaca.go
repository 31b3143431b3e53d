package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"
)

type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

type AlpacaClient struct {
	client *alpaca.Client
	retry  RetryPolicy
}

func NewAlpaca(apiKey, apiSecret, baseURL string, retry RetryPolicy) *AlpacaClient {
	opts := alpaca.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
		BaseURL:   baseURL,
	}
	return &AlpacaClient{client: alpaca.NewClient(opts), retry: retry}
}

func (c *AlpacaClient) Balance(ctx context.Context) (Balance, error) {
	acct, err := withRetry(ctx, c.retry, "fetch account", c.client.GetAccount)
	if err != nil {
		slog.Error("fetch account failed", "error", err)
		return Balance{}, fmt.Errorf("%w: %w", ErrBalanceUnavailable, err)
	}
	buyable := acct.NonMarginBuyingPower
	if !buyable.IsPositive() {
		buyable = acct.BuyingPower
	}
	bal := Balance{
		AvailableCash: acct.Cash,
		BuyableCash:   buyable,
		TotalBalance:  acct.Equity,
	}
	slog.Info("account fetched", "cash", bal.AvailableCash.StringFixed(2), "buyable", bal.BuyableCash.StringFixed(2), "equity", bal.TotalBalance.StringFixed(2))
	return bal, nil
}

func (c *AlpacaClient) Holdings(ctx context.Context) ([]Holding, error) {
	positions, err := withRetry(ctx, c.retry, "fetch positions", c.client.GetPositions)
	if err != nil {
		slog.Error("fetch positions failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrHoldingsUnavailable, err)
	}
	holdings := make([]Holding, 0, len(positions))
	for _, pos := range positions {
		holdings = append(holdings, toHolding(pos))
	}
	slog.Info("positions fetched", "count", len(holdings))
	return holdings, nil
}

func toHolding(pos alpaca.Position) Holding {
	qty, _ := pos.Qty.Float64()
	avg, _ := pos.AvgEntryPrice.Float64()
	return Holding{
		Symbol:         pos.Symbol,
		Quantity:       qty,
		AvgPrice:       avg,
		CurrentPrice:   optFloat(pos.CurrentPrice),
		ProfitLoss:     optFloat(pos.UnrealizedPL),
		ProfitLossRate: optFloat(pos.UnrealizedPLPC),
	}
}

func optFloat(d *decimal.Decimal) float64 {
	if d == nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}

// withRetry repeats fn on transient failures. Client errors other than rate
// limiting are returned immediately.
func withRetry[T any](ctx context.Context, policy RetryPolicy, op string, fn func() (T, error)) (T, error) {
	var zero T
	var err error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("broker call retry", "op", op, "attempt", attempt, "error", err)
			if waitErr := WaitForContext(ctx, policy.Delay); waitErr != nil {
				return zero, waitErr
			}
		}
		var out T
		out, err = fn()
		if err == nil {
			return out, nil
		}
		if !retryable(err) {
			return zero, err
		}
	}
	return zero, err
}

func retryable(err error) bool {
	var apiErr *alpaca.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError
	}
	return true
}
