package broker

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetryRecoversFromTransientErrors(t *testing.T) {
	calls := 0
	out, err := withRetry(context.Background(), RetryPolicy{MaxRetries: 3}, "op", func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("connection reset")
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, out)
	assert.Equal(t, 3, calls)
}

func TestWithRetryGivesUp(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), RetryPolicy{MaxRetries: 2}, "op", func() (int, error) {
		calls++
		return 0, &alpaca.APIError{StatusCode: http.StatusBadGateway}
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)

	var apiErr *alpaca.APIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestWithRetrySkipsClientErrors(t *testing.T) {
	calls := 0
	_, err := withRetry(context.Background(), RetryPolicy{MaxRetries: 5}, "op", func() (int, error) {
		calls++
		return 0, &alpaca.APIError{StatusCode: http.StatusForbidden}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := withRetry(ctx, RetryPolicy{MaxRetries: 5, Delay: time.Hour}, "op", func() (int, error) {
		return 0, errors.New("timeout")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestToHoldingHandlesMissingPrices(t *testing.T) {
	price := decimal.NewFromFloat(110.5)
	pl := decimal.NewFromFloat(21)
	h := toHolding(alpaca.Position{
		Symbol:        "AAPL",
		Qty:           decimal.NewFromInt(2),
		AvgEntryPrice: decimal.NewFromInt(100),
		CurrentPrice:  &price,
		UnrealizedPL:  &pl,
	})
	assert.Equal(t, "AAPL", h.Symbol)
	assert.Equal(t, 2.0, h.Quantity)
	assert.Equal(t, 100.0, h.AvgPrice)
	assert.Equal(t, 110.5, h.CurrentPrice)
	assert.Equal(t, 21.0, h.ProfitLoss)
	assert.Equal(t, 0.0, h.ProfitLossRate)
}

func TestStaticAccount(t *testing.T) {
	acct := &StaticAccount{
		Bal:  Balance{BuyableCash: decimal.NewFromInt(1000)},
		Held: []Holding{{Symbol: "A", Quantity: 1}},
	}
	bal, err := acct.Balance(context.Background())
	require.NoError(t, err)
	assert.True(t, bal.BuyableCash.Equal(decimal.NewFromInt(1000)))

	held, err := acct.Holdings(context.Background())
	require.NoError(t, err)
	held[0].Quantity = 99
	assert.Equal(t, 1.0, acct.Held[0].Quantity)

	acct.BalanceErr = ErrBalanceUnavailable
	_, err = acct.Balance(context.Background())
	assert.ErrorIs(t, err, ErrBalanceUnavailable)
}

func TestHoldingsBySymbol(t *testing.T) {
	idx := HoldingsBySymbol([]Holding{{Symbol: "A", Quantity: 1}, {Symbol: "B"}, {Symbol: "A", Quantity: 3}})
	assert.Len(t, idx, 2)
	assert.Equal(t, 3.0, idx["A"].Quantity)
}
