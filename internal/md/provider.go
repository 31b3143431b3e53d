package md

import (
	"context"
	"errors"
	"time"
)

// ErrProvider marks failures of the market data collaborator itself, as opposed
// to a symbol simply having too little history.
var ErrProvider = errors.New("market data provider failure")

// Provider fetches daily history and live quotes. A symbol with no data is
// returned as an empty series, never as an error.
type Provider interface {
	FetchBars(ctx context.Context, symbols []string, lookback time.Duration) (map[string]Series, error)
	LatestPrices(ctx context.Context, symbols []string) (map[string]float64, error)
}
