package md

import (
	"context"
	"time"
)

// StaticProvider serves fixed data. Used by tests and offline runs.
type StaticProvider struct {
	Bars   map[string]Series
	Quotes map[string]float64
	Err    error
}

func (s *StaticProvider) FetchBars(ctx context.Context, symbols []string, lookback time.Duration) (map[string]Series, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	out := make(map[string]Series, len(symbols))
	for _, symbol := range symbols {
		out[symbol] = s.Bars[symbol]
	}
	return out, nil
}

func (s *StaticProvider) LatestPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	out := make(map[string]float64, len(symbols))
	for _, symbol := range symbols {
		if price, ok := s.Quotes[symbol]; ok {
			out[symbol] = price
		}
	}
	return out, nil
}
