package md

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

// AlpacaProvider serves daily bars and latest trades from the Alpaca data API.
type AlpacaProvider struct {
	client *marketdata.Client
	feed   marketdata.Feed
	now    func() time.Time
}

func NewAlpacaProvider(apiKey, apiSecret, feed string) *AlpacaProvider {
	client := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	})
	return &AlpacaProvider{
		client: client,
		feed:   parseFeed(feed),
		now:    time.Now,
	}
}

func (p *AlpacaProvider) FetchBars(ctx context.Context, symbols []string, lookback time.Duration) (map[string]Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	end := p.now().UTC()
	req := marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: marketdata.All,
		Start:      end.Add(-lookback),
		End:        end,
		Feed:       p.feed,
	}
	raw, err := p.client.GetMultiBars(symbols, req)
	if err != nil {
		slog.Error("fetch bars failed", "symbols", len(symbols), "error", err)
		return nil, fmt.Errorf("%w: fetch bars: %w", ErrProvider, err)
	}

	out := make(map[string]Series, len(symbols))
	for _, symbol := range symbols {
		bars := raw[symbol]
		series := make(Series, 0, len(bars))
		for _, bar := range bars {
			series = append(series, Bar{
				Time:   bar.Timestamp,
				Open:   bar.Open,
				High:   bar.High,
				Low:    bar.Low,
				Close:  bar.Close,
				Volume: float64(bar.Volume),
			})
		}
		if len(series) == 0 {
			slog.Debug("no bars returned", "symbol", symbol)
		}
		out[symbol] = series
	}
	slog.Info("bars fetched", "symbols", len(symbols), "start", req.Start.Format(time.DateOnly), "end", req.End.Format(time.DateOnly))
	return out, nil
}

func (p *AlpacaProvider) LatestPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	trades, err := p.client.GetLatestTrades(symbols, marketdata.GetLatestTradeRequest{Feed: p.feed})
	if err != nil {
		slog.Error("fetch latest trades failed", "symbols", len(symbols), "error", err)
		return nil, fmt.Errorf("%w: latest trades: %w", ErrProvider, err)
	}
	out := make(map[string]float64, len(trades))
	for symbol, trade := range trades {
		if trade.Price > 0 {
			out[symbol] = trade.Price
		}
	}
	return out, nil
}

func parseFeed(feed string) marketdata.Feed {
	switch feed {
	case "iex":
		return marketdata.IEX
	case "sip":
		return marketdata.SIP
	default:
		return marketdata.IEX
	}
}
