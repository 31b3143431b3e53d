// Package engine runs one decision cycle over the watch list and the current
// holdings.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"stockfinder/internal/broker"
	"stockfinder/internal/indicator"
	"stockfinder/internal/md"
	"stockfinder/internal/notify"
	"stockfinder/internal/risk"
	"stockfinder/internal/sell"
	"stockfinder/internal/sizing"
	"stockfinder/internal/state"
	"stockfinder/internal/strategy"
	"stockfinder/internal/trailing"
	"stockfinder/internal/watchlist"
)

type Options struct {
	Strategy      strategy.Params
	Sell          sell.Params
	Cooldown      risk.Params
	Sizing        sizing.Params
	Lookback      time.Duration
	Parallelism   int
	SelectionPath string
	RunID         string
}

type Deps struct {
	Provider      md.Provider
	Account       broker.Account
	Notifier      notify.Notifier
	Support       indicator.SupportModel
	TrailingStore state.Store[trailing.Entry]
	CooldownStore state.Store[risk.Entry]
	Journal       *Journal
	Now           func() time.Time
}

// Result is everything one cycle decided. Degraded lists collaborator
// failures the cycle worked around.
type Result struct {
	RunID     string
	Date      state.Date
	Selection strategy.Selection
	Decisions []sell.Decision
	Buys      []sizing.BuyPlan
	Sells     []sizing.SellPlan
	Message   string
	Final     []string
	Degraded  []error
}

type Engine struct {
	opts     Options
	deps     Deps
	template strategy.TrendTemplate
	sizer    sizing.Sizer
}

func New(opts Options, deps Deps) *Engine {
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.GOMAXPROCS(0)
	}
	if opts.RunID == "" {
		if deps.Journal != nil {
			opts.RunID = deps.Journal.RunID()
		} else {
			opts.RunID = uuid.NewString()
		}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Engine{
		opts:     opts,
		deps:     deps,
		template: strategy.NewTrendTemplate(opts.Strategy),
		sizer:    sizing.New(opts.Sizing),
	}
}

// Run executes one cycle over the watch list plus whatever is currently held.
// It fails only when no prices can be had or the report cannot be delivered.
func (e *Engine) Run(ctx context.Context, candidates []string) (Result, error) {
	now := e.deps.Now()
	result := Result{RunID: e.opts.RunID, Date: state.NewDate(now)}
	slog.Info("cycle started", "run_id", result.RunID, "date", result.Date.String(), "candidates", len(candidates))

	var view accountView
	view.holdings, view.holdingsErr = readHoldings(ctx, e.deps.Account)
	if view.holdingsErr != nil {
		result.Degraded = append(result.Degraded, view.holdingsErr)
	}

	universe := union(candidates, view.heldSymbols())
	if len(universe) == 0 {
		slog.Info("nothing to analyse")
		return result, nil
	}
	bars, err := e.deps.Provider.FetchBars(ctx, universe, e.opts.Lookback)
	if err != nil {
		slog.Error("market data unavailable, cycle aborted", "error", err)
		return result, err
	}
	quotes, err := e.deps.Provider.LatestPrices(ctx, universe)
	if err != nil {
		slog.Warn("live quotes unavailable, using reported prices", "error", err)
		result.Degraded = append(result.Degraded, err)
		quotes = map[string]float64{}
	}

	assessments, err := e.analyze(ctx, universe, bars)
	if err != nil {
		return result, err
	}
	logCorrelations(assessments, e.opts.Strategy.ReportCorrelationDays)
	result.Selection = e.template.Select(assessments)

	tracker := trailing.NewTracker(e.deps.TrailingStore)
	ledger := risk.NewLedger(e.opts.Cooldown, e.deps.CooldownStore)

	if view.holdingsErr == nil {
		exits := sell.NewEngine(e.opts.Sell, e.deps.Support, tracker, ledger)
		market := sell.Market{Series: bars, Quotes: quotes, Selection: result.Selection}
		result.Decisions, err = exits.Evaluate(view.holdings, market, result.Date)
		if err != nil {
			slog.Error("state store flush failed", "error", err)
			result.Degraded = append(result.Degraded, err)
		}
		result.Sells = sizing.PlanSells(result.Decisions)
	}

	// Sizing needs current shares; without holdings every target would be
	// bought again in full.
	if view.holdingsErr != nil {
		slog.Warn("holdings unknown, buy sizing skipped", "candidates", len(result.Selection.Buy))
	} else {
		buySet := exclude(ledger.Filter(result.Selection.Buy, result.Date), sell.Sold(result.Decisions))
		view.balance, view.balanceErr = readBalance(ctx, e.deps.Account)
		if view.balanceErr != nil {
			result.Degraded = append(result.Degraded, view.balanceErr)
		} else {
			result.Buys = e.sizer.PlanBuys(buySet, view.balance, view.index(), buyPrices(buySet, quotes, bars))
		}
	}

	e.journal(result, now)

	report := notify.Report{Date: result.Date, Buys: result.Buys, Sells: result.Sells}
	result.Message = notify.Format(report)

	var errs []error
	if view.holdingsErr == nil {
		result.Final = watchlist.FinalItems(view.heldSymbols(), result.Selection.Buy, result.Selection.Hold)
		if e.opts.SelectionPath != "" {
			if err := watchlist.SaveSelection(e.opts.SelectionPath, result.Final); err != nil {
				slog.Error("save selection failed", "error", err)
				errs = append(errs, err)
			}
		}
	}

	if result.Message == "" {
		slog.Info("no actions this cycle")
	} else if e.deps.Notifier != nil {
		if err := e.deps.Notifier.Send(ctx, result.Message); err != nil {
			slog.Error("report delivery failed", "error", err)
			errs = append(errs, err)
		}
	}

	slog.Info("cycle finished", "run_id", result.RunID, "buys", len(result.Buys), "sells", len(result.Sells), "degraded", len(result.Degraded))
	return result, errors.Join(errs...)
}

// analyze assesses every symbol concurrently. Assessments are pure, so only
// the order of the output matters.
func (e *Engine) analyze(ctx context.Context, symbols []string, bars map[string]md.Series) ([]strategy.Assessment, error) {
	out := make([]strategy.Assessment, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Parallelism)
	for i, symbol := range symbols {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			series := bars[symbol]
			if len(series) < e.opts.Strategy.MinHistory() {
				slog.Debug("insufficient history", "symbol", symbol, "bars", len(series), "need", e.opts.Strategy.MinHistory())
			}
			out[i] = e.template.Assess(symbol, series)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	return out, nil
}

func (e *Engine) journal(result Result, now time.Time) {
	if e.deps.Journal == nil {
		return
	}
	date := result.Date.String()
	records := make([]Record, 0, len(result.Decisions)+len(result.Buys))
	for _, d := range result.Decisions {
		records = append(records, Record{
			Timestamp: now.UTC(),
			Date:      date,
			Kind:      "sell_decision",
			Symbol:    d.Symbol,
			Reason:    d.Reason.String(),
			Quantity:  d.Quantity,
			Price:     d.Price,
			AvgPrice:  d.Holding.AvgPrice,
			Held:      d.Holding.Quantity,
		})
	}
	for _, b := range result.Buys {
		records = append(records, Record{
			Timestamp: now.UTC(),
			Date:      date,
			Kind:      "buy_plan",
			Symbol:    b.Symbol,
			Quantity:  float64(b.SharesToBuy),
			Price:     b.CurrentPrice,
			Amount:    b.InvestmentAmount.StringFixed(2),
			Target:    b.TargetShares,
			Held:      b.CurrentShares,
		})
	}
	failed := 0
	for _, rec := range records {
		if err := e.deps.Journal.Append(rec); err != nil {
			failed++
			slog.Error("journal append failed", "run_id", result.RunID, "symbol", rec.Symbol, "error", err)
		}
	}
	if failed > 0 {
		slog.Warn("journal incomplete", "run_id", result.RunID, "failed", failed, "records", len(records))
	}
}

func logCorrelations(assessments []strategy.Assessment, days []int) {
	if len(days) == 0 || !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	for _, a := range assessments {
		parts := make([]string, len(days))
		for i, d := range days {
			parts[i] = fmt.Sprintf("%.2f", a.Correlations[d])
		}
		slog.Debug(fmt.Sprintf("%s : %s", a.Symbol(), strings.Join(parts, " -> ")))
	}
}

// buyPrices prefers live quotes and falls back to the last daily close.
func buyPrices(symbols []string, quotes map[string]float64, bars map[string]md.Series) map[string]float64 {
	out := make(map[string]float64, len(symbols))
	for _, symbol := range symbols {
		if q := quotes[symbol]; q > 0 {
			out[symbol] = q
			continue
		}
		if c := bars[symbol].LastClose(); c > 0 {
			out[symbol] = c
		}
	}
	return out
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func exclude(items, drop []string) []string {
	if len(drop) == 0 {
		return items
	}
	skip := make(map[string]bool, len(drop))
	for _, s := range drop {
		skip[s] = true
	}
	out := make([]string, 0, len(items))
	for _, s := range items {
		if !skip[s] {
			out = append(out, s)
		}
	}
	return out
}
