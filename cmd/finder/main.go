package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"stockfinder/internal/broker"
	"stockfinder/internal/config"
	"stockfinder/internal/engine"
	"stockfinder/internal/indicator"
	"stockfinder/internal/md"
	"stockfinder/internal/notify"
	"stockfinder/internal/risk"
	"stockfinder/internal/state"
	"stockfinder/internal/trailing"
	"stockfinder/internal/watchlist"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "error", err)
		return 2
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	runID := uuid.NewString()
	journal, err := engine.NewJournal(cfg.Paths.Decisions, runID)
	if err != nil {
		slog.Error("decision journal error", "error", err)
		return 1
	}
	defer func() {
		if err := journal.Close(); err != nil {
			slog.Error("failed to close decision journal", "error", err)
		}
	}()

	candidates, err := watchlist.ReadCSV(cfg.Paths.Watchlist)
	if err != nil {
		slog.Error("watch list error", "error", err)
		return 1
	}

	support, err := indicator.NewSupportModel(cfg.AVSL)
	if err != nil {
		slog.Error("support model error", "error", err)
		return 2
	}

	var notifier notify.Notifier = notify.NewTelegram(notify.TelegramConfig{
		BotToken: cfg.TelegramToken,
		ChatID:   cfg.TelegramChatID,
	})
	if cfg.DryRun {
		notifier = notify.Writer{W: os.Stdout}
	}

	account := broker.NewAlpaca(cfg.APIKey, cfg.APISecret, cfg.BaseURL, broker.RetryPolicy{
		MaxRetries: cfg.API.MaxRetries,
		Delay:      cfg.API.RetryDelay(),
	})

	eng := engine.New(engine.Options{
		Strategy:      cfg.Strategy,
		Sell:          cfg.Sell,
		Cooldown:      cfg.Cooldown,
		Sizing:        cfg.Sizing,
		Lookback:      cfg.Lookback(),
		Parallelism:   cfg.Parallelism,
		SelectionPath: cfg.Paths.Selection,
		RunID:         runID,
	}, engine.Deps{
		Provider:      md.NewAlpacaProvider(cfg.APIKey, cfg.APISecret, cfg.Feed),
		Account:       account,
		Notifier:      notifier,
		Support:       support,
		TrailingStore: state.NewJSONStore[trailing.Entry](cfg.Paths.Trailing),
		CooldownStore: state.NewJSONStore[risk.Entry](cfg.Paths.Cooldown),
		Journal:       journal,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting finder", "run_id", runID, "candidates", len(candidates), "avsl", support.Name(), "dry_run", cfg.DryRun)
	result, err := eng.Run(ctx, candidates)
	if err != nil {
		slog.Error("cycle failed", "error", err)
		return 1
	}
	for _, d := range result.Degraded {
		slog.Warn("cycle degraded", "error", d)
	}
	slog.Info("finder done", "run_id", runID, "buys", len(result.Buys), "sells", len(result.Sells), "kept", len(result.Final))
	return 0
}
