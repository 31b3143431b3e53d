// Package config assembles the run configuration from built-in defaults, an
// optional YAML or JSON file, a .env file, the environment and flags, in
// increasing order of precedence.
package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"stockfinder/internal/indicator"
	"stockfinder/internal/risk"
	"stockfinder/internal/sell"
	"stockfinder/internal/sizing"
	"stockfinder/internal/strategy"
)

type APIConfig struct {
	MaxRetries        int     `yaml:"max_retries"`
	RetryDelaySeconds float64 `yaml:"retry_delay_seconds"`
}

func (a APIConfig) RetryDelay() time.Duration {
	return time.Duration(a.RetryDelaySeconds * float64(time.Second))
}

type Paths struct {
	Watchlist string `yaml:"watchlist"`
	Selection string `yaml:"selection"`
	Trailing  string `yaml:"trailing_state"`
	Cooldown  string `yaml:"cooldown_state"`
	Decisions string `yaml:"decisions"`
}

type Config struct {
	Strategy strategy.Params      `yaml:"strategy"`
	Sell     sell.Params          `yaml:"sell"`
	Cooldown risk.Params          `yaml:"cooldown"`
	Sizing   sizing.Params        `yaml:"investment"`
	AVSL     indicator.AVSLParams `yaml:"avsl"`
	API      APIConfig            `yaml:"api"`
	Paths    Paths                `yaml:"paths"`

	Feed         string `yaml:"feed"`
	LookbackDays int    `yaml:"lookback_days"`
	BaseURL      string `yaml:"base_url"`
	LogLevel     string `yaml:"log_level"`
	Parallelism  int    `yaml:"parallelism"`
	DryRun       bool   `yaml:"dry_run"`

	APIKey         string `yaml:"-"`
	APISecret      string `yaml:"-"`
	TelegramToken  string `yaml:"-"`
	TelegramChatID string `yaml:"-"`
}

func Default() Config {
	return Config{
		Strategy: strategy.DefaultParams(),
		Sell:     sell.DefaultParams(),
		Cooldown: risk.DefaultParams(),
		Sizing:   sizing.DefaultParams(),
		AVSL:     indicator.DefaultAVSLParams(),
		API:      APIConfig{MaxRetries: 5, RetryDelaySeconds: 1.0},
		Paths: Paths{
			Watchlist: "portfolio/portfolio.csv",
			Selection: "data.json",
			Trailing:  "data/trailing_state.json",
			Cooldown:  "data/stop_loss_log.json",
			Decisions: "decisions.ndjson",
		},
		Feed:         "iex",
		LookbackDays: 365,
		BaseURL:      "https://paper-api.alpaca.markets",
		LogLevel:     "info",
	}
}

func (c Config) Lookback() time.Duration {
	return time.Duration(c.LookbackDays) * 24 * time.Hour
}

func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads flags from the process command line.
func Load() (Config, error) {
	return LoadArgs(flag.CommandLine, os.Args[1:])
}

func LoadArgs(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Default()

	var (
		configPath string
		envPath    string
		flagged    Config
	)
	fs.StringVar(&configPath, "config", "", "optional YAML or JSON config file")
	fs.StringVar(&envPath, "env-file", ".env", "dotenv file, ignored when missing")
	fs.StringVar(&flagged.Paths.Watchlist, "watchlist", cfg.Paths.Watchlist, "watch-list CSV")
	fs.StringVar(&flagged.Paths.Selection, "selection-path", cfg.Paths.Selection, "where the kept selection is written")
	fs.StringVar(&flagged.Paths.Trailing, "trailing-path", cfg.Paths.Trailing, "trailing stop state file")
	fs.StringVar(&flagged.Paths.Cooldown, "cooldown-path", cfg.Paths.Cooldown, "stop loss cooldown state file")
	fs.StringVar(&flagged.Paths.Decisions, "decisions-path", cfg.Paths.Decisions, "decision journal")
	fs.StringVar(&flagged.Feed, "feed", cfg.Feed, "market data feed: iex or sip")
	fs.IntVar(&flagged.LookbackDays, "lookback-days", cfg.LookbackDays, "calendar days of daily bars to fetch")
	fs.StringVar(&flagged.BaseURL, "base-url", cfg.BaseURL, "Alpaca trading API base URL")
	fs.StringVar(&flagged.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.IntVar(&flagged.Parallelism, "parallelism", 0, "symbols analysed concurrently, 0 for GOMAXPROCS")
	fs.BoolVar(&flagged.DryRun, "dry-run", false, "print the report instead of sending it")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if configPath != "" {
		if err := loadFile(configPath, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := loadDotEnv(envPath); err != nil {
		return cfg, err
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "watchlist":
			cfg.Paths.Watchlist = flagged.Paths.Watchlist
		case "selection-path":
			cfg.Paths.Selection = flagged.Paths.Selection
		case "trailing-path":
			cfg.Paths.Trailing = flagged.Paths.Trailing
		case "cooldown-path":
			cfg.Paths.Cooldown = flagged.Paths.Cooldown
		case "decisions-path":
			cfg.Paths.Decisions = flagged.Paths.Decisions
		case "feed":
			cfg.Feed = flagged.Feed
		case "lookback-days":
			cfg.LookbackDays = flagged.LookbackDays
		case "base-url":
			cfg.BaseURL = flagged.BaseURL
		case "log-level":
			cfg.LogLevel = flagged.LogLevel
		case "parallelism":
			cfg.Parallelism = flagged.Parallelism
		case "dry-run":
			cfg.DryRun = flagged.DryRun
		}
	})

	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// loadDotEnv never overrides variables that are already set.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func validate(cfg Config) error {
	s := cfg.Strategy
	if s.MA50Days <= 1 || s.MA150Days <= 1 || s.MA200Days <= 1 {
		return fmt.Errorf("moving average windows must be > 1")
	}
	if s.MAIncreaseCheckDays < 1 {
		return fmt.Errorf("ma-increase-check-days must be >= 1")
	}
	if s.MinPriceThreshold <= 0 {
		return fmt.Errorf("min-price-threshold must be > 0")
	}
	if s.CorrelationDays < 2 {
		return fmt.Errorf("correlation days must be >= 2")
	}
	if s.Margin < 0 || s.Margin >= 1 || s.MarginRelaxed < 0 || s.MarginRelaxed >= 1 {
		return fmt.Errorf("margins must be in [0,1)")
	}
	if err := cfg.Sizing.Validate(); err != nil {
		return err
	}
	if cfg.Sell.StopLossPct <= 0 || cfg.Sell.StopLossPct >= 1 {
		return fmt.Errorf("stop loss pct must be in (0,1)")
	}
	if cfg.Sell.Trailing.ATRPeriod <= 0 || cfg.Sell.Trailing.ATRMultiplier <= 0 {
		return fmt.Errorf("atr period and multiplier must be > 0")
	}
	if cfg.Cooldown.BaseDays < 0 || cfg.Cooldown.ExtraDaysPer10 < 0 || cfg.Cooldown.MaxDays < 0 {
		return fmt.Errorf("cooldown days must be >= 0")
	}
	if _, err := indicator.NewSupportModel(cfg.AVSL); err != nil {
		return err
	}
	if cfg.AVSL.FastWindow >= cfg.AVSL.SlowWindow {
		return fmt.Errorf("avsl fast window must be below slow window")
	}
	if cfg.AVSL.MinLength < 2 || cfg.AVSL.MinLength > cfg.AVSL.MaxLength {
		return fmt.Errorf("avsl length bounds invalid: %d..%d", cfg.AVSL.MinLength, cfg.AVSL.MaxLength)
	}
	if cfg.API.MaxRetries < 0 || cfg.API.RetryDelaySeconds < 0 {
		return fmt.Errorf("api retry settings must be >= 0")
	}
	if cfg.LookbackDays <= 0 {
		return fmt.Errorf("lookback-days must be > 0")
	}
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return fmt.Errorf("APCA_API_KEY_ID and APCA_API_SECRET_KEY are required")
	}
	if !cfg.DryRun && (cfg.TelegramToken == "" || cfg.TelegramChatID == "") {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are required unless --dry-run")
	}
	return nil
}
