package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"stockfinder/internal/indicator"
	"stockfinder/internal/sizing"
)

// lookup returns the first non-blank value among key and its aliases.
func lookup(keys ...string) (string, bool) {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v, true
		}
	}
	return "", false
}

var errEnv = errors.New("invalid environment value")

type envReader struct {
	errs []error
}

func (r *envReader) floatVar(key string, dst *float64) {
	v, ok := lookup(key)
	if !ok {
		return
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%w: %s=%q", errEnv, key, v))
		return
	}
	*dst = parsed
}

func (r *envReader) intVar(key string, dst *int) {
	v, ok := lookup(key)
	if !ok {
		return
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%w: %s=%q", errEnv, key, v))
		return
	}
	*dst = parsed
}

func (r *envReader) boolVar(key string, dst *bool) {
	v, ok := lookup(key)
	if !ok {
		return
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%w: %s=%q", errEnv, key, v))
		return
	}
	*dst = parsed
}

func (r *envReader) stringVar(dst *string, keys ...string) {
	if v, ok := lookup(keys...); ok {
		*dst = v
	}
}

func applyEnv(cfg *Config) error {
	r := &envReader{}

	s := &cfg.Strategy
	r.floatVar("HIGH_THRESHOLD_RATIO", &s.HighThresholdRatio)
	r.floatVar("LOW_INCREASE_PERCENT", &s.LowIncreasePercent)
	r.intVar("MA_50_DAYS", &s.MA50Days)
	r.intVar("MA_150_DAYS", &s.MA150Days)
	r.intVar("MA_200_DAYS", &s.MA200Days)
	r.intVar("MA_INCREASE_CHECK_DAYS", &s.MAIncreaseCheckDays)
	r.floatVar("CORRELATION_THRESHOLD_STRICT", &s.CorrelationStrict)
	r.floatVar("CORRELATION_THRESHOLD_RELAXED", &s.CorrelationRelaxed)
	r.floatVar("MARGIN", &s.Margin)
	r.floatVar("MARGIN_RELAXED", &s.MarginRelaxed)
	r.floatVar("MIN_PRICE_THRESHOLD", &s.MinPriceThreshold)

	r.floatVar("STOP_LOSS_PCT", &cfg.Sell.StopLossPct)
	r.boolVar("TRAILING_ENABLED", &cfg.Sell.Trailing.Enabled)
	r.floatVar("TRAILING_MIN_PROFIT_PCT", &cfg.Sell.Trailing.MinProfitPct)
	r.intVar("ATR_PERIOD", &cfg.Sell.Trailing.ATRPeriod)
	r.floatVar("ATR_MULTIPLIER", &cfg.Sell.Trailing.ATRMultiplier)

	r.intVar("STOP_LOSS_COOLDOWN_BASE_DAYS", &cfg.Cooldown.BaseDays)
	r.intVar("STOP_LOSS_COOLDOWN_EXTRA_DAYS_PER_10PCT", &cfg.Cooldown.ExtraDaysPer10)
	r.intVar("STOP_LOSS_COOLDOWN_MAX_DAYS", &cfg.Cooldown.MaxDays)

	r.floatVar("RESERVE_RATIO", &cfg.Sizing.ReserveRatio)
	r.floatVar("MIN_INVESTMENT", &cfg.Sizing.MinInvestment)
	r.floatVar("MAX_INVESTMENT", &cfg.Sizing.MaxInvestment)
	r.stringVar(&cfg.Sizing.Distribution, "DISTRIBUTION_STRATEGY")
	r.floatVar("PROPORTIONAL_PERCENTAGE", &cfg.Sizing.ProportionalPct)
	cfg.Sizing.Distribution = strings.ToLower(cfg.Sizing.Distribution)
	if cfg.Sizing.Distribution == "" {
		cfg.Sizing.Distribution = sizing.DistributionEqual
	}

	a := &cfg.AVSL
	r.stringVar(&a.Mode, "AVSL_MODE")
	a.Mode = strings.ToLower(a.Mode)
	if a.Mode == "" {
		a.Mode = indicator.ModeDormeier
	}
	r.intVar("AVSL_FAST_WINDOW", &a.FastWindow)
	r.intVar("AVSL_SLOW_WINDOW", &a.SlowWindow)
	r.intVar("AVSL_MIN_LENGTH", &a.MinLength)
	r.intVar("AVSL_MAX_LENGTH", &a.MaxLength)
	r.floatVar("AVSL_STDDEV_MULT", &a.StdDevMult)
	r.intVar("AVSL_PERIOD_DAYS", &a.PeriodDays)
	r.floatVar("AVSL_VOLUME_DECLINE_THRESHOLD", &a.VolumeDeclineThreshold)
	r.floatVar("AVSL_PRICE_DECLINE_THRESHOLD", &a.PriceDeclineThreshold)
	r.intVar("AVSL_RECENT_DAYS", &a.RecentDays)

	r.intVar("API_MAX_RETRIES", &cfg.API.MaxRetries)
	r.floatVar("API_RETRY_DELAY_SECONDS", &cfg.API.RetryDelaySeconds)
	r.stringVar(&cfg.LogLevel, "LOG_LEVEL")

	r.stringVar(&cfg.APIKey, "APCA_API_KEY_ID")
	r.stringVar(&cfg.APISecret, "APCA_API_SECRET_KEY")
	r.stringVar(&cfg.TelegramToken, "TELEGRAM_BOT_TOKEN", "telegram_api_key")
	r.stringVar(&cfg.TelegramChatID, "TELEGRAM_CHAT_ID", "telegram_manager_id")

	return errors.Join(r.errs...)
}
