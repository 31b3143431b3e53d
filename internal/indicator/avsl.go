package indicator

import (
	"fmt"
	"log/slog"
	"math"

	"stockfinder/internal/md"
)

const (
	ModeDormeier = "dormeier"
	ModeLegacy   = "legacy"
)

// AVSLParams configures both support models. Only the fields of the selected
// mode are read.
type AVSLParams struct {
	Mode       string  `yaml:"mode"`
	FastWindow int     `yaml:"fast_window"`
	SlowWindow int     `yaml:"slow_window"`
	MinLength  int     `yaml:"min_length"`
	MaxLength  int     `yaml:"max_length"`
	StdDevMult float64 `yaml:"stddev_mult"`

	PeriodDays             int     `yaml:"period_days"`
	VolumeDeclineThreshold float64 `yaml:"volume_decline_threshold"`
	PriceDeclineThreshold  float64 `yaml:"price_decline_threshold"`
	RecentDays             int     `yaml:"recent_days"`
}

func DefaultAVSLParams() AVSLParams {
	return AVSLParams{
		Mode:                   ModeDormeier,
		FastWindow:             5,
		SlowWindow:             20,
		MinLength:              3,
		MaxLength:              50,
		StdDevMult:             2.0,
		PeriodDays:             50,
		VolumeDeclineThreshold: 0.5,
		PriceDeclineThreshold:  0.03,
		RecentDays:             5,
	}
}

// SupportModel decides whether a symbol's volume support has broken.
type SupportModel interface {
	Name() string
	Breached(symbol string, series md.Series) bool
}

func NewSupportModel(params AVSLParams) (SupportModel, error) {
	switch params.Mode {
	case ModeDormeier, "":
		return Dormeier{params: params}, nil
	case ModeLegacy:
		return Legacy{params: params}, nil
	default:
		return nil, fmt.Errorf("unknown avsl mode: %s", params.Mode)
	}
}

// AVSLResult is the latest Buff Dormeier band value with the inputs that shaped it.
type AVSLResult struct {
	Support  float64
	Length   int
	VPCIMean float64
}

// Dormeier is the anti-volume stop loss: a lower Bollinger-style band over a
// volume adjusted low, with a lookback that adapts to VPCI.
type Dormeier struct {
	params AVSLParams
}

func NewDormeier(params AVSLParams) Dormeier {
	return Dormeier{params: params}
}

func (d Dormeier) Name() string {
	return ModeDormeier
}

func (d Dormeier) Breached(symbol string, series md.Series) bool {
	result, ok := d.Compute(series)
	if !ok {
		slog.Debug("avsl unavailable", "symbol", symbol, "bars", len(series))
		return false
	}
	last := series.LastClose()
	breached := last < result.Support
	slog.Debug("avsl evaluated", "symbol", symbol, "close", last, "support", result.Support, "length", result.Length, "breached", breached)
	return breached
}

// Compute returns the latest AVSL value, or false when history is too short,
// an intermediate is not finite, or the support is not positive.
func (d Dormeier) Compute(series md.Series) (AVSLResult, bool) {
	p := d.params
	fast, slow := p.FastWindow, p.SlowWindow
	if fast <= 0 || slow <= 0 || fast > slow || len(series) < 2*slow-1 {
		return AVSLResult{}, false
	}

	vpc, vpci := VPCI(series, fast, slow)
	vpciMean, ok := SMA(vpci, slow)
	if !ok {
		return AVSLResult{}, false
	}
	length := DynamicLength(vpciMean, p.MinLength, p.MaxLength)
	if length < 2 || len(series)-(slow-1) < length {
		return AVSLResult{}, false
	}

	lows := series.Lows()
	priceComponent := make([]float64, len(series))
	for i := range priceComponent {
		priceComponent[i] = lows[i] * (1 + 0.1*vpc[i])
	}

	means := RollingMean(priceComponent, length)
	stds := RollingStd(priceComponent, length)
	band := make([]float64, len(series))
	for i := range band {
		band[i] = means[i] - p.StdDevMult*stds[i]
	}
	support, ok := lastFinite(band)
	if !ok || support <= 0 {
		return AVSLResult{}, false
	}
	return AVSLResult{Support: support, Length: length, VPCIMean: vpciMean}, true
}

// DynamicLength maps the mean VPCI onto a band lookback in [minLength, maxLength].
func DynamicLength(vpciMean float64, minLength, maxLength int) int {
	length := minLength + int(math.Round(10*vpciMean))
	if length < minLength {
		length = minLength
	}
	if length > maxLength {
		length = maxLength
	}
	return length
}

// VPCI returns the volume-price component VPC and the index VPCI, both aligned
// with series and NaN before the slow window fills.
func VPCI(series md.Series, fast, slow int) (vpc []float64, vpci []float64) {
	n := len(series)
	vpc = make([]float64, n)
	vpci = make([]float64, n)
	closes := series.Closes()
	volumes := series.Volumes()

	for i := 0; i < n; i++ {
		vpc[i] = math.NaN()
		vpci[i] = math.NaN()
		if i < slow-1 {
			continue
		}

		weighted, volume := 0.0, 0.0
		for _, bar := range series[i-slow+1 : i+1] {
			typical := (bar.High + bar.Low + bar.Close) / 3
			weighted += typical * bar.Volume
			volume += bar.Volume
		}
		if volume <= 0 || closes[i] <= 0 {
			continue
		}
		vwap := weighted / volume
		component := (closes[i] - vwap) / closes[i]
		if !finite(component) {
			continue
		}

		vpr := ratio(closes, fast, slow, i)
		vm := ratio(volumes, fast, slow, i)
		vpc[i] = component
		vpci[i] = math.Abs(component) * vpr * vm
	}
	return vpc, vpci
}

// ratio is fast/slow moving average at index i; a zero or missing slow
// average counts as a neutral 1.0.
func ratio(values []float64, fast, slow, i int) float64 {
	fastMA, okFast := SMAAt(values, fast, i)
	slowMA, okSlow := SMAAt(values, slow, i)
	if !okFast || !okSlow || slowMA == 0 {
		return 1.0
	}
	r := fastMA / slowMA
	if !finite(r) {
		return 1.0
	}
	return r
}

// Legacy is the earlier volume-decline heuristic: recent volume far below the
// period average, together with a falling price or an abnormally quiet last day.
type Legacy struct {
	params AVSLParams
}

func NewLegacy(params AVSLParams) Legacy {
	return Legacy{params: params}
}

func (l Legacy) Name() string {
	return ModeLegacy
}

func (l Legacy) Breached(symbol string, series md.Series) bool {
	p := l.params
	n := len(series)
	if p.PeriodDays <= 0 || p.RecentDays <= 0 || n < p.PeriodDays || n < p.RecentDays+1 {
		slog.Debug("legacy avsl unavailable", "symbol", symbol, "bars", n)
		return false
	}

	avgVolume := Mean(series.Tail(p.PeriodDays).Volumes())
	recentVolume := Mean(series.Tail(p.RecentDays).Volumes())
	latest, _ := series.Last()
	reference := series[n-1-p.RecentDays].Close
	if !finite(avgVolume) || avgVolume <= 0 || !finite(recentVolume) || reference <= 0 {
		return false
	}

	floor := avgVolume * (1 - p.VolumeDeclineThreshold)
	priceChange := (latest.Close - reference) / reference
	volumeLow := recentVolume < floor
	priceDecline := priceChange <= -p.PriceDeclineThreshold
	latestQuiet := latest.Volume < floor/2

	breached := volumeLow && (priceDecline || latestQuiet)
	slog.Debug("legacy avsl evaluated", "symbol", symbol, "avg_volume", avgVolume, "recent_volume", recentVolume, "price_change", priceChange, "breached", breached)
	return breached
}
