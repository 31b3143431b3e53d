// Package strategy implements the Minervini trend template and the price-volume
// checks that turn a watch-list into buy and hold candidates.
package strategy

type Action string

const (
	Hold Action = "HOLD"
	Buy  Action = "BUY"
	Sell Action = "SELL"
)

// Params holds the trend template thresholds and the selection cut-offs.
type Params struct {
	HighThresholdRatio  float64 `yaml:"high_threshold_ratio"`
	LowIncreasePercent  float64 `yaml:"low_increase_percent"`
	MA50Days            int     `yaml:"ma_50_days"`
	MA150Days           int     `yaml:"ma_150_days"`
	MA200Days           int     `yaml:"ma_200_days"`
	MAIncreaseCheckDays int     `yaml:"ma_increase_check_days"`
	VolumeWindowDays    int     `yaml:"volume_window_days"`
	MinPriceThreshold   float64 `yaml:"min_price_threshold"`

	CorrelationDays       int     `yaml:"correlation_days"`
	CorrelationStrict     float64 `yaml:"correlation_threshold_strict"`
	CorrelationRelaxed    float64 `yaml:"correlation_threshold_relaxed"`
	Margin                float64 `yaml:"margin"`
	MarginRelaxed         float64 `yaml:"margin_relaxed"`
	ReportCorrelationDays []int   `yaml:"report_correlation_days"`
}

func DefaultParams() Params {
	return Params{
		HighThresholdRatio:    0.75,
		LowIncreasePercent:    30.0,
		MA50Days:              50,
		MA150Days:             150,
		MA200Days:             200,
		MAIncreaseCheckDays:   21,
		VolumeWindowDays:      200,
		MinPriceThreshold:     0.01,
		CorrelationDays:       50,
		CorrelationStrict:     50.0,
		CorrelationRelaxed:    40.0,
		Margin:                0.0,
		MarginRelaxed:         0.1,
		ReportCorrelationDays: []int{200, 100, 50},
	}
}

// MinHistory is the number of bars needed before any moving average check can pass.
func (p Params) MinHistory() int {
	return p.MA200Days + p.MAIncreaseCheckDays
}
