package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockfinder/internal/md"
)

func flatBars(n int, close, volume float64) md.Series {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make(md.Series, n)
	for i := range series {
		series[i] = md.Bar{
			Time:   start.AddDate(0, 0, i),
			Open:   close,
			High:   close + 1,
			Low:    close - 1,
			Close:  close,
			Volume: volume,
		}
	}
	return series
}

func TestSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}

	mean, ok := SMA(values, 3)
	require.True(t, ok)
	assert.Equal(t, 4.0, mean)

	mean, ok = SMAAt(values, 2, 1)
	require.True(t, ok)
	assert.Equal(t, 1.5, mean)

	_, ok = SMA(values, 6)
	assert.False(t, ok)
	_, ok = SMA(values, 0)
	assert.False(t, ok)
}

func TestRollingMeanAndStd(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	means := RollingMean(values, 8)
	assert.True(t, math.IsNaN(means[6]))
	assert.Equal(t, 5.0, means[7])

	stds := RollingStd(values, 8)
	assert.True(t, math.IsNaN(stds[0]))
	assert.InDelta(t, math.Sqrt(32.0/7.0), stds[7], 1e-12)
}

func TestRollingMeanPropagatesNaN(t *testing.T) {
	values := []float64{math.NaN(), 1, 2, 3}
	means := RollingMean(values, 2)
	assert.True(t, math.IsNaN(means[1]))
	assert.Equal(t, 1.5, means[2])
}

func TestATR(t *testing.T) {
	series := flatBars(20, 10, 100)
	assert.Equal(t, 2.0, ATR(series, 14))

	series[19].High = 20
	series[19].Low = 9
	// true range of the last bar is 11, the others stay at 2
	assert.InDelta(t, (13*2.0+11)/14, ATR(series, 14), 1e-12)
}

func TestATRUsesPreviousCloseGap(t *testing.T) {
	series := md.Series{
		{High: 10, Low: 9, Close: 9.5},
		{High: 15, Low: 14, Close: 14.5},
	}
	assert.Equal(t, 5.5, ATR(series, 1))
}

func TestATRInsufficientHistory(t *testing.T) {
	assert.Zero(t, ATR(flatBars(14, 10, 100), 14))
	assert.Zero(t, ATR(nil, 14))
	assert.Zero(t, ATR(flatBars(30, 10, 100), 0))
}

func TestDynamicLengthClamps(t *testing.T) {
	assert.Equal(t, 3, DynamicLength(0, 3, 50))
	assert.Equal(t, 8, DynamicLength(0.5, 3, 50))
	assert.Equal(t, 50, DynamicLength(100, 3, 50))
	assert.Equal(t, 3, DynamicLength(-1, 3, 50))
}

func TestVPCIFlatSeriesIsZero(t *testing.T) {
	vpc, vpci := VPCI(flatBars(40, 100, 1000), 5, 20)
	assert.True(t, math.IsNaN(vpci[18]))
	assert.Equal(t, 0.0, vpc[19])
	assert.Equal(t, 0.0, vpci[39])
}

func TestVPCIZeroVolumeIsUnavailable(t *testing.T) {
	_, vpci := VPCI(flatBars(40, 100, 0), 5, 20)
	assert.True(t, math.IsNaN(vpci[39]))
}

func TestDormeierInsufficientHistory(t *testing.T) {
	model := NewDormeier(DefaultAVSLParams())
	_, ok := model.Compute(flatBars(38, 100, 1000))
	assert.False(t, ok)
	assert.False(t, model.Breached("AAPL", flatBars(10, 100, 1000)))
}

func TestDormeierFlatSeriesHolds(t *testing.T) {
	model := NewDormeier(DefaultAVSLParams())
	series := flatBars(60, 100, 1000)

	result, ok := model.Compute(series)
	require.True(t, ok)
	assert.Equal(t, 3, result.Length)
	assert.InDelta(t, 99.0, result.Support, 1e-9)
	assert.False(t, model.Breached("AAPL", series))
}

func TestDormeierBreachBelowSupport(t *testing.T) {
	params := DefaultAVSLParams()
	params.StdDevMult = 0
	model := NewDormeier(params)

	series := flatBars(60, 100, 1000)
	series = append(series, md.Bar{High: 98, Low: 97, Close: 97.5, Volume: 1000})

	result, ok := model.Compute(series)
	require.True(t, ok)
	assert.Greater(t, result.Support, 97.5)
	assert.True(t, model.Breached("AAPL", series))
}

func TestDormeierNonPositiveSupportIsNoSignal(t *testing.T) {
	series := flatBars(60, 100, 1000)
	for i := range series {
		series[i].Low = 0
	}
	_, ok := NewDormeier(DefaultAVSLParams()).Compute(series)
	assert.False(t, ok)
}

func TestLegacyBreach(t *testing.T) {
	series := flatBars(50, 100, 1000)
	for _, close := range []float64{99, 98, 97, 96, 95} {
		series = append(series, md.Bar{High: close + 1, Low: close - 1, Close: close, Volume: 200})
	}
	assert.True(t, NewLegacy(DefaultAVSLParams()).Breached("AAPL", series))
}

func TestLegacyNormalVolumeHolds(t *testing.T) {
	series := flatBars(60, 100, 1000)
	assert.False(t, NewLegacy(DefaultAVSLParams()).Breached("AAPL", series))
	assert.False(t, NewLegacy(DefaultAVSLParams()).Breached("AAPL", flatBars(10, 100, 1000)))
}

func TestNewSupportModel(t *testing.T) {
	params := DefaultAVSLParams()
	model, err := NewSupportModel(params)
	require.NoError(t, err)
	assert.Equal(t, ModeDormeier, model.Name())

	params.Mode = ModeLegacy
	model, err = NewSupportModel(params)
	require.NoError(t, err)
	assert.Equal(t, ModeLegacy, model.Name())

	params.Mode = "bogus"
	_, err = NewSupportModel(params)
	assert.Error(t, err)
}
