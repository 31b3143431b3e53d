package md

import "time"

// Bar is one daily OHLCV observation.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series is a date-ordered run of daily bars for one symbol.
type Series []Bar

func (s Series) Len() int {
	return len(s)
}

// Last returns the most recent bar, or false for an empty series.
func (s Series) Last() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}

// LastClose returns the latest close, or 0 when the series is empty.
func (s Series) LastClose() float64 {
	bar, ok := s.Last()
	if !ok {
		return 0
	}
	return bar.Close
}

// Tail returns the most recent n bars (or all of them when n exceeds the length).
func (s Series) Tail(n int) Series {
	if n <= 0 {
		return Series{}
	}
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, bar := range s {
		out[i] = bar.Close
	}
	return out
}

func (s Series) Highs() []float64 {
	out := make([]float64, len(s))
	for i, bar := range s {
		out[i] = bar.High
	}
	return out
}

func (s Series) Lows() []float64 {
	out := make([]float64, len(s))
	for i, bar := range s {
		out[i] = bar.Low
	}
	return out
}

func (s Series) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, bar := range s {
		out[i] = bar.Volume
	}
	return out
}

// HighestHigh is the max high over the series, 0 when empty.
func (s Series) HighestHigh() float64 {
	high := 0.0
	for i, bar := range s {
		if i == 0 || bar.High > high {
			high = bar.High
		}
	}
	return high
}

// LowestLow is the min low over the series, 0 when empty.
func (s Series) LowestLow() float64 {
	low := 0.0
	for i, bar := range s {
		if i == 0 || bar.Low < low {
			low = bar.Low
		}
	}
	return low
}
