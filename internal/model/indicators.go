package model

// IndicatorSnapshot holds the indicator values for a single evaluation cycle.
// It is built fresh every cycle and passed by value.
type IndicatorSnapshot struct {
	Close float64

	RSI     float64
	PrevRSI float64
	// RSIWindowStart is the oldest RSI of the three-sample window used by
	// fast-rise detection.
	RSIWindowStart float64

	// EMA fields are zero when the strategy runs on RSI alone.
	EMAShort     float64
	EMALong      float64
	PrevEMAShort float64
	PrevEMALong  float64
	TrendAvg     float64 // mean of EMAShort-EMALong over the last 3 samples

	HasEMA bool
}

// GoldenCross reports whether the short EMA crossed above the long EMA.
func (s IndicatorSnapshot) GoldenCross() bool {
	return s.HasEMA && s.PrevEMAShort < s.PrevEMALong && s.EMAShort > s.EMALong
}

// DeathCross reports whether the short EMA crossed below the long EMA.
func (s IndicatorSnapshot) DeathCross() bool {
	return s.HasEMA && s.PrevEMAShort > s.PrevEMALong && s.EMAShort < s.EMALong
}

// RSICrossUp reports whether RSI rose through low since the previous sample.
func (s IndicatorSnapshot) RSICrossUp(low float64) bool {
	return s.PrevRSI < low && s.RSI >= low
}

// RSICrossDown reports whether RSI fell through high since the previous sample.
func (s IndicatorSnapshot) RSICrossDown(high float64) bool {
	return s.PrevRSI > high && s.RSI <= high
}

// FastRise reports whether RSI climbed at least delta across the window and
// sits at or above floor.
func (s IndicatorSnapshot) FastRise(delta, floor float64) bool {
	return s.RSI-s.RSIWindowStart >= delta && s.RSI >= floor
}
