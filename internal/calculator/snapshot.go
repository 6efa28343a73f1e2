package calculator

import (
	"fmt"
	"math"

	"PairTrader/internal/model"
)

// trendSamples is the number of EMA spreads averaged into TrendAvg.
const trendSamples = 3

// Compute builds the indicator snapshot for the latest bar. It refuses to
// produce a snapshot when the series is shorter than cfg.MinCandles() or
// carries a non-finite close.
func Compute(bars []model.OHLCV, cfg model.StrategyConfig) (model.IndicatorSnapshot, error) {
	if need := cfg.MinCandles(); len(bars) < need {
		return model.IndicatorSnapshot{}, &DataInsufficientError{Indicator: "candles", Need: need, Have: len(bars)}
	}

	closes := model.Closes(bars)
	for i, c := range closes {
		if math.IsNaN(c) || math.IsInf(c, 0) || c <= 0 {
			return model.IndicatorSnapshot{}, fmt.Errorf("invalid close %v at index %d", c, i)
		}
	}

	rsi, err := CalculateRSISeries(closes, cfg.RSIPeriod)
	if err != nil {
		return model.IndicatorSnapshot{}, fmt.Errorf("rsi: %w", err)
	}
	n := len(rsi)
	snap := model.IndicatorSnapshot{
		Close:          closes[len(closes)-1],
		RSI:            rsi[n-1],
		PrevRSI:        rsi[n-2],
		RSIWindowStart: rsi[n-3],
	}
	if !cfg.UsesEMA() {
		return snap, nil
	}

	short, err := CalculateEMASeries(closes, cfg.EMAShort)
	if err != nil {
		return model.IndicatorSnapshot{}, fmt.Errorf("ema short: %w", err)
	}
	long, err := CalculateEMASeries(closes, cfg.EMALong)
	if err != nil {
		return model.IndicatorSnapshot{}, fmt.Errorf("ema long: %w", err)
	}

	last := len(closes) - 1
	spreads := make([]float64, 0, trendSamples)
	for i := last - trendSamples + 1; i <= last; i++ {
		spreads = append(spreads, short[i]-long[i])
	}
	trend, err := CalculateSMA(spreads, trendSamples)
	if err != nil {
		return model.IndicatorSnapshot{}, fmt.Errorf("trend: %w", err)
	}

	snap.HasEMA = true
	snap.EMAShort = short[last]
	snap.EMALong = long[last]
	snap.PrevEMAShort = short[last-1]
	snap.PrevEMALong = long[last-1]
	snap.TrendAvg = trend
	return snap, nil
}
