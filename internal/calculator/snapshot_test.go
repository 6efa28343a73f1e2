package calculator

import (
	"errors"
	"math"
	"testing"
	"time"

	"PairTrader/internal/model"
)

func makeBars(closes []float64) []model.OHLCV {
	bars := make([]model.OHLCV, len(closes))
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = model.OHLCV{Time: start.Add(time.Duration(i) * time.Minute), Open: c, High: c, Low: c, Close: c}
	}
	return bars
}

func crossoverConfig() model.StrategyConfig {
	return model.StrategyConfig{Indicators: model.IndicatorsRSIEMA, RSIPeriod: 14, EMAShort: 9, EMALong: 20}
}

func TestCompute_Insufficient(t *testing.T) {
	_, err := Compute(makeBars(linear(10, 1, 22)), crossoverConfig())
	var die *DataInsufficientError
	if !errors.As(err, &die) {
		t.Fatalf("expected DataInsufficientError, got %v", err)
	}
	if die.Need != 23 {
		t.Errorf("expected need 23 (longest window + 3), got %d", die.Need)
	}
}

func TestCompute_RSIOnlyNeedsShorterSeries(t *testing.T) {
	cfg := model.StrategyConfig{Indicators: model.IndicatorsRSI, RSIPeriod: 14}
	snap, err := Compute(makeBars(linear(10, 1, 17)), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.HasEMA {
		t.Error("expected no EMA values for rsi-only config")
	}
	if snap.Close != 26 {
		t.Errorf("expected last close 26, got %.2f", snap.Close)
	}
}

func TestCompute_RejectsNonFinite(t *testing.T) {
	closes := linear(10, 1, 30)
	closes[5] = math.NaN()
	if _, err := Compute(makeBars(closes), crossoverConfig()); err == nil {
		t.Error("expected error for NaN close")
	}
}

func TestCompute_GoldenCross(t *testing.T) {
	closes := append(linear(100, -1, 40), 200)
	snap, err := Compute(makeBars(closes), crossoverConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snap.GoldenCross() {
		t.Errorf("expected golden cross: prev %.3f/%.3f cur %.3f/%.3f",
			snap.PrevEMAShort, snap.PrevEMALong, snap.EMAShort, snap.EMALong)
	}
	if snap.DeathCross() {
		t.Error("unexpected death cross")
	}
}

func TestCompute_DeathCross(t *testing.T) {
	closes := append(linear(60, 1, 40), 1)
	snap, err := Compute(makeBars(closes), crossoverConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snap.DeathCross() {
		t.Errorf("expected death cross: prev %.3f/%.3f cur %.3f/%.3f",
			snap.PrevEMAShort, snap.PrevEMALong, snap.EMAShort, snap.EMALong)
	}
}

func TestCompute_TrendAvg(t *testing.T) {
	closes := linear(10, 1, 60)
	snap, err := Compute(makeBars(closes), crossoverConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	short, _ := CalculateEMASeries(closes, 9)
	long, _ := CalculateEMASeries(closes, 20)
	n := len(closes)
	want := (short[n-1] - long[n-1] + short[n-2] - long[n-2] + short[n-3] - long[n-3]) / 3
	if math.Abs(snap.TrendAvg-want) > 1e-9 {
		t.Errorf("expected trend %.6f, got %.6f", want, snap.TrendAvg)
	}
	if snap.TrendAvg <= 0 {
		t.Error("expected positive trend on rising closes")
	}
}

func TestCompute_PreviousValuesAreOneCandleBack(t *testing.T) {
	closes := append(linear(10, 0.1, 40), 9, 8, 14)
	snap, err := Compute(makeBars(closes), crossoverConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rsi, _ := CalculateRSISeries(closes, 14)
	n := len(rsi)
	if snap.RSI != rsi[n-1] || snap.PrevRSI != rsi[n-2] || snap.RSIWindowStart != rsi[n-3] {
		t.Errorf("unexpected rsi fields: %+v", snap)
	}
}
