package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Closes extracts the close prices of bars, oldest first.
func Closes(bars []OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// LotConstraint is the exchange-supplied quantity grid for a pair.
type LotConstraint struct {
	StepSize decimal.Decimal
	MinQty   decimal.Decimal
}

// MarketView is what one poll cycle observed about the market.
type MarketView struct {
	Symbol    string
	Price     float64
	Snapshot  IndicatorSnapshot
	FetchedAt time.Time
}
