package collector

import (
	"context"

	"PairTrader/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	Candles(ctx context.Context, symbol, interval string, limit int) ([]model.OHLCV, error)
	RecentTradePrice(ctx context.Context, symbol string) (float64, error)
	Name() string
}
