package collector

import (
	"context"
	"fmt"
	"time"

	"PairTrader/internal/calculator"
	"PairTrader/internal/model"
)

// Collector orchestrates data fetching and indicator computation.
type Collector struct {
	Fetcher Fetcher
	Config  model.StrategyConfig
	History *calculator.History

	now func() time.Time
}

// NewCollector creates a new Collector for cfg.Symbol.
func NewCollector(fetcher Fetcher, cfg model.StrategyConfig) *Collector {
	return &Collector{
		Fetcher: fetcher,
		Config:  cfg,
		History: calculator.NewHistory(cfg.History),
		now:     time.Now,
	}
}

// limit returns the number of candles to request; never fewer than the
// indicator engine needs.
func (c *Collector) limit() int {
	if need := c.Config.MinCandles(); c.Config.CandleLimit < need {
		return need
	}
	return c.Config.CandleLimit
}

// Collect fetches candles and the latest trade price and computes the
// indicator snapshot. A failed cycle leaves History untouched.
func (c *Collector) Collect(ctx context.Context) (*model.MarketView, error) {
	bars, err := c.Fetcher.Candles(ctx, c.Config.Symbol, c.Config.Interval, c.limit())
	if err != nil {
		return nil, fmt.Errorf("fetch candles: %w", err)
	}
	snap, err := calculator.Compute(bars, c.Config)
	if err != nil {
		return nil, fmt.Errorf("compute indicators: %w", err)
	}
	price, err := c.Fetcher.RecentTradePrice(ctx, c.Config.Symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch recent trade: %w", err)
	}

	return &model.MarketView{
		Symbol:    c.Config.Symbol,
		Price:     price,
		Snapshot:  c.History.Apply(snap),
		FetchedAt: c.now(),
	}, nil
}
