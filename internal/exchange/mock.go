package exchange

import (
	"context"
	"strconv"
	"sync"
	"time"

	"PairTrader/internal/model"

	"github.com/shopspring/decimal"
)

// Mock returns controllable fixed data for development and testing. Every
// submitted order is recorded and, unless OrderErr is set, filled in full.
type Mock struct {
	mu sync.Mutex

	Price    float64
	Bars     []model.OHLCV
	Balances map[string]decimal.Decimal
	Lot      model.LotConstraint

	PriceErr   error
	CandlesErr error
	BalanceErr error
	LotErr     error
	OrderErr   error

	Orders          []OrderRequest
	ConstraintCalls int
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) RecentTradePrice(context.Context, string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Price, m.PriceErr
}

func (m *Mock) Candles(_ context.Context, _ string, _ string, limit int) ([]model.OHLCV, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CandlesErr != nil {
		return nil, m.CandlesErr
	}
	if m.Bars != nil {
		return append([]model.OHLCV(nil), m.Bars...), nil
	}
	return generateMockBars(m.Price, limit), nil
}

func (m *Mock) Balance(_ context.Context, asset string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BalanceErr != nil {
		return decimal.Zero, m.BalanceErr
	}
	return m.Balances[asset], nil
}

func (m *Mock) SymbolConstraints(context.Context, string) (model.LotConstraint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ConstraintCalls++
	return m.Lot, m.LotErr
}

func (m *Mock) SubmitMarketOrder(_ context.Context, req OrderRequest) (*model.OrderConfirmation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Orders = append(m.Orders, req)
	if m.OrderErr != nil {
		return nil, m.OrderErr
	}
	quote := req.Quantity.Mul(decimal.NewFromFloat(m.Price))
	return &model.OrderConfirmation{
		OrderID:       "mock-" + strconv.Itoa(len(m.Orders)),
		ClientOrderID: req.ClientOrderID,
		Status:        "FILLED",
		ExecutedQty:   req.Quantity,
		QuoteQty:      quote,
	}, nil
}

// SetBars replaces the candle series returned by Candles.
func (m *Mock) SetBars(bars []model.OHLCV) {
	m.mu.Lock()
	m.Bars = bars
	m.mu.Unlock()
}

// OrderCount returns how many orders were submitted.
func (m *Mock) OrderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Orders)
}

// BarsFromCloses builds one-minute candles from close prices.
func BarsFromCloses(closes []float64) []model.OHLCV {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time:  start.Add(time.Duration(i) * time.Minute),
			Open:  c,
			High:  c,
			Low:   c,
			Close: c,
		}
	}
	return bars
}

func generateMockBars(basePrice float64, count int) []model.OHLCV {
	closes := make([]float64, count)
	for i := range closes {
		closes[i] = basePrice * (1 + float64(i-count/2)*0.001)
	}
	return BarsFromCloses(closes)
}
