package broker

import (
	"context"
	"errors"
	"testing"

	"PairTrader/internal/exchange"
	"PairTrader/internal/fund"
	"PairTrader/internal/model"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newBroker(m *exchange.Mock) *Broker {
	cfg := model.StrategyConfig{Symbol: "BTCUSDT", BaseAsset: "BTC", QuoteAsset: "USDT"}
	b := New(m, fund.NewSizer("USDT", decimal.Zero, decimal.Zero), cfg, false)
	b.newID = func() string { return "fixed-id" }
	return b
}

func newMock() *exchange.Mock {
	return &exchange.Mock{
		Price:    30000,
		Balances: map[string]decimal.Decimal{"USDT": d("100"), "BTC": d("0.0033299")},
		Lot:      model.LotConstraint{StepSize: d("0.00001"), MinQty: d("0.00001")},
	}
}

func TestMarketBuy(t *testing.T) {
	m := newMock()
	b := newBroker(m)
	fill, err := b.MarketBuy(context.Background(), "entry:test")
	if err != nil {
		t.Fatalf("MarketBuy: %v", err)
	}
	if len(m.Orders) != 1 {
		t.Fatalf("orders = %d", len(m.Orders))
	}
	req := m.Orders[0]
	if req.Side != model.SideBuy || !req.Quantity.Equal(d("0.00332")) || req.ClientOrderID != "fixed-id" {
		t.Errorf("request = %+v", req)
	}
	if !fill.Price.Equal(d("30000")) || fill.Reason != "entry:test" || fill.Intent.Symbol != "BTCUSDT" {
		t.Errorf("fill = %+v", fill)
	}
}

func TestMarketBuyBelowFloorPlacesNoOrder(t *testing.T) {
	m := newMock()
	m.Balances["USDT"] = d("3")
	b := newBroker(m)
	_, err := b.MarketBuy(context.Background(), "entry:test")
	var ife *fund.InsufficientFundsError
	if !errors.As(err, &ife) {
		t.Fatalf("expected InsufficientFundsError, got %v", err)
	}
	if m.OrderCount() != 0 {
		t.Errorf("orders placed: %d", m.OrderCount())
	}
	if m.ConstraintCalls != 0 {
		t.Errorf("lot constraint fetched before the floor check")
	}
}

func TestMarketSell(t *testing.T) {
	m := newMock()
	b := newBroker(m)
	fill, err := b.Execute(context.Background(), model.Decision{Action: model.ActionSell, Reason: "exit:test"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !fill.Quantity.Equal(d("0.00332")) || fill.Intent.Side != model.SideSell {
		t.Errorf("fill = %+v", fill)
	}
}

func TestExecuteHold(t *testing.T) {
	m := newMock()
	fill, err := newBroker(m).Execute(context.Background(), model.Decision{Action: model.ActionHold})
	if fill != nil || err != nil || m.OrderCount() != 0 {
		t.Errorf("hold placed an order: %v %v", fill, err)
	}
}

func TestSellDustIsBelowMin(t *testing.T) {
	m := newMock()
	m.Balances["BTC"] = d("0.000001")
	_, err := newBroker(m).MarketSell(context.Background(), "exit:test")
	if !errors.Is(err, fund.ErrBelowMinQty) {
		t.Fatalf("err = %v", err)
	}
	if m.OrderCount() != 0 {
		t.Error("dust sell placed an order")
	}
}

func TestLotCache(t *testing.T) {
	m := newMock()
	b := newBroker(m)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := b.MarketSell(ctx, "x"); err != nil {
			t.Fatalf("sell %d: %v", i, err)
		}
	}
	if m.ConstraintCalls != 1 {
		t.Errorf("constraint calls = %d, want 1", m.ConstraintCalls)
	}
	b.ResetLotCache()
	if _, err := b.MarketSell(ctx, "x"); err != nil {
		t.Fatal(err)
	}
	if m.ConstraintCalls != 2 {
		t.Errorf("constraint calls after reset = %d, want 2", m.ConstraintCalls)
	}
}

func TestOrderRejectionIsNotRetried(t *testing.T) {
	m := newMock()
	m.OrderErr = exchange.ErrInsufficientBalance
	b := newBroker(m)
	_, err := b.MarketBuy(context.Background(), "entry:test")
	if !errors.Is(err, exchange.ErrInsufficientBalance) {
		t.Fatalf("err = %v", err)
	}
	if m.OrderCount() != 1 {
		t.Errorf("orders = %d, want exactly 1", m.OrderCount())
	}
}

func TestFilterRejectionResetsLotCache(t *testing.T) {
	m := newMock()
	b := newBroker(m)
	ctx := context.Background()
	if _, err := b.MarketSell(ctx, "x"); err != nil {
		t.Fatal(err)
	}
	m.OrderErr = &exchange.APIError{Status: 400, Code: -1013, Msg: "Filter failure: LOT_SIZE"}
	if _, err := b.MarketSell(ctx, "x"); !errors.Is(err, exchange.ErrBelowMinQty) {
		t.Fatalf("err = %v", err)
	}
	m.OrderErr = nil
	if _, err := b.MarketSell(ctx, "x"); err != nil {
		t.Fatal(err)
	}
	if m.ConstraintCalls != 2 {
		t.Errorf("constraint calls = %d, want 2", m.ConstraintCalls)
	}
}

type cancelOnSubmit struct {
	*exchange.Mock
	cancel context.CancelFunc
}

func (c *cancelOnSubmit) SubmitMarketOrder(ctx context.Context, req exchange.OrderRequest) (*model.OrderConfirmation, error) {
	c.cancel()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.Mock.SubmitMarketOrder(ctx, req)
}

func TestSubmitSurvivesCancelInFlight(t *testing.T) {
	m := newMock()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := model.StrategyConfig{Symbol: "BTCUSDT", BaseAsset: "BTC", QuoteAsset: "USDT"}
	b := New(&cancelOnSubmit{Mock: m, cancel: cancel}, fund.NewSizer("USDT", decimal.Zero, decimal.Zero), cfg, false)

	fill, err := b.MarketBuy(ctx, "entry:test")
	if err != nil {
		t.Fatalf("MarketBuy: %v", err)
	}
	if m.OrderCount() != 1 || !fill.Quantity.Equal(d("0.00332")) {
		t.Errorf("orders = %d, fill = %+v", m.OrderCount(), fill)
	}
}

func TestExecuteAfterCancelPlacesNoOrder(t *testing.T) {
	m := newMock()
	b := newBroker(m)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Execute(ctx, model.Decision{Action: model.ActionBuy, Reason: "entry:test"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if m.OrderCount() != 0 {
		t.Errorf("orders placed: %d", m.OrderCount())
	}
}
