package exchange

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"PairTrader/internal/model"

	"github.com/shopspring/decimal"
)

// Paper trades against simulated balances while reading real market data
// from Market. Orders fill immediately at the latest trade price.
type Paper struct {
	Market     Client
	BaseAsset  string
	QuoteAsset string

	mu       sync.Mutex
	balances map[string]decimal.Decimal
	seq      atomic.Int64
}

// NewPaper creates a paper account holding startQuote of the quote asset.
func NewPaper(market Client, baseAsset, quoteAsset string, startQuote decimal.Decimal) *Paper {
	return &Paper{
		Market:     market,
		BaseAsset:  baseAsset,
		QuoteAsset: quoteAsset,
		balances: map[string]decimal.Decimal{
			baseAsset:  decimal.Zero,
			quoteAsset: startQuote,
		},
	}
}

func (p *Paper) Name() string { return "paper(" + p.Market.Name() + ")" }

func (p *Paper) RecentTradePrice(ctx context.Context, symbol string) (float64, error) {
	return p.Market.RecentTradePrice(ctx, symbol)
}

func (p *Paper) Candles(ctx context.Context, symbol, interval string, limit int) ([]model.OHLCV, error) {
	return p.Market.Candles(ctx, symbol, interval, limit)
}

func (p *Paper) SymbolConstraints(ctx context.Context, symbol string) (model.LotConstraint, error) {
	return p.Market.SymbolConstraints(ctx, symbol)
}

func (p *Paper) Balance(_ context.Context, asset string) (decimal.Decimal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balances[asset], nil
}

// SubmitMarketOrder fills the whole quantity at the recent trade price.
func (p *Paper) SubmitMarketOrder(ctx context.Context, req OrderRequest) (*model.OrderConfirmation, error) {
	last, err := p.Market.RecentTradePrice(ctx, req.Symbol)
	if err != nil {
		return nil, err
	}
	price := decimal.NewFromFloat(last)
	cost := req.Quantity.Mul(price)

	p.mu.Lock()
	defer p.mu.Unlock()
	switch req.Side {
	case model.SideBuy:
		if cost.GreaterThan(p.balances[p.QuoteAsset]) {
			return nil, &APIError{Code: codeNewOrderRejected, Msg: "Account has insufficient balance for requested action."}
		}
		p.balances[p.QuoteAsset] = p.balances[p.QuoteAsset].Sub(cost)
		p.balances[p.BaseAsset] = p.balances[p.BaseAsset].Add(req.Quantity)
	case model.SideSell:
		if req.Quantity.GreaterThan(p.balances[p.BaseAsset]) {
			return nil, &APIError{Code: codeNewOrderRejected, Msg: "Account has insufficient balance for requested action."}
		}
		p.balances[p.BaseAsset] = p.balances[p.BaseAsset].Sub(req.Quantity)
		p.balances[p.QuoteAsset] = p.balances[p.QuoteAsset].Add(cost)
	default:
		return nil, fmt.Errorf("paper: unknown side %q", req.Side)
	}
	return &model.OrderConfirmation{
		OrderID:       "paper-" + strconv.FormatInt(p.seq.Add(1), 10),
		ClientOrderID: req.ClientOrderID,
		Status:        "FILLED",
		ExecutedQty:   req.Quantity,
		QuoteQty:      cost,
	}, nil
}
