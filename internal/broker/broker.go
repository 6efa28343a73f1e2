package broker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"PairTrader/internal/exchange"
	"PairTrader/internal/fund"
	"PairTrader/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFilled is returned when the exchange acknowledged an order but
// executed none of it.
var ErrNotFilled = errors.New("order not filled")

// Broker turns buy/sell intents into sized market orders. It never retries
// an order; a failed order is reported and the next cycle decides again.
type Broker struct {
	Client     exchange.Client
	Sizer      *fund.Sizer
	Symbol     string
	BaseAsset  string
	QuoteAsset string
	Paper      bool

	newID func() string
	now   func() time.Time

	mu  sync.Mutex
	lot *model.LotConstraint
}

// New creates a Broker for the pair described by cfg.
func New(client exchange.Client, sizer *fund.Sizer, cfg model.StrategyConfig, paper bool) *Broker {
	return &Broker{
		Client:     client,
		Sizer:      sizer,
		Symbol:     cfg.Symbol,
		BaseAsset:  cfg.BaseAsset,
		QuoteAsset: cfg.QuoteAsset,
		Paper:      paper,
		newID:      func() string { return uuid.NewString() },
		now:        time.Now,
	}
}

// ResetLotCache drops the cached lot constraint so the next order fetches
// a fresh one.
func (b *Broker) ResetLotCache() {
	b.mu.Lock()
	b.lot = nil
	b.mu.Unlock()
}

func (b *Broker) lotConstraint(ctx context.Context) (model.LotConstraint, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lot != nil {
		return *b.lot, nil
	}
	lot, err := b.Client.SymbolConstraints(ctx, b.Symbol)
	if err != nil {
		return model.LotConstraint{}, fmt.Errorf("lot constraint: %w", err)
	}
	b.lot = &lot
	return lot, nil
}

// Execute places the order a decision calls for; HOLD returns nil, nil.
func (b *Broker) Execute(ctx context.Context, d model.Decision) (*model.Fill, error) {
	switch d.Action {
	case model.ActionBuy:
		return b.MarketBuy(ctx, d.Reason)
	case model.ActionSell:
		return b.MarketSell(ctx, d.Reason)
	}
	return nil, nil
}

// MarketBuy spends the whole quote balance, less the safety margin. A
// balance under the sizer's floor returns *fund.InsufficientFundsError
// before anything is sent.
func (b *Broker) MarketBuy(ctx context.Context, reason string) (*model.Fill, error) {
	quote, err := b.Client.Balance(ctx, b.QuoteAsset)
	if err != nil {
		return nil, fmt.Errorf("%s balance: %w", b.QuoteAsset, err)
	}
	if err := b.Sizer.CheckQuote(quote); err != nil {
		return nil, err
	}
	last, err := b.Client.RecentTradePrice(ctx, b.Symbol)
	if err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	lot, err := b.lotConstraint(ctx)
	if err != nil {
		return nil, err
	}
	price := decimal.NewFromFloat(last)
	qty, err := b.Sizer.SizeBuy(quote, price, lot)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] buying %s %s with %s %s at ~%s", qty, b.BaseAsset, quote, b.QuoteAsset, price)
	return b.submit(ctx, model.SideBuy, qty, price, reason)
}

// MarketSell sells the whole base balance.
func (b *Broker) MarketSell(ctx context.Context, reason string) (*model.Fill, error) {
	base, err := b.Client.Balance(ctx, b.BaseAsset)
	if err != nil {
		return nil, fmt.Errorf("%s balance: %w", b.BaseAsset, err)
	}
	lot, err := b.lotConstraint(ctx)
	if err != nil {
		return nil, err
	}
	qty, err := b.Sizer.SizeSell(base, lot)
	if err != nil {
		return nil, err
	}
	last, err := b.Client.RecentTradePrice(ctx, b.Symbol)
	if err != nil {
		return nil, fmt.Errorf("price: %w", err)
	}
	log.Printf("[INFO] selling %s %s", qty, b.BaseAsset)
	return b.submit(ctx, model.SideSell, qty, decimal.NewFromFloat(last), reason)
}

func (b *Broker) submit(ctx context.Context, side model.Side, qty, refPrice decimal.Decimal, reason string) (*model.Fill, error) {
	req := exchange.OrderRequest{
		Symbol:        b.Symbol,
		Side:          side,
		Quantity:      qty,
		ClientOrderID: b.newID(),
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Once sent, the order is left to complete even if ctx is cancelled; the
	// HTTP client timeout bounds it.
	conf, err := b.Client.SubmitMarketOrder(context.WithoutCancel(ctx), req)
	if err != nil {
		if errors.Is(err, exchange.ErrBelowMinQty) {
			b.ResetLotCache()
		}
		return nil, err
	}
	if conf.ExecutedQty.Sign() <= 0 {
		return nil, fmt.Errorf("%w: order %s status %s", ErrNotFilled, conf.OrderID, conf.Status)
	}

	price := refPrice
	if conf.QuoteQty.Sign() > 0 {
		price = conf.QuoteQty.Div(conf.ExecutedQty)
	}
	return &model.Fill{
		Intent:        model.OrderIntent{Side: side, Symbol: b.Symbol},
		Quantity:      conf.ExecutedQty,
		Price:         price,
		OrderID:       conf.OrderID,
		ClientOrderID: req.ClientOrderID,
		Reason:        reason,
		Paper:         b.Paper,
		FilledAt:      b.now(),
	}, nil
}
