package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"PairTrader/internal/model"

	"github.com/shopspring/decimal"
)

// Client is everything the trader needs from an exchange.
type Client interface {
	Name() string
	RecentTradePrice(ctx context.Context, symbol string) (float64, error)
	Candles(ctx context.Context, symbol, interval string, limit int) ([]model.OHLCV, error)
	Balance(ctx context.Context, asset string) (decimal.Decimal, error)
	SymbolConstraints(ctx context.Context, symbol string) (model.LotConstraint, error)
	SubmitMarketOrder(ctx context.Context, req OrderRequest) (*model.OrderConfirmation, error)
}

// OrderRequest is a fully sized market order.
type OrderRequest struct {
	Symbol        string
	Side          model.Side
	Quantity      decimal.Decimal
	ClientOrderID string
}

var (
	// ErrInsufficientBalance means the exchange refused the order for lack of
	// funds, typically because another process spent the balance.
	ErrInsufficientBalance = errors.New("exchange: insufficient balance")
	// ErrBelowMinQty means the exchange rejected the quantity against its filters.
	ErrBelowMinQty = errors.New("exchange: quantity rejected by lot filter")
	// ErrNetwork covers transport failures, timeouts and 5xx responses.
	ErrNetwork = errors.New("exchange: network error")
)

// Binance error codes the trader distinguishes.
const (
	codeFilterFailure    = -1013
	codeNewOrderRejected = -2010
)

// APIError is a non-retryable rejection returned by the exchange.
type APIError struct {
	Status int
	Code   int
	Msg    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("exchange: status %d code %d: %s", e.Status, e.Code, e.Msg)
}

// Unwrap maps well-known rejection codes onto the package sentinels so
// callers can use errors.Is.
func (e *APIError) Unwrap() error {
	msg := strings.ToLower(e.Msg)
	switch {
	case e.Code == codeNewOrderRejected && strings.Contains(msg, "insufficient balance"):
		return ErrInsufficientBalance
	case e.Code == codeFilterFailure && (strings.Contains(msg, "lot_size") || strings.Contains(msg, "min_notional") || strings.Contains(msg, "notional")):
		return ErrBelowMinQty
	}
	return nil
}
