package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a market order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderIntent says what to trade; the quantity is resolved by the sizer.
type OrderIntent struct {
	Side   Side
	Symbol string
}

// OrderConfirmation is the exchange's acknowledgement of a filled market order.
type OrderConfirmation struct {
	OrderID       string
	ClientOrderID string
	Status        string
	ExecutedQty   decimal.Decimal
	QuoteQty      decimal.Decimal
}

// Fill is a confirmed execution as seen by the strategy.
type Fill struct {
	Intent        OrderIntent
	Quantity      decimal.Decimal
	Price         decimal.Decimal
	OrderID       string
	ClientOrderID string
	Reason        string
	Paper         bool
	FilledAt      time.Time
}
