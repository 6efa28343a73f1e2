package fund

import (
	"errors"
	"fmt"
	"math"

	"PairTrader/internal/model"

	"github.com/shopspring/decimal"
)

// Defaults mirror what the exchange tolerates for a full-balance market buy.
var (
	DefaultSafetyMargin    = decimal.RequireFromString("0.997")
	DefaultMinQuoteBalance = decimal.NewFromInt(5)
)

// ErrBelowMinQty is returned when the quantized quantity is under the lot minimum.
var ErrBelowMinQty = errors.New("quantity below minimum lot size")

// InsufficientFundsError is returned when the quote balance is under the
// minimum tradable floor.
type InsufficientFundsError struct {
	Asset   string
	Balance decimal.Decimal
	Floor   decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("%s balance %s below minimum %s", e.Asset, e.Balance, e.Floor)
}

// Sizer converts "spend everything" / "sell everything" intents into
// lot-compliant quantities. Quantities are always rounded toward zero.
type Sizer struct {
	SafetyMargin    decimal.Decimal
	MinQuoteBalance decimal.Decimal
	QuoteAsset      string
}

// NewSizer creates a Sizer; zero values fall back to the defaults.
func NewSizer(quoteAsset string, safetyMargin, minQuoteBalance decimal.Decimal) *Sizer {
	if safetyMargin.Sign() <= 0 {
		safetyMargin = DefaultSafetyMargin
	}
	if minQuoteBalance.Sign() <= 0 {
		minQuoteBalance = DefaultMinQuoteBalance
	}
	return &Sizer{SafetyMargin: safetyMargin, MinQuoteBalance: minQuoteBalance, QuoteAsset: quoteAsset}
}

// CheckQuote reports an InsufficientFundsError when quoteBalance is under the floor.
func (s *Sizer) CheckQuote(quoteBalance decimal.Decimal) error {
	if quoteBalance.LessThan(s.MinQuoteBalance) {
		return &InsufficientFundsError{Asset: s.QuoteAsset, Balance: quoteBalance, Floor: s.MinQuoteBalance}
	}
	return nil
}

// SizeBuy returns the base quantity purchasable with quoteBalance at price,
// after the safety margin and quantization.
func (s *Sizer) SizeBuy(quoteBalance, price decimal.Decimal, lot model.LotConstraint) (decimal.Decimal, error) {
	if err := s.CheckQuote(quoteBalance); err != nil {
		return decimal.Zero, err
	}
	if price.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("invalid price %s", price)
	}
	raw := quoteBalance.Mul(s.SafetyMargin).Div(price)
	return checkMin(Quantize(raw, lot.StepSize), lot)
}

// SizeSell returns the held base quantity quantized to the lot grid.
func (s *Sizer) SizeSell(baseBalance decimal.Decimal, lot model.LotConstraint) (decimal.Decimal, error) {
	return checkMin(Quantize(baseBalance, lot.StepSize), lot)
}

func checkMin(qty decimal.Decimal, lot model.LotConstraint) (decimal.Decimal, error) {
	if qty.Sign() <= 0 || qty.LessThan(lot.MinQty) {
		return qty, fmt.Errorf("%w: %s < %s", ErrBelowMinQty, qty, lot.MinQty)
	}
	return qty, nil
}

// Precision returns the number of decimals implied by a step size,
// round(-log10(step)).
func Precision(step decimal.Decimal) int32 {
	if step.Sign() <= 0 {
		return 0
	}
	return int32(math.Round(-math.Log10(step.InexactFloat64())))
}

// Quantize rounds qty down onto the step grid. Power-of-ten steps truncate to
// Precision(step) decimals; other steps floor to a whole multiple of step.
func Quantize(qty, step decimal.Decimal) decimal.Decimal {
	if qty.Sign() <= 0 {
		return decimal.Zero
	}
	if step.Sign() <= 0 {
		return qty
	}
	p := Precision(step)
	if step.Equal(decimal.New(1, -p)) {
		return qty.Truncate(p)
	}
	return qty.Div(step).Floor().Mul(step)
}
