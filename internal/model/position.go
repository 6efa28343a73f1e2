package model

import "github.com/shopspring/decimal"

// PositionSide is the strategy's holding state.
type PositionSide string

const (
	Flat PositionSide = ""
	Long PositionSide = "LONG"
)

func (p PositionSide) String() string {
	if p == Long {
		return "LONG"
	}
	return "FLAT"
}

// PositionState is the only state that survives a restart.
// Quantity is informational and only known within the process that bought.
type PositionState struct {
	Side     PositionSide
	Quantity decimal.Decimal
}

// IsLong reports whether the strategy holds the base asset.
func (p PositionState) IsLong() bool { return p.Side == Long }
