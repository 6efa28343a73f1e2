package model

import "time"

// Status is a point-in-time copy of the trader's state for operators.
type Status struct {
	Symbol    string
	Exchange  string
	Paper     bool
	StartedAt time.Time

	Position PositionSide
	Price    float64
	Snapshot IndicatorSnapshot

	LastAction  Action
	LastReason  string
	LastOutcome string
	LastCycle   time.Time

	Cycles int
	Errors int
	Trades int
}
