package recorder

import (
	"errors"
	"time"

	"PairTrader/internal/model"
)

// CycleEvent holds everything observed and decided in one poll cycle.
type CycleEvent struct {
	Time     time.Time
	Symbol   string
	Price    float64
	Snapshot model.IndicatorSnapshot
	Position model.PositionSide
	Action   model.Action
	Reason   string
	Outcome  string // "ok", "skip:<class>" or "error:<class>"
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordCycle(evt *CycleEvent) error
	RecordTrade(fill *model.Fill) error
	Close() error
}

// Multi fans every record out to several recorders.
type Multi []Recorder

func (m Multi) RecordCycle(evt *CycleEvent) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.RecordCycle(evt))
	}
	return errors.Join(errs...)
}

func (m Multi) RecordTrade(fill *model.Fill) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.RecordTrade(fill))
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Close())
	}
	return errors.Join(errs...)
}
