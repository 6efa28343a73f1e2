package position

import (
	"context"
	"fmt"
	"strings"

	"PairTrader/internal/model"
)

// Store persists the single position slot of a trading pair.
// Load returns a FLAT state when nothing has been stored yet.
type Store interface {
	Load(ctx context.Context) (model.PositionState, error)
	Save(ctx context.Context, state model.PositionState) error
	Name() string
}

// PersistenceError wraps a failed durable write or read of the position.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("position %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Encode returns the stored scalar for a state: "" for FLAT, "LONG" for LONG.
func Encode(state model.PositionState) string {
	if state.IsLong() {
		return string(model.Long)
	}
	return string(model.Flat)
}

// Decode parses a stored scalar. Surrounding whitespace is ignored.
func Decode(raw string) (model.PositionState, error) {
	switch v := strings.TrimSpace(raw); v {
	case string(model.Flat):
		return model.PositionState{Side: model.Flat}, nil
	case string(model.Long):
		return model.PositionState{Side: model.Long}, nil
	default:
		return model.PositionState{}, fmt.Errorf("unknown position value %q", v)
	}
}
