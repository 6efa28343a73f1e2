package position

import (
	"context"
	"errors"
	"testing"
	"time"

	"PairTrader/internal/model"
)

type flakyStore struct {
	failures int
	calls    int
	saved    model.PositionState
}

func (f *flakyStore) Name() string { return "flaky" }

func (f *flakyStore) Load(context.Context) (model.PositionState, error) { return f.saved, nil }

func (f *flakyStore) Save(_ context.Context, st model.PositionState) error {
	f.calls++
	if f.calls <= f.failures {
		return &PersistenceError{Op: "save", Err: errors.New("disk full")}
	}
	f.saved = st
	return nil
}

func TestSaveUntilDurable_RetriesUntilSuccess(t *testing.T) {
	fs := &flakyStore{failures: 3}
	policy := RetryPolicy{Initial: time.Millisecond, Max: 2 * time.Millisecond}

	attempts, err := SaveUntilDurable(context.Background(), fs, model.PositionState{Side: model.Long}, policy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 4 {
		t.Errorf("expected 4 attempts, got %d", attempts)
	}
	if !fs.saved.IsLong() {
		t.Error("expected LONG to be persisted")
	}
}

func TestSaveUntilDurable_GivesUpAfterGrace(t *testing.T) {
	fs := &flakyStore{failures: 1 << 30}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := RetryPolicy{Initial: time.Millisecond, Max: 5 * time.Millisecond, Grace: 20 * time.Millisecond}
	attempts, err := SaveUntilDurable(ctx, fs, model.PositionState{Side: model.Long}, policy)
	var pe *PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected wrapped PersistenceError, got %v", err)
	}
	if attempts < 2 {
		t.Errorf("expected retries during the grace period, got %d attempts", attempts)
	}
}

// ctxStore fails every save made on a cancelled context, like a network store.
type ctxStore struct{ flakyStore }

func (c *ctxStore) Save(ctx context.Context, st model.PositionState) error {
	if err := ctx.Err(); err != nil {
		return &PersistenceError{Op: "save", Err: err}
	}
	return c.flakyStore.Save(ctx, st)
}

func TestSaveUntilDurable_SavesAfterShutdownRequested(t *testing.T) {
	cs := &ctxStore{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts, err := SaveUntilDurable(ctx, cs, model.PositionState{Side: model.Long}, RetryPolicy{Initial: time.Millisecond, Grace: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 1 || !cs.saved.IsLong() {
		t.Errorf("attempts = %d, saved = %+v", attempts, cs.saved)
	}
}
