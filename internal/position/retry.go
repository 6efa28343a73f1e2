package position

import (
	"context"
	"fmt"
	"log"
	"time"

	"PairTrader/internal/model"
)

// RetryPolicy bounds the backoff between save attempts. Grace is how long
// saving continues once the caller's context has been cancelled.
type RetryPolicy struct {
	Initial time.Duration
	Max     time.Duration
	Grace   time.Duration
}

// DefaultRetryPolicy backs off from 500ms up to 30s and keeps saving for two
// minutes after shutdown is requested.
var DefaultRetryPolicy = RetryPolicy{Initial: 500 * time.Millisecond, Max: 30 * time.Second, Grace: 2 * time.Minute}

// SaveUntilDurable keeps calling store.Save with exponential backoff until it
// succeeds. Cancelling ctx does not interrupt the save: attempts continue for
// policy.Grace afterwards, then the last error is returned. It returns the
// number of attempts made.
func SaveUntilDurable(ctx context.Context, store Store, state model.PositionState, policy RetryPolicy) (int, error) {
	if policy.Initial <= 0 {
		policy.Initial, policy.Max = DefaultRetryPolicy.Initial, DefaultRetryPolicy.Max
	}
	if policy.Grace <= 0 {
		policy.Grace = DefaultRetryPolicy.Grace
	}
	saveCtx, stop := withGrace(ctx, policy.Grace)
	defer stop()

	backoff := policy.Initial
	for attempt := 1; ; attempt++ {
		err := store.Save(saveCtx, state)
		if err == nil {
			return attempt, nil
		}
		log.Printf("[ERROR] save position %s to %s failed (attempt %d): %v, retrying in %v",
			state.Side, store.Name(), attempt, err, backoff)

		select {
		case <-saveCtx.Done():
			return attempt, fmt.Errorf("position %s not persisted after %d attempts: %w", state.Side, attempt, err)
		case <-time.After(backoff):
		}
		backoff *= 2
		if policy.Max > 0 && backoff > policy.Max {
			backoff = policy.Max
		}
	}
}

// withGrace returns a context that outlives parent by grace.
func withGrace(parent context.Context, grace time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	stopAfter := context.AfterFunc(parent, func() {
		log.Printf("[WARN] shutdown requested, still persisting position for up to %v", grace)
		time.AfterFunc(grace, cancel)
	})
	return ctx, func() {
		stopAfter()
		cancel()
	}
}
