package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

// RetryPolicy bounds how often a conflicting transaction is retried before
// the settlement is surfaced as aborted. An explicit parameter rather than
// a driver default so the bound is visible and testable.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy is used by the settlement service unless overridden
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 5, Backoff: 50 * time.Millisecond}

// RunTransaction executes fn inside a single multi-document transaction.
// The whole body is re-run on transient transaction errors (write-write
// conflicts between concurrent settlements) up to policy.MaxAttempts, then
// ErrAborted is returned. Any other error aborts immediately with no
// observable writes.
func RunTransaction(ctx context.Context, client *mongo.Client, policy RetryPolicy, fn func(sc mongo.SessionContext) error) error {
	session, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		_, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
			return nil, fn(sc)
		})
		if err == nil {
			return nil
		}
		lastErr = err
		if !isTransientTxnError(err) {
			return err
		}
		if attempt < attempts {
			time.Sleep(policy.Backoff * time.Duration(attempt))
		}
	}
	return fmt.Errorf("%w: %v", ErrAborted, lastErr)
}

func isTransientTxnError(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.HasErrorLabel("TransientTransactionError")
	}
	var labeled mongo.ServerError
	if errors.As(err, &labeled) {
		return labeled.HasErrorLabel("TransientTransactionError")
	}
	return false
}
