package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"wordgame-economy/models"

	"github.com/jonboulle/clockwork"
)

// RetryPolicy controls how conflicting transactions are retried.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
}

// DefaultRetryPolicy: 3 attempts, 1s, 2s between them.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 2}

// Transactor runs account transactions with conflict retries.
type Transactor struct {
	Store  AccountStore
	Policy RetryPolicy
	Clock  clockwork.Clock
}

func NewTransactor(s AccountStore, policy RetryPolicy, clock clockwork.Clock) *Transactor {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.Multiplier < 1 {
		policy.Multiplier = 1
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Transactor{Store: s, Policy: policy, Clock: clock}
}

// Run executes fn in a store transaction, retrying only on
// models.ErrTransactionConflict. Business errors from fn return immediately.
// Exhausted retries surface as models.ErrStoreUnavailable.
func (t *Transactor) Run(ctx context.Context, userID string, fn TxFunc) (*models.UserAccount, error) {
	delay := t.Policy.BaseDelay
	var lastErr error

	for attempt := 1; attempt <= t.Policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		acct, err := t.Store.RunTransaction(ctx, userID, fn)
		if err == nil {
			return acct, nil
		}
		if !errors.Is(err, models.ErrTransactionConflict) {
			return nil, err
		}
		lastErr = err

		if attempt == t.Policy.MaxAttempts {
			break
		}
		log.Printf("🔁 [TX] conflict for %s (attempt %d/%d), retrying in %s", userID, attempt, t.Policy.MaxAttempts, delay)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.Clock.After(delay):
		}
		delay = time.Duration(float64(delay) * t.Policy.Multiplier)
	}

	log.Printf("❌ [TX] giving up on %s after %d attempts: %v", userID, t.Policy.MaxAttempts, lastErr)
	return nil, fmt.Errorf("%w: %d attempts failed: %v", models.ErrStoreUnavailable, t.Policy.MaxAttempts, lastErr)
}
