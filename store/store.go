// Package store persists UserAccount documents behind a small transactional
// interface. Every economic mutation goes through RunTransaction.
package store

import (
	"context"

	"wordgame-economy/models"
)

// TxFunc mutates the account inside a transaction. Returning an error rolls
// the attempt back. It may run more than once, each time on a fresh copy.
type TxFunc func(acct *models.UserAccount) error

// AccountStore is a per-document transactional store with compare-and-swap
// commit semantics.
type AccountStore interface {
	// Get returns a copy of the account or models.ErrNotFound.
	Get(ctx context.Context, userID string) (*models.UserAccount, error)
	// Create inserts acct unless an account with the same id exists. It
	// returns the stored account and whether this call created it.
	Create(ctx context.Context, acct *models.UserAccount) (*models.UserAccount, bool, error)
	// Update writes cosmetic fields without a transaction.
	Update(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.UserAccount, error)
	// RunTransaction runs fn once on the current document and commits the
	// result. A concurrent commit surfaces as models.ErrTransactionConflict.
	RunTransaction(ctx context.Context, userID string, fn TxFunc) (*models.UserAccount, error)
	// Watch calls fn with every committed version of the account until ctx
	// is done. Intermediate versions may be coalesced.
	Watch(ctx context.Context, userID string, fn func(*models.UserAccount)) error
	// ListPowerUpOwners returns the ids of accounts holding power-up instances.
	ListPowerUpOwners(ctx context.Context) ([]string, error)
}
