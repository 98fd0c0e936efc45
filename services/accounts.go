package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"wordgame-economy/catalog"
	"wordgame-economy/models"
	"wordgame-economy/store"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

type AccountService struct {
	Store   store.AccountStore
	Tx      *store.Transactor
	Catalog *catalog.Holder
	Clock   clockwork.Clock
}

func NewAccountService(s store.AccountStore, tx *store.Transactor, cat *catalog.Holder, clock clockwork.Clock) *AccountService {
	return &AccountService{Store: s, Tx: tx, Catalog: cat, Clock: clock}
}

// EnsureAccount returns the user's account, creating it on first sight with
// the welcome bonus and every free default item (idempotent).
func (s *AccountService) EnsureAccount(ctx context.Context, userID string) (*models.UserAccount, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", models.ErrInvalidArgument)
	}
	acct, err := s.Store.Get(ctx, userID)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	cat := s.Catalog.Current()
	fresh := models.NewUserAccount(userID, 0)
	now := s.Clock.Now()
	if bonus := cat.Economy.StartingCoins; bonus > 0 {
		credit(fresh, bonus, models.ReasonWelcomeBonus, "", now)
	}
	for _, it := range cat.FreeItems() {
		fresh.Inventory.Owned[it.ID] = true
		switch {
		case it.Category == models.CategoryTheme && fresh.ActiveTheme == "":
			fresh.ActiveTheme = it.ID
		case it.Category == models.CategoryAvatar && fresh.ActiveAvatar == "":
			fresh.ActiveAvatar = it.ID
		}
	}

	acct, created, err := s.Store.Create(ctx, fresh)
	if err != nil {
		return nil, fmt.Errorf("create account %s: %w", userID, err)
	}
	if created {
		log.Printf("👤 [ACCOUNTS] Created account %s with %d welcome coins", userID, acct.Coins)
	}
	return acct, nil
}

// GrantCoins credits coins outside any purchase (admin tooling).
func (s *AccountService) GrantCoins(ctx context.Context, userID string, amount int64, reason string) (*models.UserAccount, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", models.ErrInvalidArgument)
	}
	if reason == "" {
		reason = models.ReasonAdminGrant
	}
	if _, err := s.EnsureAccount(ctx, userID); err != nil {
		return nil, err
	}
	acct, err := s.Tx.Run(ctx, userID, func(a *models.UserAccount) error {
		credit(a, amount, reason, "", s.Clock.Now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("💰 [ACCOUNTS] Granted %d coins to %s (reason: %s) → balance %d", amount, userID, reason, acct.Coins)
	return acct, nil
}

// credit adds coins and records the movement.
func credit(a *models.UserAccount, amount int64, reason, itemID string, now time.Time) {
	a.Coins += amount
	a.AddLedgerEntry(models.CoinEntry{
		ID:      uuid.NewString(),
		Amount:  amount,
		Reason:  reason,
		ItemID:  itemID,
		Balance: a.Coins,
		At:      now,
	})
}

// debit removes coins, refusing to go below zero.
func debit(a *models.UserAccount, amount int64, reason, itemID string, now time.Time) error {
	if amount > a.Coins {
		return fmt.Errorf("%w: need %d, have %d", models.ErrInsufficientFunds, amount, a.Coins)
	}
	a.Coins -= amount
	a.AddLedgerEntry(models.CoinEntry{
		ID:      uuid.NewString(),
		Amount:  -amount,
		Reason:  reason,
		ItemID:  itemID,
		Balance: a.Coins,
		At:      now,
	})
	return nil
}
