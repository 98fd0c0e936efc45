package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"wordgame-economy/catalog"
	"wordgame-economy/economy"
	"wordgame-economy/models"
	"wordgame-economy/store"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// PurchaseState tracks a purchase from selection to outcome.
type PurchaseState string

const (
	PurchaseSelected  PurchaseState = "selected"
	PurchaseConfirmed PurchaseState = "confirmed"
	PurchaseCommitted PurchaseState = "committed"
	PurchaseRejected  PurchaseState = "rejected"
)

// Quote is a read-only preview of a purchase.
type Quote struct {
	ItemID        string `json:"item_id"`
	Price         int64  `json:"price"`
	Balance       int64  `json:"balance"`
	CanAfford     bool   `json:"can_afford"`
	AlreadyOwned  bool   `json:"already_owned"`
	LevelLocked   bool   `json:"level_locked"`
	RequiredLevel int    `json:"required_level,omitempty"`
}

// PurchaseReceipt is returned by a committed purchase.
type PurchaseReceipt struct {
	ID       string           `json:"id"`
	Item     models.StoreItem `json:"item"`
	Price    int64            `json:"price"`
	Balance  int64            `json:"balance"`
	Quantity int64            `json:"quantity"` // consumable count after the grant
	At       time.Time        `json:"at"`
}

// PurchaseAttempt is the in-memory state of one purchase flow. It is never
// persisted.
type PurchaseAttempt struct {
	UserID  string           `json:"user_id"`
	ItemID  string           `json:"item_id"`
	State   PurchaseState    `json:"state"`
	Quote   Quote            `json:"quote"`
	Receipt *PurchaseReceipt `json:"receipt,omitempty"`
	Err     error            `json:"-"`
}

type PurchaseTransactor struct {
	Store   store.AccountStore
	Tx      *store.Transactor
	Ledger  *InventoryLedger
	Catalog *catalog.Holder
	Clock   clockwork.Clock
}

func NewPurchaseTransactor(s store.AccountStore, tx *store.Transactor, ledger *InventoryLedger, cat *catalog.Holder, clock clockwork.Clock) *PurchaseTransactor {
	return &PurchaseTransactor{Store: s, Tx: tx, Ledger: ledger, Catalog: cat, Clock: clock}
}

// Quote previews a purchase without writing anything.
func (p *PurchaseTransactor) Quote(ctx context.Context, userID, itemID string) (Quote, error) {
	item, ok := p.Catalog.Current().Item(itemID)
	if !ok {
		return Quote{}, fmt.Errorf("item %s: %w", itemID, models.ErrNotFound)
	}
	price, err := economy.EffectivePrice(item)
	if err != nil {
		return Quote{}, err
	}
	acct, err := p.Store.Get(ctx, userID)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		ItemID:        item.ID,
		Price:         price,
		Balance:       acct.Coins,
		CanAfford:     acct.Coins >= price,
		AlreadyOwned:  !item.Category.Consumable() && acct.Owns(item.ID),
		LevelLocked:   acct.Level < item.RequiredLevel,
		RequiredLevel: item.RequiredLevel,
	}, nil
}

// Commit debits the effective price and grants the item in one transaction.
// Checks run on the freshly read document in order: ownership, level, funds.
func (p *PurchaseTransactor) Commit(ctx context.Context, userID, itemID string) (*PurchaseReceipt, error) {
	item, ok := p.Catalog.Current().Item(itemID)
	if !ok {
		return nil, fmt.Errorf("item %s: %w", itemID, models.ErrNotFound)
	}
	price, err := economy.EffectivePrice(item)
	if err != nil {
		return nil, err
	}

	var at time.Time
	acct, err := p.Tx.Run(ctx, userID, func(a *models.UserAccount) error {
		at = p.Clock.Now()
		if !item.Category.Consumable() && a.Owns(item.ID) {
			return fmt.Errorf("%s: %w", item.ID, models.ErrAlreadyOwned)
		}
		if a.Level < item.RequiredLevel {
			return &models.LevelLockedError{ItemID: item.ID, Required: item.RequiredLevel, Current: a.Level}
		}
		if price > 0 {
			if err := debit(a, price, models.ReasonPurchase, item.ID, at); err != nil {
				return err
			}
		}
		return p.Ledger.GrantIn(a, item, 1)
	})
	if err != nil {
		log.Printf("🛒 [PURCHASE] %s → %s rejected: %v", userID, itemID, err)
		return nil, err
	}

	log.Printf("✅ [PURCHASE] %s bought %s for %d (balance %d)", userID, item.ID, price, acct.Coins)
	return &PurchaseReceipt{
		ID:       uuid.NewString(),
		Item:     item,
		Price:    price,
		Balance:  acct.Coins,
		Quantity: acct.Quantity(item.ID),
		At:       at,
	}, nil
}

// Select quotes the item and opens a purchase attempt.
func (p *PurchaseTransactor) Select(ctx context.Context, userID, itemID string) (*PurchaseAttempt, error) {
	q, err := p.Quote(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	return &PurchaseAttempt{UserID: userID, ItemID: itemID, State: PurchaseSelected, Quote: q}, nil
}

// Confirm commits a selected attempt. The attempt ends committed or rejected.
func (p *PurchaseTransactor) Confirm(ctx context.Context, attempt *PurchaseAttempt) error {
	if attempt.State != PurchaseSelected {
		return fmt.Errorf("%w: cannot confirm a %s purchase", models.ErrInvalidArgument, attempt.State)
	}
	attempt.State = PurchaseConfirmed

	receipt, err := p.Commit(ctx, attempt.UserID, attempt.ItemID)
	if err != nil {
		attempt.State = PurchaseRejected
		attempt.Err = err
		return err
	}
	attempt.State = PurchaseCommitted
	attempt.Receipt = receipt
	return nil
}

// Cancel abandons a selected attempt.
func (p *PurchaseTransactor) Cancel(attempt *PurchaseAttempt) error {
	if attempt.State != PurchaseSelected {
		return fmt.Errorf("%w: cannot cancel a %s purchase", models.ErrInvalidArgument, attempt.State)
	}
	attempt.State = PurchaseRejected
	return nil
}
