package services

import (
	"context"
	"fmt"
	"log"

	"wordgame-economy/catalog"
	"wordgame-economy/models"
	"wordgame-economy/store"
)

// InventoryLedger owns item ownership and consumable quantities.
type InventoryLedger struct {
	Store   store.AccountStore
	Tx      *store.Transactor
	Catalog *catalog.Holder
}

func NewInventoryLedger(s store.AccountStore, tx *store.Transactor, cat *catalog.Holder) *InventoryLedger {
	return &InventoryLedger{Store: s, Tx: tx, Catalog: cat}
}

// Grant adds qty units of a consumable, or unlocks a one-time item.
func (l *InventoryLedger) Grant(ctx context.Context, userID, itemID string, qty int64) (*models.UserAccount, error) {
	item, err := l.lookup(itemID)
	if err != nil {
		return nil, err
	}
	acct, err := l.Tx.Run(ctx, userID, func(a *models.UserAccount) error {
		return l.GrantIn(a, item, qty)
	})
	if err != nil {
		return nil, err
	}
	log.Printf("🎁 [INVENTORY] Granted %s ×%d to %s", itemID, qty, userID)
	return acct, nil
}

// Consume removes qty units of a consumable.
func (l *InventoryLedger) Consume(ctx context.Context, userID, itemID string, qty int64) (*models.UserAccount, error) {
	return l.Tx.Run(ctx, userID, func(a *models.UserAccount) error {
		return l.ConsumeIn(a, itemID, qty)
	})
}

// GrantIn applies a grant to an account already inside a transaction.
func (l *InventoryLedger) GrantIn(a *models.UserAccount, item models.StoreItem, qty int64) error {
	if qty < 1 {
		return fmt.Errorf("%w: quantity must be >= 1", models.ErrInvalidArgument)
	}
	if item.Category.Consumable() {
		a.Inventory.Quantities[item.ID] += qty
		return nil
	}
	if a.Owns(item.ID) {
		return fmt.Errorf("%s: %w", item.ID, models.ErrAlreadyOwned)
	}
	a.Inventory.Owned[item.ID] = true
	return nil
}

// ConsumeIn applies a consume to an account already inside a transaction.
func (l *InventoryLedger) ConsumeIn(a *models.UserAccount, itemID string, qty int64) error {
	if qty < 1 {
		return fmt.Errorf("%w: quantity must be >= 1", models.ErrInvalidArgument)
	}
	have := a.Quantity(itemID)
	if have < qty {
		return fmt.Errorf("%s: need %d, have %d: %w", itemID, qty, have, models.ErrInsufficientInventory)
	}
	if have == qty {
		delete(a.Inventory.Quantities, itemID)
	} else {
		a.Inventory.Quantities[itemID] = have - qty
	}
	return nil
}

// GetQuantity is a plain read of a consumable count.
func (l *InventoryLedger) GetQuantity(ctx context.Context, userID, itemID string) (int64, error) {
	a, err := l.Store.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	return a.Quantity(itemID), nil
}

// IsOwned is a plain read of a one-time unlock.
func (l *InventoryLedger) IsOwned(ctx context.Context, userID, itemID string) (bool, error) {
	a, err := l.Store.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return a.Owns(itemID), nil
}

// Watch streams the user's inventory until ctx is done.
func (l *InventoryLedger) Watch(ctx context.Context, userID string, fn func(models.Inventory)) error {
	return l.Store.Watch(ctx, userID, func(a *models.UserAccount) {
		fn(a.Inventory)
	})
}

// Equip selects an owned theme or avatar. Cosmetic only, so it skips the
// transaction path.
func (l *InventoryLedger) Equip(ctx context.Context, userID, itemID string) (*models.UserAccount, error) {
	item, ok := l.Catalog.Current().Item(itemID)
	if !ok {
		return nil, fmt.Errorf("item %s: %w", itemID, models.ErrNotFound)
	}
	owned, err := l.IsOwned(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, fmt.Errorf("item %s is not owned: %w", itemID, models.ErrInsufficientInventory)
	}

	var upd models.ProfileUpdate
	switch item.Category {
	case models.CategoryTheme:
		upd.ActiveTheme = &item.ID
	case models.CategoryAvatar:
		upd.ActiveAvatar = &item.ID
	default:
		return nil, fmt.Errorf("%w: %s cannot be equipped", models.ErrInvalidArgument, itemID)
	}
	return l.Store.Update(ctx, userID, upd)
}

// lookup resolves a store item, falling back to unsold power-up types.
func (l *InventoryLedger) lookup(itemID string) (models.StoreItem, error) {
	cat := l.Catalog.Current()
	if item, ok := cat.Item(itemID); ok {
		return item, nil
	}
	if pt, ok := cat.PowerUp(itemID); ok {
		return models.StoreItem{ID: pt.ID, Name: pt.Name, Category: models.CategoryPowerUp}, nil
	}
	return models.StoreItem{}, fmt.Errorf("item %s: %w", itemID, models.ErrNotFound)
}
