package services

import (
	"context"
	"testing"

	"wordgame-economy/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrant_ConsumableAccumulates(t *testing.T) {
	env := newTestEnv(t, 0.9)
	env.account(t, "u1")

	env.give(t, "u1", "hint", 2)
	env.give(t, "u1", "hint", 3)

	qty, err := env.ledger.GetQuantity(context.Background(), "u1", "hint")
	require.NoError(t, err)
	assert.Equal(t, int64(5), qty)
}

func TestGrant_OneTimeOnlyOnce(t *testing.T) {
	env := newTestEnv(t, 0.9)
	env.account(t, "u1")

	env.give(t, "u1", "neon_dark", 1)
	owned, err := env.ledger.IsOwned(context.Background(), "u1", "neon_dark")
	require.NoError(t, err)
	assert.True(t, owned)

	_, err = env.ledger.Grant(context.Background(), "u1", "neon_dark", 1)
	assert.ErrorIs(t, err, models.ErrAlreadyOwned)
}

func TestGrant_UnknownItem(t *testing.T) {
	env := newTestEnv(t, 0.9)
	env.account(t, "u1")

	_, err := env.ledger.Grant(context.Background(), "u1", "golden_goose", 1)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = env.ledger.Grant(context.Background(), "u1", "hint", 0)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestGrant_UnsoldPowerUpType(t *testing.T) {
	env := newTestEnv(t, 0.9)
	env.account(t, "u1")

	env.give(t, "u1", "double_coins", 1)
	assert.Equal(t, int64(1), env.get(t, "u1").Quantity("double_coins"))
}

func TestConsume(t *testing.T) {
	env := newTestEnv(t, 0.9)
	env.account(t, "u1")
	env.give(t, "u1", "hint", 2)

	a, err := env.ledger.Consume(context.Background(), "u1", "hint", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.Quantity("hint"))

	_, err = env.ledger.Consume(context.Background(), "u1", "hint", 2)
	assert.ErrorIs(t, err, models.ErrInsufficientInventory)
	assert.Equal(t, int64(1), env.get(t, "u1").Quantity("hint"))

	a, err = env.ledger.Consume(context.Background(), "u1", "hint", 1)
	require.NoError(t, err)
	assert.Zero(t, a.Quantity("hint"))

	_, err = env.ledger.Consume(context.Background(), "u1", "hint", 1)
	assert.ErrorIs(t, err, models.ErrInsufficientInventory)
}

func TestEquip(t *testing.T) {
	env := newTestEnv(t, 0.9)
	env.account(t, "u1")

	_, err := env.ledger.Equip(context.Background(), "u1", "neon_dark")
	assert.ErrorIs(t, err, models.ErrInsufficientInventory)

	env.give(t, "u1", "neon_dark", 1)
	a, err := env.ledger.Equip(context.Background(), "u1", "neon_dark")
	require.NoError(t, err)
	assert.Equal(t, "neon_dark", a.ActiveTheme)
	assert.Equal(t, "default1", a.ActiveAvatar)

	env.give(t, "u1", "hint", 1)
	_, err = env.ledger.Equip(context.Background(), "u1", "hint")
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	_, err = env.ledger.Equip(context.Background(), "u1", "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestInventoryWatch(t *testing.T) {
	env := newTestEnv(t, 0.9)
	env.account(t, "u1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan int64, 4)
	go func() {
		_ = env.ledger.Watch(ctx, "u1", func(inv models.Inventory) { got <- inv.Quantities["hint"] })
	}()

	require.Equal(t, int64(0), <-got)
	env.give(t, "u1", "hint", 4)
	assert.Equal(t, int64(4), <-got)
}
