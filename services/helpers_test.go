package services

import (
	"context"
	"testing"
	"time"

	"wordgame-economy/catalog"
	"wordgame-economy/economy"
	"wordgame-economy/models"
	"wordgame-economy/store"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
economy:
  starting_coins: 100
  daily_base_coins: 10
  power_up_chance: 0.3
  streak_bonuses:
    - { threshold: 3, bonus: 5 }
  max_active_power_ups: 3
progression:
  base_xp_per_level: 100
  win_xp: 50
  loss_xp: 10
  win_coins: 20
items:
  - { id: hint, category: powerup, price: 25 }
  - { id: speed_boost, category: powerup, price: 30 }
  - { id: time_freeze, category: powerup, price: 40 }
  - { id: classic, category: theme, price: 0 }
  - { id: default1, category: avatar, price: 0 }
  - { id: neon_dark, category: theme, price: 80 }
  - { id: wooden, category: theme, price: 60 }
  - { id: retro, category: theme, price: 0, required_level: 1 }
  - { id: sale, category: theme, price: 100, discount: 0.25 }
  - { id: warrior, category: avatar, price: 50, required_level: 10 }
power_ups:
  - { id: hint, duration_ms: 30000, cooldown_ms: 1, effect: counter, effect_key: reveal_letter }
  - { id: speed_boost, duration_ms: 5000, cooldown_ms: 1, stackable: true, max_stack: 2, effect: multiplier, effect_key: speed, multiplier: 1.5 }
  - { id: time_freeze, duration_ms: 5000, cooldown_ms: 3000, rarity: rare, effect: override, effect_key: time_scale, value: 0 }
  - { id: double_coins, duration_ms: 60000, cooldown_ms: 1, rarity: epic, effect: multiplier, effect_key: coin_reward, multiplier: 2 }
achievements:
  - { id: first_win, name: First Victory, threshold: { games_won: 1 }, reward_coins: 50 }
  - { id: streak_3, name: On Fire, threshold: { win_streak: 3 }, reward_coins: 100 }
  - { id: perfectionist, name: Perfectionist, threshold: { perfect_win: 1 }, reward_coins: 200 }
  - { id: dedicated, name: Dedicated, threshold: { daily_streak: 3 }, reward_coins: 15 }
`

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

type testEnv struct {
	draw        float64
	store       *store.MemoryStore
	clock       fakeClock
	catalog     *catalog.Holder
	tx          *store.Transactor
	accounts    *AccountService
	ledger      *InventoryLedger
	purchases   *PurchaseTransactor
	runtime     *PowerUpRuntime
	daily       *DailyRewardService
	progression *ProgressionService
}

// newTestEnv wires every service over a memory store. draw is returned by
// every random draw.
func newTestEnv(t *testing.T, draw float64) *testEnv {
	t.Helper()
	cat := parseTestCatalog(t, testCatalog, draw)

	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	mem := store.NewMemoryStore()
	holder := catalog.NewHolder(cat)
	tx := store.NewTransactor(mem, store.RetryPolicy{MaxAttempts: 5, BaseDelay: time.Millisecond, Multiplier: 2}, clockwork.NewRealClock())
	ledger := NewInventoryLedger(mem, tx, holder)

	return &testEnv{
		draw:        draw,
		store:       mem,
		clock:       clock,
		catalog:     holder,
		tx:          tx,
		accounts:    NewAccountService(mem, tx, holder, clock),
		ledger:      ledger,
		purchases:   NewPurchaseTransactor(mem, tx, ledger, holder, clock),
		runtime:     NewPowerUpRuntime(mem, tx, ledger, holder, clock),
		daily:       NewDailyRewardService(mem, tx, ledger, holder, clock),
		progression: NewProgressionService(tx, holder, clock),
	}
}

func parseTestCatalog(t *testing.T, doc string, draw float64) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Parse([]byte(doc), catalog.Options{
		Random:          economy.RandomFunc(func() float64 { return draw }),
		DefaultCooldown: 3 * time.Second,
	})
	require.NoError(t, err)
	return cat
}

// reload swaps in a new catalog the way the sync worker does.
func (e *testEnv) reload(t *testing.T, doc string) {
	t.Helper()
	e.catalog.Swap(parseTestCatalog(t, doc, e.draw))
}

func (e *testEnv) account(t *testing.T, userID string) *models.UserAccount {
	t.Helper()
	a, err := e.accounts.EnsureAccount(context.Background(), userID)
	require.NoError(t, err)
	return a
}

func (e *testEnv) get(t *testing.T, userID string) *models.UserAccount {
	t.Helper()
	a, err := e.store.Get(context.Background(), userID)
	require.NoError(t, err)
	return a
}

func (e *testEnv) give(t *testing.T, userID, itemID string, qty int64) {
	t.Helper()
	_, err := e.ledger.Grant(context.Background(), userID, itemID, qty)
	require.NoError(t, err)
}
