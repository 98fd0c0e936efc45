package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"wordgame-economy/catalog"
	"wordgame-economy/models"
	"wordgame-economy/store"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// errNothingExpired aborts a sweep transaction that would not change anything.
var errNothingExpired = errors.New("nothing expired")

// ActivePowerUp is a live instance with its remaining time.
type ActivePowerUp struct {
	models.PowerUpInstance
	RemainingMs int64 `json:"remaining_ms"`
}

// ActiveState is a user's live power-ups and current effect values.
type ActiveState struct {
	PowerUps  []ActivePowerUp      `json:"power_ups"`
	Effects   map[string]float64   `json:"effects"`
	Cooldowns map[string]time.Time `json:"cooldowns"`
}

// PowerUpRuntime activates, deactivates and expires power-up instances.
// Operations for one owner are serialized in process; the store transaction
// keeps them consistent across processes.
type PowerUpRuntime struct {
	Store   store.AccountStore
	Tx      *store.Transactor
	Ledger  *InventoryLedger
	Catalog *catalog.Holder
	Clock   clockwork.Clock
	Effects EffectRegistry

	mu     sync.Mutex
	owners map[string]struct{}
	locks  keyedMutex
}

func NewPowerUpRuntime(s store.AccountStore, tx *store.Transactor, ledger *InventoryLedger, cat *catalog.Holder, clock clockwork.Clock) *PowerUpRuntime {
	return &PowerUpRuntime{
		Store:   s,
		Tx:      tx,
		Ledger:  ledger,
		Catalog: cat,
		Clock:   clock,
		Effects: DefaultEffects(),
		owners:  make(map[string]struct{}),
	}
}

// Activate consumes one unit of the power-up and starts a new instance.
func (r *PowerUpRuntime) Activate(ctx context.Context, userID, powerUpID, target string) (*models.PowerUpInstance, error) {
	cat := r.Catalog.Current()
	pt, ok := cat.PowerUp(powerUpID)
	if !ok {
		return nil, fmt.Errorf("power-up %s: %w", powerUpID, models.ErrNotFound)
	}
	effect, ok := r.Effects[pt.Effect]
	if !ok {
		return nil, fmt.Errorf("%w: no effect registered for %q", models.ErrInvalidArgument, pt.Effect)
	}
	if target == "" {
		target = models.DefaultTarget
	}
	maxActive := cat.Economy.MaxActivePowerUps

	unlock := r.locks.Lock(userID)
	defer unlock()

	var inst models.PowerUpInstance
	_, err := r.Tx.Run(ctx, userID, func(a *models.UserAccount) error {
		now := r.Clock.Now()
		r.pruneExpired(a, now)

		if until, ok := a.Cooldowns[pt.ID]; ok && until.After(now) {
			return &models.CooldownError{PowerUpID: pt.ID, Remaining: until.Sub(now)}
		}
		if n := countLive(a, pt.ID, now); n >= pt.StackLimit() {
			return fmt.Errorf("%s has %d of %d active: %w", pt.ID, n, pt.StackLimit(), models.ErrStackLimitExceeded)
		}
		if n := countLive(a, "", now); maxActive > 0 && n >= maxActive {
			return fmt.Errorf("%d of %d power-ups active: %w", n, maxActive, models.ErrStackLimitExceeded)
		}
		if err := r.Ledger.ConsumeIn(a, pt.ID, 1); err != nil {
			return err
		}

		inst = models.PowerUpInstance{
			ID:         uuid.NewString(),
			PowerUpID:  pt.ID,
			Target:     target,
			StartedAt:  now,
			ExpiresAt:  now.Add(pt.Duration()),
			Effect:     pt.Effect,
			EffectKey:  pt.EffectKey,
			Multiplier: pt.Multiplier,
			Value:      pt.Value,
		}
		a.PowerUps = append(a.PowerUps, inst)
		effect.Apply(a, pt, target)
		if cd := pt.Cooldown(); cd > 0 {
			a.Cooldowns[pt.ID] = now.Add(cd)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.track(userID)
	log.Printf("⚡ [POWERUPS] %s activated %s on %s (instance %s, expires %s)",
		userID, pt.ID, target, inst.ID, inst.ExpiresAt.Format(time.RFC3339Nano))
	return &inst, nil
}

// Deactivate removes one instance and reverts its effect.
func (r *PowerUpRuntime) Deactivate(ctx context.Context, userID, powerUpID, instanceID string) error {
	unlock := r.locks.Lock(userID)
	defer unlock()

	acct, err := r.Tx.Run(ctx, userID, func(a *models.UserAccount) error {
		idx := -1
		for i, inst := range a.PowerUps {
			if inst.ID == instanceID && inst.PowerUpID == powerUpID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("instance %s of %s: %w", instanceID, powerUpID, models.ErrInstanceNotFound)
		}
		r.remove(a, idx)
		return nil
	})
	if err != nil {
		return err
	}
	if len(acct.PowerUps) == 0 {
		r.untrack(userID)
	}
	log.Printf("🔌 [POWERUPS] %s deactivated %s (instance %s)", userID, powerUpID, instanceID)
	return nil
}

// Sweep removes every instance with expiry <= now across tracked owners and
// returns how many it removed.
func (r *PowerUpRuntime) Sweep(ctx context.Context, now time.Time) (int, error) {
	var total int
	var errs []error
	for _, userID := range r.trackedOwners() {
		n, err := r.sweepOwner(ctx, userID, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("sweep %s: %w", userID, err))
			continue
		}
		total += n
	}
	if total > 0 {
		log.Printf("🧹 [POWERUPS] Swept %d expired instance(s)", total)
	}
	return total, errors.Join(errs...)
}

// sweepOwner never waits: an owner busy with Activate or Deactivate, or one
// whose commit conflicts, is left for the next tick so one account cannot
// stall the sweep for everyone else.
func (r *PowerUpRuntime) sweepOwner(ctx context.Context, userID string, now time.Time) (int, error) {
	unlock, ok := r.locks.TryLock(userID)
	if !ok {
		return 0, nil
	}
	defer unlock()

	var removed, remaining int
	_, err := r.Store.RunTransaction(ctx, userID, func(a *models.UserAccount) error {
		removed = r.pruneExpired(a, now)
		remaining = len(a.PowerUps)
		if removed == 0 {
			return errNothingExpired
		}
		return nil
	})
	switch {
	case errors.Is(err, errNothingExpired):
		removed = 0
	case errors.Is(err, models.ErrTransactionConflict):
		return 0, nil
	case errors.Is(err, models.ErrNotFound):
		r.untrack(userID)
		return 0, nil
	case err != nil:
		return 0, err
	}
	if remaining == 0 {
		r.untrack(userID)
	}
	return removed, nil
}

// Active lists the user's live instances and effect state.
func (r *PowerUpRuntime) Active(ctx context.Context, userID string) (*ActiveState, error) {
	a, err := r.Store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := r.Clock.Now()
	state := &ActiveState{
		PowerUps:  []ActivePowerUp{},
		Effects:   a.Effects,
		Cooldowns: map[string]time.Time{},
	}
	for _, inst := range a.PowerUps {
		if inst.Live(now) {
			state.PowerUps = append(state.PowerUps, ActivePowerUp{
				PowerUpInstance: inst,
				RemainingMs:     inst.Remaining(now).Milliseconds(),
			})
		}
	}
	for id, until := range a.Cooldowns {
		if until.After(now) {
			state.Cooldowns[id] = until
		}
	}
	return state, nil
}

// Restore adds every owner the store knows about to the index. Owners leave
// the index only through a sweep or deactivation that empties them.
func (r *PowerUpRuntime) Restore(ctx context.Context) error {
	ids, err := r.Store.ListPowerUpOwners(ctx)
	if err != nil {
		return fmt.Errorf("list power-up owners: %w", err)
	}
	r.mu.Lock()
	for _, id := range ids {
		r.owners[id] = struct{}{}
	}
	r.mu.Unlock()
	return nil
}

// pruneExpired removes expired instances and reverts their effects.
func (r *PowerUpRuntime) pruneExpired(a *models.UserAccount, now time.Time) int {
	removed := 0
	for i := 0; i < len(a.PowerUps); {
		if a.PowerUps[i].Live(now) {
			i++
			continue
		}
		r.remove(a, i)
		removed++
	}
	return removed
}

// remove drops the instance at idx and reverts the effect it was activated
// with, in the same transaction.
func (r *PowerUpRuntime) remove(a *models.UserAccount, idx int) {
	inst := a.PowerUps[idx]
	a.PowerUps = append(a.PowerUps[:idx:idx], a.PowerUps[idx+1:]...)

	pt := inst.EffectType()
	if pt.Effect == "" {
		// stored before instances carried their effect
		live, ok := r.Catalog.Current().PowerUp(inst.PowerUpID)
		if !ok {
			log.Printf("⚠️ [POWERUPS] %s has no effect snapshot and is gone from the catalog; dropping instance %s without revert", inst.PowerUpID, inst.ID)
			return
		}
		pt = live
	}
	effect, ok := r.Effects[pt.Effect]
	if !ok {
		log.Printf("⚠️ [POWERUPS] no effect %q registered; dropping instance %s without revert", pt.Effect, inst.ID)
		return
	}
	effect.Revert(a, pt, inst.Target)
}

func countLive(a *models.UserAccount, powerUpID string, now time.Time) int {
	n := 0
	for _, inst := range a.PowerUps {
		if inst.Live(now) && (powerUpID == "" || inst.PowerUpID == powerUpID) {
			n++
		}
	}
	return n
}

func (r *PowerUpRuntime) track(userID string) {
	r.mu.Lock()
	r.owners[userID] = struct{}{}
	r.mu.Unlock()
}

func (r *PowerUpRuntime) untrack(userID string) {
	r.mu.Lock()
	delete(r.owners, userID)
	r.mu.Unlock()
}

func (r *PowerUpRuntime) trackedOwners() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.owners))
	for id := range r.owners {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// keyedMutex hands out one mutex per key and frees it when unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	e := k.acquire(key)
	e.mu.Lock()
	return k.unlocker(key, e)
}

// TryLock is Lock without waiting. ok is false when key is held.
func (k *keyedMutex) TryLock(key string) (unlock func(), ok bool) {
	e := k.acquire(key)
	if !e.mu.TryLock() {
		k.release(key, e)
		return nil, false
	}
	return k.unlocker(key, e), true
}

func (k *keyedMutex) acquire(key string) *keyedEntry {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedEntry)
	}
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	return e
}

func (k *keyedMutex) release(key string, e *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
}

func (k *keyedMutex) unlocker(key string, e *keyedEntry) func() {
	return func() {
		e.mu.Unlock()
		k.release(key, e)
	}
}
