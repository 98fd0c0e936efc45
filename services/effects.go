package services

import (
	"math"

	"wordgame-economy/models"
)

// Effect applies and reverts a power-up's influence on the account's effect
// state. Both run inside the activation or removal transaction.
type Effect struct {
	Apply  func(a *models.UserAccount, pt models.PowerUpType, target string)
	Revert func(a *models.UserAccount, pt models.PowerUpType, target string)
}

// EffectRegistry maps effect kinds to implementations.
type EffectRegistry map[string]Effect

// EffectStateKey is the effect-state key for a target.
func EffectStateKey(target, key string) string {
	return target + ":" + key
}

func DefaultEffects() EffectRegistry {
	return EffectRegistry{
		models.EffectMultiplier: {Apply: applyMultiplier, Revert: revertMultiplier},
		models.EffectOverride:   {Apply: applyOverride, Revert: revertOverride},
		models.EffectCounter:    {Apply: applyCounter, Revert: revertCounter},
	}
}

// Multipliers compound while stacked.
func applyMultiplier(a *models.UserAccount, pt models.PowerUpType, target string) {
	k := EffectStateKey(target, pt.EffectKey)
	v, ok := a.Effects[k]
	if !ok {
		v = 1
	}
	a.Effects[k] = v * pt.Multiplier
}

func revertMultiplier(a *models.UserAccount, pt models.PowerUpType, target string) {
	k := EffectStateKey(target, pt.EffectKey)
	v, ok := a.Effects[k]
	if !ok || pt.Multiplier == 0 {
		return
	}
	v /= pt.Multiplier
	if math.Abs(v-1) < 1e-9 {
		delete(a.Effects, k)
		return
	}
	a.Effects[k] = v
}

// Overrides hold while any instance of the power-up on the target is left.
func applyOverride(a *models.UserAccount, pt models.PowerUpType, target string) {
	a.Effects[EffectStateKey(target, pt.EffectKey)] = pt.Value
}

func revertOverride(a *models.UserAccount, pt models.PowerUpType, target string) {
	for _, inst := range a.PowerUps {
		if inst.PowerUpID == pt.ID && inst.Target == target {
			return
		}
	}
	delete(a.Effects, EffectStateKey(target, pt.EffectKey))
}

func applyCounter(a *models.UserAccount, pt models.PowerUpType, target string) {
	a.Effects[EffectStateKey(target, pt.EffectKey)]++
}

func revertCounter(a *models.UserAccount, pt models.PowerUpType, target string) {
	k := EffectStateKey(target, pt.EffectKey)
	if a.Effects[k] <= 1 {
		delete(a.Effects, k)
		return
	}
	a.Effects[k]--
}
