package models

import "time"

// PowerUpInstance is one live activation of a power-up.
type PowerUpInstance struct {
	ID        string    `json:"id"`
	PowerUpID string    `json:"power_up_id"`
	Target    string    `json:"target"`
	StartedAt time.Time `json:"started_at"`
	ExpiresAt time.Time `json:"expires_at"`

	// Effect parameters at activation. Reverts use these so a catalog reload
	// cannot change what an expiring instance undoes.
	Effect     string  `json:"effect,omitempty"`
	EffectKey  string  `json:"effect_key,omitempty"`
	Multiplier float64 `json:"multiplier,omitempty"`
	Value      float64 `json:"value,omitempty"`
}

// EffectType is the part of the activating PowerUpType needed to revert the
// instance. Effect is empty for instances stored without a snapshot.
func (p PowerUpInstance) EffectType() PowerUpType {
	return PowerUpType{
		ID:         p.PowerUpID,
		Effect:     p.Effect,
		EffectKey:  p.EffectKey,
		Multiplier: p.Multiplier,
		Value:      p.Value,
	}
}

// Live reports whether the instance has not yet expired at now.
func (p PowerUpInstance) Live(now time.Time) bool {
	return p.ExpiresAt.After(now)
}

// Remaining is the time left before expiry.
func (p PowerUpInstance) Remaining(now time.Time) time.Duration {
	if !p.Live(now) {
		return 0
	}
	return p.ExpiresAt.Sub(now)
}
