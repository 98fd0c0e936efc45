package models

import "time"

// ItemCategory groups store items.
type ItemCategory string

const (
	CategoryPowerUp ItemCategory = "powerup"
	CategoryTheme   ItemCategory = "theme"
	CategoryAvatar  ItemCategory = "avatar"
)

// Consumable reports whether ownership is a quantity rather than a flag.
func (c ItemCategory) Consumable() bool {
	return c == CategoryPowerUp
}

// Valid reports whether c is a known category.
func (c ItemCategory) Valid() bool {
	switch c {
	case CategoryPowerUp, CategoryTheme, CategoryAvatar:
		return true
	}
	return false
}

// Rarity: common, uncommon, rare, epic, legendary
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// StoreItem: static config (loaded from the catalog)
type StoreItem struct {
	ID            string       `yaml:"id" json:"id"`
	Name          string       `yaml:"name" json:"name"`
	Description   string       `yaml:"description" json:"description,omitempty"`
	Icon          string       `yaml:"icon" json:"icon,omitempty"`
	Category      ItemCategory `yaml:"category" json:"category"`
	Price         int64        `yaml:"price" json:"price"`                             // 0 = free/default
	RequiredLevel int          `yaml:"required_level" json:"required_level,omitempty"` // 0 = no gate
	Discount      float64      `yaml:"discount" json:"discount,omitempty"`             // fraction in [0,1)
}

// Effect kinds a power-up can apply to the account's effect state.
const (
	EffectMultiplier = "multiplier"
	EffectOverride   = "override"
	EffectCounter    = "counter"
)

// DefaultTarget is used when an activation names no target.
const DefaultTarget = "game"

// PowerUpType describes an activatable, time-boxed power-up.
type PowerUpType struct {
	ID         string  `yaml:"id" json:"id"`
	Name       string  `yaml:"name" json:"name"`
	DurationMs int64   `yaml:"duration_ms" json:"duration_ms"`
	Stackable  bool    `yaml:"stackable" json:"stackable"`
	MaxStack   int     `yaml:"max_stack" json:"max_stack"`
	Rarity     Rarity  `yaml:"rarity" json:"rarity"`
	CooldownMs int64   `yaml:"cooldown_ms" json:"cooldown_ms"`
	Effect     string  `yaml:"effect" json:"effect"`         // multiplier | override | counter
	EffectKey  string  `yaml:"effect_key" json:"effect_key"` // e.g. "speed", "time_scale", "shield"
	Multiplier float64 `yaml:"multiplier" json:"multiplier,omitempty"`
	Value      float64 `yaml:"value" json:"value,omitempty"` // used by override effects
}

// Duration is the lifetime of one activation.
func (p PowerUpType) Duration() time.Duration {
	return time.Duration(p.DurationMs) * time.Millisecond
}

// Cooldown is the wait after an activation before the next one is accepted.
func (p PowerUpType) Cooldown() time.Duration {
	return time.Duration(p.CooldownMs) * time.Millisecond
}

// StackLimit is the number of simultaneously live instances allowed.
func (p PowerUpType) StackLimit() int {
	if !p.Stackable {
		return 1
	}
	return p.MaxStack
}

// StreakBonus adds coins once the streak reaches Threshold.
type StreakBonus struct {
	Threshold int   `yaml:"threshold" json:"threshold"`
	Bonus     int64 `yaml:"bonus" json:"bonus"`
}

// Achievement: unlocked once when every threshold is met.
type Achievement struct {
	ID          string           `yaml:"id" json:"id"`
	Name        string           `yaml:"name" json:"name"`
	Description string           `yaml:"description" json:"description,omitempty"`
	Icon        string           `yaml:"icon" json:"icon,omitempty"`
	Rarity      Rarity           `yaml:"rarity" json:"rarity"`
	Threshold   map[string]int64 `yaml:"threshold" json:"threshold"` // e.g. {"games_won": 1}, {"win_streak": 3}
	RewardCoins int64            `yaml:"reward_coins" json:"reward_coins"`
}
