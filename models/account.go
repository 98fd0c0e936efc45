package models

import (
	"time"

	"gorm.io/gorm"
)

// LedgerSize caps the coin history kept on the account document.
const LedgerSize = 50

// UserAccount is the per-user economy document. Every balance, inventory or
// power-up change goes through a store transaction on this record.
type UserAccount struct {
	ID string `gorm:"primaryKey;type:varchar(128)" json:"id"` // external user id from the gateway

	Coins int64 `gorm:"not null;default:0;check:coins >= 0" json:"coins"`
	XP    int64 `gorm:"not null;default:0" json:"xp"`
	Level int   `gorm:"not null;default:1" json:"level"`

	Inventory    Inventory `gorm:"type:jsonb;serializer:json" json:"inventory"`
	ActiveTheme  string    `json:"active_theme"`
	ActiveAvatar string    `json:"active_avatar"`

	DailyReward DailyRewardState `gorm:"embedded;embeddedPrefix:daily_" json:"daily_reward"`
	Stats       GameStats        `gorm:"embedded;embeddedPrefix:stats_" json:"stats"`

	Achievements map[string]time.Time `gorm:"type:jsonb;serializer:json" json:"achievements"`

	// 🔋 Power-up runtime state
	PowerUps  []PowerUpInstance    `gorm:"type:jsonb;serializer:json" json:"power_ups"`
	Cooldowns map[string]time.Time `gorm:"type:jsonb;serializer:json" json:"cooldowns"`
	Effects   map[string]float64   `gorm:"type:jsonb;serializer:json" json:"effects"`

	Ledger []CoinEntry `gorm:"type:jsonb;serializer:json" json:"ledger"`

	Version int64 `gorm:"not null;default:0" json:"version"`

	Timestamps
}

// Inventory holds one-time unlocks and consumable counts.
type Inventory struct {
	Owned      map[string]bool  `json:"owned"`
	Quantities map[string]int64 `json:"quantities"`
}

// DailyRewardState tracks the daily claim streak.
type DailyRewardState struct {
	LastClaimAt *time.Time `json:"last_claim_at,omitempty"`
	Streak      int        `gorm:"not null;default:0" json:"streak"`
}

// GameStats aggregates finished games.
type GameStats struct {
	GamesPlayed       int64 `gorm:"not null;default:0" json:"games_played"`
	GamesWon          int64 `gorm:"not null;default:0" json:"games_won"`
	CurrentWinStreak  int64 `gorm:"not null;default:0" json:"current_win_streak"`
	BestWinStreak     int64 `gorm:"not null;default:0" json:"best_win_streak"`
	BestScore         int64 `gorm:"not null;default:0" json:"best_score"`
	TimePlayedSec     int64 `gorm:"not null;default:0" json:"time_played_sec"`
	TotalDailyRewards int64 `gorm:"not null;default:0" json:"total_daily_rewards"`
}

// ProfileUpdate is the cosmetic subset writable outside a transaction.
// Nil fields are left untouched.
type ProfileUpdate struct {
	ActiveTheme  *string `json:"active_theme,omitempty"`
	ActiveAvatar *string `json:"active_avatar,omitempty"`
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// NewUserAccount returns an empty account with every map initialised.
func NewUserAccount(userID string, startingCoins int64) *UserAccount {
	acct := &UserAccount{
		ID:    userID,
		Coins: startingCoins,
		Level: 1,
	}
	acct.Normalize()
	return acct
}

// Normalize replaces nil maps so callers can write into them.
func (a *UserAccount) Normalize() {
	if a.Inventory.Owned == nil {
		a.Inventory.Owned = map[string]bool{}
	}
	if a.Inventory.Quantities == nil {
		a.Inventory.Quantities = map[string]int64{}
	}
	if a.Achievements == nil {
		a.Achievements = map[string]time.Time{}
	}
	if a.Cooldowns == nil {
		a.Cooldowns = map[string]time.Time{}
	}
	if a.Effects == nil {
		a.Effects = map[string]float64{}
	}
	if a.Level < 1 {
		a.Level = 1
	}
}

// Clone returns a deep copy. Transactions run on clones so a failed attempt
// never leaks partial writes.
func (a *UserAccount) Clone() *UserAccount {
	c := *a
	c.Inventory.Owned = make(map[string]bool, len(a.Inventory.Owned))
	for k, v := range a.Inventory.Owned {
		c.Inventory.Owned[k] = v
	}
	c.Inventory.Quantities = make(map[string]int64, len(a.Inventory.Quantities))
	for k, v := range a.Inventory.Quantities {
		c.Inventory.Quantities[k] = v
	}
	if a.DailyReward.LastClaimAt != nil {
		t := *a.DailyReward.LastClaimAt
		c.DailyReward.LastClaimAt = &t
	}
	c.Achievements = make(map[string]time.Time, len(a.Achievements))
	for k, v := range a.Achievements {
		c.Achievements[k] = v
	}
	c.PowerUps = append([]PowerUpInstance(nil), a.PowerUps...)
	c.Cooldowns = make(map[string]time.Time, len(a.Cooldowns))
	for k, v := range a.Cooldowns {
		c.Cooldowns[k] = v
	}
	c.Effects = make(map[string]float64, len(a.Effects))
	for k, v := range a.Effects {
		c.Effects[k] = v
	}
	c.Ledger = append([]CoinEntry(nil), a.Ledger...)
	return &c
}

// Quantity returns the consumable count for an item.
func (a *UserAccount) Quantity(itemID string) int64 {
	return a.Inventory.Quantities[itemID]
}

// Owns reports whether a one-time item is unlocked.
func (a *UserAccount) Owns(itemID string) bool {
	return a.Inventory.Owned[itemID]
}

// AddLedgerEntry appends a coin movement and trims the history.
func (a *UserAccount) AddLedgerEntry(e CoinEntry) {
	a.Ledger = append(a.Ledger, e)
	if len(a.Ledger) > LedgerSize {
		a.Ledger = append([]CoinEntry(nil), a.Ledger[len(a.Ledger)-LedgerSize:]...)
	}
}
