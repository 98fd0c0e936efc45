package models

import "time"

// Coin movement reasons
const (
	ReasonPurchase     = "purchase"
	ReasonDailyReward  = "daily_reward"
	ReasonAchievement  = "achievement"
	ReasonGameWin      = "game_win"
	ReasonWelcomeBonus = "welcome_bonus"
	ReasonAdminGrant   = "admin_grant"
)

// CoinEntry records one balance change on the account document.
type CoinEntry struct {
	ID      string    `json:"id"`
	Amount  int64     `json:"amount"` // negative for debits
	Reason  string    `json:"reason"`
	ItemID  string    `json:"item_id,omitempty"`
	Balance int64     `json:"balance"` // balance after the change
	At      time.Time `json:"at"`
}
