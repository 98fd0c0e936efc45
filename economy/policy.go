package economy

import (
	"fmt"
	"sort"
	"time"

	"wordgame-economy/models"

	"github.com/shopspring/decimal"
)

// DefaultRarityWeights are used for rarities the catalog does not override.
var DefaultRarityWeights = map[models.Rarity]int{
	models.RarityCommon:    100,
	models.RarityUncommon:  60,
	models.RarityRare:      30,
	models.RarityEpic:      10,
	models.RarityLegendary: 1,
}

// PolicyConfig is the tunable input of the economy rules.
type PolicyConfig struct {
	DailyBaseCoins int64
	StreakBonuses  []models.StreakBonus
	PowerUpChance  float64
	RarityWeights  map[models.Rarity]int
	Location       *time.Location // calendar-day reference zone, UTC when nil
}

// Policy holds the pure economy rules. It has no storage access.
type Policy struct {
	cfg    PolicyConfig
	random RandomSource
}

// DailyReward is the outcome of one daily claim.
type DailyReward struct {
	Coins         int64 `json:"coins"`
	StreakAfter   int   `json:"streak_after"`
	GrantsPowerUp bool  `json:"grants_power_up"`
	Milestone     bool  `json:"milestone"`
}

// Candidate is one entry for weighted selection.
type Candidate struct {
	ID     string
	Weight int
}

// NewPolicy validates cfg and returns a Policy drawing from random.
func NewPolicy(cfg PolicyConfig, random RandomSource) (*Policy, error) {
	if random == nil {
		return nil, fmt.Errorf("%w: random source is required", models.ErrInvalidArgument)
	}
	if cfg.DailyBaseCoins < 0 {
		return nil, fmt.Errorf("%w: daily base coins must be >= 0", models.ErrInvalidArgument)
	}
	if cfg.PowerUpChance < 0 || cfg.PowerUpChance > 1 {
		return nil, fmt.Errorf("%w: power-up chance must be in [0, 1]", models.ErrInvalidArgument)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	bonuses := append([]models.StreakBonus(nil), cfg.StreakBonuses...)
	seen := make(map[int]bool, len(bonuses))
	for _, b := range bonuses {
		if b.Threshold < 1 || b.Bonus < 0 {
			return nil, fmt.Errorf("%w: streak bonus %d:%d", models.ErrInvalidArgument, b.Threshold, b.Bonus)
		}
		if seen[b.Threshold] {
			return nil, fmt.Errorf("%w: duplicate streak threshold %d", models.ErrInvalidArgument, b.Threshold)
		}
		seen[b.Threshold] = true
	}
	sort.Slice(bonuses, func(i, j int) bool { return bonuses[i].Threshold < bonuses[j].Threshold })
	cfg.StreakBonuses = bonuses

	weights := make(map[models.Rarity]int, len(DefaultRarityWeights))
	for r, w := range DefaultRarityWeights {
		weights[r] = w
	}
	for r, w := range cfg.RarityWeights {
		if w < 0 {
			return nil, fmt.Errorf("%w: rarity weight for %s must be >= 0", models.ErrInvalidArgument, r)
		}
		weights[r] = w
	}
	cfg.RarityWeights = weights

	return &Policy{cfg: cfg, random: random}, nil
}

// Location is the reference zone for calendar-day comparisons.
func (p *Policy) Location() *time.Location { return p.cfg.Location }

// RarityWeight returns the selection weight of a rarity.
func (p *Policy) RarityWeight(r models.Rarity) int { return p.cfg.RarityWeights[r] }

// ComputeDailyReward returns the reward for a claim made with the given
// effective streak and draws the power-up chance once.
func (p *Policy) ComputeDailyReward(streakBefore int) (DailyReward, error) {
	coins, milestone, err := p.dailyCoins(streakBefore)
	if err != nil {
		return DailyReward{}, err
	}
	return DailyReward{
		Coins:         coins,
		StreakAfter:   streakBefore + 1,
		GrantsPowerUp: p.random.Next() < p.cfg.PowerUpChance,
		Milestone:     milestone,
	}, nil
}

// DailyCoins previews the coin part of a claim without drawing randomness.
func (p *Policy) DailyCoins(streakBefore int) (int64, error) {
	coins, _, err := p.dailyCoins(streakBefore)
	return coins, err
}

// dailyCoins sums every threshold reached by the new streak; landing exactly
// on a threshold doubles the payout.
func (p *Policy) dailyCoins(streakBefore int) (int64, bool, error) {
	if streakBefore < 0 {
		return 0, false, fmt.Errorf("%w: streak must be >= 0, got %d", models.ErrInvalidArgument, streakBefore)
	}
	after := streakBefore + 1
	coins := p.cfg.DailyBaseCoins
	milestone := false
	for _, b := range p.cfg.StreakBonuses {
		if b.Threshold > after {
			break
		}
		coins += b.Bonus
		if b.Threshold == after {
			milestone = true
		}
	}
	if milestone {
		coins *= 2
	}
	return coins, milestone, nil
}

// CanClaimDaily reports whether now falls on a later calendar date than the
// last claim.
func (p *Policy) CanClaimDaily(lastClaim *time.Time, now time.Time) bool {
	if lastClaim == nil {
		return true
	}
	return p.dayIndex(now) > p.dayIndex(*lastClaim)
}

// StreakBefore is the streak a claim at now builds on: the stored streak when
// the last claim was on the previous calendar day, otherwise 0.
func (p *Policy) StreakBefore(lastClaim *time.Time, streak int, now time.Time) int {
	if lastClaim == nil || streak < 0 {
		return 0
	}
	if p.dayIndex(now)-p.dayIndex(*lastClaim) == 1 {
		return streak
	}
	return 0
}

// NextClaimAt is the start of the calendar day after lastClaim.
func (p *Policy) NextClaimAt(lastClaim time.Time) time.Time {
	t := lastClaim.In(p.cfg.Location)
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, p.cfg.Location)
}

// dayIndex counts calendar days in the reference zone, independent of DST.
func (p *Policy) dayIndex(t time.Time) int64 {
	l := t.In(p.cfg.Location)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// SelectWeightedPowerUp draws one candidate with probability proportional to
// its weight. Equal weights resolve by declaration order.
func (p *Policy) SelectWeightedPowerUp(candidates []Candidate) (string, error) {
	if len(candidates) == 0 {
		return "", fmt.Errorf("%w: no power-up candidates", models.ErrInvalidArgument)
	}
	total := 0
	for _, c := range candidates {
		if c.Weight < 0 {
			return "", fmt.Errorf("%w: negative weight for %s", models.ErrInvalidArgument, c.ID)
		}
		total += c.Weight
	}
	if total == 0 {
		return "", fmt.Errorf("%w: candidate weights sum to zero", models.ErrInvalidArgument)
	}

	r := p.random.Next() * float64(total)
	cumulative := 0
	for _, c := range candidates {
		cumulative += c.Weight
		if r < float64(cumulative) {
			return c.ID, nil
		}
	}
	// r is in [0,total); float rounding can only land here on the last positive weight
	for i := len(candidates) - 1; i >= 0; i-- {
		if candidates[i].Weight > 0 {
			return candidates[i].ID, nil
		}
	}
	return "", fmt.Errorf("%w: no selectable candidate", models.ErrInvalidArgument)
}

// ApplyDiscount returns floor(price × (1 − fraction)) using exact decimal math.
func ApplyDiscount(price int64, fraction float64) (int64, error) {
	if price < 0 {
		return 0, fmt.Errorf("%w: price must be >= 0, got %d", models.ErrInvalidArgument, price)
	}
	if fraction < 0 || fraction >= 1 {
		return 0, fmt.Errorf("%w: got %v", models.ErrInvalidDiscount, fraction)
	}
	if fraction == 0 {
		return price, nil
	}
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(fraction))
	return decimal.NewFromInt(price).Mul(factor).Floor().IntPart(), nil
}

// EffectivePrice is the item's price after its catalog discount.
func EffectivePrice(item models.StoreItem) (int64, error) {
	return ApplyDiscount(item.Price, item.Discount)
}
