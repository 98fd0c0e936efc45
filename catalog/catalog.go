// Package catalog loads the economy's configuration data: store items,
// power-up types, the daily reward table, rarity weights, achievements and
// progression constants.
package catalog

import (
	"fmt"
	"time"

	"wordgame-economy/economy"
	"wordgame-economy/models"

	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"
)

// File mirrors catalog.yaml.
type File struct {
	Economy      EconomySection       `yaml:"economy"`
	Progression  ProgressionSection   `yaml:"progression"`
	Items        []models.StoreItem   `yaml:"items"`
	PowerUps     []models.PowerUpType `yaml:"power_ups"`
	Achievements []models.Achievement `yaml:"achievements"`
}

type EconomySection struct {
	StartingCoins     int64                 `yaml:"starting_coins"`
	DailyBaseCoins    int64                 `yaml:"daily_base_coins"`
	PowerUpChance     float64               `yaml:"power_up_chance"`
	StreakBonuses     []models.StreakBonus  `yaml:"streak_bonuses"`
	RarityWeights     map[models.Rarity]int `yaml:"rarity_weights"`
	MaxActivePowerUps int                   `yaml:"max_active_power_ups"`
}

type ProgressionSection struct {
	BaseXPPerLevel int64 `yaml:"base_xp_per_level"`
	WinXP          int64 `yaml:"win_xp"`
	LossXP         int64 `yaml:"loss_xp"`
	WinCoins       int64 `yaml:"win_coins"`
}

// Options are the process-level inputs a catalog is built with.
type Options struct {
	Random          economy.RandomSource
	Location        *time.Location
	DefaultCooldown time.Duration
}

// Catalog is an immutable, validated snapshot of the configuration data.
type Catalog struct {
	Economy      EconomySection
	Progression  ProgressionSection
	Policy       *economy.Policy
	Items        []models.StoreItem
	PowerUps     []models.PowerUpType
	Achievements []models.Achievement

	items    map[string]models.StoreItem
	powerUps map[string]models.PowerUpType
}

// achievementKeys are the statistics an achievement threshold may test.
var achievementKeys = map[string]bool{
	"games_played":     true,
	"games_won":        true,
	"win_streak":       true,
	"level":            true,
	"best_score":       true,
	"daily_streak":     true,
	"fast_win_seconds": true,
	"perfect_win":      true,
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte, opts Options) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return Build(f, opts)
}

// Build validates f and derives lookups and the economy policy.
func Build(f File, opts Options) (*Catalog, error) {
	policy, err := economy.NewPolicy(economy.PolicyConfig{
		DailyBaseCoins: f.Economy.DailyBaseCoins,
		StreakBonuses:  f.Economy.StreakBonuses,
		PowerUpChance:  f.Economy.PowerUpChance,
		RarityWeights:  f.Economy.RarityWeights,
		Location:       opts.Location,
	}, opts.Random)
	if err != nil {
		return nil, fmt.Errorf("economy section: %w", err)
	}
	if f.Economy.StartingCoins < 0 {
		return nil, fmt.Errorf("%w: starting_coins must be >= 0", models.ErrInvalidArgument)
	}
	if f.Economy.MaxActivePowerUps < 0 {
		return nil, fmt.Errorf("%w: max_active_power_ups must be >= 0", models.ErrInvalidArgument)
	}
	p := f.Progression
	if p.BaseXPPerLevel <= 0 || p.WinXP < 0 || p.LossXP < 0 || p.WinCoins < 0 {
		return nil, fmt.Errorf("%w: progression values must be positive", models.ErrInvalidArgument)
	}

	c := &Catalog{
		Economy:     f.Economy,
		Progression: f.Progression,
		Policy:      policy,
		items:       make(map[string]models.StoreItem, len(f.Items)),
		powerUps:    make(map[string]models.PowerUpType, len(f.PowerUps)),
	}

	for _, pt := range f.PowerUps {
		if pt.ID == "" {
			pt.ID = slug.Make(pt.Name)
		}
		if err := normalizePowerUp(&pt, opts.DefaultCooldown); err != nil {
			return nil, err
		}
		if _, dup := c.powerUps[pt.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate power-up %q", models.ErrInvalidArgument, pt.ID)
		}
		c.powerUps[pt.ID] = pt
		c.PowerUps = append(c.PowerUps, pt)
	}

	for _, it := range f.Items {
		if it.ID == "" {
			it.ID = slug.Make(it.Name)
		}
		if err := validateItem(it); err != nil {
			return nil, err
		}
		if _, dup := c.items[it.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate item %q", models.ErrInvalidArgument, it.ID)
		}
		if it.Category == models.CategoryPowerUp {
			if _, ok := c.powerUps[it.ID]; !ok {
				return nil, fmt.Errorf("%w: item %q has no power-up definition", models.ErrInvalidArgument, it.ID)
			}
		}
		c.items[it.ID] = it
		c.Items = append(c.Items, it)
	}

	seen := map[string]bool{}
	for _, a := range f.Achievements {
		if a.ID == "" {
			a.ID = slug.Make(a.Name)
		}
		if seen[a.ID] {
			return nil, fmt.Errorf("%w: duplicate achievement %q", models.ErrInvalidArgument, a.ID)
		}
		if len(a.Threshold) == 0 || a.RewardCoins < 0 {
			return nil, fmt.Errorf("%w: achievement %q needs a threshold and a non-negative reward", models.ErrInvalidArgument, a.ID)
		}
		for key := range a.Threshold {
			if !achievementKeys[key] {
				return nil, fmt.Errorf("%w: achievement %q uses unknown stat %q", models.ErrInvalidArgument, a.ID, key)
			}
		}
		seen[a.ID] = true
		c.Achievements = append(c.Achievements, a)
	}

	return c, nil
}

func validateItem(it models.StoreItem) error {
	switch {
	case !it.Category.Valid():
		return fmt.Errorf("%w: item %q has unknown category %q", models.ErrInvalidArgument, it.ID, it.Category)
	case it.Price < 0:
		return fmt.Errorf("%w: item %q has negative price", models.ErrInvalidArgument, it.ID)
	case it.Discount < 0 || it.Discount >= 1:
		return fmt.Errorf("item %q: %w", it.ID, models.ErrInvalidDiscount)
	case it.RequiredLevel < 0:
		return fmt.Errorf("%w: item %q has negative required level", models.ErrInvalidArgument, it.ID)
	}
	return nil
}

func normalizePowerUp(pt *models.PowerUpType, defaultCooldown time.Duration) error {
	if pt.DurationMs <= 0 {
		return fmt.Errorf("%w: power-up %q needs a positive duration", models.ErrInvalidArgument, pt.ID)
	}
	if pt.CooldownMs < 0 {
		return fmt.Errorf("%w: power-up %q has negative cooldown", models.ErrInvalidArgument, pt.ID)
	}
	if pt.CooldownMs == 0 {
		pt.CooldownMs = defaultCooldown.Milliseconds()
	}
	if pt.Stackable {
		if pt.MaxStack < 1 {
			return fmt.Errorf("%w: stackable power-up %q needs max_stack >= 1", models.ErrInvalidArgument, pt.ID)
		}
	} else {
		pt.MaxStack = 1
	}
	if pt.Rarity == "" {
		pt.Rarity = models.RarityCommon
	}
	if _, ok := economy.DefaultRarityWeights[pt.Rarity]; !ok {
		return fmt.Errorf("%w: power-up %q has unknown rarity %q", models.ErrInvalidArgument, pt.ID, pt.Rarity)
	}
	switch pt.Effect {
	case models.EffectMultiplier:
		if pt.Multiplier <= 0 {
			return fmt.Errorf("%w: power-up %q needs a positive multiplier", models.ErrInvalidArgument, pt.ID)
		}
	case models.EffectOverride, models.EffectCounter:
	default:
		return fmt.Errorf("%w: power-up %q has unknown effect %q", models.ErrInvalidArgument, pt.ID, pt.Effect)
	}
	if pt.EffectKey == "" {
		pt.EffectKey = pt.ID
	}
	return nil
}

// Item looks up a store item.
func (c *Catalog) Item(id string) (models.StoreItem, bool) {
	it, ok := c.items[id]
	return it, ok
}

// PowerUp looks up a power-up type.
func (c *Catalog) PowerUp(id string) (models.PowerUpType, bool) {
	pt, ok := c.powerUps[id]
	return pt, ok
}

// ItemsByCategory returns the items of one category in catalog order.
func (c *Catalog) ItemsByCategory(cat models.ItemCategory) []models.StoreItem {
	var out []models.StoreItem
	for _, it := range c.Items {
		if it.Category == cat {
			out = append(out, it)
		}
	}
	return out
}

// FreeItems are granted to every new account.
func (c *Catalog) FreeItems() []models.StoreItem {
	var out []models.StoreItem
	for _, it := range c.Items {
		if it.Price == 0 && !it.Category.Consumable() && it.RequiredLevel == 0 {
			out = append(out, it)
		}
	}
	return out
}

// PowerUpCandidates weights every power-up type by its rarity.
func (c *Catalog) PowerUpCandidates() []economy.Candidate {
	out := make([]economy.Candidate, 0, len(c.PowerUps))
	for _, pt := range c.PowerUps {
		out = append(out, economy.Candidate{ID: pt.ID, Weight: c.Policy.RarityWeight(pt.Rarity)})
	}
	return out
}
