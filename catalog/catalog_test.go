package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wordgame-economy/economy"
	"wordgame-economy/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOptions = Options{
	Random:          economy.RandomFunc(func() float64 { return 0.5 }),
	DefaultCooldown: 3 * time.Second,
}

func TestShippedCatalogLoads(t *testing.T) {
	l := &Loader{Source: FileSource{Path: "../catalog.yaml"}, Options: testOptions}
	c, raw, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, raw)

	hint, ok := c.Item("hint")
	require.True(t, ok)
	assert.Equal(t, models.CategoryPowerUp, hint.Category)
	assert.Equal(t, int64(25), hint.Price)

	warrior, ok := c.Item("warrior")
	require.True(t, ok)
	assert.Equal(t, 10, warrior.RequiredLevel)

	speed, ok := c.PowerUp("speed_boost")
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, speed.Duration())
	assert.Equal(t, 2, speed.StackLimit())
	assert.Equal(t, 3*time.Second, speed.Cooldown())

	freeze, ok := c.PowerUp("time_freeze")
	require.True(t, ok)
	assert.Equal(t, 1, freeze.StackLimit())

	var free []string
	for _, it := range c.FreeItems() {
		free = append(free, it.ID)
	}
	assert.ElementsMatch(t, []string{"classic", "default1", "default2"}, free)

	r, err := c.Policy.ComputeDailyReward(2)
	require.NoError(t, err)
	assert.Equal(t, int64(30), r.Coins)
	assert.Len(t, c.PowerUpCandidates(), len(c.PowerUps))
}

func TestParse_DerivesMissingIDs(t *testing.T) {
	doc := `
progression: { base_xp_per_level: 100 }
power_ups:
  - { name: Lucky Charm, duration_ms: 1000, effect: counter }
items:
  - { name: Lucky Charm, category: powerup, price: 10 }
`
	c, err := Parse([]byte(doc), testOptions)
	require.NoError(t, err)
	_, ok := c.Item("lucky-charm")
	assert.True(t, ok)
	pt, ok := c.PowerUp("lucky-charm")
	require.True(t, ok)
	assert.Equal(t, "lucky-charm", pt.EffectKey)
	assert.Equal(t, models.RarityCommon, pt.Rarity)
}

func TestParse_Rejects(t *testing.T) {
	base := "progression: { base_xp_per_level: 100 }\n"
	tests := []struct {
		name string
		doc  string
		err  error
	}{
		{"bad discount", base + "items: [{ id: a, category: theme, price: 10, discount: 1 }]", models.ErrInvalidDiscount},
		{"negative price", base + "items: [{ id: a, category: theme, price: -1 }]", models.ErrInvalidArgument},
		{"unknown category", base + "items: [{ id: a, category: hat, price: 1 }]", models.ErrInvalidArgument},
		{"duplicate item", base + "items: [{ id: a, category: theme }, { id: a, category: avatar }]", models.ErrInvalidArgument},
		{"unsold power-up type missing", base + "items: [{ id: a, category: powerup, price: 5 }]", models.ErrInvalidArgument},
		{"zero duration", base + "power_ups: [{ id: p, effect: counter }]", models.ErrInvalidArgument},
		{"stackable without max", base + "power_ups: [{ id: p, duration_ms: 10, stackable: true, effect: counter }]", models.ErrInvalidArgument},
		{"unknown effect", base + "power_ups: [{ id: p, duration_ms: 10, effect: teleport }]", models.ErrInvalidArgument},
		{"unknown achievement stat", base + "achievements: [{ id: x, threshold: { coins: 5 } }]", models.ErrInvalidArgument},
		{"no progression", "items: []", models.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), testOptions)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse([]byte("items: [unclosed"), testOptions)
	assert.Error(t, err)
}

func TestHolderSwap(t *testing.T) {
	first, err := Parse([]byte("progression: { base_xp_per_level: 100 }\neconomy: { starting_coins: 1 }"), testOptions)
	require.NoError(t, err)
	second, err := Parse([]byte("progression: { base_xp_per_level: 100 }\neconomy: { starting_coins: 2 }"), testOptions)
	require.NoError(t, err)

	h := NewHolder(first)
	assert.Same(t, first, h.Swap(second))
	assert.Equal(t, int64(2), h.Current().Economy.StartingCoins)
}

func TestFileSourceMissing(t *testing.T) {
	l := &Loader{Source: FileSource{Path: filepath.Join(t.TempDir(), "nope.yaml")}, Options: testOptions}
	_, _, err := l.Load(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
