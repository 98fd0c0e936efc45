package economy

import (
	"testing"
	"time"

	"wordgame-economy/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(v float64) RandomSource {
	return RandomFunc(func() float64 { return v })
}

func newTestPolicy(t *testing.T, rnd RandomSource) *Policy {
	t.Helper()
	p, err := NewPolicy(PolicyConfig{
		DailyBaseCoins: 10,
		StreakBonuses: []models.StreakBonus{
			{Threshold: 7, Bonus: 10},
			{Threshold: 3, Bonus: 5},
			{Threshold: 14, Bonus: 20},
			{Threshold: 30, Bonus: 50},
		},
		PowerUpChance: 0.3,
	}, rnd)
	require.NoError(t, err)
	return p
}

func TestComputeDailyReward(t *testing.T) {
	p := newTestPolicy(t, fixed(0.9))

	tests := []struct {
		name      string
		before    int
		coins     int64
		after     int
		milestone bool
	}{
		{"first claim", 0, 10, 1, false},
		{"day two", 1, 10, 2, false},
		{"reaches three", 2, 30, 3, true},
		{"past three", 3, 15, 4, false},
		{"reaches seven", 6, 50, 7, true},
		{"past thirty", 40, 95, 41, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := p.ComputeDailyReward(tt.before)
			require.NoError(t, err)
			assert.Equal(t, tt.coins, r.Coins)
			assert.Equal(t, tt.after, r.StreakAfter)
			assert.Equal(t, tt.milestone, r.Milestone)
			assert.False(t, r.GrantsPowerUp)
		})
	}
}

func TestComputeDailyReward_PowerUpDraw(t *testing.T) {
	r, err := newTestPolicy(t, fixed(0.29)).ComputeDailyReward(0)
	require.NoError(t, err)
	assert.True(t, r.GrantsPowerUp)

	r, err = newTestPolicy(t, fixed(0.3)).ComputeDailyReward(0)
	require.NoError(t, err)
	assert.False(t, r.GrantsPowerUp)
}

func TestComputeDailyReward_NegativeStreak(t *testing.T) {
	_, err := newTestPolicy(t, fixed(0)).ComputeDailyReward(-1)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestCanClaimDaily(t *testing.T) {
	p := newTestPolicy(t, fixed(0))
	last := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)

	assert.True(t, p.CanClaimDaily(nil, last))
	assert.False(t, p.CanClaimDaily(&last, last.Add(30*time.Second)))
	assert.True(t, p.CanClaimDaily(&last, last.Add(time.Minute)))
	assert.False(t, p.CanClaimDaily(&last, last.Add(-48*time.Hour)))
}

func TestCanClaimDaily_ReferenceZone(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	p, err := NewPolicy(PolicyConfig{DailyBaseCoins: 10, Location: loc}, fixed(0))
	require.NoError(t, err)

	// 20:00 and 22:00 UTC straddle local midnight
	last := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	assert.True(t, p.CanClaimDaily(&last, last.Add(2*time.Hour)))
	assert.True(t, p.NextClaimAt(last).Equal(time.Date(2026, 3, 11, 0, 0, 0, 0, loc)))
}

func TestStreakBefore(t *testing.T) {
	p := newTestPolicy(t, fixed(0))
	last := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, p.StreakBefore(nil, 5, last))
	assert.Equal(t, 4, p.StreakBefore(&last, 4, last.AddDate(0, 0, 1)))
	assert.Equal(t, 0, p.StreakBefore(&last, 4, last.AddDate(0, 0, 2)))
}

func TestSelectWeightedPowerUp(t *testing.T) {
	candidates := []Candidate{
		{ID: "speed_boost", Weight: 100},
		{ID: "time_freeze", Weight: 30},
		{ID: "golden", Weight: 10},
	}

	tests := []struct {
		draw float64
		want string
	}{
		{0, "speed_boost"},
		{0.71, "speed_boost"},
		{0.72, "time_freeze"},
		{0.92, "time_freeze"},
		{0.93, "golden"},
		{0.99999, "golden"},
	}
	for _, tt := range tests {
		got, err := newTestPolicy(t, fixed(tt.draw)).SelectWeightedPowerUp(candidates)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "draw %v", tt.draw)
	}
}

func TestSelectWeightedPowerUp_TiesUseDeclarationOrder(t *testing.T) {
	p := newTestPolicy(t, fixed(0.49))
	got, err := p.SelectWeightedPowerUp([]Candidate{{ID: "a", Weight: 5}, {ID: "b", Weight: 5}})
	require.NoError(t, err)
	assert.Equal(t, "a", got)
}

func TestSelectWeightedPowerUp_Invalid(t *testing.T) {
	p := newTestPolicy(t, fixed(0.5))

	_, err := p.SelectWeightedPowerUp(nil)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	_, err = p.SelectWeightedPowerUp([]Candidate{{ID: "a", Weight: 0}})
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestApplyDiscount(t *testing.T) {
	tests := []struct {
		price    int64
		fraction float64
		want     int64
	}{
		{100, 0, 100},
		{100, 0.25, 75},
		{75, 0.1, 67},
		{10, 0.9, 1},
		{0, 0.5, 0},
		{1, 0.999, 0},
	}
	for _, tt := range tests {
		got, err := ApplyDiscount(tt.price, tt.fraction)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%d × (1 − %v)", tt.price, tt.fraction)
		assert.LessOrEqual(t, got, tt.price)
		assert.GreaterOrEqual(t, got, int64(0))
	}
}

func TestApplyDiscount_Invalid(t *testing.T) {
	_, err := ApplyDiscount(100, 1)
	assert.ErrorIs(t, err, models.ErrInvalidDiscount)

	_, err = ApplyDiscount(100, -0.1)
	assert.ErrorIs(t, err, models.ErrInvalidDiscount)

	_, err = ApplyDiscount(-1, 0.1)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestNewPolicy_Validation(t *testing.T) {
	_, err := NewPolicy(PolicyConfig{}, nil)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	_, err = NewPolicy(PolicyConfig{PowerUpChance: 1.5}, fixed(0))
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	_, err = NewPolicy(PolicyConfig{StreakBonuses: []models.StreakBonus{{Threshold: 3, Bonus: 1}, {Threshold: 3, Bonus: 2}}}, fixed(0))
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	p, err := NewPolicy(PolicyConfig{RarityWeights: map[models.Rarity]int{models.RarityRare: 45}}, fixed(0))
	require.NoError(t, err)
	assert.Equal(t, 45, p.RarityWeight(models.RarityRare))
	assert.Equal(t, 100, p.RarityWeight(models.RarityCommon))
}
