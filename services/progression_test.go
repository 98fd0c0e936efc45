package services

import (
	"context"
	"testing"

	"wordgame-economy/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		xp    int64
		level int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{328, 2}, // 100 + floor(100 * 2^1.2) = 329
		{329, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.level, LevelForXP(100, tt.xp), "xp %d", tt.xp)
	}
}

func TestRecordGameResult_Win(t *testing.T) {
	env := newTestEnv(t, 0.9)
	env.account(t, "u1")

	out, err := env.progression.RecordGameResult(context.Background(), "u1", GameResult{Won: true, Score: 420, DurationSec: 60, Mistakes: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(50), out.XPEarned)
	assert.Equal(t, 1, out.Level)
	assert.False(t, out.LeveledUp)
	require.Len(t, out.Achievements, 1)
	assert.Equal(t, "first_win", out.Achievements[0].ID)
	assert.Equal(t, int64(20+50), out.CoinsEarned)
	assert.Equal(t, int64(170), out.Balance)

	a := env.get(t, "u1")
	assert.Equal(t, int64(1), a.Stats.GamesPlayed)
	assert.Equal(t, int64(1), a.Stats.GamesWon)
	assert.Equal(t, int64(420), a.Stats.BestScore)
	assert.Equal(t, int64(60), a.Stats.TimePlayedSec)
	assert.Contains(t, a.Achievements, "first_win")
}

func TestRecordGameResult_AchievementsUnlockOnce(t *testing.T) {
	env := newTestEnv(t, 0.9)
	env.account(t, "u1")
	ctx := context.Background()
	win := GameResult{Won: true, Score: 10, DurationSec: 30, Mistakes: 1}

	var unlocked []string
	for i := 0; i < 5; i++ {
		out, err := env.progression.RecordGameResult(ctx, "u1", win)
		require.NoError(t, err)
		for _, ach := range out.Achievements {
			unlocked = append(unlocked, ach.ID)
		}
	}
	assert.Equal(t, []string{"first_win", "streak_3"}, unlocked)

	a := env.get(t, "u1")
	assert.Equal(t, int64(5), a.Stats.CurrentWinStreak)
	assert.Equal(t, int64(100+5*20+50+100), a.Coins)
	assert.Equal(t, int64(250), a.XP)
	assert.Equal(t, 2, a.Level)
}

func TestRecordGameResult_LossResetsStreak(t *testing.T) {
	env := newTestEnv(t, 0.9)
	env.account(t, "u1")
	ctx := context.Background()

	_, err := env.progression.RecordGameResult(ctx, "u1", GameResult{Won: true, Mistakes: 1})
	require.NoError(t, err)
	out, err := env.progression.RecordGameResult(ctx, "u1", GameResult{Won: false, Mistakes: 6})
	require.NoError(t, err)
	assert.Equal(t, int64(10), out.XPEarned)
	assert.Zero(t, out.CoinsEarned)

	a := env.get(t, "u1")
	assert.Zero(t, a.Stats.CurrentWinStreak)
	assert.Equal(t, int64(1), a.Stats.BestWinStreak)
}

func TestRecordGameResult_PerfectWinAndDoubleCoins(t *testing.T) {
	env := newTestEnv(t, 0.9)
	env.account(t, "u1")
	env.give(t, "u1", "double_coins", 1)
	ctx := context.Background()

	_, err := env.runtime.Activate(ctx, "u1", "double_coins", "")
	require.NoError(t, err)

	out, err := env.progression.RecordGameResult(ctx, "u1", GameResult{Won: true, Mistakes: 0})
	require.NoError(t, err)
	var ids []string
	for _, ach := range out.Achievements {
		ids = append(ids, ach.ID)
	}
	assert.ElementsMatch(t, []string{"first_win", "perfectionist"}, ids)
	assert.Equal(t, int64(40+50+200), out.CoinsEarned)
}

func TestRecordGameResult_Invalid(t *testing.T) {
	env := newTestEnv(t, 0.9)
	env.account(t, "u1")

	_, err := env.progression.RecordGameResult(context.Background(), "u1", GameResult{Score: -1})
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestAwardXP_LevelsUpAndUnlocksGate(t *testing.T) {
	env := newTestEnv(t, 0.9)
	env.account(t, "u1")
	ctx := context.Background()

	a, err := env.progression.AwardXP(ctx, "u1", 100_000, "test")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, a.Level, 10)

	_, err = env.purchases.Commit(ctx, "u1", "warrior")
	assert.NoError(t, err)
}

func TestLevelProgress(t *testing.T) {
	level, into, span := LevelProgress(100, 150)
	assert.Equal(t, 2, level)
	assert.Equal(t, int64(50), into)
	assert.Equal(t, int64(229), span)
	assert.Equal(t, LevelForXP(100, 150), level)
}

func TestProgressFromLevel(t *testing.T) {
	into, span := ProgressFromLevel(100, 2, 150)
	_, wantInto, wantSpan := LevelProgress(100, 150)
	assert.Equal(t, wantInto, into)
	assert.Equal(t, wantSpan, span)

	// level 2 kept after the curve moved to 1000 per level
	into, span = ProgressFromLevel(1000, 2, 150)
	assert.Zero(t, into)
	assert.Equal(t, xpForNextLevel(1000, 2), span)
}
