package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"wordgame-economy/catalog"
	"wordgame-economy/models"
	"wordgame-economy/store"

	"github.com/jonboulle/clockwork"
)

// CoinRewardEffectKey is the effect that scales coins earned from a win.
const CoinRewardEffectKey = "coin_reward"

// xpForNextLevel returns XP required to reach level+1 from current level
// e.g., xpForNextLevel(100, 1) = XP to go from L1 → L2
func xpForNextLevel(base int64, currentLevel int) int64 {
	if currentLevel < 1 {
		currentLevel = 1
	}
	// L_n = floor(base * n^1.2)
	return int64(float64(base) * math.Pow(float64(currentLevel), 1.2))
}

// LevelForXP returns the level reached with totalXP.
func LevelForXP(base, totalXP int64) int {
	level := 1
	need := xpForNextLevel(base, level)
	for totalXP >= need {
		level++
		need += xpForNextLevel(base, level)
	}
	return level
}

// LevelProgress reports how far totalXP is into its level.
func LevelProgress(base, totalXP int64) (level int, intoLevel, levelSpan int64) {
	level = 1
	floor := int64(0)
	span := xpForNextLevel(base, level)
	for totalXP >= floor+span {
		floor += span
		level++
		span = xpForNextLevel(base, level)
	}
	return level, totalXP - floor, span
}

// ProgressFromLevel reports how far totalXP is into a stored level. Levels
// never drop, so after the curve steepens intoLevel can be 0 while the account
// keeps its level.
func ProgressFromLevel(base int64, level int, totalXP int64) (intoLevel, levelSpan int64) {
	if level < 1 {
		level = 1
	}
	floor := int64(0)
	for l := 1; l < level; l++ {
		floor += xpForNextLevel(base, l)
	}
	return max(totalXP-floor, 0), xpForNextLevel(base, level)
}

// GameResult is a finished game reported by the client.
type GameResult struct {
	Won         bool  `json:"won"`
	Score       int64 `json:"score"`
	DurationSec int64 `json:"duration_sec"`
	Mistakes    int   `json:"mistakes"`
}

// GameOutcome is what the game result earned.
type GameOutcome struct {
	XPEarned     int64                `json:"xp_earned"`
	TotalXP      int64                `json:"total_xp"`
	Level        int                  `json:"level"`
	LeveledUp    bool                 `json:"leveled_up"`
	CoinsEarned  int64                `json:"coins_earned"`
	Balance      int64                `json:"balance"`
	Achievements []models.Achievement `json:"achievements"`
}

type ProgressionService struct {
	Tx      *store.Transactor
	Catalog *catalog.Holder
	Clock   clockwork.Clock
}

func NewProgressionService(tx *store.Transactor, cat *catalog.Holder, clock clockwork.Clock) *ProgressionService {
	return &ProgressionService{Tx: tx, Catalog: cat, Clock: clock}
}

// RecordGameResult updates statistics, XP, level, win coins and achievements
// in one transaction.
func (s *ProgressionService) RecordGameResult(ctx context.Context, userID string, res GameResult) (*GameOutcome, error) {
	if res.Score < 0 || res.DurationSec < 0 || res.Mistakes < 0 {
		return nil, fmt.Errorf("%w: game result values must be >= 0", models.ErrInvalidArgument)
	}
	cat := s.Catalog.Current()
	prog := cat.Progression

	var out GameOutcome
	acct, err := s.Tx.Run(ctx, userID, func(a *models.UserAccount) error {
		out = GameOutcome{}
		now := s.Clock.Now()

		st := &a.Stats
		st.GamesPlayed++
		st.TimePlayedSec += res.DurationSec
		if res.Score > st.BestScore {
			st.BestScore = res.Score
		}
		if res.Won {
			st.GamesWon++
			st.CurrentWinStreak++
			if st.CurrentWinStreak > st.BestWinStreak {
				st.BestWinStreak = st.CurrentWinStreak
			}
		} else {
			st.CurrentWinStreak = 0
		}

		out.XPEarned = prog.LossXP
		if res.Won {
			out.XPEarned = prog.WinXP
			out.CoinsEarned = winCoins(a, prog.WinCoins)
			if out.CoinsEarned > 0 {
				credit(a, out.CoinsEarned, models.ReasonGameWin, "", now)
			}
		}
		out.LeveledUp = addXP(a, prog.BaseXPPerLevel, out.XPEarned)

		unlocked := unlockAchievements(a, cat.Achievements, &res, now)
		for _, ach := range unlocked {
			out.CoinsEarned += ach.RewardCoins
		}
		out.Achievements = unlocked
		return nil
	})
	if err != nil {
		return nil, err
	}

	out.TotalXP = acct.XP
	out.Level = acct.Level
	out.Balance = acct.Coins
	if out.Achievements == nil {
		out.Achievements = []models.Achievement{}
	}

	// Log
	log.Printf("🎮 [PROGRESSION] %s won=%t → XP=%d (+%d), Lvl=%d, coins +%d, %d achievement(s)",
		userID, res.Won, out.TotalXP, out.XPEarned, out.Level, out.CoinsEarned, len(out.Achievements))
	return &out, nil
}

// AwardXP grants XP outside a game (admin tooling) and returns the new state.
func (s *ProgressionService) AwardXP(ctx context.Context, userID string, xp int64, reason string) (*models.UserAccount, error) {
	if xp <= 0 {
		return nil, fmt.Errorf("%w: xp must be positive", models.ErrInvalidArgument)
	}
	cat := s.Catalog.Current()
	acct, err := s.Tx.Run(ctx, userID, func(a *models.UserAccount) error {
		addXP(a, cat.Progression.BaseXPPerLevel, xp)
		unlockAchievements(a, cat.Achievements, nil, s.Clock.Now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("🎮 XP Awarded: %s → XP=%d, Lvl=%d (reason: %s)", userID, acct.XP, acct.Level, reason)
	return acct, nil
}

// addXP adds xp and recomputes the level. Levels never go down.
func addXP(a *models.UserAccount, base, xp int64) bool {
	a.XP += xp
	level := LevelForXP(base, a.XP)
	if level > a.Level {
		a.Level = level
		return true
	}
	return false
}

// winCoins scales the base win payout by an active coin multiplier.
func winCoins(a *models.UserAccount, base int64) int64 {
	m, ok := a.Effects[EffectStateKey(models.DefaultTarget, CoinRewardEffectKey)]
	if !ok || m <= 0 {
		return base
	}
	return int64(math.Floor(float64(base) * m))
}

// unlockAchievements awards every newly met achievement once and credits its
// reward. game is nil when no game was just played.
func unlockAchievements(a *models.UserAccount, all []models.Achievement, game *GameResult, now time.Time) []models.Achievement {
	var unlocked []models.Achievement
	for _, ach := range all {
		if _, done := a.Achievements[ach.ID]; done {
			continue
		}
		if !meetsThreshold(a, game, ach.Threshold) {
			continue
		}
		a.Achievements[ach.ID] = now
		if ach.RewardCoins > 0 {
			credit(a, ach.RewardCoins, models.ReasonAchievement, ach.ID, now)
		}
		unlocked = append(unlocked, ach)
		log.Printf("🎖️ Achievement unlocked: %s → %s", ach.Name, a.ID)
	}
	return unlocked
}

func meetsThreshold(a *models.UserAccount, game *GameResult, req map[string]int64) bool {
	for key, required := range req {
		switch key {
		case "games_played":
			if a.Stats.GamesPlayed < required {
				return false
			}
		case "games_won":
			if a.Stats.GamesWon < required {
				return false
			}
		case "win_streak":
			if a.Stats.CurrentWinStreak < required {
				return false
			}
		case "level":
			if int64(a.Level) < required {
				return false
			}
		case "best_score":
			if a.Stats.BestScore < required {
				return false
			}
		case "daily_streak":
			if int64(a.DailyReward.Streak) < required {
				return false
			}
		case "fast_win_seconds": // this game, won within the limit
			if game == nil || !game.Won || game.DurationSec > required {
				return false
			}
		case "perfect_win": // this game, won without mistakes
			if game == nil || !game.Won || game.Mistakes > 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
