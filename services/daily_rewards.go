package services

import (
	"context"
	"log"
	"time"

	"wordgame-economy/catalog"
	"wordgame-economy/economy"
	"wordgame-economy/models"
	"wordgame-economy/store"

	"github.com/jonboulle/clockwork"
)

// DailyClaim is the result of a successful daily claim.
type DailyClaim struct {
	economy.DailyReward
	PowerUpID    string               `json:"power_up_id,omitempty"`
	Balance      int64                `json:"balance"`
	NextClaimAt  time.Time            `json:"next_claim_at"`
	Achievements []models.Achievement `json:"achievements,omitempty"`
}

// DailyStatus describes whether the user can claim right now.
type DailyStatus struct {
	CanClaim    bool       `json:"can_claim"`
	Streak      int        `json:"streak"`
	LastClaimAt *time.Time `json:"last_claim_at,omitempty"`
	NextClaimAt *time.Time `json:"next_claim_at,omitempty"`
	NextReward  int64      `json:"next_reward"`
}

type DailyRewardService struct {
	Store   store.AccountStore
	Tx      *store.Transactor
	Ledger  *InventoryLedger
	Catalog *catalog.Holder
	Clock   clockwork.Clock
}

func NewDailyRewardService(s store.AccountStore, tx *store.Transactor, ledger *InventoryLedger, cat *catalog.Holder, clock clockwork.Clock) *DailyRewardService {
	return &DailyRewardService{Store: s, Tx: tx, Ledger: ledger, Catalog: cat, Clock: clock}
}

// Claim credits today's reward at most once per calendar day.
func (s *DailyRewardService) Claim(ctx context.Context, userID string) (*DailyClaim, error) {
	cat := s.Catalog.Current()
	policy := cat.Policy

	var claim DailyClaim
	acct, err := s.Tx.Run(ctx, userID, func(a *models.UserAccount) error {
		claim = DailyClaim{}
		now := s.Clock.Now()
		last := a.DailyReward.LastClaimAt
		if !policy.CanClaimDaily(last, now) {
			return &models.AlreadyClaimedError{NextClaimAt: policy.NextClaimAt(*last)}
		}

		before := policy.StreakBefore(last, a.DailyReward.Streak, now)
		reward, err := policy.ComputeDailyReward(before)
		if err != nil {
			return err
		}
		claim.DailyReward = reward

		if reward.GrantsPowerUp {
			if candidates := cat.PowerUpCandidates(); len(candidates) > 0 {
				id, err := policy.SelectWeightedPowerUp(candidates)
				if err != nil {
					return err
				}
				item, err := s.Ledger.lookup(id)
				if err != nil {
					return err
				}
				if err := s.Ledger.GrantIn(a, item, 1); err != nil {
					return err
				}
				claim.PowerUpID = id
			} else {
				// nothing to hand out
				claim.GrantsPowerUp = false
			}
		}

		if reward.Coins > 0 {
			credit(a, reward.Coins, models.ReasonDailyReward, claim.PowerUpID, now)
		}
		a.DailyReward.Streak = reward.StreakAfter
		a.DailyReward.LastClaimAt = &now
		a.Stats.TotalDailyRewards++
		claim.Achievements = unlockAchievements(a, cat.Achievements, nil, now)
		claim.NextClaimAt = policy.NextClaimAt(now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	claim.Balance = acct.Coins
	log.Printf("📅 [DAILY] %s claimed %d coins (streak %d, milestone=%t, power-up=%q)",
		userID, claim.Coins, claim.StreakAfter, claim.Milestone, claim.PowerUpID)
	return &claim, nil
}

// Status previews the next claim without writing.
func (s *DailyRewardService) Status(ctx context.Context, userID string) (*DailyStatus, error) {
	a, err := s.Store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	policy := s.Catalog.Current().Policy
	now := s.Clock.Now()
	last := a.DailyReward.LastClaimAt

	st := &DailyStatus{
		CanClaim:    policy.CanClaimDaily(last, now),
		Streak:      a.DailyReward.Streak,
		LastClaimAt: last,
	}
	if st.CanClaim {
		st.Streak = policy.StreakBefore(last, a.DailyReward.Streak, now)
		if coins, err := policy.DailyCoins(st.Streak); err == nil {
			st.NextReward = coins
		}
	} else {
		next := policy.NextClaimAt(*last)
		st.NextClaimAt = &next
	}
	return st, nil
}
