// handlers/progression_routes.go
package handlers

import (
	"time"

	"wordgame-economy/models"
	"wordgame-economy/services"

	"github.com/gofiber/fiber/v2"
)

type achievementView struct {
	models.Achievement
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

// setupProgressionRoutes mounts game results and XP on the groups built by
// SetupRoutes, so the group middleware runs once.
func setupProgressionRoutes(user, admin fiber.Router, s Services) {
	user.Get("/progress", func(c *fiber.Ctx) error {
		acct, _ := c.Locals("account").(*models.UserAccount)
		cat := s.Catalog.Current()

		// the stored level is authoritative; a catalog reload never relevels
		into, span := services.ProgressFromLevel(cat.Progression.BaseXPPerLevel, acct.Level, acct.XP)

		achievements := make([]achievementView, 0, len(cat.Achievements))
		for _, ach := range cat.Achievements {
			v := achievementView{Achievement: ach}
			if at, ok := acct.Achievements[ach.ID]; ok {
				v.Unlocked = true
				v.UnlockedAt = &at
			}
			achievements = append(achievements, v)
		}

		return c.JSON(fiber.Map{
			"id":                acct.ID,
			"xp":                acct.XP,
			"level":             acct.Level,
			"xp_into_level":     into,
			"xp_for_next_level": span,
			"stats":             acct.Stats,
			"achievements":      achievements,
		})
	})

	user.Post("/games", func(c *fiber.Ctx) error {
		var res services.GameResult
		if err := c.BodyParser(&res); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		out, err := s.Progression.RecordGameResult(c.UserContext(), userID(c), res)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(out)
	})

	admin.Post("/xp/grant", func(c *fiber.Ctx) error {
		type Req struct {
			UserID string `json:"user_id"`
			XP     int64  `json:"xp"`
			Reason string `json:"reason"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		if req.UserID == "" {
			return badRequest(c, "user_id is required", nil)
		}
		if _, err := s.Accounts.EnsureAccount(c.UserContext(), req.UserID); err != nil {
			return respondError(c, err)
		}

		acct, err := s.Progression.AwardXP(c.UserContext(), req.UserID, req.XP, req.Reason)
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(fiber.Map{
			"message": "XP granted successfully",
			"user_id": req.UserID,
			"xp":      acct.XP,
			"level":   acct.Level,
		})
	})
}
