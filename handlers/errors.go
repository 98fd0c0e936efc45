// handlers/errors.go
package handlers

import (
	"errors"
	"log"

	"wordgame-economy/models"

	"github.com/gofiber/fiber/v2"
)

type rejection struct {
	target error
	status int
	reason string
}

// Order matters: the first match wins.
var rejections = []rejection{
	{models.ErrInsufficientFunds, fiber.StatusPaymentRequired, "insufficient_funds"},
	{models.ErrInsufficientInventory, fiber.StatusConflict, "insufficient_inventory"},
	{models.ErrAlreadyOwned, fiber.StatusConflict, "already_owned"},
	{models.ErrLevelLocked, fiber.StatusForbidden, "level_locked"},
	{models.ErrOnCooldown, fiber.StatusTooManyRequests, "on_cooldown"},
	{models.ErrStackLimitExceeded, fiber.StatusConflict, "stack_limit_exceeded"},
	{models.ErrInstanceNotFound, fiber.StatusNotFound, "instance_not_found"},
	{models.ErrAlreadyClaimed, fiber.StatusConflict, "already_claimed"},
	{models.ErrNotFound, fiber.StatusNotFound, "not_found"},
	{models.ErrInvalidArgument, fiber.StatusBadRequest, "invalid_argument"},
	{models.ErrInvalidDiscount, fiber.StatusInternalServerError, "invalid_discount"},
	{models.ErrStoreUnavailable, fiber.StatusServiceUnavailable, "store_unavailable"},
}

// respondError writes {"error", "reason"} for a service error.
func respondError(c *fiber.Ctx, err error) error {
	for _, r := range rejections {
		if !errors.Is(err, r.target) {
			continue
		}
		body := fiber.Map{
			"error":  err.Error(),
			"reason": r.reason,
		}

		var cd *models.CooldownError
		if errors.As(err, &cd) {
			body["retry_after_ms"] = cd.Remaining.Milliseconds()
		}
		var lvl *models.LevelLockedError
		if errors.As(err, &lvl) {
			body["required_level"] = lvl.Required
		}
		var ac *models.AlreadyClaimedError
		if errors.As(err, &ac) {
			body["next_claim_at"] = ac.NextClaimAt
		}

		if r.status >= fiber.StatusInternalServerError {
			log.Printf("❌ [API] %s %s: %v", c.Method(), c.Path(), err)
		}
		return c.Status(r.status).JSON(body)
	}

	log.Printf("❌ [API] %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":  "internal error",
		"reason": "internal",
	})
}

func badRequest(c *fiber.Ctx, msg string, cause error) error {
	body := fiber.Map{"error": msg, "reason": "invalid_argument"}
	if cause != nil {
		body["cause"] = cause.Error()
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}
