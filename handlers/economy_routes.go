// handlers/economy_routes.go
package handlers

import (
	"errors"

	"wordgame-economy/catalog"
	"wordgame-economy/economy"
	"wordgame-economy/middleware"
	"wordgame-economy/models"
	"wordgame-economy/services"

	"github.com/gofiber/fiber/v2"
)

// Services is everything the HTTP layer calls into.
type Services struct {
	Accounts    *services.AccountService
	Ledger      *services.InventoryLedger
	Purchases   *services.PurchaseTransactor
	Runtime     *services.PowerUpRuntime
	Daily       *services.DailyRewardService
	Progression *services.ProgressionService
	Catalog     *catalog.Holder
	Tokens      middleware.TokenValidator
}

type storeItemView struct {
	models.StoreItem
	EffectivePrice int64 `json:"effective_price"`
}

func SetupRoutes(app *fiber.App, s Services) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// EventSource can't send gateway headers; registered before the /user group
	// so UserContextMiddleware never sees it.
	app.Get("/user/stream", middleware.SSEAuthMiddleware(s.Tokens), s.Accounts.StreamAccountSSE)

	// 🔐 Secured routes: require user context (userID, roles)
	user := app.Group("/user", middleware.UserContextMiddleware(), ensureAccount(s.Accounts))

	user.Get("/account", func(c *fiber.Ctx) error {
		return c.JSON(c.Locals("account"))
	})

	user.Get("/inventory/:id", func(c *fiber.Ctx) error {
		qty, err := s.Ledger.GetQuantity(c.UserContext(), userID(c), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		owned, err := s.Ledger.IsOwned(c.UserContext(), userID(c), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"item_id": c.Params("id"), "quantity": qty, "owned": owned})
	})

	user.Put("/equip", func(c *fiber.Ctx) error {
		var req struct {
			ItemID string `json:"item_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		if req.ItemID == "" {
			return badRequest(c, "item_id is required", nil)
		}
		acct, err := s.Ledger.Equip(c.UserContext(), userID(c), req.ItemID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"active_theme":  acct.ActiveTheme,
			"active_avatar": acct.ActiveAvatar,
		})
	})

	user.Get("/daily", func(c *fiber.Ctx) error {
		st, err := s.Daily.Status(c.UserContext(), userID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(st)
	})

	user.Post("/daily/claim", func(c *fiber.Ctx) error {
		claim, err := s.Daily.Claim(c.UserContext(), userID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(claim)
	})

	user.Get("/powerups", func(c *fiber.Ctx) error {
		st, err := s.Runtime.Active(c.UserContext(), userID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(st)
	})

	user.Post("/powerups/:id/activate", func(c *fiber.Ctx) error {
		var req struct {
			Target string `json:"target"`
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return badRequest(c, "invalid JSON", err)
			}
		}
		inst, err := s.Runtime.Activate(c.UserContext(), userID(c), c.Params("id"), req.Target)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(inst)
	})

	user.Delete("/powerups/:id/instances/:instanceId", func(c *fiber.Ctx) error {
		err := s.Runtime.Deactivate(c.UserContext(), userID(c), c.Params("id"), c.Params("instanceId"))
		switch {
		case err == nil:
			return c.JSON(fiber.Map{"deactivated": true})
		case errors.Is(err, models.ErrInstanceNotFound):
			// already expired or removed
			return c.JSON(fiber.Map{"deactivated": false})
		default:
			return respondError(c, err)
		}
	})

	// 🛒 Store
	shop := app.Group("/store", middleware.UserContextMiddleware(), ensureAccount(s.Accounts))

	shop.Get("/items", func(c *fiber.Ctx) error {
		cat := s.Catalog.Current()
		items := cat.Items
		if category := c.Query("category"); category != "" {
			if !models.ItemCategory(category).Valid() {
				return badRequest(c, "unknown category", nil)
			}
			items = cat.ItemsByCategory(models.ItemCategory(category))
		}

		views := make([]storeItemView, 0, len(items))
		for _, it := range items {
			price, err := economy.EffectivePrice(it)
			if err != nil {
				return respondError(c, err)
			}
			views = append(views, storeItemView{StoreItem: it, EffectivePrice: price})
		}
		return c.JSON(views)
	})

	shop.Get("/items/:id/quote", func(c *fiber.Ctx) error {
		q, err := s.Purchases.Quote(c.UserContext(), userID(c), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(q)
	})

	shop.Post("/items/:id/purchase", func(c *fiber.Ctx) error {
		receipt, err := s.Purchases.Commit(c.UserContext(), userID(c), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(receipt)
	})

	// Admin endpoints
	admin := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireRole("admin"))

	admin.Post("/coins/grant", func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id"`
			Amount int64  `json:"amount"`
			Reason string `json:"reason"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		if req.UserID == "" || req.Amount <= 0 {
			return badRequest(c, "user_id and a positive amount are required", nil)
		}
		if req.Reason == "" {
			req.Reason = models.ReasonAdminGrant
		}
		acct, err := s.Accounts.GrantCoins(c.UserContext(), req.UserID, req.Amount, req.Reason)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"message": "coins granted successfully",
			"user_id": req.UserID,
			"balance": acct.Coins,
		})
	})

	admin.Post("/items/grant", func(c *fiber.Ctx) error {
		var req struct {
			UserID   string `json:"user_id"`
			ItemID   string `json:"item_id"`
			Quantity int64  `json:"quantity"`
		}
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid JSON", err)
		}
		if req.UserID == "" || req.ItemID == "" {
			return badRequest(c, "user_id and item_id are required", nil)
		}
		if req.Quantity == 0 {
			req.Quantity = 1
		}
		if _, err := s.Accounts.EnsureAccount(c.UserContext(), req.UserID); err != nil {
			return respondError(c, err)
		}
		acct, err := s.Ledger.Grant(c.UserContext(), req.UserID, req.ItemID, req.Quantity)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"message":  "item granted successfully",
			"user_id":  req.UserID,
			"item_id":  req.ItemID,
			"quantity": acct.Quantity(req.ItemID),
			"owned":    acct.Owns(req.ItemID),
		})
	})

	setupProgressionRoutes(user, admin, s)
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

// ensureAccount creates the caller's account on first contact and stashes it
// in Locals("account").
func ensureAccount(accounts *services.AccountService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		acct, err := accounts.EnsureAccount(c.UserContext(), userID(c))
		if err != nil {
			return respondError(c, err)
		}
		c.Locals("account", acct)
		return c.Next()
	}
}
