package services

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"wordgame-economy/models"

	"github.com/gofiber/fiber/v2"
)

// SSEKeepAlive is how often an idle stream sends a comment line.
var SSEKeepAlive = 15 * time.Second

// StreamAccountSSE streams every committed change of the authenticated
// user's account (balance, inventory, power-ups) as server-sent events.
func (s *AccountService) StreamAccountSSE(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing user"})
	}
	if _, err := s.EnsureAccount(c.UserContext(), userID); err != nil {
		log.Printf("SSE init error for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load account"})
	}

	// SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	serverDone := c.Context().Done()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		updates := make(chan *models.UserAccount, 1)
		go func() {
			_ = s.Store.Watch(ctx, userID, func(a *models.UserAccount) {
				// keep only the newest version
				select {
				case <-updates:
				default:
				}
				updates <- a
			})
		}()

		keepAlive := s.Clock.NewTicker(SSEKeepAlive)
		defer keepAlive.Stop()

		// Initial keepalive (comment event)
		w.WriteString(":\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		for {
			select {
			case a := <-updates:
				payload, err := json.Marshal(a)
				if err != nil {
					log.Printf("SSE encode error for user %s: %v", userID, err)
					continue
				}
				fmt.Fprintf(w, "event: account\ndata: %s\n\n", payload)
				if err := w.Flush(); err != nil {
					// Client disconnected
					return
				}

			case <-keepAlive.Chan():
				w.WriteString(":\n\n")
				if err := w.Flush(); err != nil {
					return
				}

			case <-serverDone:
				return
			}
		}
	})

	return nil
}
