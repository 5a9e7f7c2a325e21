package middleware

import (
	"leadcrm/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
)

// AuthenticatedSession rejects unauthenticated requests before any
// scope computation happens, redirecting to the login page.
func AuthenticatedSession(sessionStore *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := sessionStore.Get(c)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).SendString("Session error")
		}
		if sess.Get("user_id") == nil {
			return c.Redirect("/login", fiber.StatusFound)
		}

		c.Locals("user_id", sess.Get("user_id"))

		return c.Next()
	}
}

// RequireOrganisor gates the write surface: agents are read-only
// against their assigned subset, so anything that creates, mutates or
// assigns records is organisor-only.
func RequireOrganisor(repo repository.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userIDStr, ok := c.Locals("user_id").(string)
		if !ok {
			return c.Redirect("/login", fiber.StatusFound)
		}

		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			return c.Redirect("/login", fiber.StatusFound)
		}

		user, err := repo.GetUserByID(userID)
		if err != nil {
			return c.Redirect("/login", fiber.StatusFound)
		}
		if !user.IsOrganisor() {
			return c.Redirect("/leads", fiber.StatusSeeOther)
		}

		// Handlers resolve the requester from this, saving a second
		// lookup of the same row.
		c.Locals("user", user)

		return c.Next()
	}
}
