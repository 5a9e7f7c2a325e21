package handler

import (
	"errors"
	"fmt"

	"leadcrm/internal/email"
	"leadcrm/internal/form"
	"leadcrm/internal/model"
	"leadcrm/internal/repository"
	"leadcrm/internal/scope"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
)

type Handler struct {
	store    *session.Store
	repo     repository.Repository
	scopes   *scope.Resolver
	forms    *form.Validator
	notifier email.Notifier
}

func NewHandler(store *session.Store, repo repository.Repository, scopes *scope.Resolver, forms *form.Validator, notifier email.Notifier) Handler {
	return Handler{store: store, repo: repo, scopes: scopes, forms: forms, notifier: notifier}
}

// requester resolves the authenticated user from the session into its
// access scope. The auth middleware has already guaranteed a user_id,
// and the organisor gate stashes the loaded user so gated routes cost
// one lookup.
func (h *Handler) requester(c *fiber.Ctx) (scope.Requester, error) {
	if user, ok := c.Locals("user").(model.User); ok {
		return h.scopes.Resolve(user)
	}

	userIDStr, ok := c.Locals("user_id").(string)
	if !ok {
		return scope.Requester{}, fmt.Errorf("no user id in request context")
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return scope.Requester{}, fmt.Errorf("invalid user id in session: %w", err)
	}

	user, err := h.repo.GetUserByID(userID)
	if err != nil {
		return scope.Requester{}, fmt.Errorf("failed to load user %s: %w", userID, err)
	}

	return h.scopes.Resolve(user)
}

func (h *Handler) notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).Render("errors/404", fiber.Map{}, "layouts/main")
}

// isNotFound reports whether err is any of the repository's NotFound
// sentinels. Out-of-scope records deliberately land here too.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrLeadNotFound) ||
		errors.Is(err, repository.ErrCategoryNotFound) ||
		errors.Is(err, repository.ErrAgentNotFound) ||
		errors.Is(err, repository.ErrUserNotFound) ||
		errors.Is(err, repository.ErrOrganisationNotFound)
}
