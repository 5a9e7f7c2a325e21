package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) ShowDeleteAccount(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	return c.Render("account/delete", fiber.Map{"Requester": req}, "layouts/main")
}

// DeleteAccount removes the organisor's organisation and everything in
// it: agent accounts, categories and leads. The session ends with the
// account.
func (h *Handler) DeleteAccount(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	if err := h.repo.DeleteOrganisation(req.Organisation.ID); err != nil {
		if isNotFound(err) {
			return h.notFound(c)
		}
		slog.Error("Failed to delete organisation", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to delete account")
	}

	slog.Info("Organisation deleted", "organisation_id", req.Organisation.ID, "user_id", req.User.ID)

	sess, err := h.store.Get(c)
	if err == nil {
		if err := sess.Destroy(); err != nil {
			slog.Error("Failed to destroy session", "error", err)
		}
	}

	return c.Redirect("/", fiber.StatusSeeOther)
}
