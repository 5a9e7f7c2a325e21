package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// ShowDashboard renders a pipeline summary. Organisors get
// organisation-wide counts; agents a count of their own assigned
// leads.
func (h *Handler) ShowDashboard(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	data := fiber.Map{"Requester": req}

	if req.IsOrganisor() {
		stats, err := h.repo.GetLeadStats(req.Organisation.ID)
		if err != nil {
			slog.Error("Failed to get lead stats", "error", err)
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to load dashboard")
		}
		data["Stats"] = stats
	} else {
		leads, err := h.repo.ListAssignedLeads(req.LeadScope())
		if err != nil {
			slog.Error("Failed to list leads", "error", err)
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to load dashboard")
		}
		data["AssignedCount"] = len(leads)
	}

	return c.Render("dashboard", data, "layouts/main")
}
