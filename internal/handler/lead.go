package handler

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"leadcrm/internal/form"
	"leadcrm/internal/model"
	"leadcrm/internal/scope"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ListLeads shows the requester's lead scope. Organisors additionally
// get the unassigned leads as a separate collection; agents never see
// those.
func (h *Handler) ListLeads(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	leads, err := h.repo.ListAssignedLeads(req.LeadScope())
	if err != nil {
		slog.Error("Failed to list leads", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to list leads")
	}

	data := fiber.Map{
		"Requester": req,
		"Leads":     leads,
	}

	if req.IsOrganisor() {
		unassigned, err := h.repo.ListUnassignedLeads(req.Organisation.ID)
		if err != nil {
			slog.Error("Failed to list unassigned leads", "error", err)
			return c.Status(fiber.StatusInternalServerError).SendString("Failed to list leads")
		}
		data["UnassignedLeads"] = unassigned
	}

	return c.Render("leads/index", data, "layouts/main")
}

func (h *Handler) ShowLead(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	leadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.notFound(c)
	}

	lead, err := h.repo.GetLead(req.LeadScope(), leadID)
	if err != nil {
		if isNotFound(err) {
			return h.notFound(c)
		}
		slog.Error("Failed to get lead", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to get lead")
	}

	return c.Render("leads/show", fiber.Map{"Requester": req, "Lead": lead}, "layouts/main")
}

func (h *Handler) ShowCreateLead(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	categories, err := h.repo.ListCategories(req.Organisation.ID)
	if err != nil {
		slog.Error("Failed to list categories", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load form")
	}

	return c.Render("leads/new", fiber.Map{
		"Requester":  req,
		"Form":       form.Lead{},
		"Errors":     form.Errors{},
		"Categories": categories,
	}, "layouts/main")
}

// CreateLead stamps the new lead with the requester's organisation and
// fires the notification email. The notification is best effort: a
// send failure is logged and the create still succeeds.
func (h *Handler) CreateLead(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	f, errs := h.leadForm(c)
	categoryID, errs := h.leadCategory(req, f, errs)
	if len(errs) > 0 {
		return h.renderLeadForm(c, req, "leads/new", f, errs)
	}

	lead := model.Lead{
		ID:             uuid.New(),
		OrganisationID: req.Organisation.ID,
		CategoryID:     categoryID,
		FirstName:      f.FirstName,
		LastName:       f.LastName,
		Age:            f.Age,
		Description:    f.Description,
		CreatedAt:      time.Now(),
	}

	if err := h.repo.CreateLead(lead); err != nil {
		slog.Error("Failed to create lead", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to create lead")
	}

	slog.Info("Lead created", "lead_id", lead.ID, "organisation_id", lead.OrganisationID)

	go func() {
		if err := h.notifier.LeadCreated(lead); err != nil {
			slog.Error("Failed to send lead notification", "lead_id", lead.ID, "error", err)
		}
	}()

	return c.Redirect("/leads", fiber.StatusSeeOther)
}

func (h *Handler) ShowUpdateLead(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	leadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.notFound(c)
	}

	lead, err := h.repo.GetLead(req.LeadScope(), leadID)
	if err != nil {
		if isNotFound(err) {
			return h.notFound(c)
		}
		slog.Error("Failed to get lead", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to get lead")
	}

	f := form.Lead{
		FirstName:   lead.FirstName,
		LastName:    lead.LastName,
		Age:         lead.Age,
		Description: lead.Description,
	}
	if lead.CategoryID != nil {
		f.CategoryID = lead.CategoryID.String()
	}

	categories, err := h.repo.ListCategories(req.Organisation.ID)
	if err != nil {
		slog.Error("Failed to list categories", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load form")
	}

	return c.Render("leads/edit", fiber.Map{
		"Requester":  req,
		"Lead":       lead,
		"Form":       f,
		"Errors":     form.Errors{},
		"Categories": categories,
	}, "layouts/main")
}

func (h *Handler) UpdateLead(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	leadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.notFound(c)
	}

	lead, err := h.repo.GetLead(req.LeadScope(), leadID)
	if err != nil {
		if isNotFound(err) {
			return h.notFound(c)
		}
		slog.Error("Failed to get lead", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to get lead")
	}

	f, errs := h.leadForm(c)
	categoryID, errs := h.leadCategory(req, f, errs)
	if len(errs) > 0 {
		return h.renderLeadForm(c, req, "leads/edit", f, errs, fiber.Map{"Lead": lead})
	}

	lead.FirstName = f.FirstName
	lead.LastName = f.LastName
	lead.Age = f.Age
	lead.Description = f.Description
	lead.CategoryID = categoryID

	if err := h.repo.UpdateLead(req.LeadScope(), lead); err != nil {
		if isNotFound(err) {
			return h.notFound(c)
		}
		slog.Error("Failed to update lead", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to update lead")
	}

	return c.Redirect("/leads", fiber.StatusSeeOther)
}

func (h *Handler) ShowDeleteLead(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	leadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.notFound(c)
	}

	lead, err := h.repo.GetLead(req.LeadScope(), leadID)
	if err != nil {
		if isNotFound(err) {
			return h.notFound(c)
		}
		slog.Error("Failed to get lead", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to get lead")
	}

	return c.Render("leads/delete", fiber.Map{"Requester": req, "Lead": lead}, "layouts/main")
}

func (h *Handler) DeleteLead(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	leadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.notFound(c)
	}

	if err := h.repo.DeleteLead(req.LeadScope(), leadID); err != nil {
		if isNotFound(err) {
			return h.notFound(c)
		}
		slog.Error("Failed to delete lead", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to delete lead")
	}

	slog.Info("Lead deleted", "lead_id", leadID, "organisation_id", req.Organisation.ID)

	return c.Redirect("/leads", fiber.StatusSeeOther)
}

func (h *Handler) ShowAssignLead(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	leadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.notFound(c)
	}

	lead, err := h.repo.GetLead(req.LeadScope(), leadID)
	if err != nil {
		if isNotFound(err) {
			return h.notFound(c)
		}
		slog.Error("Failed to get lead", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to get lead")
	}

	// Agent choices are limited to the requester's own organisation.
	agents, err := h.repo.ListAgents(req.Organisation.ID)
	if err != nil {
		slog.Error("Failed to list agents", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load form")
	}

	return c.Render("leads/assign", fiber.Map{
		"Requester": req,
		"Lead":      lead,
		"Agents":    agents,
		"Form":      form.AssignAgent{},
		"Errors":    form.Errors{},
	}, "layouts/main")
}

// AssignLead sets a lead's agent. The target agent is resolved within
// the requester's organisation first, so a cross-organisation agent id
// fails as NotFound rather than leaking into another org's pipeline.
func (h *Handler) AssignLead(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	leadID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.notFound(c)
	}

	f := form.AssignAgent{AgentID: c.FormValue("agent_id")}
	if errs := h.forms.Check(f); errs != nil {
		return h.renderAssignForm(c, req, leadID, f, errs)
	}

	agentID, err := uuid.Parse(f.AgentID)
	if err != nil {
		return h.renderAssignForm(c, req, leadID, f, form.Errors{"agent_id": "Invalid selection"})
	}

	if _, err := h.repo.GetAgent(req.Organisation.ID, agentID); err != nil {
		if isNotFound(err) {
			return h.notFound(c)
		}
		slog.Error("Failed to get agent", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to assign lead")
	}

	if err := h.repo.AssignLead(req.Organisation.ID, leadID, agentID); err != nil {
		if isNotFound(err) {
			return h.notFound(c)
		}
		slog.Error("Failed to assign lead", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to assign lead")
	}

	slog.Info("Lead assigned", "lead_id", leadID, "agent_id", agentID)

	return c.Redirect("/leads", fiber.StatusSeeOther)
}

// leadForm binds and validates the lead form. A non-numeric age is a
// field error, not a request failure.
func (h *Handler) leadForm(c *fiber.Ctx) (form.Lead, form.Errors) {
	errs := form.Errors{}

	f := form.Lead{
		FirstName:   strings.TrimSpace(c.FormValue("first_name")),
		LastName:    strings.TrimSpace(c.FormValue("last_name")),
		Description: c.FormValue("description"),
		CategoryID:  c.FormValue("category_id"),
	}

	age, err := strconv.Atoi(strings.TrimSpace(c.FormValue("age")))
	if err != nil {
		errs["age"] = "Age must be a number"
	} else {
		f.Age = age
	}

	return f, errs.Merge(h.forms.Check(f))
}

// leadCategory resolves the optional category selection inside the
// requester's organisation.
func (h *Handler) leadCategory(req scope.Requester, f form.Lead, errs form.Errors) (*uuid.UUID, form.Errors) {
	if f.CategoryID == "" {
		return nil, errs
	}

	categoryID, err := uuid.Parse(f.CategoryID)
	if err != nil {
		errs["category_id"] = "Invalid selection"
		return nil, errs
	}

	if _, err := h.repo.GetCategory(req.Organisation.ID, categoryID); err != nil {
		if isNotFound(err) {
			errs["category_id"] = "Invalid selection"
			return nil, errs
		}
		slog.Error("Failed to get category", "error", err)
		errs["category_id"] = "Invalid selection"
		return nil, errs
	}

	return &categoryID, errs
}

func (h *Handler) renderLeadForm(c *fiber.Ctx, req scope.Requester, view string, f form.Lead, errs form.Errors, extra ...fiber.Map) error {
	categories, err := h.repo.ListCategories(req.Organisation.ID)
	if err != nil {
		slog.Error("Failed to list categories", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load form")
	}

	data := fiber.Map{
		"Requester":  req,
		"Form":       f,
		"Errors":     errs,
		"Categories": categories,
	}
	for _, m := range extra {
		for k, v := range m {
			data[k] = v
		}
	}

	return c.Status(fiber.StatusUnprocessableEntity).Render(view, data, "layouts/main")
}

func (h *Handler) renderAssignForm(c *fiber.Ctx, req scope.Requester, leadID uuid.UUID, f form.AssignAgent, errs form.Errors) error {
	lead, err := h.repo.GetLead(req.LeadScope(), leadID)
	if err != nil {
		if isNotFound(err) {
			return h.notFound(c)
		}
		slog.Error("Failed to get lead", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load form")
	}

	agents, err := h.repo.ListAgents(req.Organisation.ID)
	if err != nil {
		slog.Error("Failed to list agents", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load form")
	}

	return c.Status(fiber.StatusUnprocessableEntity).Render("leads/assign", fiber.Map{
		"Requester": req,
		"Lead":      lead,
		"Agents":    agents,
		"Form":      f,
		"Errors":    errs,
	}, "layouts/main")
}
