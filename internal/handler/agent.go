package handler

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"leadcrm/internal/form"
	"leadcrm/internal/model"
	"leadcrm/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) ListAgents(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	agents, err := h.repo.ListAgents(req.Organisation.ID)
	if err != nil {
		slog.Error("Failed to list agents", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to list agents")
	}

	return c.Render("agents/index", fiber.Map{"Requester": req, "Agents": agents}, "layouts/main")
}

func (h *Handler) ShowAgent(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	agentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.notFound(c)
	}

	agent, err := h.repo.GetAgent(req.Organisation.ID, agentID)
	if err != nil {
		if isNotFound(err) {
			return h.notFound(c)
		}
		slog.Error("Failed to get agent", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to get agent")
	}

	return c.Render("agents/show", fiber.Map{"Requester": req, "Agent": agent}, "layouts/main")
}

func (h *Handler) ShowCreateAgent(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	return c.Render("agents/new", fiber.Map{
		"Requester": req,
		"Form":      form.Agent{},
		"Errors":    form.Errors{},
	}, "layouts/main")
}

// CreateAgent provisions an agent account inside the requester's
// organisation: a user with a random temporary password plus the agent
// row, written in one transaction. The invite email is best effort.
func (h *Handler) CreateAgent(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	f := form.Agent{
		Email:     strings.TrimSpace(strings.ToLower(c.FormValue("email"))),
		FirstName: strings.TrimSpace(c.FormValue("first_name")),
		LastName:  strings.TrimSpace(c.FormValue("last_name")),
	}
	if errs := h.forms.Check(f); errs != nil {
		return c.Status(fiber.StatusUnprocessableEntity).Render("agents/new", fiber.Map{
			"Requester": req,
			"Form":      f,
			"Errors":    errs,
		}, "layouts/main")
	}

	tempPassword, err := randomPassword(12)
	if err != nil {
		slog.Error("Failed to generate password", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to create agent")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("Failed to hash password", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to create agent")
	}

	user := model.User{
		ID:           uuid.New(),
		Email:        f.Email,
		FirstName:    f.FirstName,
		LastName:     f.LastName,
		PasswordHash: string(passwordHash),
		Role:         model.RoleAgent,
		CreatedAt:    time.Now(),
	}
	agent := model.Agent{
		ID:             uuid.New(),
		UserID:         user.ID,
		OrganisationID: req.Organisation.ID,
		CreatedAt:      user.CreatedAt,
		User:           user,
	}

	if err := h.repo.CreateAgentAccount(user, agent); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			errs := form.Errors{"email": "An account with this email already exists"}
			return c.Status(fiber.StatusUnprocessableEntity).Render("agents/new", fiber.Map{
				"Requester": req,
				"Form":      f,
				"Errors":    errs,
			}, "layouts/main")
		}
		slog.Error("Failed to create agent account", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to create agent")
	}

	slog.Info("Agent created", "agent_id", agent.ID, "organisation_id", agent.OrganisationID)

	orgName := req.Organisation.Name
	go func() {
		if err := h.notifier.AgentInvited(agent, orgName, tempPassword); err != nil {
			slog.Error("Failed to send agent invite", "agent_id", agent.ID, "error", err)
		}
	}()

	return c.Redirect("/agents", fiber.StatusSeeOther)
}

func (h *Handler) ShowUpdateAgent(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	agentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.notFound(c)
	}

	agent, err := h.repo.GetAgent(req.Organisation.ID, agentID)
	if err != nil {
		if isNotFound(err) {
			return h.notFound(c)
		}
		slog.Error("Failed to get agent", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to get agent")
	}

	f := form.Agent{
		Email:     agent.User.Email,
		FirstName: agent.User.FirstName,
		LastName:  agent.User.LastName,
	}

	return c.Render("agents/edit", fiber.Map{
		"Requester": req,
		"Agent":     agent,
		"Form":      f,
		"Errors":    form.Errors{},
	}, "layouts/main")
}

func (h *Handler) UpdateAgent(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	agentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.notFound(c)
	}

	agent, err := h.repo.GetAgent(req.Organisation.ID, agentID)
	if err != nil {
		if isNotFound(err) {
			return h.notFound(c)
		}
		slog.Error("Failed to get agent", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to get agent")
	}

	f := form.Agent{
		Email:     strings.TrimSpace(strings.ToLower(c.FormValue("email"))),
		FirstName: strings.TrimSpace(c.FormValue("first_name")),
		LastName:  strings.TrimSpace(c.FormValue("last_name")),
	}
	if errs := h.forms.Check(f); errs != nil {
		return c.Status(fiber.StatusUnprocessableEntity).Render("agents/edit", fiber.Map{
			"Requester": req,
			"Agent":     agent,
			"Form":      f,
			"Errors":    errs,
		}, "layouts/main")
	}

	agent.User.Email = f.Email
	agent.User.FirstName = f.FirstName
	agent.User.LastName = f.LastName

	if err := h.repo.UpdateAgent(req.Organisation.ID, agent); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			errs := form.Errors{"email": "An account with this email already exists"}
			return c.Status(fiber.StatusUnprocessableEntity).Render("agents/edit", fiber.Map{
				"Requester": req,
				"Agent":     agent,
				"Form":      f,
				"Errors":    errs,
			}, "layouts/main")
		}
		if isNotFound(err) {
			return h.notFound(c)
		}
		slog.Error("Failed to update agent", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to update agent")
	}

	return c.Redirect("/agents", fiber.StatusSeeOther)
}

func (h *Handler) ShowDeleteAgent(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	agentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.notFound(c)
	}

	agent, err := h.repo.GetAgent(req.Organisation.ID, agentID)
	if err != nil {
		if isNotFound(err) {
			return h.notFound(c)
		}
		slog.Error("Failed to get agent", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to get agent")
	}

	return c.Render("agents/delete", fiber.Map{"Requester": req, "Agent": agent}, "layouts/main")
}

// DeleteAgent removes the agent account. Leads assigned to the agent
// stay with the organisation as unassigned.
func (h *Handler) DeleteAgent(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	agentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.notFound(c)
	}

	if err := h.repo.DeleteAgent(req.Organisation.ID, agentID); err != nil {
		if isNotFound(err) {
			return h.notFound(c)
		}
		slog.Error("Failed to delete agent", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to delete agent")
	}

	slog.Info("Agent deleted", "agent_id", agentID, "organisation_id", req.Organisation.ID)

	return c.Redirect("/agents", fiber.StatusSeeOther)
}

const passwordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomPassword(length int) (string, error) {
	password := make([]byte, length)
	for i := range password {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(passwordCharset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random password: %w", err)
		}
		password[i] = passwordCharset[n.Int64()]
	}
	return string(password), nil
}
