package handler

import (
	"leadcrm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes wires the handler onto the app. authExtra is applied
// to the credential-accepting routes (rate limiting in production).
func (h *Handler) RegisterRoutes(app *fiber.App, authExtra ...fiber.Handler) {
	app.Get("/", h.ShowLandingPage)
	app.Get("/health", h.Health)

	withExtra := func(handler fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, authExtra...), handler)
	}

	app.Get("/signup", h.ShowSignUpPage)
	app.Post("/signup", withExtra(h.SignUp)...)
	app.Get("/login", h.ShowLoginPage)
	app.Post("/login", withExtra(h.Login)...)
	app.Post("/logout", h.Logout)

	authed := app.Group("", middleware.AuthenticatedSession(h.store))
	organisor := middleware.RequireOrganisor(h.repo)

	authed.Get("/dashboard", h.ShowDashboard)

	authed.Get("/account/delete", organisor, h.ShowDeleteAccount)
	authed.Post("/account/delete", organisor, h.DeleteAccount)

	authed.Get("/leads", h.ListLeads)
	authed.Get("/leads/new", organisor, h.ShowCreateLead)
	authed.Post("/leads/new", organisor, h.CreateLead)
	authed.Get("/leads/:id", h.ShowLead)
	authed.Get("/leads/:id/edit", organisor, h.ShowUpdateLead)
	authed.Post("/leads/:id/edit", organisor, h.UpdateLead)
	authed.Get("/leads/:id/delete", organisor, h.ShowDeleteLead)
	authed.Post("/leads/:id/delete", organisor, h.DeleteLead)
	authed.Get("/leads/:id/assign", organisor, h.ShowAssignLead)
	authed.Post("/leads/:id/assign", organisor, h.AssignLead)

	authed.Get("/categories", h.ListCategories)
	authed.Get("/categories/new", organisor, h.ShowCreateCategory)
	authed.Post("/categories/new", organisor, h.CreateCategory)
	authed.Get("/categories/:id", h.ShowCategory)
	authed.Get("/categories/:id/edit", organisor, h.ShowUpdateCategory)
	authed.Post("/categories/:id/edit", organisor, h.UpdateCategory)
	authed.Get("/categories/:id/delete", organisor, h.ShowDeleteCategory)
	authed.Post("/categories/:id/delete", organisor, h.DeleteCategory)

	agents := authed.Group("/agents", organisor)
	agents.Get("/", h.ListAgents)
	agents.Get("/new", h.ShowCreateAgent)
	agents.Post("/new", h.CreateAgent)
	agents.Get("/:id", h.ShowAgent)
	agents.Get("/:id/edit", h.ShowUpdateAgent)
	agents.Post("/:id/edit", h.UpdateAgent)
	agents.Get("/:id/delete", h.ShowDeleteAgent)
	agents.Post("/:id/delete", h.DeleteAgent)
}
