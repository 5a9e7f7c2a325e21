package handler

import (
	"log/slog"
	"strings"
	"time"

	"leadcrm/internal/form"
	"leadcrm/internal/model"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ListCategories shows the organisation's pipeline catalog. Agents see
// the same catalog as their organisor even though their lead view is
// restricted.
func (h *Handler) ListCategories(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	categories, err := h.repo.ListCategories(req.CategoryScope().OrganisationID)
	if err != nil {
		slog.Error("Failed to list categories", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to list categories")
	}

	return c.Render("categories/index", fiber.Map{"Requester": req, "Categories": categories}, "layouts/main")
}

// ShowCategory shows a category together with the leads in it, the
// latter narrowed to the requester's lead scope.
func (h *Handler) ShowCategory(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	categoryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.notFound(c)
	}

	category, err := h.repo.GetCategory(req.CategoryScope().OrganisationID, categoryID)
	if err != nil {
		if isNotFound(err) {
			return h.notFound(c)
		}
		slog.Error("Failed to get category", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to get category")
	}

	leads, err := h.repo.ListLeadsByCategory(req.LeadScope(), category.ID)
	if err != nil {
		slog.Error("Failed to list leads by category", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to get category")
	}

	return c.Render("categories/show", fiber.Map{
		"Requester": req,
		"Category":  category,
		"Leads":     leads,
	}, "layouts/main")
}

func (h *Handler) ShowCreateCategory(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	return c.Render("categories/new", fiber.Map{
		"Requester": req,
		"Form":      form.Category{},
		"Errors":    form.Errors{},
	}, "layouts/main")
}

func (h *Handler) CreateCategory(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	f := form.Category{Name: strings.TrimSpace(c.FormValue("name"))}
	if errs := h.forms.Check(f); errs != nil {
		return c.Status(fiber.StatusUnprocessableEntity).Render("categories/new", fiber.Map{
			"Requester": req,
			"Form":      f,
			"Errors":    errs,
		}, "layouts/main")
	}

	category := model.Category{
		ID:             uuid.New(),
		OrganisationID: req.Organisation.ID,
		Name:           f.Name,
		CreatedAt:      time.Now(),
	}

	if err := h.repo.CreateCategory(category); err != nil {
		slog.Error("Failed to create category", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to create category")
	}

	slog.Info("Category created", "category_id", category.ID, "organisation_id", category.OrganisationID)

	return c.Redirect("/categories", fiber.StatusSeeOther)
}

func (h *Handler) ShowUpdateCategory(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	categoryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.notFound(c)
	}

	category, err := h.repo.GetCategory(req.Organisation.ID, categoryID)
	if err != nil {
		if isNotFound(err) {
			return h.notFound(c)
		}
		slog.Error("Failed to get category", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to get category")
	}

	return c.Render("categories/edit", fiber.Map{
		"Requester": req,
		"Category":  category,
		"Form":      form.Category{Name: category.Name},
		"Errors":    form.Errors{},
	}, "layouts/main")
}

func (h *Handler) UpdateCategory(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	categoryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.notFound(c)
	}

	category, err := h.repo.GetCategory(req.Organisation.ID, categoryID)
	if err != nil {
		if isNotFound(err) {
			return h.notFound(c)
		}
		slog.Error("Failed to get category", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to get category")
	}

	f := form.Category{Name: strings.TrimSpace(c.FormValue("name"))}
	if errs := h.forms.Check(f); errs != nil {
		return c.Status(fiber.StatusUnprocessableEntity).Render("categories/edit", fiber.Map{
			"Requester": req,
			"Category":  category,
			"Form":      f,
			"Errors":    errs,
		}, "layouts/main")
	}

	category.Name = f.Name
	if err := h.repo.UpdateCategory(req.Organisation.ID, category); err != nil {
		if isNotFound(err) {
			return h.notFound(c)
		}
		slog.Error("Failed to update category", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to update category")
	}

	return c.Redirect("/categories", fiber.StatusSeeOther)
}

func (h *Handler) ShowDeleteCategory(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	categoryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.notFound(c)
	}

	category, err := h.repo.GetCategory(req.Organisation.ID, categoryID)
	if err != nil {
		if isNotFound(err) {
			return h.notFound(c)
		}
		slog.Error("Failed to get category", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to get category")
	}

	return c.Render("categories/delete", fiber.Map{"Requester": req, "Category": category}, "layouts/main")
}

// DeleteCategory removes the category; leads referencing it fall back
// to uncategorized via ON DELETE SET NULL.
func (h *Handler) DeleteCategory(c *fiber.Ctx) error {
	req, err := h.requester(c)
	if err != nil {
		slog.Error("Failed to resolve requester", "error", err)
		return c.Redirect("/login", fiber.StatusFound)
	}

	categoryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return h.notFound(c)
	}

	if err := h.repo.DeleteCategory(req.Organisation.ID, categoryID); err != nil {
		if isNotFound(err) {
			return h.notFound(c)
		}
		slog.Error("Failed to delete category", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to delete category")
	}

	slog.Info("Category deleted", "category_id", categoryID, "organisation_id", req.Organisation.ID)

	return c.Redirect("/categories", fiber.StatusSeeOther)
}
