package handler

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"leadcrm/internal/form"
	"leadcrm/internal/model"
	"leadcrm/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) ShowLandingPage(c *fiber.Ctx) error {
	return c.Render("landing", fiber.Map{}, "layouts/main")
}

func (h *Handler) ShowSignUpPage(c *fiber.Ctx) error {
	return c.Render("auth/signup", fiber.Map{"Form": form.SignUp{}, "Errors": form.Errors{}}, "layouts/main")
}

// SignUp creates an organisor account. The user and its organisation
// are written in a single transaction so the "exactly one organisation
// per organisor" invariant holds from the moment the account exists.
func (h *Handler) SignUp(c *fiber.Ctx) error {
	f := form.SignUp{
		Email:           strings.TrimSpace(strings.ToLower(c.FormValue("email"))),
		FirstName:       strings.TrimSpace(c.FormValue("first_name")),
		LastName:        strings.TrimSpace(c.FormValue("last_name")),
		Organisation:    strings.TrimSpace(c.FormValue("organisation")),
		Password:        c.FormValue("password"),
		ConfirmPassword: c.FormValue("confirm_password"),
	}

	if errs := h.forms.Check(f); errs != nil {
		return c.Status(fiber.StatusUnprocessableEntity).Render("auth/signup", fiber.Map{"Form": f, "Errors": errs}, "layouts/main")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(f.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("Failed to hash password", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to process password")
	}

	user := model.User{
		ID:           uuid.New(),
		Email:        f.Email,
		FirstName:    f.FirstName,
		LastName:     f.LastName,
		PasswordHash: string(passwordHash),
		Role:         model.RoleOrganisor,
		CreatedAt:    time.Now(),
	}
	org := model.Organisation{
		ID:        uuid.New(),
		UserID:    user.ID,
		Name:      f.Organisation,
		CreatedAt: user.CreatedAt,
	}

	if err := h.repo.CreateOrganisorAccount(user, org); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			errs := form.Errors{"email": "An account with this email already exists"}
			return c.Status(fiber.StatusUnprocessableEntity).Render("auth/signup", fiber.Map{"Form": f, "Errors": errs}, "layouts/main")
		}
		slog.Error("Failed to create organisor account", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to create account")
	}

	slog.Info("Organisor signed up", "email", user.Email, "organisation", org.Name, "ip", c.IP())

	return c.Redirect("/login", fiber.StatusSeeOther)
}

func (h *Handler) ShowLoginPage(c *fiber.Ctx) error {
	return c.Render("auth/login", fiber.Map{"Form": form.Login{}, "Errors": form.Errors{}}, "layouts/main")
}

func (h *Handler) Login(c *fiber.Ctx) error {
	f := form.Login{
		Email:    strings.TrimSpace(strings.ToLower(c.FormValue("email"))),
		Password: c.FormValue("password"),
	}

	if errs := h.forms.Check(f); errs != nil {
		return c.Status(fiber.StatusUnprocessableEntity).Render("auth/login", fiber.Map{"Form": f, "Errors": errs}, "layouts/main")
	}

	// One generic message for a missing account and a wrong password,
	// to avoid email enumeration.
	invalid := func() error {
		errs := form.Errors{"email": "Invalid email or password"}
		return c.Status(fiber.StatusUnauthorized).Render("auth/login", fiber.Map{"Form": f, "Errors": errs}, "layouts/main")
	}

	user, err := h.repo.GetUserByEmail(f.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return invalid()
		}
		slog.Error("Failed to get user by email", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(f.Password)); err != nil {
		return invalid()
	}

	sess, err := h.store.Get(c)
	if err != nil {
		slog.Error("Failed to get session", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to create session")
	}
	sess.Set("user_id", user.ID.String())
	if err := sess.Save(); err != nil {
		slog.Error("Failed to save session", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to save session")
	}

	slog.Info("User logged in", "email", user.Email, "user_id", user.ID, "ip", c.IP())

	return c.Redirect("/leads", fiber.StatusSeeOther)
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	sess, err := h.store.Get(c)
	if err != nil {
		slog.Error("Failed to get session", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to get session")
	}

	userID := sess.Get("user_id")

	sess.Delete("user_id")
	if err := sess.Save(); err != nil {
		slog.Error("Failed to save session", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to save session")
	}

	if userID != nil {
		slog.Info("User logged out", "user_id", userID, "ip", c.IP())
	}

	return c.Redirect("/login", fiber.StatusSeeOther)
}
