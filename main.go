package main

import (
	"log"
	"time"

	"leadcrm/internal/config"
	"leadcrm/internal/database"
	"leadcrm/internal/email"
	"leadcrm/internal/form"
	"leadcrm/internal/handler"
	"leadcrm/internal/middleware"
	"leadcrm/internal/repository"
	"leadcrm/internal/scope"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/gofiber/storage/postgres/v3"
	"github.com/gofiber/template/html/v2"
)

func main() {
	cfg := config.NewConfig()

	// Connect to the database
	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Initialize repository and run migrations
	repo := repository.NewDatabaseRepository(db)
	if err := repo.Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Session store backed by the same Postgres instance
	sessionStorage := postgres.New(postgres.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Name,
		Username: cfg.Database.User,
		Password: cfg.Database.Password,
		Table:    "sessions",
		Reset:    false,
	})

	store := session.New(session.Config{
		Storage:        sessionStorage,
		KeyLookup:      "cookie:" + cfg.Session.CookieName,
		CookiePath:     "/",
		CookieSecure:   cfg.Server.Environment == "production",
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		Expiration:     cfg.Session.Expiration,
	})

	notifier := email.NewClient(cfg.Email)
	scopes := scope.NewResolver(repo)
	forms := form.New()

	h := handler.NewHandler(store, repo, scopes, forms, notifier)

	engine := html.New("./views", ".html")

	app := fiber.New(fiber.Config{
		Views:             engine,
		PassLocalsToViews: true,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	})

	app.Use(middleware.Logger())

	// CSRF protection; the token reaches the templates through
	// PassLocalsToViews.
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf_token",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.Server.Environment == "production",
		Expiration:     1 * time.Hour,
		KeyGenerator:   utils.UUIDv4,
		ContextKey:     "csrf_token",
	}))

	// Rate limiting for credential routes
	authLimiter := limiter.New(limiter.Config{
		Max:        5,
		Expiration: 15 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).SendString("Too many attempts. Please try again later.")
		},
	})

	h.RegisterRoutes(app, authLimiter)

	log.Printf("Starting server on %s:%s", cfg.Server.Host, cfg.Server.Port)
	log.Panic(app.Listen(cfg.Server.Host + ":" + cfg.Server.Port))
}
