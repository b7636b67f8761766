package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/user-service/internal/api/http/handlers"
	"github.com/spec-kit/user-service/internal/auth"
	"github.com/spec-kit/user-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Auth            *handlers.AuthHandler
	Users           *handlers.UsersHandler
	Webhooks        *handlers.WebhooksHandler
	AuthMiddleware  *auth.AuthMiddleware
	Metrics         fiber.Handler
	WebhookSecret   string
	SignatureHeader string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	authenticate := cfg.AuthMiddleware.Handle

	app.Post("/register", cfg.Auth.Register)
	app.Post("/login", cfg.Auth.Login)
	app.Post("/logout", authenticate, cfg.Auth.Logout)
	app.Get("/me", authenticate, cfg.Auth.Me)

	app.Get("/checkEmail/:email", cfg.Users.CheckEmail)
	app.Get("/users", authenticate, cfg.Users.List)
	// Registered before /users/:id so "me" is never taken as an id.
	app.Delete("/users/me", authenticate, cfg.Users.DeleteSelf)
	app.Put("/users/:id", authenticate, auth.IsSelfOrRoles(), cfg.Users.UpdateSelf)

	admin := app.Group("/admin", authenticate, auth.AllowRoles(domain.RoleAdmin))
	admin.Put("/users/:id", cfg.Users.AdminUpdate)
	admin.Delete("/users/:id", cfg.Users.AdminDelete)

	app.Post("/webhooks/:provider", handlers.VerifySignature(cfg.WebhookSecret, cfg.SignatureHeader), cfg.Webhooks.Receive)
}
