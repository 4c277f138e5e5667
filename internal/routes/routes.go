package routes

import (
	"time"

	"github.com/breakingmathclub/backend/internal/config"
	"github.com/breakingmathclub/backend/internal/handlers"
	"github.com/breakingmathclub/backend/internal/middleware"
	"github.com/breakingmathclub/backend/internal/models"
	"github.com/breakingmathclub/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	Health       *handlers.HealthHandler
	Event        *handlers.EventHandler
	Announcement *handlers.AnnouncementHandler
	Stats        *handlers.StatsHandler
	Role         *handlers.RoleHandler
	Contact      *handlers.ContactHandler
	Proxy        *handlers.ProxyHandler
	Sync         *handlers.SyncHandler
}

func Setup(app *fiber.App, cfg *config.Config, roleService *services.RoleService, h Handlers) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)

	// Public marketing-page reads; these degrade to empty payloads on
	// storage errors rather than surfacing a 5xx.
	api.Get("/events", h.Event.List)
	api.Get("/announcements", h.Announcement.List)
	api.Get("/stats", h.Stats.Get)

	api.Post("/contact", h.Contact.Submit)

	// Role check is public by design: it takes the token in the body
	// and resolves to no privileges on any failure.
	api.Post("/roles/check", h.Role.Check)

	// Generic forwarder to the legacy upstream store.
	api.Post("/proxy", h.Proxy.Forward)

	// Auth — stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/refresh", h.Auth.Refresh)

	api.Post("/auth/logout", middleware.JWTProtected(cfg), h.Auth.Logout)

	// Admin mutations: JWT first, then the authoritative role gate.
	jwtGuard := middleware.JWTProtected(cfg)
	adminOnly := middleware.RoleRequired(roleService, models.RoleAdmin)
	overseerOnly := middleware.RoleRequired(roleService, models.RoleOverseer)
	dashboard := middleware.RoleRequired(roleService, models.RoleAdmin, models.RoleOverseer)

	api.Post("/events", jwtGuard, adminOnly, h.Event.Create)
	api.Put("/events/:id", jwtGuard, adminOnly, h.Event.Update)
	api.Delete("/events/:id", jwtGuard, adminOnly, h.Event.Delete)

	api.Post("/announcements", jwtGuard, adminOnly, h.Announcement.Create)
	api.Delete("/announcements/:id", jwtGuard, adminOnly, h.Announcement.Delete)

	admin := api.Group("/admin", jwtGuard)
	admin.Get("/users", dashboard, h.Role.Directory)
	admin.Get("/messages", dashboard, h.Contact.ListMessages)
	admin.Put("/stats", adminOnly, h.Stats.Save)
	admin.Post("/sync", adminOnly, h.Sync.Sync)
	admin.Post("/roles", overseerOnly, h.Role.Grant)
	admin.Delete("/roles", overseerOnly, h.Role.Revoke)
}
