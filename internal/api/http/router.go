package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/serviceflow/helpdesk-service/internal/api/http/handlers"
	"github.com/serviceflow/helpdesk-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Comments       *handlers.CommentsHandler
	Worklogs       *handlers.WorklogsHandler
	Users          *handlers.UsersHandler
	Companies      *handlers.CompaniesHandler
	Stats          *handlers.StatsHandler
	System         *handlers.SystemHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1")

	api.Post("/auth/login", cfg.Auth.Login)

	protected := api.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/auth/me", cfg.Auth.Me)

	protected.Post("/tickets", cfg.Tickets.Create)
	protected.Get("/tickets", cfg.Tickets.List)
	protected.Get("/tickets/:id", cfg.Tickets.Get)
	protected.Patch("/tickets/:id", cfg.Tickets.Patch)
	protected.Post("/tickets/:id/resolve", cfg.Tickets.Resolve)
	protected.Delete("/tickets/:id", cfg.Tickets.Delete)

	protected.Post("/tickets/:id/comments", cfg.Comments.Create)
	protected.Get("/tickets/:id/comments", cfg.Comments.List)
	protected.Post("/tickets/:id/attachments", cfg.Comments.Upload)
	protected.Get("/tickets/:id/attachments", cfg.Comments.ListAttachments)

	protected.Post("/tickets/:id/worklogs/start", cfg.Worklogs.Start)
	protected.Post("/tickets/:id/worklogs/stop", cfg.Worklogs.Stop)
	protected.Get("/tickets/:id/worklogs", cfg.Worklogs.List)

	protected.Post("/users", cfg.Users.Create)
	protected.Get("/users", cfg.Users.List)
	protected.Patch("/users/:id", cfg.Users.Update)
	protected.Delete("/users/:id", cfg.Users.Delete)

	protected.Get("/companies", cfg.Companies.List)
	protected.Post("/companies", cfg.Companies.Create)
	protected.Patch("/companies/:id", cfg.Companies.Update)
	protected.Delete("/companies/:id", cfg.Companies.Delete)

	protected.Get("/dashboard/overview", cfg.Stats.Overview)
	protected.Get("/stats/tickets", auth.RequireStaff(), cfg.Stats.TicketStats)

	protected.Get("/system/email-config", cfg.System.GetEmailConfig)
	protected.Put("/system/email-config", cfg.System.UpdateEmailConfig)
	protected.Post("/system/email/test", cfg.System.SendTestEmail)
}
