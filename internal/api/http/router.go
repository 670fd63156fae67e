package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/beckershow/colaborador-portal/internal/api/http/handlers"
	"github.com/beckershow/colaborador-portal/internal/auth"
	"github.com/beckershow/colaborador-portal/internal/domain"
	"github.com/beckershow/colaborador-portal/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Settings       *handlers.SettingsHandler
	Feedback       *handlers.FeedbackHandler
	AuthMiddleware *auth.AuthMiddleware
	// Metrics is optional; /metrics is only exposed when set.
	Metrics *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, auth.RequireAnyRole(), cfg.Auth.ChangePassword)

	superAdmin := auth.RequireRole(domain.RoleSuperAdmin)
	managers := auth.RequireRole(domain.RoleGestor, domain.RoleSuperAdmin)

	fb := app.Group("/feedback", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	fb.Get("/settings", superAdmin, cfg.Settings.GetGlobal)
	fb.Put("/settings", superAdmin, cfg.Settings.SaveGlobal)
	fb.Get("/gestor-config", managers, cfg.Settings.GetTeam)
	fb.Put("/gestor-config", managers, cfg.Settings.SaveTeam)
	fb.Get("/config", managers, cfg.Settings.GetForRole)
	fb.Get("/team-limits", managers, cfg.Settings.ListTeamLimits)
	fb.Post("/team-limits/:userId", managers, cfg.Settings.SetUserLimits)
	fb.Delete("/team-limits/:userId", managers, cfg.Settings.RemoveUserLimits)

	fb.Get("/pending", managers, cfg.Feedback.Pending)
	fb.Get("/sent", cfg.Feedback.Sent)
	fb.Get("/received", cfg.Feedback.Received)
	fb.Get("/limits", cfg.Feedback.Limits)
	fb.Post("/", cfg.Feedback.Send)
	fb.Put("/:id", cfg.Feedback.Edit)
	fb.Delete("/:id", cfg.Feedback.Delete)
	fb.Post("/:id/approve", managers, cfg.Feedback.Approve)
	fb.Post("/:id/reject", managers, cfg.Feedback.Reject)
}
