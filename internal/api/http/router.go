package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/monitor-report/internal/api/http/handlers"
	"github.com/spec-kit/monitor-report/internal/auth"
	"github.com/spec-kit/monitor-report/internal/observability"
	"github.com/spec-kit/monitor-report/internal/policy"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Reports        *handlers.ReportsHandler
	Comments       *handlers.CommentsHandler
	Masters        *handlers.MastersHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes. Route-level role gates mirror the capability
// table; services re-check them together with existence and ownership.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics.Handler())
	}

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/logout", cfg.AuthMiddleware.Optional, cfg.Auth.Logout)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)

	protected := api.Group("", cfg.AuthMiddleware.Handle)

	reports := protected.Group("/reports")
	reports.Get("", policy.Require(policy.ActionReportList), cfg.Reports.List)
	reports.Post("", policy.Require(policy.ActionReportCreate), cfg.Reports.Create)
	reports.Get("/:id", policy.Require(policy.ActionReportRead), cfg.Reports.Get)
	reports.Put("/:id", policy.Require(policy.ActionReportUpdate), cfg.Reports.Update)
	reports.Delete("/:id", policy.Require(policy.ActionReportDelete), cfg.Reports.Delete)
	reports.Post("/:id/comments", policy.Require(policy.ActionCommentCreate), cfg.Reports.CreateComment)

	comments := protected.Group("/comments")
	comments.Put("/:id", policy.Require(policy.ActionCommentUpdate), cfg.Comments.Update)
	comments.Delete("/:id", policy.Require(policy.ActionCommentDelete), cfg.Comments.Delete)

	masters := protected.Group("/masters")
	masters.Get("/servers", policy.Require(policy.ActionServerList), cfg.Masters.ListServers)

	manage := policy.Require(policy.ActionMasterManage)
	masters.Post("/servers", manage, cfg.Masters.CreateServer)
	masters.Put("/servers/:id", manage, cfg.Masters.UpdateServer)
	masters.Delete("/servers/:id", manage, cfg.Masters.DeleteServer)
	masters.Get("/users", manage, cfg.Masters.ListUsers)
	masters.Get("/users/:id", manage, cfg.Masters.GetUser)
	masters.Post("/users", manage, cfg.Masters.CreateUser)
	masters.Put("/users/:id", manage, cfg.Masters.UpdateUser)
	masters.Delete("/users/:id", manage, cfg.Masters.DeleteUser)
}
