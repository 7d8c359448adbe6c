// Package router wires the HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/prms-app/prms-server/internal/config"
	"github.com/prms-app/prms-server/internal/handler"
	"github.com/prms-app/prms-server/internal/middleware"
	"github.com/prms-app/prms-server/internal/model"
)

// Handlers bundles everything RegisterRoutes needs.
type Handlers struct {
	Auth     *handler.AuthHandler
	Projects *handler.ProjectHandler
	Sprints  *handler.SprintHandler
	Tasks    *handler.TaskHandler
}

// RegisterRoutes mounts the public auth routes, the protected /v1 API and
// the health endpoint. The auth group carries the Redis token bucket; GET
// list routes under /v1 carry the short-lived response cache.
func RegisterRoutes(e *echo.Echo, cfg config.Config, rdb *redis.Client, h Handlers) {
	e.GET("/healthz", handler.Health)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)

	auth := e.Group("/v1/auth", limiter)
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)
	auth.POST("/forgot-password", h.Auth.ForgotPassword)
	auth.POST("/reset-password", h.Auth.ResetPassword)

	anyRole := middleware.RequireRole(
		model.RoleDeveloper.String(),
		model.RoleDesigner.String(),
		model.RoleUser.String(),
		model.RoleAdmin.String(),
	)
	api := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret), anyRole)

	api.GET("/auth/me", h.Auth.Me)

	api.POST("/projects", h.Projects.Create)
	api.GET("/projects", h.Projects.List, cache)
	api.GET("/projects/:id", h.Projects.Get, cache)
	api.PUT("/projects/:id", h.Projects.Update)
	api.DELETE("/projects/:id", h.Projects.Delete)

	api.POST("/sprints", h.Sprints.Create)
	api.GET("/sprints", h.Sprints.List, cache)
	api.GET("/sprints/:id", h.Sprints.Get, cache)
	api.PUT("/sprints/:id", h.Sprints.Update)
	api.DELETE("/sprints/:id", h.Sprints.Delete)

	api.POST("/tasks", h.Tasks.Create)
	api.GET("/tasks", h.Tasks.List, cache)
	api.GET("/tasks/user/:id", h.Tasks.ListByUser)
	api.GET("/tasks/:id", h.Tasks.Get)
	api.PUT("/tasks/:id", h.Tasks.Update)
	api.DELETE("/tasks/:id", h.Tasks.Delete)
	api.POST("/tasks/:id/assign", h.Tasks.Assign)

	api.GET("/users/:id/tasks", h.Tasks.ListByUser)
}
