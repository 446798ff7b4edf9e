package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/taskflow/api/handler"
)

type Handlers struct {
	Auth      *apiHandler.AuthHandler
	Profile   *apiHandler.ProfileHandler
	Task      *apiHandler.TaskHandler
	Focus     *apiHandler.FocusHandler
	Dashboard *apiHandler.DashboardHandler
	Health    *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/api/v1/auth/register", handlers.Auth.Register)
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/logout", authMiddleware(handlers.Auth.Logout))
	r.POST("/api/v1/auth/refresh", authMiddleware(handlers.Auth.Refresh))
	r.GET("/api/v1/auth/session", authMiddleware(handlers.Auth.Session))

	// Protected routes
	r.GET("/api/v1/profile", authMiddleware(handlers.Profile.GetProfile))
	r.POST("/api/v1/profile/reset", authMiddleware(handlers.Profile.ResetProfile))
	r.GET("/api/v1/profile/awards", authMiddleware(handlers.Profile.Awards))

	r.GET("/api/v1/tasks", authMiddleware(handlers.Task.GetTasks))
	r.POST("/api/v1/tasks", authMiddleware(handlers.Task.CreateTask))
	r.PUT("/api/v1/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	r.DELETE("/api/v1/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))
	r.POST("/api/v1/tasks/{id}/toggle", authMiddleware(handlers.Task.ToggleTask))
	r.POST("/api/v1/tasks/{id}/focus", authMiddleware(handlers.Focus.Start))

	r.GET("/api/v1/focus", authMiddleware(handlers.Focus.Status))
	r.POST("/api/v1/focus/pause", authMiddleware(handlers.Focus.Pause))
	r.POST("/api/v1/focus/resume", authMiddleware(handlers.Focus.Resume))
	r.DELETE("/api/v1/focus", authMiddleware(handlers.Focus.Cancel))

	r.GET("/api/v1/dashboard", authMiddleware(handlers.Dashboard.Get))

	return r
}
