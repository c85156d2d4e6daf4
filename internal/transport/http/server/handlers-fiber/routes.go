package handlers_fiber

import (
	"github.com/gofiber/fiber/v2"

	"taskhub/internal/transport/http/middleware"
)

// Register mounts the API routes. authn guards everything except the
// /auth endpoints; /admin additionally requires the ADMIN role.
func Register(app *fiber.App, h *Handler, authn fiber.Handler) {
	app.Post("/auth/register", h.Register)
	app.Post("/auth/login", h.Login)
	app.Post("/auth/refresh", h.Refresh)
	app.Post("/auth/logout", h.Logout)

	app.Get("/me", authn, h.Me)

	users := app.Group("/users", authn)
	users.Get("/:id", h.GetUser)
	users.Patch("/:id", h.UpdateUser)

	tasks := app.Group("/tasks", authn)
	tasks.Post("/", h.CreateTask)
	tasks.Get("/", h.ListTasks)
	tasks.Get("/:id", h.GetTask)
	tasks.Patch("/:id", h.UpdateTask)
	tasks.Post("/:id/complete", h.CompleteTask)
	tasks.Delete("/:id", h.DeleteTask)

	exports := app.Group("/exports", authn)
	exports.Post("/", h.CreateExport)
	exports.Get("/", h.ListExports)
	exports.Get("/:id", h.GetExport)
	exports.Post("/:id/retry", h.RetryExport)

	app.Get("/stats/users/:id", authn, h.UserStats)

	admin := app.Group("/admin", authn, middleware.RequireAdmin())
	admin.Get("/users", h.ListUsers)
	admin.Put("/users/:id/active", h.SetUserActive)
	admin.Get("/stats", h.Stats)
}
