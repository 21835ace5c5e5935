package handler

import (
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler) {
	auth := app.Group("/api/auth")
	auth.Post("/signup", h.Signup)
	auth.Post("/login", h.Login)
	auth.Post("/forgot-password", h.ForgotPassword)
	auth.Post("/reset-password", h.ResetPassword)
	auth.Get("/public-key", h.PublicKey)
	auth.Get("/status", h.AuthOptional, h.Status)
	auth.Get("/me", h.Auth, h.Me)
	auth.Post("/logout", h.Auth, h.Logout)

	// Admin-only endpoints
	admin := app.Group("/api/admin", h.AdminAuth)
	admin.Get("/users", h.GetAllUsers)
	admin.Patch("/users/:id/role", h.UpdateUserRole)
	admin.Patch("/users/:id/status", h.UpdateUserStatus)
}
