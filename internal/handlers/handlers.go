package handlers

import (
	"github.com/gofiber/fiber/v3"

	"medivault/internal/models"
)

// CurrentUser returns the authenticated user loaded by the auth
// middleware, or nil for anonymous requests.
func CurrentUser(c fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}
