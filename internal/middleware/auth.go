package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/session"

	"medivault/internal/db"
)

// AuthMiddleware handles user authentication via sessions.
type AuthMiddleware struct {
	db *db.DB
}

// NewAuthMiddleware creates a new auth middleware instance.
func NewAuthMiddleware(database *db.DB) *AuthMiddleware {
	return &AuthMiddleware{db: database}
}

// RequireAuth ensures the user is authenticated. Browser routes redirect
// to /login; API routes get a 401 JSON response.
func (m *AuthMiddleware) RequireAuth(c fiber.Ctx) error {
	user, ok := m.currentUser(c)
	if !ok {
		if strings.HasPrefix(c.Path(), "/api/") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status": "error",
				"error":  "authentication required",
			})
		}
		return c.Redirect().To("/login")
	}

	c.Locals("user", user)
	return c.Next()
}

// OptionalAuth loads the user if authenticated, but doesn't require
// authentication. Used by the share redemption routes, which must work
// for anonymous holders of unrestricted links.
func (m *AuthMiddleware) OptionalAuth(c fiber.Ctx) error {
	if user, ok := m.currentUser(c); ok {
		c.Locals("user", user)
	}
	return c.Next()
}

func (m *AuthMiddleware) currentUser(c fiber.Ctx) (any, bool) {
	sess := session.FromContext(c)
	if sess == nil {
		return nil, false
	}

	userSub := sess.Get("user_sub")
	if userSub == nil {
		return nil, false
	}

	sub, ok := userSub.(string)
	if !ok {
		return nil, false
	}

	user, err := m.db.GetUserBySub(c.Context(), sub)
	if err != nil {
		sess.Destroy()
		return nil, false
	}

	return user, true
}
