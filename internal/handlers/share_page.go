package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"

	"medivault/internal/config"
	"medivault/internal/sharing"
)

// SharePageHandler renders the public share redemption page.
type SharePageHandler struct {
	svc *sharing.Service
	cfg *config.Config
}

// NewSharePageHandler creates a new share page handler.
func NewSharePageHandler(svc *sharing.Service, cfg *config.Config) *SharePageHandler {
	return &SharePageHandler{svc: svc, cfg: cfg}
}

// Show validates the token from the link and renders the shared reports.
// Each terminal state gets its own rendering: a sign-in prompt for
// unauthenticated recipients and distinct messages for invalid, expired,
// revoked, and wrong-recipient links. Transient storage failures surface
// as a 500, never as one of the terminal states.
func (h *SharePageHandler) Show(c fiber.Ctx) error {
	token := c.Params("token")

	requesterEmail := ""
	if user := CurrentUser(c); user != nil {
		requesterEmail = user.Email
	}

	details, err := h.svc.Validate(c.Context(), token, requesterEmail)
	if err == nil {
		return c.Render("share", fiber.Map{
			"Title":     "Shared Reports",
			"Owner":     details.Owner,
			"Reports":   details.Reports,
			"ExpiresAt": details.ExpiresAt,
		})
	}

	if errors.Is(err, sharing.ErrAuthRequired) {
		return c.Render("login", fiber.Map{
			"Title":   "Sign in required",
			"Message": "This share link requires authentication. Please sign in with the authorized email.",
			"Next":    fmt.Sprintf("/share/%s", token),
		})
	}

	if sharing.IsDenial(err) {
		status := fiber.StatusNotFound
		if errors.Is(err, sharing.ErrNotRecipient) {
			status = fiber.StatusForbidden
		} else if errors.Is(err, sharing.ErrExpired) || errors.Is(err, sharing.ErrRevoked) {
			status = fiber.StatusGone
		}
		return c.Status(status).Render("error", fiber.Map{
			"Title":   "Share link unavailable",
			"Message": err.Error(),
		})
	}

	return err
}
