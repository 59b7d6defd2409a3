package handlers

import (
	"github.com/gofiber/fiber/v3"

	"medivault/internal/db"
	"medivault/internal/sharing"
)

// HomeHandler renders the signed-in landing page.
type HomeHandler struct {
	db  *db.DB
	svc *sharing.Service
}

// NewHomeHandler creates a new home handler.
func NewHomeHandler(database *db.DB, svc *sharing.Service) *HomeHandler {
	return &HomeHandler{db: database, svc: svc}
}

// Show renders a summary of the user's vault: how many reports they hold
// and which live shares are waiting in their inbox.
func (h *HomeHandler) Show(c fiber.Ctx) error {
	user := CurrentUser(c)

	reportCount, err := h.db.GetReportCount(c.Context(), user.ID)
	if err != nil {
		return err
	}

	received, err := h.svc.ListReceived(c.Context(), user.Email)
	if err != nil {
		return err
	}

	return c.Render("home", fiber.Map{
		"Title":         "Home",
		"User":          user,
		"ReportCount":   reportCount,
		"ReceivedCount": len(received),
	})
}
