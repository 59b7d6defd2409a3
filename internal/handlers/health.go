package handlers

import (
	"github.com/gofiber/fiber/v3"

	"medivault/internal/db"
)

// HealthHandler reports service liveness.
type HealthHandler struct {
	db *db.DB
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(database *db.DB) *HealthHandler {
	return &HealthHandler{db: database}
}

// Healthz checks database connectivity.
func (h *HealthHandler) Healthz(c fiber.Ctx) error {
	if err := h.db.Ping(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  "database unreachable",
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
