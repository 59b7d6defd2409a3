package api

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"medivault/internal/uploads"
)

// UploadHandler hands out signed upload parameters.
type UploadHandler struct {
	signer *uploads.Signer
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(signer *uploads.Signer) *UploadHandler {
	return &UploadHandler{signer: signer}
}

// Sign returns signed parameters for a direct browser upload.
func (h *UploadHandler) Sign(c fiber.Ctx) error {
	if !h.signer.Enabled() {
		return jsonError(c, fiber.StatusServiceUnavailable, "uploads are not configured")
	}
	return jsonSuccess(c, h.signer.Sign(time.Now()))
}
