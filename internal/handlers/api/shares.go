package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"medivault/internal/cache"
	"medivault/internal/email"
	"medivault/internal/models"
	"medivault/internal/sharing"
)

// ShareHandler exposes the share-token lifecycle over JSON.
type ShareHandler struct {
	svc      *sharing.Service
	listings *cache.Listings // nil disables listing caching
	notifier *email.Notifier // nil disables notifications
}

// NewShareHandler creates a new share handler. listings and notifier may
// be nil.
func NewShareHandler(svc *sharing.Service, listings *cache.Listings, notifier *email.Notifier) *ShareHandler {
	return &ShareHandler{svc: svc, listings: listings, notifier: notifier}
}

type createShareRequest struct {
	ReportIDs      []string   `json:"report_ids"`
	RecipientEmail string     `json:"recipient_email"`
	ExpiresInDays  int        `json:"expires_in_days"`
	ExpiresAt      *time.Time `json:"expires_at"`
}

// Create issues a new share token over the caller's reports.
func (h *ShareHandler) Create(c fiber.Ctx) error {
	user := currentUser(c)

	var req createShareRequest
	if err := c.Bind().Body(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	reportIDs := make([]uuid.UUID, 0, len(req.ReportIDs))
	for _, raw := range req.ReportIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, "invalid report id: "+raw)
		}
		reportIDs = append(reportIDs, id)
	}

	result, err := h.svc.Issue(c.Context(), user.ID, sharing.IssueParams{
		ReportIDs:      reportIDs,
		RecipientEmail: req.RecipientEmail,
		ExpiresInDays:  req.ExpiresInDays,
		ExpiresAt:      req.ExpiresAt,
	})
	if err != nil {
		if sharing.IsValidationError(err) {
			return jsonError(c, fiber.StatusBadRequest, err.Error())
		}
		if errors.Is(err, sharing.ErrNotFoundOrForbidden) {
			return jsonError(c, fiber.StatusNotFound, err.Error())
		}
		return err
	}

	if h.notifier != nil {
		h.notifier.NotifyShareIssued(user, req.RecipientEmail, result.Token, len(reportIDs), result.ExpiresAt)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "ok",
		"data":   result,
	})
}

// ListIssued returns every share the caller has issued, in any state.
func (h *ShareHandler) ListIssued(c fiber.Ctx) error {
	user := currentUser(c)

	if h.listings != nil {
		if tokens, ok := h.listings.GetIssued(user.ID); ok {
			return jsonSuccess(c, tokens)
		}
	}

	tokens, err := h.svc.ListIssued(c.Context(), user.ID)
	if err != nil {
		return err
	}
	if tokens == nil {
		tokens = []models.ShareTokenWithReports{}
	}

	if h.listings != nil {
		h.listings.SetIssued(user.ID, tokens)
	}

	return jsonSuccess(c, tokens)
}

// ListReceived returns live shares addressed to the caller's email.
func (h *ShareHandler) ListReceived(c fiber.Ctx) error {
	user := currentUser(c)

	shares, err := h.svc.ListReceived(c.Context(), user.Email)
	if err != nil {
		return err
	}
	if shares == nil {
		shares = []models.ReceivedShare{}
	}

	return jsonSuccess(c, shares)
}

// Validate checks a token and returns the shared reports for an
// authorized requester. Each denial maps to its own status code so
// clients can distinguish a dead link from a sign-in prompt.
func (h *ShareHandler) Validate(c fiber.Ctx) error {
	token := c.Params("token")

	requesterEmail := ""
	if user := currentUser(c); user != nil {
		requesterEmail = user.Email
	}

	details, err := h.svc.Validate(c.Context(), token, requesterEmail)
	if err != nil {
		switch {
		case errors.Is(err, sharing.ErrInvalidToken):
			return jsonError(c, fiber.StatusNotFound, err.Error())
		case errors.Is(err, sharing.ErrRevoked), errors.Is(err, sharing.ErrExpired):
			return jsonError(c, fiber.StatusGone, err.Error())
		case errors.Is(err, sharing.ErrAuthRequired):
			return jsonError(c, fiber.StatusUnauthorized, err.Error())
		case errors.Is(err, sharing.ErrNotRecipient):
			return jsonError(c, fiber.StatusForbidden, err.Error())
		}
		return err
	}

	return jsonSuccess(c, details)
}

// Revoke permanently invalidates a token the caller issued.
func (h *ShareHandler) Revoke(c fiber.Ctx) error {
	user := currentUser(c)
	token := c.Params("token")

	if err := h.svc.Revoke(c.Context(), token, user.ID); err != nil {
		if errors.Is(err, sharing.ErrNotFoundOrForbidden) {
			return jsonError(c, fiber.StatusNotFound, err.Error())
		}
		return err
	}

	return jsonSuccess(c, fiber.Map{"revoked": token})
}
