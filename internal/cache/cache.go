// Package cache caches share listings per owner on top of a fiber Storage
// backend (redis in production). The sharing service invalidates an
// owner's entries on every issue and revoke.
package cache

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"medivault/internal/models"
)

// listingTTL bounds staleness if an invalidation is ever missed.
const listingTTL = 5 * time.Minute

// Listings caches the issued-shares listing per owner.
type Listings struct {
	storage fiber.Storage
}

// New creates a listing cache over the given storage backend.
func New(storage fiber.Storage) *Listings {
	return &Listings{storage: storage}
}

func issuedKey(ownerID uuid.UUID) string {
	return "shares:issued:" + ownerID.String()
}

// GetIssued returns the cached issued-shares listing for an owner, or
// (nil, false) on a miss. Cache errors are treated as misses.
func (l *Listings) GetIssued(ownerID uuid.UUID) ([]models.ShareTokenWithReports, bool) {
	raw, err := l.storage.Get(issuedKey(ownerID))
	if err != nil || len(raw) == 0 {
		return nil, false
	}

	var tokens []models.ShareTokenWithReports
	if err := json.Unmarshal(raw, &tokens); err != nil {
		slog.Warn("dropping undecodable share listing cache entry", "owner", ownerID, "error", err)
		l.InvalidateOwner(ownerID)
		return nil, false
	}
	return tokens, true
}

// SetIssued stores the issued-shares listing for an owner. Failures are
// logged and ignored; the cache is best-effort.
func (l *Listings) SetIssued(ownerID uuid.UUID, tokens []models.ShareTokenWithReports) {
	raw, err := json.Marshal(tokens)
	if err != nil {
		return
	}
	if err := l.storage.Set(issuedKey(ownerID), raw, listingTTL); err != nil {
		slog.Warn("failed to cache share listing", "owner", ownerID, "error", err)
	}
}

// InvalidateOwner drops the owner's cached listings.
func (l *Listings) InvalidateOwner(ownerID uuid.UUID) {
	if err := l.storage.Delete(issuedKey(ownerID)); err != nil {
		slog.Warn("failed to invalidate share listing cache", "owner", ownerID, "error", err)
	}
}
