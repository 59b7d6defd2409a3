// Package sharing implements the share-token access-control core: issuing,
// validating, and revoking time-limited, recipient-restricted capability
// tokens over a user's reports.
package sharing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"medivault/internal/db"
	"medivault/internal/metrics"
	"medivault/internal/models"
	"medivault/internal/validation"
)

// DefaultExpiryDays applies when issuance specifies neither a relative nor
// an absolute expiry.
const DefaultExpiryDays = 7

// Relative expiry bounds, in days.
const (
	MinExpiryDays = 1
	MaxExpiryDays = 30
)

// maxTokenAttempts bounds retries on a token-string collision.
const maxTokenAttempts = 5

// Store is the persistence surface the service needs. *db.DB satisfies it.
type Store interface {
	CountReportsOwned(ctx context.Context, ownerID uuid.UUID, reportIDs []uuid.UUID) (int, error)
	CreateShareToken(ctx context.Context, token *models.ShareToken, reportIDs []uuid.UUID) error
	GetShareTokenDetails(ctx context.Context, token string) (*models.ShareTokenDetails, error)
	GetShareTokenForOwner(ctx context.Context, token string, ownerID uuid.UUID) (*models.ShareToken, error)
	RevokeShareToken(ctx context.Context, id uuid.UUID) error
	ListShareTokensByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.ShareTokenWithReports, error)
	ListReceivedShares(ctx context.Context, email string, now time.Time) ([]models.ReceivedShare, error)
}

// ListingCache invalidates cached share listings for an owner after a
// state change. The contract is invalidation only; what, if anything, is
// cached is up to the implementation.
type ListingCache interface {
	InvalidateOwner(ownerID uuid.UUID)
}

// Service issues, validates, and revokes share tokens. Every operation
// takes the caller's identity explicitly; the service holds no ambient
// auth state.
type Service struct {
	store Store
	cache ListingCache // nil disables invalidation

	// overridable in tests
	now      func() time.Time
	newToken func() (string, error)
}

// New creates a share-token service. cache may be nil.
func New(store Store, cache ListingCache) *Service {
	return &Service{
		store:    store,
		cache:    cache,
		now:      time.Now,
		newToken: generateToken,
	}
}

// IssueParams describes a share issuance request. ExpiresAt takes
// precedence over ExpiresInDays when both are set; when neither is set the
// default of 7 days applies.
type IssueParams struct {
	ReportIDs      []uuid.UUID
	RecipientEmail string
	ExpiresInDays  int        // 0 means unset
	ExpiresAt      *time.Time // absolute expiry, overrides ExpiresInDays
}

// IssueResult is returned on successful issuance.
type IssueResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Issue verifies that every requested report belongs to ownerID and, in a
// single transaction, persists a new token bound to those reports. The
// issuance is atomic: if any report id is missing or foreign, no token is
// created.
func (s *Service) Issue(ctx context.Context, ownerID uuid.UUID, p IssueParams) (*IssueResult, error) {
	reportIDs := dedupe(p.ReportIDs)
	if len(reportIDs) == 0 {
		return nil, ErrNoReports
	}

	email := validation.NormalizeEmail(p.RecipientEmail)
	if !validation.ValidateEmail(email) {
		return nil, ErrInvalidEmail
	}

	now := s.now()
	expiresAt, err := resolveExpiry(p, now)
	if err != nil {
		return nil, err
	}

	owned, err := s.store.CountReportsOwned(ctx, ownerID, reportIDs)
	if err != nil {
		return nil, fmt.Errorf("checking report ownership: %w", err)
	}
	if owned != len(reportIDs) {
		return nil, ErrNotFoundOrForbidden
	}

	var token *models.ShareToken
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		str, err := s.newToken()
		if err != nil {
			return nil, fmt.Errorf("generating token: %w", err)
		}

		candidate := &models.ShareToken{
			Token:           str,
			UserID:          ownerID,
			SharedWithEmail: email,
			ExpiresAt:       expiresAt,
		}
		err = s.store.CreateShareToken(ctx, candidate, reportIDs)
		if errors.Is(err, db.ErrDuplicateToken) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("creating share token: %w", err)
		}
		token = candidate
		break
	}
	if token == nil {
		return nil, fmt.Errorf("creating share token: exhausted %d attempts", maxTokenAttempts)
	}

	s.invalidate(ownerID)
	metrics.RecordShareIssued()

	return &IssueResult{Token: token.Token, ExpiresAt: token.ExpiresAt}, nil
}

// resolveExpiry applies the precedence rule: absolute wins, then relative,
// then the 7-day default. A past or present absolute instant is rejected,
// never clamped.
func resolveExpiry(p IssueParams, now time.Time) (time.Time, error) {
	if p.ExpiresAt != nil {
		if !p.ExpiresAt.After(now) {
			return time.Time{}, ErrExpiryInPast
		}
		return *p.ExpiresAt, nil
	}

	days := p.ExpiresInDays
	if days == 0 {
		days = DefaultExpiryDays
	}
	if days < MinExpiryDays || days > MaxExpiryDays {
		return time.Time{}, ErrExpiryOutOfRange
	}
	return now.Add(time.Duration(days) * 24 * time.Hour), nil
}

// Validate is the single source of truth for whether a share link is
// usable. requesterEmail is empty for anonymous callers. It is a pure
// read: no state changes, safe to call repeatedly.
//
// Denial priority is fixed: missing token, then revoked, then expired,
// then recipient checks. A token that is both revoked and expired reports
// revoked; revocation is authoritative.
func (s *Service) Validate(ctx context.Context, token, requesterEmail string) (*models.ShareTokenDetails, error) {
	details, err := s.store.GetShareTokenDetails(ctx, token)
	if errors.Is(err, db.ErrShareTokenNotFound) {
		metrics.RecordShareValidation(metrics.OutcomeInvalid)
		return nil, ErrInvalidToken
	}
	if err != nil {
		metrics.RecordShareValidation(metrics.OutcomeError)
		return nil, fmt.Errorf("loading share token: %w", err)
	}

	if details.IsRevoked {
		metrics.RecordShareValidation(metrics.OutcomeRevoked)
		return nil, ErrRevoked
	}

	if details.Expired(s.now()) {
		metrics.RecordShareValidation(metrics.OutcomeExpired)
		return nil, ErrExpired
	}

	if details.SharedWithEmail != "" {
		requester := validation.NormalizeEmail(requesterEmail)
		if requester == "" {
			metrics.RecordShareValidation(metrics.OutcomeAuthRequired)
			return nil, ErrAuthRequired
		}
		if requester != validation.NormalizeEmail(details.SharedWithEmail) {
			metrics.RecordShareValidation(metrics.OutcomeWrongRecipient)
			return nil, ErrNotRecipient
		}
	}

	metrics.RecordShareValidation(metrics.OutcomeOK)
	return details, nil
}

// Revoke permanently invalidates a token owned by callerID. Revoking an
// already-revoked token succeeds silently. Non-owners get
// ErrNotFoundOrForbidden whether or not the token exists.
func (s *Service) Revoke(ctx context.Context, token string, callerID uuid.UUID) error {
	st, err := s.store.GetShareTokenForOwner(ctx, token, callerID)
	if errors.Is(err, db.ErrShareTokenNotFound) {
		return ErrNotFoundOrForbidden
	}
	if err != nil {
		return fmt.Errorf("loading share token: %w", err)
	}

	if st.IsRevoked {
		return nil
	}

	if err := s.store.RevokeShareToken(ctx, st.ID); err != nil {
		return fmt.Errorf("revoking share token: %w", err)
	}

	s.invalidate(callerID)
	metrics.RecordShareRevoked()

	return nil
}

// ListIssued returns every token the owner has issued, in any state.
func (s *Service) ListIssued(ctx context.Context, ownerID uuid.UUID) ([]models.ShareTokenWithReports, error) {
	tokens, err := s.store.ListShareTokensByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing share tokens: %w", err)
	}
	return tokens, nil
}

// ListReceived returns live tokens addressed to the given verified email.
func (s *Service) ListReceived(ctx context.Context, email string) ([]models.ReceivedShare, error) {
	shares, err := s.store.ListReceivedShares(ctx, validation.NormalizeEmail(email), s.now())
	if err != nil {
		return nil, fmt.Errorf("listing received shares: %w", err)
	}
	return shares, nil
}

func (s *Service) invalidate(ownerID uuid.UUID) {
	if s.cache != nil {
		s.cache.InvalidateOwner(ownerID)
	}
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
