package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"medivault/internal/models"
)

// CreateShareToken inserts the token row and one shared_reports row per
// report id in a single transaction. Either everything commits or nothing
// does; a token without its links is a data-integrity bug, not a degraded
// state. Returns ErrDuplicateToken when the token string collides so the
// caller can retry with a fresh one.
func (d *DB) CreateShareToken(ctx context.Context, token *models.ShareToken, reportIDs []uuid.UUID) error {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO share_tokens (token, user_id, shared_with_email, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_revoked, created_at
	`
	err = tx.QueryRow(ctx, query,
		token.Token,
		token.UserID,
		token.SharedWithEmail,
		token.ExpiresAt,
	).Scan(&token.ID, &token.IsRevoked, &token.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateToken
		}
		return err
	}

	for _, reportID := range reportIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO shared_reports (share_token_id, report_id) VALUES ($1, $2)`,
			token.ID, reportID,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetShareTokenDetails returns the full redemption view for a token string:
// the token row, the owner's public info, and every linked report with its
// vitals. The report slice is empty (not an error) when all linked reports
// have been deleted.
func (d *DB) GetShareTokenDetails(ctx context.Context, token string) (*models.ShareTokenDetails, error) {
	query := `
		SELECT st.id, st.token, st.user_id, st.shared_with_email, st.expires_at, st.is_revoked, st.created_at,
		       COALESCE(NULLIF(u.name, ''), u.email), u.email
		FROM share_tokens st
		JOIN users u ON u.id = st.user_id
		WHERE st.token = $1
	`

	var details models.ShareTokenDetails
	err := d.Pool.QueryRow(ctx, query, token).Scan(
		&details.ID, &details.Token, &details.UserID, &details.SharedWithEmail,
		&details.ExpiresAt, &details.IsRevoked, &details.CreatedAt,
		&details.Owner.Name, &details.Owner.Email,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrShareTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	reportsQuery := `
		SELECT r.id, r.user_id, r.title, COALESCE(r.description, ''), COALESCE(r.summary, ''),
		       r.file_url, r.file_type, r.public_id, r.uploaded_at, r.created_at
		FROM shared_reports sr
		JOIN reports r ON r.id = sr.report_id
		WHERE sr.share_token_id = $1
		ORDER BY sr.created_at ASC
	`
	rows, err := d.Pool.Query(ctx, reportsQuery, details.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details.Reports = []models.Report{}
	for rows.Next() {
		var r models.Report
		if err := rows.Scan(
			&r.ID, &r.UserID, &r.Title, &r.Description, &r.Summary,
			&r.FileURL, &r.FileType, &r.PublicID, &r.UploadedAt, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		details.Reports = append(details.Reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range details.Reports {
		vitals, err := d.GetVitalsByReport(ctx, details.Reports[i].ID)
		if err != nil {
			return nil, err
		}
		details.Reports[i].Vitals = vitals
	}

	return &details, nil
}

// GetShareTokenForOwner returns the token row only if it is owned by ownerID.
// Non-owners get ErrShareTokenNotFound; whether the token exists at all is
// not revealed.
func (d *DB) GetShareTokenForOwner(ctx context.Context, token string, ownerID uuid.UUID) (*models.ShareToken, error) {
	query := `
		SELECT id, token, user_id, shared_with_email, expires_at, is_revoked, created_at
		FROM share_tokens
		WHERE token = $1 AND user_id = $2
	`

	var st models.ShareToken
	err := d.Pool.QueryRow(ctx, query, token, ownerID).Scan(
		&st.ID, &st.Token, &st.UserID, &st.SharedWithEmail,
		&st.ExpiresAt, &st.IsRevoked, &st.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrShareTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	return &st, nil
}

// RevokeShareToken sets is_revoked. The flag is one-way; revoking an
// already-revoked token is a no-op.
func (d *DB) RevokeShareToken(ctx context.Context, id uuid.UUID) error {
	_, err := d.Pool.Exec(ctx,
		`UPDATE share_tokens SET is_revoked = TRUE WHERE id = $1`, id)
	return err
}

// ListShareTokensByOwner returns every token the owner has issued, newest
// first and regardless of state, so revoked and expired history stays
// visible.
func (d *DB) ListShareTokensByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.ShareTokenWithReports, error) {
	query := `
		SELECT id, token, user_id, shared_with_email, expires_at, is_revoked, created_at
		FROM share_tokens
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := d.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []models.ShareTokenWithReports
	for rows.Next() {
		var t models.ShareTokenWithReports
		if err := rows.Scan(
			&t.ID, &t.Token, &t.UserID, &t.SharedWithEmail,
			&t.ExpiresAt, &t.IsRevoked, &t.CreatedAt,
		); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tokens {
		reports, err := d.getSharedReportSummaries(ctx, tokens[i].ID)
		if err != nil {
			return nil, err
		}
		tokens[i].Reports = reports
	}

	return tokens, nil
}

// ListReceivedShares returns live tokens addressed to the given email:
// not revoked, not yet expired, matched case-insensitively. This is the
// pre-filtered inbox view, unlike the issuer listing which shows everything.
func (d *DB) ListReceivedShares(ctx context.Context, email string, now time.Time) ([]models.ReceivedShare, error) {
	query := `
		SELECT st.id, st.token, st.user_id, st.shared_with_email, st.expires_at, st.is_revoked, st.created_at,
		       COALESCE(NULLIF(u.name, ''), u.email), u.email
		FROM share_tokens st
		JOIN users u ON u.id = st.user_id
		WHERE LOWER(st.shared_with_email) = LOWER($1)
		  AND st.is_revoked = FALSE
		  AND st.expires_at >= $2
		ORDER BY st.created_at DESC
	`

	rows, err := d.Pool.Query(ctx, query, email, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shares []models.ReceivedShare
	for rows.Next() {
		var s models.ReceivedShare
		if err := rows.Scan(
			&s.ID, &s.Token, &s.UserID, &s.SharedWithEmail,
			&s.ExpiresAt, &s.IsRevoked, &s.CreatedAt,
			&s.Owner.Name, &s.Owner.Email,
		); err != nil {
			return nil, err
		}
		shares = append(shares, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range shares {
		reports, err := d.getSharedReportSummaries(ctx, shares[i].ID)
		if err != nil {
			return nil, err
		}
		shares[i].Reports = reports
	}

	return shares, nil
}

func (d *DB) getSharedReportSummaries(ctx context.Context, shareTokenID uuid.UUID) ([]models.ReportSummary, error) {
	query := `
		SELECT r.id, r.title, r.file_type, r.uploaded_at
		FROM shared_reports sr
		JOIN reports r ON r.id = sr.report_id
		WHERE sr.share_token_id = $1
		ORDER BY sr.created_at ASC
	`

	rows, err := d.Pool.Query(ctx, query, shareTokenID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []models.ReportSummary{}
	for rows.Next() {
		var s models.ReportSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.FileType, &s.UploadedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}
