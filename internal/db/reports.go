package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"medivault/internal/models"
)

// CreateReport inserts a report's metadata after a completed upload.
func (d *DB) CreateReport(ctx context.Context, report *models.Report) error {
	query := `
		INSERT INTO reports (user_id, title, description, summary, file_url, file_type, public_id, uploaded_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8)
		RETURNING id, created_at
	`

	return d.Pool.QueryRow(ctx, query,
		report.UserID,
		report.Title,
		report.Description,
		report.Summary,
		report.FileURL,
		report.FileType,
		report.PublicID,
		report.UploadedAt,
	).Scan(&report.ID, &report.CreatedAt)
}

// ReportFilters narrows report listings by upload date and vital type.
type ReportFilters struct {
	StartDate *time.Time
	EndDate   *time.Time
	VitalType string
}

// GetReports returns a user's reports, newest first, with their vitals.
func (d *DB) GetReports(ctx context.Context, userID uuid.UUID, filters ReportFilters) ([]models.Report, error) {
	query := `
		SELECT id, user_id, title, COALESCE(description, ''), COALESCE(summary, ''),
		       file_url, file_type, public_id, uploaded_at, created_at
		FROM reports
		WHERE user_id = $1
		  AND ($2::timestamptz IS NULL OR uploaded_at >= $2)
		  AND ($3::timestamptz IS NULL OR uploaded_at <= $3)
		  AND ($4 = '' OR EXISTS (
		      SELECT 1 FROM vitals v WHERE v.report_id = reports.id AND v.vital_type = $4
		  ))
		ORDER BY uploaded_at DESC
	`

	rows, err := d.Pool.Query(ctx, query, userID, filters.StartDate, filters.EndDate, filters.VitalType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []models.Report
	for rows.Next() {
		var r models.Report
		if err := rows.Scan(
			&r.ID, &r.UserID, &r.Title, &r.Description, &r.Summary,
			&r.FileURL, &r.FileType, &r.PublicID, &r.UploadedAt, &r.CreatedAt,
		); err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range reports {
		vitals, err := d.GetVitalsByReport(ctx, reports[i].ID)
		if err != nil {
			return nil, err
		}
		reports[i].Vitals = vitals
	}

	return reports, nil
}

// GetReportByID returns a single report owned by userID, with vitals
// ordered by recording time.
func (d *DB) GetReportByID(ctx context.Context, userID, reportID uuid.UUID) (*models.Report, error) {
	query := `
		SELECT id, user_id, title, COALESCE(description, ''), COALESCE(summary, ''),
		       file_url, file_type, public_id, uploaded_at, created_at
		FROM reports WHERE id = $1 AND user_id = $2
	`

	var r models.Report
	err := d.Pool.QueryRow(ctx, query, reportID, userID).Scan(
		&r.ID, &r.UserID, &r.Title, &r.Description, &r.Summary,
		&r.FileURL, &r.FileType, &r.PublicID, &r.UploadedAt, &r.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, err
	}

	vitals, err := d.GetVitalsByReport(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	r.Vitals = vitals

	return &r, nil
}

// CountReportsOwned returns how many of the given report ids exist and are
// owned by userID. Used by share issuance for the all-or-nothing ownership
// check.
func (d *DB) CountReportsOwned(ctx context.Context, userID uuid.UUID, reportIDs []uuid.UUID) (int, error) {
	var count int
	err := d.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM reports WHERE user_id = $1 AND id = ANY($2)`,
		userID, reportIDs,
	).Scan(&count)
	return count, err
}

// UpdateReportSummary stores an AI-generated summary for a report.
func (d *DB) UpdateReportSummary(ctx context.Context, userID, reportID uuid.UUID, summary string) error {
	result, err := d.Pool.Exec(ctx,
		`UPDATE reports SET summary = NULLIF($1, '') WHERE id = $2 AND user_id = $3`,
		summary, reportID, userID,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrReportNotFound
	}
	return nil
}

// DeleteReport removes a report owned by userID. Vitals and shared-report
// links cascade in the schema.
func (d *DB) DeleteReport(ctx context.Context, userID, reportID uuid.UUID) error {
	result, err := d.Pool.Exec(ctx,
		`DELETE FROM reports WHERE id = $1 AND user_id = $2`,
		reportID, userID,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrReportNotFound
	}
	return nil
}

// GetReportCount returns the number of reports a user owns.
func (d *DB) GetReportCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := d.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM reports WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}
