package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"medivault/internal/models"
)

// CreateVital inserts a single measurement against a report.
func (d *DB) CreateVital(ctx context.Context, vital *models.Vital) error {
	query := `
		INSERT INTO vitals (report_id, vital_type, value, unit, recorded_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	return d.Pool.QueryRow(ctx, query,
		vital.ReportID,
		vital.VitalType,
		vital.Value,
		vital.Unit,
		vital.RecordedAt,
	).Scan(&vital.ID, &vital.CreatedAt)
}

// CreateVitals batch-inserts measurements in one transaction. Used by the
// extraction flow; either all rows land or none do.
func (d *DB) CreateVitals(ctx context.Context, vitals []models.Vital) error {
	if len(vitals) == 0 {
		return nil
	}

	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, v := range vitals {
		batch.Queue(
			`INSERT INTO vitals (report_id, vital_type, value, unit, recorded_at) VALUES ($1, $2, $3, $4, $5)`,
			v.ReportID, v.VitalType, v.Value, v.Unit, v.RecordedAt,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for range vitals {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return err
		}
	}
	if err := br.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetVitalsByReport returns a report's vitals ordered by recording time.
func (d *DB) GetVitalsByReport(ctx context.Context, reportID uuid.UUID) ([]models.Vital, error) {
	query := `
		SELECT id, report_id, vital_type, value, unit, recorded_at, created_at
		FROM vitals WHERE report_id = $1
		ORDER BY recorded_at ASC
	`

	rows, err := d.Pool.Query(ctx, query, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vitals []models.Vital
	for rows.Next() {
		var v models.Vital
		if err := rows.Scan(&v.ID, &v.ReportID, &v.VitalType, &v.Value, &v.Unit, &v.RecordedAt, &v.CreatedAt); err != nil {
			return nil, err
		}
		vitals = append(vitals, v)
	}

	return vitals, rows.Err()
}

// GetVitalSeries returns a user's measurements of one type across all their
// reports, oldest first, for chart rendering.
func (d *DB) GetVitalSeries(ctx context.Context, userID uuid.UUID, vitalType string) ([]models.VitalPoint, error) {
	query := `
		SELECT v.value, v.unit, v.recorded_at
		FROM vitals v
		JOIN reports r ON r.id = v.report_id
		WHERE r.user_id = $1 AND v.vital_type = $2
		ORDER BY v.recorded_at ASC
	`

	rows, err := d.Pool.Query(ctx, query, userID, vitalType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []models.VitalPoint
	for rows.Next() {
		var p models.VitalPoint
		if err := rows.Scan(&p.Value, &p.Unit, &p.RecordedAt); err != nil {
			return nil, err
		}
		points = append(points, p)
	}

	return points, rows.Err()
}

// GetDashboardStats aggregates report and vital counts plus the latest value
// per vital type for a user.
func (d *DB) GetDashboardStats(ctx context.Context, userID uuid.UUID) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{
		VitalCounts: make(map[string]int),
		LatestVital: make(map[string]float64),
	}

	reportCount, err := d.GetReportCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats.ReportCount = reportCount

	countQuery := `
		SELECT v.vital_type, COUNT(*)
		FROM vitals v
		JOIN reports r ON r.id = v.report_id
		WHERE r.user_id = $1
		GROUP BY v.vital_type
	`
	rows, err := d.Pool.Query(ctx, countQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var vitalType string
		var count int
		if err := rows.Scan(&vitalType, &count); err != nil {
			return nil, err
		}
		stats.VitalCounts[vitalType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	latestQuery := `
		SELECT DISTINCT ON (v.vital_type) v.vital_type, v.value
		FROM vitals v
		JOIN reports r ON r.id = v.report_id
		WHERE r.user_id = $1
		ORDER BY v.vital_type, v.recorded_at DESC
	`
	latestRows, err := d.Pool.Query(ctx, latestQuery, userID)
	if err != nil {
		return nil, err
	}
	defer latestRows.Close()

	for latestRows.Next() {
		var vitalType string
		var value float64
		if err := latestRows.Scan(&vitalType, &value); err != nil {
			return nil, err
		}
		stats.LatestVital[vitalType] = value
	}

	return stats, latestRows.Err()
}
