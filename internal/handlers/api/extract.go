package api

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"medivault/internal/db"
	"medivault/internal/extraction"
	"medivault/internal/models"
)

// ExtractHandler runs model-based vitals extraction over a stored report.
type ExtractHandler struct {
	db     *db.DB
	client *extraction.Client
}

// NewExtractHandler creates a new extraction handler.
func NewExtractHandler(database *db.DB, client *extraction.Client) *ExtractHandler {
	return &ExtractHandler{db: database, client: client}
}

// Run extracts vitals and a summary from the report file and persists
// whatever came back. Extraction is best-effort: a model failure leaves
// the report untouched and still reports success, so the upload flow
// never breaks on a flaky oracle.
func (h *ExtractHandler) Run(c fiber.Ctx) error {
	user := currentUser(c)

	if !h.client.Enabled() {
		return jsonError(c, fiber.StatusServiceUnavailable, "extraction is not configured")
	}

	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid report id")
	}

	report, err := h.db.GetReportByID(c.Context(), user.ID, reportID)
	if errors.Is(err, db.ErrReportNotFound) {
		return jsonError(c, fiber.StatusNotFound, "report not found")
	}
	if err != nil {
		return err
	}

	result, err := h.client.Extract(c.Context(), report.FileURL, report.FileType)
	if err != nil {
		slog.Warn("vitals extraction failed", "report", report.ID, "error", err)
		return jsonSuccess(c, fiber.Map{
			"vitals_extracted": 0,
			"summary_updated":  false,
		})
	}

	now := time.Now()
	if len(result.Vitals) > 0 {
		vitals := make([]models.Vital, 0, len(result.Vitals))
		for _, v := range result.Vitals {
			vitals = append(vitals, models.Vital{
				ReportID:   report.ID,
				VitalType:  v.VitalType,
				Value:      v.Value,
				Unit:       v.Unit,
				RecordedAt: now,
			})
		}
		if err := h.db.CreateVitals(c.Context(), vitals); err != nil {
			return err
		}
	}

	summaryUpdated := false
	if result.Summary != "" {
		if err := h.db.UpdateReportSummary(c.Context(), user.ID, report.ID, result.Summary); err != nil {
			return err
		}
		summaryUpdated = true
	}

	return jsonSuccess(c, fiber.Map{
		"vitals_extracted": len(result.Vitals),
		"summary_updated":  summaryUpdated,
	})
}
