package api

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"medivault/internal/config"
	"medivault/internal/db"
	"medivault/internal/models"
	"medivault/internal/validation"
)

// ReportHandler handles report metadata CRUD.
type ReportHandler struct {
	db  *db.DB
	cfg *config.Config
}

// NewReportHandler creates a new report handler.
func NewReportHandler(database *db.DB, cfg *config.Config) *ReportHandler {
	return &ReportHandler{db: database, cfg: cfg}
}

func currentUser(c fiber.Ctx) *models.User {
	user, _ := c.Locals("user").(*models.User)
	return user
}

type createReportRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Summary     string    `json:"summary"`
	FileURL     string    `json:"file_url"`
	FileType    string    `json:"file_type"`
	MimeType    string    `json:"mime_type"`
	PublicID    string    `json:"public_id"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Create stores metadata for a completed upload.
func (h *ReportHandler) Create(c fiber.Ctx) error {
	user := currentUser(c)

	var req createReportRequest
	if err := c.Bind().Body(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if !validation.ValidateTitle(req.Title) {
		return jsonError(c, fiber.StatusBadRequest, "title is required")
	}
	if !validation.ValidateFileType(req.FileType) {
		return jsonError(c, fiber.StatusBadRequest, "file_type must be pdf or image")
	}
	if req.MimeType != "" && !validation.ValidateMimeType(req.MimeType) {
		return jsonError(c, fiber.StatusBadRequest, "unsupported mime type")
	}
	if req.FileURL == "" || req.PublicID == "" {
		return jsonError(c, fiber.StatusBadRequest, "file_url and public_id are required")
	}

	uploadedAt := req.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = time.Now()
	}

	report := &models.Report{
		UserID:      user.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Summary:     req.Summary,
		FileURL:     req.FileURL,
		FileType:    req.FileType,
		PublicID:    req.PublicID,
		UploadedAt:  uploadedAt,
	}
	if err := h.db.CreateReport(c.Context(), report); err != nil {
		return err
	}

	return jsonSuccess(c, report)
}

// List returns the caller's reports, optionally filtered by upload date
// range and vital type.
func (h *ReportHandler) List(c fiber.Ctx) error {
	user := currentUser(c)

	var filters db.ReportFilters
	if start := c.Query("start"); start != "" {
		t, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, "invalid start date")
		}
		filters.StartDate = &t
	}
	if end := c.Query("end"); end != "" {
		t, err := time.Parse(time.RFC3339, end)
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, "invalid end date")
		}
		filters.EndDate = &t
	}
	if vitalType := c.Query("vital_type"); vitalType != "" {
		if !models.IsValidVitalType(vitalType) {
			return jsonError(c, fiber.StatusBadRequest, "unknown vital type")
		}
		filters.VitalType = vitalType
	}

	reports, err := h.db.GetReports(c.Context(), user.ID, filters)
	if err != nil {
		return err
	}
	if reports == nil {
		reports = []models.Report{}
	}

	return jsonSuccess(c, reports)
}

// Get returns one report with its vitals.
func (h *ReportHandler) Get(c fiber.Ctx) error {
	user := currentUser(c)

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

	return jsonSuccess(c, report)
}

// Delete removes a report. Vitals and share links cascade away; share
// tokens that covered only this report keep existing and validate to an
// empty report set.
func (h *ReportHandler) Delete(c fiber.Ctx) error {
	user := currentUser(c)

	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid report id")
	}

	if err := h.db.DeleteReport(c.Context(), user.ID, reportID); err != nil {
		if errors.Is(err, db.ErrReportNotFound) {
			return jsonError(c, fiber.StatusNotFound, "report not found")
		}
		return err
	}

	return jsonSuccess(c, fiber.Map{"deleted": reportID})
}
