package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"medivault/internal/db"
	"medivault/internal/models"
	"medivault/internal/validation"
)

// VitalHandler handles vitals recording and chart queries.
type VitalHandler struct {
	db *db.DB
}

// NewVitalHandler creates a new vital handler.
func NewVitalHandler(database *db.DB) *VitalHandler {
	return &VitalHandler{db: database}
}

type vitalRequest struct {
	VitalType  string    `json:"vital_type"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	RecordedAt time.Time `json:"recorded_at"`
}

type createVitalsRequest struct {
	Vitals []vitalRequest `json:"vitals"`
}

// Create records one or more measurements against a report the caller
// owns. The batch is all-or-nothing.
func (h *VitalHandler) Create(c fiber.Ctx) error {
	user := currentUser(c)

	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid report id")
	}

	var req createVitalsRequest
	if err := c.Bind().Body(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.Vitals) == 0 {
		return jsonError(c, fiber.StatusBadRequest, "at least one vital is required")
	}

	// Ownership check before writing anything.
	if _, err := h.db.GetReportByID(c.Context(), user.ID, reportID); err != nil {
		if errors.Is(err, db.ErrReportNotFound) {
			return jsonError(c, fiber.StatusNotFound, "report not found")
		}
		return err
	}

	vitals := make([]models.Vital, 0, len(req.Vitals))
	for _, v := range req.Vitals {
		if ok, msg := validation.ValidateVital(v.VitalType, v.Value, v.Unit, v.RecordedAt); !ok {
			return jsonError(c, fiber.StatusBadRequest, msg)
		}
		vitals = append(vitals, models.Vital{
			ReportID:   reportID,
			VitalType:  v.VitalType,
			Value:      v.Value,
			Unit:       v.Unit,
			RecordedAt: v.RecordedAt,
		})
	}

	if err := h.db.CreateVitals(c.Context(), vitals); err != nil {
		return err
	}

	return jsonSuccess(c, fiber.Map{"count": len(vitals)})
}

// Series returns the caller's time series for one vital type.
func (h *VitalHandler) Series(c fiber.Ctx) error {
	user := currentUser(c)

	vitalType := c.Query("type")
	if !models.IsValidVitalType(vitalType) {
		return jsonError(c, fiber.StatusBadRequest, "unknown vital type")
	}

	points, err := h.db.GetVitalSeries(c.Context(), user.ID, vitalType)
	if err != nil {
		return err
	}
	if points == nil {
		points = []models.VitalPoint{}
	}

	return jsonSuccess(c, fiber.Map{
		"vital_type": vitalType,
		"unit":       models.VitalUnits[vitalType],
		"points":     points,
	})
}

// Dashboard returns aggregate counts and latest values for the caller.
func (h *VitalHandler) Dashboard(c fiber.Ctx) error {
	user := currentUser(c)

	stats, err := h.db.GetDashboardStats(c.Context(), user.ID)
	if err != nil {
		return err
	}

	return jsonSuccess(c, stats)
}
