package models

import (
	"time"

	"github.com/google/uuid"
)

// Vital type constants.
const (
	VitalBloodPressure = "blood_pressure"
	VitalHeartRate     = "heart_rate"
	VitalSpO2          = "spo2"
	VitalBloodSugar    = "blood_sugar"
	VitalHemoglobin    = "hemoglobin"
	VitalCholesterol   = "cholesterol"
)

// VitalTypes lists every supported vital type.
var VitalTypes = []string{
	VitalBloodPressure,
	VitalHeartRate,
	VitalSpO2,
	VitalBloodSugar,
	VitalHemoglobin,
	VitalCholesterol,
}

// VitalUnits maps each vital type to its canonical unit.
var VitalUnits = map[string]string{
	VitalBloodPressure: "mmHg",
	VitalHeartRate:     "bpm",
	VitalSpO2:          "%",
	VitalBloodSugar:    "mg/dL",
	VitalHemoglobin:    "g/dL",
	VitalCholesterol:   "mg/dL",
}

// VitalLabels maps each vital type to its display label.
var VitalLabels = map[string]string{
	VitalBloodPressure: "Blood Pressure",
	VitalHeartRate:     "Heart Rate",
	VitalSpO2:          "SpO2",
	VitalBloodSugar:    "Blood Sugar",
	VitalHemoglobin:    "Hemoglobin",
	VitalCholesterol:   "Cholesterol",
}

// IsValidVitalType reports whether t is a supported vital type.
func IsValidVitalType(t string) bool {
	_, ok := VitalUnits[t]
	return ok
}

// Vital is one measurement extracted from or recorded against a report.
// Blood pressure is stored as a single decimal (systolic.diastolic).
type Vital struct {
	ID         uuid.UUID `json:"id"`
	ReportID   uuid.UUID `json:"report_id"`
	VitalType  string    `json:"vital_type"`
	Value      float64   `json:"value"` // strictly positive
	Unit       string    `json:"unit"`
	RecordedAt time.Time `json:"recorded_at"`
	CreatedAt  time.Time `json:"created_at"`
}
