package models

import (
	"time"
)

// UploadSignature contains signed parameters for a direct upload to the
// object store (Cloudinary-style).
type UploadSignature struct {
	Timestamp int64  `json:"timestamp"`
	Folder    string `json:"folder"`
	Signature string `json:"signature"`
	APIKey    string `json:"api_key"`
	CloudName string `json:"cloud_name"`
}

// DashboardStats aggregates a user's data for the dashboard view.
type DashboardStats struct {
	ReportCount int                `json:"report_count"`
	VitalCounts map[string]int     `json:"vital_counts"`
	LatestVital map[string]float64 `json:"latest_vitals"`
}

// VitalPoint is one point in a per-type vitals time series.
type VitalPoint struct {
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	RecordedAt time.Time `json:"recorded_at"`
}
