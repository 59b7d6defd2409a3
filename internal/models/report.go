package models

import (
	"time"

	"github.com/google/uuid"
)

// File type constants for uploaded reports.
const (
	FileTypePDF   = "pdf"
	FileTypeImage = "image"
)

// MaxFileSize is the largest upload accepted, in bytes.
const MaxFileSize = 10 * 1024 * 1024

// AllowedMimeTypes lists the upload content types the service accepts.
var AllowedMimeTypes = []string{
	"application/pdf",
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/webp",
}

// Report represents a single uploaded medical report. The file itself lives
// in external object storage; we keep the URL and the storage public id.
// Ownership is immutable once created.
type Report struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Summary     string    `json:"summary,omitempty"` // AI-generated, optional
	FileURL     string    `json:"file_url"`
	FileType    string    `json:"file_type"` // pdf or image
	PublicID    string    `json:"public_id"`
	UploadedAt  time.Time `json:"uploaded_at"`
	CreatedAt   time.Time `json:"created_at"`

	// Populated by queries that join vitals.
	Vitals []Vital `json:"vitals,omitempty"`
}

// ReportSummary is the minimal report metadata shown in share listings.
type ReportSummary struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	FileType   string    `json:"file_type"`
	UploadedAt time.Time `json:"uploaded_at"`
}
