package validation

import (
	"net/mail"
	"strings"
	"time"

	"medivault/internal/models"
)

// NormalizeEmail trims and lowercases an email so comparisons are
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks basic email syntax. The address must be a bare
// address, not a display-name form.
func ValidateEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" || len(email) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email
}

// ValidateTitle checks a report title.
func ValidateTitle(title string) bool {
	title = strings.TrimSpace(title)
	return title != "" && len(title) <= 200
}

// ValidateFileType checks the report file kind.
func ValidateFileType(fileType string) bool {
	return fileType == models.FileTypePDF || fileType == models.FileTypeImage
}

// ValidateMimeType checks an upload content type against the allow-list.
func ValidateMimeType(mimeType string) bool {
	for _, allowed := range models.AllowedMimeTypes {
		if strings.EqualFold(mimeType, allowed) {
			return true
		}
	}
	return false
}

// ValidateVital checks a measurement: known type, strictly positive value,
// non-empty unit, and a real timestamp.
func ValidateVital(vitalType string, value float64, unit string, recordedAt time.Time) (bool, string) {
	if !models.IsValidVitalType(vitalType) {
		return false, "unknown vital type: " + vitalType
	}
	if value <= 0 {
		return false, "value must be positive"
	}
	if strings.TrimSpace(unit) == "" {
		return false, "unit is required"
	}
	if recordedAt.IsZero() {
		return false, "recorded_at is required"
	}
	return true, ""
}
