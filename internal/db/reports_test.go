package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"medivault/internal/models"
)

func TestCreateAndGetReport(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "report-sub", "report@example.com")
	report := createTestReport(t, db, user.ID, "blood-panel")

	if report.ID == uuid.Nil {
		t.Fatal("CreateReport() did not set ID")
	}

	found, err := db.GetReportByID(ctx, user.ID, report.ID)
	if err != nil {
		t.Fatalf("GetReportByID() error = %v", err)
	}
	if found.Title != "blood-panel" {
		t.Errorf("GetReportByID() title = %q, want %q", found.Title, "blood-panel")
	}

	// Another user must not see it
	other := createTestUser(t, db, "other-sub", "other@example.com")
	_, err = db.GetReportByID(ctx, other.ID, report.ID)
	if err != ErrReportNotFound {
		t.Errorf("GetReportByID() for non-owner error = %v, want ErrReportNotFound", err)
	}
}

func TestGetReportsFilters(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "filter-sub", "filter@example.com")

	old := &models.Report{
		UserID:     user.ID,
		Title:      "old-report",
		FileURL:    "https://files.example.com/old.pdf",
		FileType:   models.FileTypePDF,
		PublicID:   "medivault/old",
		UploadedAt: time.Now().Add(-30 * 24 * time.Hour),
	}
	if err := db.CreateReport(ctx, old); err != nil {
		t.Fatalf("CreateReport() error = %v", err)
	}
	recent := createTestReport(t, db, user.ID, "recent-report")

	if err := db.CreateVital(ctx, &models.Vital{
		ReportID:   recent.ID,
		VitalType:  "heart_rate",
		Value:      72,
		Unit:       "bpm",
		RecordedAt: time.Now(),
	}); err != nil {
		t.Fatalf("CreateVital() error = %v", err)
	}

	// No filters: both
	all, err := db.GetReports(ctx, user.ID, ReportFilters{})
	if err != nil {
		t.Fatalf("GetReports() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("GetReports() returned %d reports, want 2", len(all))
	}

	// Date range excludes the old report
	start := time.Now().Add(-7 * 24 * time.Hour)
	ranged, err := db.GetReports(ctx, user.ID, ReportFilters{StartDate: &start})
	if err != nil {
		t.Fatalf("GetReports(start) error = %v", err)
	}
	if len(ranged) != 1 || ranged[0].ID != recent.ID {
		t.Errorf("GetReports(start) returned %d reports, want only the recent one", len(ranged))
	}

	// Vital type filter keeps only reports carrying that vital
	withVital, err := db.GetReports(ctx, user.ID, ReportFilters{VitalType: "heart_rate"})
	if err != nil {
		t.Fatalf("GetReports(vital_type) error = %v", err)
	}
	if len(withVital) != 1 || withVital[0].ID != recent.ID {
		t.Errorf("GetReports(vital_type) returned %d reports, want only the recent one", len(withVital))
	}
}

func TestCountReportsOwned(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	owner := createTestUser(t, db, "count-sub", "count@example.com")
	stranger := createTestUser(t, db, "stranger-sub", "stranger@example.com")

	mine := createTestReport(t, db, owner.ID, "mine")
	theirs := createTestReport(t, db, stranger.ID, "theirs")

	n, err := db.CountReportsOwned(ctx, owner.ID, []uuid.UUID{mine.ID})
	if err != nil {
		t.Fatalf("CountReportsOwned() error = %v", err)
	}
	if n != 1 {
		t.Errorf("CountReportsOwned(own report) = %d, want 1", n)
	}

	// Foreign and nonexistent ids do not count
	n, err = db.CountReportsOwned(ctx, owner.ID, []uuid.UUID{mine.ID, theirs.ID, uuid.New()})
	if err != nil {
		t.Fatalf("CountReportsOwned() error = %v", err)
	}
	if n != 1 {
		t.Errorf("CountReportsOwned(mixed) = %d, want 1", n)
	}
}

func TestUpdateReportSummary(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "summary-sub", "summary@example.com")
	report := createTestReport(t, db, user.ID, "summarized")

	if err := db.UpdateReportSummary(ctx, user.ID, report.ID, "All values within normal range."); err != nil {
		t.Fatalf("UpdateReportSummary() error = %v", err)
	}

	found, err := db.GetReportByID(ctx, user.ID, report.ID)
	if err != nil {
		t.Fatalf("GetReportByID() error = %v", err)
	}
	if found.Summary != "All values within normal range." {
		t.Errorf("summary = %q, want updated text", found.Summary)
	}
}

func TestDeleteReport(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "delete-sub", "delete@example.com")
	other := createTestUser(t, db, "delete-other-sub", "delete-other@example.com")
	report := createTestReport(t, db, user.ID, "doomed")

	// Non-owner cannot delete
	if err := db.DeleteReport(ctx, other.ID, report.ID); err != ErrReportNotFound {
		t.Errorf("DeleteReport() by non-owner error = %v, want ErrReportNotFound", err)
	}

	if err := db.DeleteReport(ctx, user.ID, report.ID); err != nil {
		t.Fatalf("DeleteReport() error = %v", err)
	}

	if _, err := db.GetReportByID(ctx, user.ID, report.ID); err != ErrReportNotFound {
		t.Errorf("GetReportByID() after delete error = %v, want ErrReportNotFound", err)
	}
}
