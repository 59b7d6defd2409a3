package sharing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"medivault/internal/db"
	"medivault/internal/models"
)

// fakeStore is an in-memory Store for exercising the service without
// Postgres.
type fakeStore struct {
	reports map[uuid.UUID]uuid.UUID // report id -> owner id
	owners  map[uuid.UUID]models.PublicInfo
	tokens  map[string]*models.ShareToken
	links   map[uuid.UUID][]uuid.UUID // token id -> report ids

	dupRemaining int // CreateShareToken calls to fail with ErrDuplicateToken
	failCreate   error
	failGet      error
}

var _ Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		reports: make(map[uuid.UUID]uuid.UUID),
		owners:  make(map[uuid.UUID]models.PublicInfo),
		tokens:  make(map[string]*models.ShareToken),
		links:   make(map[uuid.UUID][]uuid.UUID),
	}
}

func (f *fakeStore) addReport(ownerID uuid.UUID) uuid.UUID {
	id := uuid.New()
	f.reports[id] = ownerID
	return id
}

func (f *fakeStore) CountReportsOwned(_ context.Context, ownerID uuid.UUID, reportIDs []uuid.UUID) (int, error) {
	count := 0
	for _, id := range reportIDs {
		if owner, ok := f.reports[id]; ok && owner == ownerID {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) CreateShareToken(_ context.Context, token *models.ShareToken, reportIDs []uuid.UUID) error {
	if f.failCreate != nil {
		return f.failCreate
	}
	if f.dupRemaining > 0 {
		f.dupRemaining--
		return db.ErrDuplicateToken
	}
	if _, exists := f.tokens[token.Token]; exists {
		return db.ErrDuplicateToken
	}
	token.ID = uuid.New()
	token.CreatedAt = time.Now()
	stored := *token
	f.tokens[token.Token] = &stored
	f.links[token.ID] = append([]uuid.UUID(nil), reportIDs...)
	return nil
}

func (f *fakeStore) GetShareTokenDetails(_ context.Context, token string) (*models.ShareTokenDetails, error) {
	if f.failGet != nil {
		return nil, f.failGet
	}
	st, ok := f.tokens[token]
	if !ok {
		return nil, db.ErrShareTokenNotFound
	}

	details := &models.ShareTokenDetails{
		ShareToken: *st,
		Reports:    []models.Report{},
		Owner:      f.owners[st.UserID],
	}
	for _, reportID := range f.links[st.ID] {
		// Deleted reports drop out of the view.
		if owner, ok := f.reports[reportID]; ok {
			details.Reports = append(details.Reports, models.Report{ID: reportID, UserID: owner})
		}
	}
	return details, nil
}

func (f *fakeStore) GetShareTokenForOwner(_ context.Context, token string, ownerID uuid.UUID) (*models.ShareToken, error) {
	st, ok := f.tokens[token]
	if !ok || st.UserID != ownerID {
		return nil, db.ErrShareTokenNotFound
	}
	copied := *st
	return &copied, nil
}

func (f *fakeStore) RevokeShareToken(_ context.Context, id uuid.UUID) error {
	for _, st := range f.tokens {
		if st.ID == id {
			st.IsRevoked = true
			return nil
		}
	}
	return nil
}

func (f *fakeStore) ListShareTokensByOwner(_ context.Context, ownerID uuid.UUID) ([]models.ShareTokenWithReports, error) {
	var out []models.ShareTokenWithReports
	for _, st := range f.tokens {
		if st.UserID != ownerID {
			continue
		}
		item := models.ShareTokenWithReports{ShareToken: *st, Reports: []models.ReportSummary{}}
		for _, reportID := range f.links[st.ID] {
			if _, ok := f.reports[reportID]; ok {
				item.Reports = append(item.Reports, models.ReportSummary{ID: reportID})
			}
		}
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeStore) ListReceivedShares(_ context.Context, email string, now time.Time) ([]models.ReceivedShare, error) {
	var out []models.ReceivedShare
	for _, st := range f.tokens {
		if st.IsRevoked || st.ExpiresAt.Before(now) {
			continue
		}
		if !strings.EqualFold(st.SharedWithEmail, email) {
			continue
		}
		out = append(out, models.ReceivedShare{ShareToken: *st, Owner: f.owners[st.UserID]})
	}
	return out, nil
}

type fakeCache struct {
	invalidated []uuid.UUID
}

func (f *fakeCache) InvalidateOwner(ownerID uuid.UUID) {
	f.invalidated = append(f.invalidated, ownerID)
}

func newTestService(store *fakeStore) (*Service, *fakeCache) {
	cache := &fakeCache{}
	svc := New(store, cache)
	return svc, cache
}

func TestIssueAndValidateRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	owner := uuid.New()
	store.owners[owner] = models.PublicInfo{Name: "Owner", Email: "owner@x.com"}
	r1 := store.addReport(owner)
	r2 := store.addReport(owner)

	svc, cache := newTestService(store)

	result, err := svc.Issue(ctx, owner, IssueParams{
		ReportIDs:      []uuid.UUID{r1, r2},
		RecipientEmail: "bob@x.com",
		ExpiresInDays:  7,
	})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if result.Token == "" {
		t.Fatal("Issue() returned empty token")
	}
	if len(cache.invalidated) != 1 || cache.invalidated[0] != owner {
		t.Errorf("Issue() cache invalidations = %v, want [%v]", cache.invalidated, owner)
	}

	details, err := svc.Validate(ctx, result.Token, "bob@x.com")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	got := make(map[uuid.UUID]bool)
	for _, r := range details.Reports {
		got[r.ID] = true
	}
	if len(got) != 2 || !got[r1] || !got[r2] {
		t.Errorf("Validate() reports = %v, want set {%v, %v}", details.Reports, r1, r2)
	}
	if details.Owner.Email != "owner@x.com" {
		t.Errorf("Validate() owner = %+v", details.Owner)
	}
}

func TestIssueRejectsForeignReportsAtomically(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	owner := uuid.New()
	stranger := uuid.New()
	mine := store.addReport(owner)
	theirs := store.addReport(stranger)

	svc, _ := newTestService(store)

	_, err := svc.Issue(ctx, owner, IssueParams{
		ReportIDs:      []uuid.UUID{mine, theirs},
		RecipientEmail: "bob@x.com",
	})
	if !errors.Is(err, ErrNotFoundOrForbidden) {
		t.Fatalf("Issue() error = %v, want ErrNotFoundOrForbidden", err)
	}

	// Nothing was persisted: the owner's listing stays empty.
	tokens, err := svc.ListIssued(ctx, owner)
	if err != nil {
		t.Fatalf("ListIssued() error = %v", err)
	}
	if len(tokens) != 0 {
		t.Errorf("ListIssued() after failed issue = %d tokens, want 0", len(tokens))
	}
}

func TestIssueRejectsNonexistentReport(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	owner := uuid.New()

	svc, _ := newTestService(store)

	_, err := svc.Issue(ctx, owner, IssueParams{
		ReportIDs:      []uuid.UUID{uuid.New()},
		RecipientEmail: "bob@x.com",
	})
	if !errors.Is(err, ErrNotFoundOrForbidden) {
		t.Fatalf("Issue() error = %v, want ErrNotFoundOrForbidden", err)
	}
}

func TestIssueValidation(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	owner := uuid.New()
	report := store.addReport(owner)
	svc, _ := newTestService(store)

	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name    string
		params  IssueParams
		wantErr error
	}{
		{"empty report set", IssueParams{RecipientEmail: "bob@x.com"}, ErrNoReports},
		{"bad email", IssueParams{ReportIDs: []uuid.UUID{report}, RecipientEmail: "not-an-email"}, ErrInvalidEmail},
		{"empty email", IssueParams{ReportIDs: []uuid.UUID{report}}, ErrInvalidEmail},
		{"days too large", IssueParams{ReportIDs: []uuid.UUID{report}, RecipientEmail: "bob@x.com", ExpiresInDays: 31}, ErrExpiryOutOfRange},
		{"days negative", IssueParams{ReportIDs: []uuid.UUID{report}, RecipientEmail: "bob@x.com", ExpiresInDays: -1}, ErrExpiryOutOfRange},
		{"absolute expiry in past", IssueParams{ReportIDs: []uuid.UUID{report}, RecipientEmail: "bob@x.com", ExpiresAt: &past}, ErrExpiryInPast},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Issue(ctx, owner, tt.params)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Issue() error = %v, want %v", err, tt.wantErr)
			}
			if !IsValidationError(err) {
				t.Errorf("IsValidationError(%v) = false, want true", err)
			}
		})
	}
}

func TestIssueExpiryDefaultsAndPrecedence(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	owner := uuid.New()
	report := store.addReport(owner)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("defaults to seven days", func(t *testing.T) {
		svc, _ := newTestService(store)
		svc.now = func() time.Time { return now }

		result, err := svc.Issue(ctx, owner, IssueParams{
			ReportIDs:      []uuid.UUID{report},
			RecipientEmail: "bob@x.com",
		})
		if err != nil {
			t.Fatalf("Issue() error = %v", err)
		}
		want := now.Add(7 * 24 * time.Hour)
		if !result.ExpiresAt.Equal(want) {
			t.Errorf("ExpiresAt = %v, want %v", result.ExpiresAt, want)
		}
	})

	t.Run("absolute wins over relative", func(t *testing.T) {
		svc, _ := newTestService(store)
		svc.now = func() time.Time { return now }

		absolute := now.Add(48 * time.Hour)
		result, err := svc.Issue(ctx, owner, IssueParams{
			ReportIDs:      []uuid.UUID{report},
			RecipientEmail: "bob@x.com",
			ExpiresInDays:  30,
			ExpiresAt:      &absolute,
		})
		if err != nil {
			t.Fatalf("Issue() error = %v", err)
		}
		if !result.ExpiresAt.Equal(absolute) {
			t.Errorf("ExpiresAt = %v, want absolute %v", result.ExpiresAt, absolute)
		}
	})
}

func TestIssueRetriesOnTokenCollision(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	owner := uuid.New()
	report := store.addReport(owner)
	store.dupRemaining = 2

	svc, _ := newTestService(store)

	result, err := svc.Issue(ctx, owner, IssueParams{
		ReportIDs:      []uuid.UUID{report},
		RecipientEmail: "bob@x.com",
	})
	if err != nil {
		t.Fatalf("Issue() error = %v, collision should be retried", err)
	}
	if result.Token == "" {
		t.Fatal("Issue() returned empty token after retries")
	}
}

func TestIssueGivesUpAfterRepeatedCollisions(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	owner := uuid.New()
	report := store.addReport(owner)
	store.dupRemaining = maxTokenAttempts

	svc, _ := newTestService(store)

	_, err := svc.Issue(ctx, owner, IssueParams{
		ReportIDs:      []uuid.UUID{report},
		RecipientEmail: "bob@x.com",
	})
	if err == nil {
		t.Fatal("Issue() should fail after exhausting token attempts")
	}
	if IsDenial(err) || IsValidationError(err) {
		t.Errorf("exhaustion error %v should be transient, not a denial or validation error", err)
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	owner := uuid.New()
	report := store.addReport(owner)
	svc, _ := newTestService(store)

	result, err := svc.Issue(ctx, owner, IssueParams{
		ReportIDs:      []uuid.UUID{report},
		RecipientEmail: "bob@x.com",
	})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	first, err := svc.Validate(ctx, result.Token, "bob@x.com")
	if err != nil {
		t.Fatalf("first Validate() error = %v", err)
	}
	second, err := svc.Validate(ctx, result.Token, "bob@x.com")
	if err != nil {
		t.Fatalf("second Validate() error = %v", err)
	}
	if len(first.Reports) != len(second.Reports) || first.Token != second.Token {
		t.Errorf("repeated Validate() results differ: %+v vs %+v", first, second)
	}
}

func TestRevokeIsMonotonicAndIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	owner := uuid.New()
	report := store.addReport(owner)
	svc, cache := newTestService(store)

	result, err := svc.Issue(ctx, owner, IssueParams{
		ReportIDs:      []uuid.UUID{report},
		RecipientEmail: "bob@x.com",
	})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if err := svc.Revoke(ctx, result.Token, owner); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	invalidations := len(cache.invalidated)

	for i := 0; i < 3; i++ {
		if _, err := svc.Validate(ctx, result.Token, "bob@x.com"); !errors.Is(err, ErrRevoked) {
			t.Fatalf("Validate() after revoke = %v, want ErrRevoked", err)
		}
	}

	// Second revoke succeeds silently and does not invalidate again.
	if err := svc.Revoke(ctx, result.Token, owner); err != nil {
		t.Fatalf("repeat Revoke() error = %v, want nil", err)
	}
	if len(cache.invalidated) != invalidations {
		t.Errorf("idempotent Revoke() triggered extra cache invalidation")
	}
}

func TestRevokeByNonOwner(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	owner := uuid.New()
	report := store.addReport(owner)
	svc, _ := newTestService(store)

	result, err := svc.Issue(ctx, owner, IssueParams{
		ReportIDs:      []uuid.UUID{report},
		RecipientEmail: "bob@x.com",
	})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if err := svc.Revoke(ctx, result.Token, uuid.New()); !errors.Is(err, ErrNotFoundOrForbidden) {
		t.Errorf("Revoke() by non-owner = %v, want ErrNotFoundOrForbidden", err)
	}
	if err := svc.Revoke(ctx, "no-such-token", uuid.New()); !errors.Is(err, ErrNotFoundOrForbidden) {
		t.Errorf("Revoke() of missing token = %v, want ErrNotFoundOrForbidden", err)
	}

	// Token is still live for the intended recipient.
	if _, err := svc.Validate(ctx, result.Token, "bob@x.com"); err != nil {
		t.Errorf("Validate() after failed revoke = %v, want success", err)
	}
}

func TestRevokedWinsOverExpired(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	owner := uuid.New()
	report := store.addReport(owner)
	svc, _ := newTestService(store)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	result, err := svc.Issue(ctx, owner, IssueParams{
		ReportIDs:      []uuid.UUID{report},
		RecipientEmail: "bob@x.com",
		ExpiresInDays:  1,
	})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if err := svc.Revoke(ctx, result.Token, owner); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}

	// Both revoked and long past expiry: revoked is authoritative.
	svc.now = func() time.Time { return now.Add(10 * 24 * time.Hour) }
	if _, err := svc.Validate(ctx, result.Token, "bob@x.com"); !errors.Is(err, ErrRevoked) {
		t.Errorf("Validate() = %v, want ErrRevoked to take priority over expiry", err)
	}
}

func TestRecipientBinding(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	owner := uuid.New()
	report := store.addReport(owner)
	svc, _ := newTestService(store)

	result, err := svc.Issue(ctx, owner, IssueParams{
		ReportIDs:      []uuid.UUID{report},
		RecipientEmail: "a@x.com",
	})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := svc.Validate(ctx, result.Token, ""); !errors.Is(err, ErrAuthRequired) {
		t.Errorf("anonymous Validate() = %v, want ErrAuthRequired", err)
	}
	if _, err := svc.Validate(ctx, result.Token, "A@X.COM"); err != nil {
		t.Errorf("case-insensitive Validate() = %v, want success", err)
	}
	if _, err := svc.Validate(ctx, result.Token, "c@x.com"); !errors.Is(err, ErrNotRecipient) {
		t.Errorf("wrong-recipient Validate() = %v, want ErrNotRecipient", err)
	}
}

func TestValidateExpiryBoundary(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	owner := uuid.New()
	report := store.addReport(owner)
	svc, _ := newTestService(store)

	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	result, err := svc.Issue(ctx, owner, IssueParams{
		ReportIDs:      []uuid.UUID{report},
		RecipientEmail: "bob@x.com",
		ExpiresInDays:  1,
	})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	boundary := issued.Add(24 * time.Hour)
	if !result.ExpiresAt.Equal(boundary) {
		t.Fatalf("ExpiresAt = %v, want %v", result.ExpiresAt, boundary)
	}

	// Still valid right up to and including the boundary instant.
	svc.now = func() time.Time { return boundary }
	if _, err := svc.Validate(ctx, result.Token, "bob@x.com"); err != nil {
		t.Errorf("Validate() at boundary = %v, want success", err)
	}

	// Expired strictly after it.
	svc.now = func() time.Time { return boundary.Add(time.Nanosecond) }
	if _, err := svc.Validate(ctx, result.Token, "bob@x.com"); !errors.Is(err, ErrExpired) {
		t.Errorf("Validate() past boundary = %v, want ErrExpired", err)
	}
}

func TestValidateAfterAllReportsDeleted(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	owner := uuid.New()
	report := store.addReport(owner)
	svc, _ := newTestService(store)

	result, err := svc.Issue(ctx, owner, IssueParams{
		ReportIDs:      []uuid.UUID{report},
		RecipientEmail: "bob@x.com",
	})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// Owner deletes the report; the link rows cascade away.
	delete(store.reports, report)

	details, err := svc.Validate(ctx, result.Token, "bob@x.com")
	if err != nil {
		t.Fatalf("Validate() after report deletion = %v, want success with empty set", err)
	}
	if len(details.Reports) != 0 {
		t.Errorf("Validate() reports = %v, want empty", details.Reports)
	}
}

func TestValidateTransientFailureIsNotADenial(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.failGet = errors.New("connection refused")
	svc, _ := newTestService(store)

	_, err := svc.Validate(ctx, "some-token", "bob@x.com")
	if err == nil {
		t.Fatal("Validate() should surface the storage failure")
	}
	if IsDenial(err) {
		t.Errorf("storage failure %v must not look like a token denial", err)
	}
}

func TestListReceivedFiltersLiveSharesOnly(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	owner := uuid.New()
	store.owners[owner] = models.PublicInfo{Name: "Owner", Email: "owner@x.com"}
	r1 := store.addReport(owner)
	r2 := store.addReport(owner)
	r3 := store.addReport(owner)
	svc, _ := newTestService(store)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	live, err := svc.Issue(ctx, owner, IssueParams{ReportIDs: []uuid.UUID{r1}, RecipientEmail: "Bob@X.com"})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	revoked, err := svc.Issue(ctx, owner, IssueParams{ReportIDs: []uuid.UUID{r2}, RecipientEmail: "bob@x.com"})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if err := svc.Revoke(ctx, revoked.Token, owner); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if _, err := svc.Issue(ctx, owner, IssueParams{ReportIDs: []uuid.UUID{r3}, RecipientEmail: "carol@x.com"}); err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	shares, err := svc.ListReceived(ctx, "BOB@x.com")
	if err != nil {
		t.Fatalf("ListReceived() error = %v", err)
	}
	if len(shares) != 1 || shares[0].Token != live.Token {
		t.Errorf("ListReceived() = %+v, want only the live bob share", shares)
	}

	// The issuer's own listing still shows everything, revoked included.
	issued, err := svc.ListIssued(ctx, owner)
	if err != nil {
		t.Fatalf("ListIssued() error = %v", err)
	}
	if len(issued) != 3 {
		t.Errorf("ListIssued() = %d tokens, want 3", len(issued))
	}
}

func TestIssueDeduplicatesReportIDs(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	owner := uuid.New()
	report := store.addReport(owner)
	svc, _ := newTestService(store)

	result, err := svc.Issue(ctx, owner, IssueParams{
		ReportIDs:      []uuid.UUID{report, report, report},
		RecipientEmail: "bob@x.com",
	})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	details, err := svc.Validate(ctx, result.Token, "bob@x.com")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(details.Reports) != 1 {
		t.Errorf("Validate() reports = %d, want 1 after dedupe", len(details.Reports))
	}
}

func TestGenerateTokenUniqueAndOpaque(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		tok, err := generateToken()
		if err != nil {
			t.Fatalf("generateToken() error = %v", err)
		}
		if len(tok) != 43 {
			t.Fatalf("generateToken() length = %d, want 43", len(tok))
		}
		if seen[tok] {
			t.Fatalf("generateToken() produced a duplicate: %s", tok)
		}
		seen[tok] = true
	}
}
