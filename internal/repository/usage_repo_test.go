package repository

import (
	"context"
	"testing"
	"time"

	"github.com/courseloop/courseloop-api/internal/models"
)

const testDay = "2025-06-01"

// ========================================
// GetOrCreateDay Tests
// ========================================

func TestUsageRepository_GetOrCreateDay_CreatesWithDefaults(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()
	now := time.Now().UTC()

	record, err := repos.Usage.GetOrCreateDay(ctx, testDay, models.DefaultMaxRequests, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Day != testDay {
		t.Errorf("Day = %q, want %q", record.Day, testDay)
	}
	if record.RequestsToday != 0 {
		t.Errorf("RequestsToday = %d, want 0", record.RequestsToday)
	}
	if record.TotalRequests != 0 {
		t.Errorf("TotalRequests = %d, want 0", record.TotalRequests)
	}
	if record.MaxRequests != 250 {
		t.Errorf("MaxRequests = %d, want 250", record.MaxRequests)
	}
	if !record.IsActive {
		t.Error("new record should be active")
	}
}

func TestUsageRepository_GetOrCreateDay_ClampsCeiling(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()
	now := time.Now().UTC()

	tests := []struct {
		name    string
		day     string
		ceiling int
		want    int
	}{
		{"above maximum", "2025-06-01", 5000, models.MaxMaxRequests},
		{"zero", "2025-06-02", 0, models.MinMaxRequests},
		{"negative", "2025-06-03", -10, models.MinMaxRequests},
		{"in range", "2025-06-04", 250, 250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := repos.Usage.GetOrCreateDay(ctx, tt.day, tt.ceiling, now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			// The ceiling must never be persisted outside [1, 1000]
			if record.MaxRequests != tt.want {
				t.Errorf("MaxRequests = %d, want %d", record.MaxRequests, tt.want)
			}
		})
	}
}

func TestUsageRepository_GetOrCreateDay_Idempotent(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()
	now := time.Now().UTC()

	first, err := repos.Usage.GetOrCreateDay(ctx, testDay, 250, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Repeated calls return the same logical record, never a duplicate
	second, err := repos.Usage.GetOrCreateDay(ctx, testDay, 250, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("record IDs differ: %q vs %q", first.ID, second.ID)
	}
	if second.RequestsToday != first.RequestsToday || second.MaxRequests != first.MaxRequests {
		t.Error("repeated reads should return identical field values")
	}

	records, err := repos.Usage.Since(ctx, testDay, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected exactly one record for the day, got %d", len(records))
	}
}

// ========================================
// Increment Tests
// ========================================

func TestUsageRepository_Increment(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := repos.Usage.GetOrCreateDay(ctx, testDay, 250, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 1; i <= 3; i++ {
		record, err := repos.Usage.Increment(ctx, testDay, now)
		if err != nil {
			t.Fatalf("increment %d failed: %v", i, err)
		}
		if record.RequestsToday != i {
			t.Errorf("RequestsToday = %d, want %d", record.RequestsToday, i)
		}
		if record.TotalRequests != i {
			t.Errorf("TotalRequests = %d, want %d", record.TotalRequests, i)
		}
	}
}

func TestUsageRepository_Increment_PastCeiling(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := repos.Usage.GetOrCreateDay(ctx, testDay, 2, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Increment never enforces the ceiling: three adds against max=2 land at 3.
	// This is the documented legacy behavior of the two-step interface.
	var record *models.UsageRecord
	var err error
	for i := 0; i < 3; i++ {
		record, err = repos.Usage.Increment(ctx, testDay, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if record.RequestsToday != 3 {
		t.Errorf("RequestsToday = %d, want 3 (overshoot permitted)", record.RequestsToday)
	}
	if !record.IsLimitReached() {
		t.Error("record past the ceiling should report limit reached")
	}
}

func TestUsageRepository_Increment_MissingDay(t *testing.T) {
	repos := setupTestRepos(t)

	if _, err := repos.Usage.Increment(context.Background(), "1999-01-01", time.Now()); err == nil {
		t.Error("expected error incrementing a day with no record")
	}
}

// ========================================
// TryAcquire Tests
// ========================================

func TestUsageRepository_TryAcquire_NeverOvershoots(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := repos.Usage.GetOrCreateDay(ctx, testDay, 2, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	acquired := 0
	for i := 0; i < 5; i++ {
		record, ok, err := repos.Usage.TryAcquire(ctx, testDay, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			acquired++
		}
		if record.RequestsToday > record.MaxRequests {
			t.Fatalf("RequestsToday = %d exceeds ceiling %d", record.RequestsToday, record.MaxRequests)
		}
	}
	if acquired != 2 {
		t.Errorf("acquired %d slots, want 2", acquired)
	}
}

func TestUsageRepository_TryAcquire_Inactive(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()
	now := time.Now().UTC()

	record, err := repos.Usage.GetOrCreateDay(ctx, testDay, 250, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	record.IsActive = false
	if err := repos.Usage.Save(ctx, record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, ok, err := repos.Usage.TryAcquire(ctx, testDay, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("inactive record must refuse slot acquisition")
	}
}

// ========================================
// Reset Tests
// ========================================

func TestUsageRepository_Reset(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := repos.Usage.GetOrCreateDay(ctx, testDay, 250, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 4; i++ {
		if _, err := repos.Usage.Increment(ctx, testDay, now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	resetAt := now.Add(2 * time.Hour).Truncate(time.Second)
	record, err := repos.Usage.Reset(ctx, testDay, resetAt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.RequestsToday != 0 {
		t.Errorf("RequestsToday = %d, want 0", record.RequestsToday)
	}
	if record.TotalRequests != 4 {
		t.Errorf("TotalRequests = %d, want 4 (reset must not touch it)", record.TotalRequests)
	}
	if record.MaxRequests != 250 {
		t.Errorf("MaxRequests = %d, want 250 (reset must not touch it)", record.MaxRequests)
	}
	if !record.LastReset.Equal(resetAt) {
		t.Errorf("LastReset = %v, want %v", record.LastReset, resetAt)
	}
}

// ========================================
// Save Tests
// ========================================

func TestUsageRepository_Save_Settings(t *testing.T) {
	repos := setupTestRepos(t)
	ctx := context.Background()
	now := time.Now().UTC()

	record, err := repos.Usage.GetOrCreateDay(ctx, testDay, 250, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record.MaxRequests = 500
	record.IsActive = false
	record.AdminNotes = "maintenance window"
	if err := repos.Usage.Save(ctx, record); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repos.Usage.GetOrCreateDay(ctx, testDay, 250, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.MaxRequests != 500 {
		t.Errorf("MaxRequests = %d, want 500", got.MaxRequests)
	}
	if got.IsActive {
		t.Error("IsActive should be false after save")
	}
	if got.AdminNotes != "maintenance window" {
		t.Errorf("AdminNotes = %q, want %q", got.AdminNotes, "maintenance window")
	}
}

// ========================================
// Since Tests
// ========================================

func TestUsageRepository_Since_Ordering(t *testing.T) {
	db := setupTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	days := []string{"2025-06-01", "2025-06-02", "2025-06-03"}
	for i, day := range days {
		insertUsageDay(t, db, day, i*10, 250)
	}

	asc, err := repos.Usage.Since(ctx, "2025-06-01", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(asc) != 3 {
		t.Fatalf("expected 3 records, got %d", len(asc))
	}
	if asc[0].Day != "2025-06-01" || asc[2].Day != "2025-06-03" {
		t.Errorf("ascending order wrong: %q .. %q", asc[0].Day, asc[2].Day)
	}

	desc, err := repos.Usage.Since(ctx, "2025-06-01", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if desc[0].Day != "2025-06-03" {
		t.Errorf("descending order wrong: first = %q", desc[0].Day)
	}

	// Window excludes earlier days
	later, err := repos.Usage.Since(ctx, "2025-06-02", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(later) != 2 {
		t.Errorf("expected 2 records since 2025-06-02, got %d", len(later))
	}
}
