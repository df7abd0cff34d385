package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/courseloop/courseloop-api/internal/config"
	"github.com/courseloop/courseloop-api/internal/database/migrations"
	"github.com/courseloop/courseloop-api/internal/models"
	"github.com/courseloop/courseloop-api/internal/repository"
)

// testEnv bundles everything service tests need.
type testEnv struct {
	cfg    *config.Config
	db     *sql.DB
	repos  *repository.Repositories
	logger *slog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sql.Open("libsql", ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	if err := migrations.Run(db, nil); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	return &testEnv{
		cfg: &config.Config{
			JWTSecret:       "test-secret",
			JWTExpiry:       time.Hour,
			RefreshExpiry:   24 * time.Hour,
			UsageDailyLimit: models.DefaultMaxRequests,
			CourseListLimit: 100,
			AdvisorAPIKey:   "test-key",
			AdvisorModel:    "test-model",
		},
		db:     db,
		repos:  repository.NewRepositories(db),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// insertUser creates a user directly through the repository.
func (e *testEnv) insertUser(t *testing.T, username string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: "x",
		Role:         role,
	}
	if err := e.repos.User.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to insert user: %v", err)
	}
	return user
}

// insertCourse creates a course owned by the given instructor.
func (e *testEnv) insertCourse(t *testing.T, title, instructorID string) *models.Course {
	t.Helper()
	course := &models.Course{
		Title:        title,
		Description:  title + " description",
		Content:      title + " content",
		InstructorID: instructorID,
	}
	if err := e.repos.Course.Create(context.Background(), course); err != nil {
		t.Fatalf("failed to insert course: %v", err)
	}
	return course
}

// insertUsageDay seeds a ledger record for an arbitrary day.
func (e *testEnv) insertUsageDay(t *testing.T, day string, requestsToday, maxRequests int) {
	t.Helper()
	ts := time.Now().UTC().Format(time.RFC3339)
	query := `INSERT INTO api_usage (id, day, total_requests, requests_today, max_requests, last_reset, is_active, admin_notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, '', ?, ?)`
	if _, err := e.db.Exec(query, "test-"+day, day, requestsToday, requestsToday, maxRequests, ts, ts, ts); err != nil {
		t.Fatalf("failed to insert usage day: %v", err)
	}
}
