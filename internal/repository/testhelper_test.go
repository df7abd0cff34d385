package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/courseloop/courseloop-api/internal/database/migrations"
	"github.com/courseloop/courseloop-api/internal/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
// It runs migrations and returns a database connection that will be cleaned up
// when the test completes.
func setupTestDB(t *testing.T) *sql.DB {
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

	return db
}

// setupTestRepos creates all repositories using a test database.
func setupTestRepos(t *testing.T) *Repositories {
	t.Helper()
	db := setupTestDB(t)
	return NewRepositories(db)
}

// insertTestUser is a helper to create a user with the given role.
func insertTestUser(t *testing.T, repos *Repositories, username string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: "x",
		Role:         role,
	}
	if err := repos.User.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to insert test user: %v", err)
	}
	return user
}

// insertTestCourse is a helper to create a course owned by the given instructor.
func insertTestCourse(t *testing.T, repos *Repositories, title, instructorID string) *models.Course {
	t.Helper()
	course := &models.Course{
		Title:        title,
		Description:  title + " description",
		Content:      title + " content",
		InstructorID: instructorID,
	}
	if err := repos.Course.Create(context.Background(), course); err != nil {
		t.Fatalf("failed to insert test course: %v", err)
	}
	return course
}

// insertUsageDay is a helper to seed a ledger record for an arbitrary day.
func insertUsageDay(t *testing.T, db *sql.DB, day string, requestsToday, maxRequests int) {
	t.Helper()
	ts := time.Now().UTC().Format(time.RFC3339)
	query := `INSERT INTO api_usage (id, day, total_requests, requests_today, max_requests, last_reset, is_active, admin_notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, '', ?, ?)`
	if _, err := db.Exec(query, "test-"+day, day, requestsToday, requestsToday, maxRequests, ts, ts, ts); err != nil {
		t.Fatalf("failed to insert usage day: %v", err)
	}
}
