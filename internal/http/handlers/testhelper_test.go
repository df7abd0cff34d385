package handlers

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/courseloop/courseloop-api/internal/config"
	"github.com/courseloop/courseloop-api/internal/database/migrations"
	"github.com/courseloop/courseloop-api/internal/http/mw"
	"github.com/courseloop/courseloop-api/internal/models"
	"github.com/courseloop/courseloop-api/internal/repository"
	"github.com/courseloop/courseloop-api/internal/service"
)

func newTestServices(t *testing.T) (*service.Services, *repository.Repositories) {
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

	cfg := &config.Config{
		JWTSecret:       "test-secret",
		JWTExpiry:       time.Hour,
		RefreshExpiry:   24 * time.Hour,
		UsageDailyLimit: models.DefaultMaxRequests,
		CourseListLimit: 100,
	}
	repos := repository.NewRepositories(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return service.NewServices(cfg, repos, logger), repos
}

// asUser returns a context carrying the given user's claims, as the auth
// middleware would produce.
func asUser(user *models.User) context.Context {
	return context.WithValue(context.Background(), mw.UserClaimsKey, &mw.UserClaims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	})
}

func createUser(t *testing.T, repos *repository.Repositories, username string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: "x",
		Role:         role,
	}
	if err := repos.User.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func createCourse(t *testing.T, repos *repository.Repositories, title, instructorID string) *models.Course {
	t.Helper()
	course := &models.Course{
		Title:        title,
		Description:  title + " description",
		Content:      title + " content",
		InstructorID: instructorID,
	}
	if err := repos.Course.Create(context.Background(), course); err != nil {
		t.Fatalf("failed to create course: %v", err)
	}
	return course
}

// wantStatus asserts that a handler error carries the given HTTP status.
func wantStatus(t *testing.T, err error, status int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d, got nil", status)
	}
	statusErr, ok := err.(huma.StatusError)
	if !ok {
		t.Fatalf("error %v does not carry a status", err)
	}
	if statusErr.GetStatus() != status {
		t.Errorf("status = %d, want %d", statusErr.GetStatus(), status)
	}
}
