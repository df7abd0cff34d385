// Package repository defines repository interfaces for data access.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/courseloop/courseloop-api/internal/models"
)

// ErrDuplicate is returned when a unique constraint would be violated.
var ErrDuplicate = errors.New("duplicate record")

// UserRepository defines methods for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// CourseRepository defines methods for course and enrollment data access.
type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id string) (*models.Course, error)
	// List returns courses with instructor usernames joined, newest first.
	List(ctx context.Context, limit int) ([]*models.Course, error)
	ListByInstructor(ctx context.Context, instructorID string, limit int) ([]*models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
	// Search matches keyword case-insensitively against title, description and content.
	Search(ctx context.Context, keyword string, limit int) ([]*models.Course, error)

	Enroll(ctx context.Context, courseID, studentID string, at time.Time) error
	IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error)
	ListEnrolledByStudent(ctx context.Context, studentID string, limit int) ([]*models.Course, error)
	Roster(ctx context.Context, courseID string) ([]*models.EnrolledStudent, error)
}

// UsageRepository defines methods for the daily API usage ledger.
//
// GetOrCreateDay is an idempotent upsert keyed on the normalized day so
// concurrent first reads cannot create duplicate records. Increment and
// TryAcquire are single-statement updates; the check-then-increment race of
// the two-step interface lives in the caller, not here.
type UsageRepository interface {
	// GetOrCreateDay returns the record for the given day, creating it with
	// the supplied ceiling and defaults if absent.
	GetOrCreateDay(ctx context.Context, day string, maxRequests int, now time.Time) (*models.UsageRecord, error)
	// Increment adds one to both counters unconditionally. It never enforces
	// the ceiling; counts can pass max_requests.
	Increment(ctx context.Context, day string, now time.Time) (*models.UsageRecord, error)
	// TryAcquire atomically takes one slot if the record is active and under
	// its ceiling. Returns the record and whether a slot was taken.
	TryAcquire(ctx context.Context, day string, now time.Time) (*models.UsageRecord, bool, error)
	// Reset zeroes requests_today and stamps last_reset.
	Reset(ctx context.Context, day string, now time.Time) (*models.UsageRecord, error)
	// Save writes the mutable settings fields of an existing record.
	Save(ctx context.Context, record *models.UsageRecord) error
	// Since returns records with day >= the given key, ordered by day.
	Since(ctx context.Context, day string, ascending bool) ([]*models.UsageRecord, error)
}

// Repositories holds all repository instances.
type Repositories struct {
	User   UserRepository
	Course CourseRepository
	Usage  UsageRepository
}

// NewRepositories creates all repository instances backed by SQLite.
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		User:   NewSQLiteUserRepository(db),
		Course: NewSQLiteCourseRepository(db),
		Usage:  NewSQLiteUsageRepository(db),
	}
}
