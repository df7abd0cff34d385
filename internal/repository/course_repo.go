package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/courseloop/courseloop-api/internal/models"
)

// SQLiteCourseRepository implements CourseRepository for SQLite.
type SQLiteCourseRepository struct {
	db *sql.DB
}

// NewSQLiteCourseRepository creates a new SQLite course repository.
func NewSQLiteCourseRepository(db *sql.DB) *SQLiteCourseRepository {
	return &SQLiteCourseRepository{db: db}
}

const courseColumns = `c.id, c.title, c.description, c.content, c.instructor_id, u.username, c.created_at, c.updated_at`

func (r *SQLiteCourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = ulid.Make().String()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now

	query := `INSERT INTO courses (id, title, description, content, instructor_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		course.ID, course.Title, course.Description, course.Content, course.InstructorID,
		course.CreatedAt.Format(time.RFC3339), course.UpdatedAt.Format(time.RFC3339))
	return err
}

func (r *SQLiteCourseRepository) GetByID(ctx context.Context, id string) (*models.Course, error) {
	query := `SELECT ` + courseColumns + `
		FROM courses c JOIN users u ON u.id = c.instructor_id
		WHERE c.id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	course, err := scanCourse(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return course, err
}

func (r *SQLiteCourseRepository) List(ctx context.Context, limit int) ([]*models.Course, error) {
	query := `SELECT ` + courseColumns + `
		FROM courses c JOIN users u ON u.id = c.instructor_id
		ORDER BY c.created_at DESC LIMIT ?`
	return r.queryCourses(ctx, query, limit)
}

func (r *SQLiteCourseRepository) ListByInstructor(ctx context.Context, instructorID string, limit int) ([]*models.Course, error) {
	query := `SELECT ` + courseColumns + `
		FROM courses c JOIN users u ON u.id = c.instructor_id
		WHERE c.instructor_id = ?
		ORDER BY c.created_at DESC LIMIT ?`
	return r.queryCourses(ctx, query, instructorID, limit)
}

func (r *SQLiteCourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	query := `UPDATE courses SET title = ?, description = ?, content = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		course.Title, course.Description, course.Content,
		course.UpdatedAt.Format(time.RFC3339), course.ID)
	return err
}

func (r *SQLiteCourseRepository) Delete(ctx context.Context, id string) error {
	// Enrollments cascade via the foreign key
	_, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = ?`, id)
	return err
}

func (r *SQLiteCourseRepository) Search(ctx context.Context, keyword string, limit int) ([]*models.Course, error) {
	pattern := "%" + escapeLike(keyword) + "%"
	query := `SELECT ` + courseColumns + `
		FROM courses c JOIN users u ON u.id = c.instructor_id
		WHERE c.title LIKE ? ESCAPE '\'
		   OR c.description LIKE ? ESCAPE '\'
		   OR c.content LIKE ? ESCAPE '\'
		ORDER BY c.created_at DESC LIMIT ?`
	return r.queryCourses(ctx, query, pattern, pattern, pattern, limit)
}

func (r *SQLiteCourseRepository) Enroll(ctx context.Context, courseID, studentID string, at time.Time) error {
	query := `INSERT INTO enrollments (course_id, student_id, enrolled_at) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, courseID, studentID, at.UTC().Format(time.RFC3339))
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicate
	}
	return err
}

func (r *SQLiteCourseRepository) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM enrollments WHERE course_id = ? AND student_id = ?`,
		courseID, studentID).Scan(&n)
	return n > 0, err
}

func (r *SQLiteCourseRepository) ListEnrolledByStudent(ctx context.Context, studentID string, limit int) ([]*models.Course, error) {
	query := `SELECT ` + courseColumns + `
		FROM enrollments e
		JOIN courses c ON c.id = e.course_id
		JOIN users u ON u.id = c.instructor_id
		WHERE e.student_id = ?
		ORDER BY e.enrolled_at DESC LIMIT ?`
	return r.queryCourses(ctx, query, studentID, limit)
}

func (r *SQLiteCourseRepository) Roster(ctx context.Context, courseID string) ([]*models.EnrolledStudent, error) {
	query := `SELECT u.id, u.username, u.email, e.enrolled_at
		FROM enrollments e JOIN users u ON u.id = e.student_id
		WHERE e.course_id = ?
		ORDER BY e.enrolled_at ASC`
	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roster []*models.EnrolledStudent
	for rows.Next() {
		var s models.EnrolledStudent
		var enrolledAt string
		if err := rows.Scan(&s.ID, &s.Username, &s.Email, &enrolledAt); err != nil {
			return nil, err
		}
		s.EnrolledAt, _ = time.Parse(time.RFC3339, enrolledAt)
		roster = append(roster, &s)
	}
	return roster, rows.Err()
}

func (r *SQLiteCourseRepository) queryCourses(ctx context.Context, query string, args ...any) ([]*models.Course, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []*models.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	return courses, rows.Err()
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (*models.Course, error) {
	var course models.Course
	var createdAt, updatedAt string
	err := row.Scan(&course.ID, &course.Title, &course.Description, &course.Content,
		&course.InstructorID, &course.InstructorUsername, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	course.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	course.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &course, nil
}

// escapeLike escapes LIKE wildcards in a user-supplied keyword.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
