package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/courseloop/courseloop-api/internal/config"
	"github.com/courseloop/courseloop-api/internal/models"
	"github.com/courseloop/courseloop-api/internal/repository"
)

// Course service errors.
var (
	ErrCourseNotFound  = errors.New("course not found")
	ErrNotCourseOwner  = errors.New("course belongs to another instructor")
	ErrAlreadyEnrolled = errors.New("already enrolled in this course")
)

// CourseService handles course catalog and enrollment operations.
type CourseService struct {
	cfg    *config.Config
	repos  *repository.Repositories
	logger *slog.Logger
}

// NewCourseService creates a new course service.
func NewCourseService(cfg *config.Config, repos *repository.Repositories, logger *slog.Logger) *CourseService {
	return &CourseService{
		cfg:    cfg,
		repos:  repos,
		logger: logger,
	}
}

// Create adds a course owned by the given instructor.
func (s *CourseService) Create(ctx context.Context, instructorID, title, description, content string) (*models.Course, error) {
	course := &models.Course{
		Title:        strings.TrimSpace(title),
		Description:  description,
		Content:      content,
		InstructorID: instructorID,
	}
	if err := s.repos.Course.Create(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.logger.Info("course created", "course_id", course.ID, "instructor_id", instructorID)
	return course, nil
}

// Get returns a single course by ID.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repos.Course.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}
	return course, nil
}

// List returns the public catalog, newest first.
func (s *CourseService) List(ctx context.Context) ([]*models.Course, error) {
	return s.repos.Course.List(ctx, s.cfg.CourseListLimit)
}

// ListByInstructor returns the courses owned by an instructor.
func (s *CourseService) ListByInstructor(ctx context.Context, instructorID string) ([]*models.Course, error) {
	return s.repos.Course.ListByInstructor(ctx, instructorID, s.cfg.CourseListLimit)
}

// Update modifies a course. Only the owning instructor may update it.
func (s *CourseService) Update(ctx context.Context, courseID, instructorID, title, description, content string) (*models.Course, error) {
	course, err := s.ownedCourse(ctx, courseID, instructorID)
	if err != nil {
		return nil, err
	}

	if title != "" {
		course.Title = strings.TrimSpace(title)
	}
	if description != "" {
		course.Description = description
	}
	if content != "" {
		course.Content = content
	}
	if err := s.repos.Course.Update(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}
	return course, nil
}

// Delete removes a course and its enrollments. Only the owner may delete it.
func (s *CourseService) Delete(ctx context.Context, courseID, instructorID string) error {
	if _, err := s.ownedCourse(ctx, courseID, instructorID); err != nil {
		return err
	}
	if err := s.repos.Course.Delete(ctx, courseID); err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	s.logger.Info("course deleted", "course_id", courseID, "instructor_id", instructorID)
	return nil
}

// Enroll adds a student to a course.
func (s *CourseService) Enroll(ctx context.Context, courseID, studentID string) error {
	course, err := s.repos.Course.GetByID(ctx, courseID)
	if err != nil {
		return fmt.Errorf("failed to get course: %w", err)
	}
	if course == nil {
		return ErrCourseNotFound
	}

	err = s.repos.Course.Enroll(ctx, courseID, studentID, time.Now().UTC())
	if errors.Is(err, repository.ErrDuplicate) {
		return ErrAlreadyEnrolled
	}
	if err != nil {
		return fmt.Errorf("failed to enroll: %w", err)
	}

	s.logger.Info("student enrolled", "course_id", courseID, "student_id", studentID)
	return nil
}

// EnrolledCourses returns the courses a student is enrolled in.
func (s *CourseService) EnrolledCourses(ctx context.Context, studentID string) ([]*models.Course, error) {
	return s.repos.Course.ListEnrolledByStudent(ctx, studentID, s.cfg.CourseListLimit)
}

// Roster returns the students enrolled in a course. Only the owning
// instructor may view it.
func (s *CourseService) Roster(ctx context.Context, courseID, instructorID string) ([]*models.EnrolledStudent, error) {
	if _, err := s.ownedCourse(ctx, courseID, instructorID); err != nil {
		return nil, err
	}
	return s.repos.Course.Roster(ctx, courseID)
}

// Search returns courses matching a keyword against title, description and
// content. Used for the advisor's offline suggestions.
func (s *CourseService) Search(ctx context.Context, keyword string) ([]*models.Course, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return s.List(ctx)
	}
	return s.repos.Course.Search(ctx, keyword, s.cfg.CourseListLimit)
}

// ownedCourse fetches a course and verifies ownership.
func (s *CourseService) ownedCourse(ctx context.Context, courseID, instructorID string) (*models.Course, error) {
	course, err := s.repos.Course.GetByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	if course == nil {
		return nil, ErrCourseNotFound
	}
	if course.InstructorID != instructorID {
		return nil, ErrNotCourseOwner
	}
	return course, nil
}
