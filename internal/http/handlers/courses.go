package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/courseloop/courseloop-api/internal/models"
	"github.com/courseloop/courseloop-api/internal/service"
)

// CourseHandler handles catalog and enrollment endpoints.
type CourseHandler struct {
	courseSvc *service.CourseService
}

// NewCourseHandler creates a new course handler.
func NewCourseHandler(courseSvc *service.CourseService) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc}
}

// CourseListOutput represents a list of courses.
type CourseListOutput struct {
	Body struct {
		Courses []*models.Course `json:"courses"`
		Count   int              `json:"count"`
	}
}

func courseList(courses []*models.Course) *CourseListOutput {
	out := &CourseListOutput{}
	out.Body.Courses = courses
	out.Body.Count = len(courses)
	if out.Body.Courses == nil {
		out.Body.Courses = []*models.Course{}
	}
	return out
}

// ListCoursesInput carries optional catalog filters.
type ListCoursesInput struct {
	Search string `query:"search" required:"false" doc:"Filter by keyword in title, description or content"`
}

// ListCourses returns the public catalog, optionally filtered by keyword.
func (h *CourseHandler) ListCourses(ctx context.Context, input *ListCoursesInput) (*CourseListOutput, error) {
	courses, err := h.courseSvc.Search(ctx, input.Search)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list courses")
	}
	return courseList(courses), nil
}

// GetCourseInput identifies a single course.
type GetCourseInput struct {
	ID string `path:"id" doc:"Course ID"`
}

// GetCourseOutput represents a single course.
type GetCourseOutput struct {
	Body *models.Course
}

// GetCourse returns one course by ID.
func (h *CourseHandler) GetCourse(ctx context.Context, input *GetCourseInput) (*GetCourseOutput, error) {
	course, err := h.courseSvc.Get(ctx, input.ID)
	if errors.Is(err, service.ErrCourseNotFound) {
		return nil, huma.Error404NotFound("course not found")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get course")
	}
	return &GetCourseOutput{Body: course}, nil
}

// CreateCourseInput represents a course creation request.
type CreateCourseInput struct {
	Body struct {
		Title       string `json:"title" minLength:"1" maxLength:"200"`
		Description string `json:"description" maxLength:"2000"`
		Content     string `json:"content"`
	}
}

// CreateCourseOutput represents a course creation response.
type CreateCourseOutput struct {
	Status int
	Body   *models.Course
}

// CreateCourse adds a course owned by the calling instructor.
func (h *CourseHandler) CreateCourse(ctx context.Context, input *CreateCourseInput) (*CreateCourseOutput, error) {
	course, err := h.courseSvc.Create(ctx, getUserID(ctx), input.Body.Title, input.Body.Description, input.Body.Content)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to create course")
	}
	return &CreateCourseOutput{Status: 201, Body: course}, nil
}

// UpdateCourseInput represents a course update request.
type UpdateCourseInput struct {
	ID   string `path:"id" doc:"Course ID"`
	Body struct {
		Title       string `json:"title,omitempty" maxLength:"200"`
		Description string `json:"description,omitempty" maxLength:"2000"`
		Content     string `json:"content,omitempty"`
	}
}

// UpdateCourseOutput represents a course update response.
type UpdateCourseOutput struct {
	Body *models.Course
}

// UpdateCourse modifies a course owned by the calling instructor.
func (h *CourseHandler) UpdateCourse(ctx context.Context, input *UpdateCourseInput) (*UpdateCourseOutput, error) {
	course, err := h.courseSvc.Update(ctx, input.ID, getUserID(ctx), input.Body.Title, input.Body.Description, input.Body.Content)
	if err != nil {
		return nil, mapCourseError(err, "failed to update course")
	}
	return &UpdateCourseOutput{Body: course}, nil
}

// DeleteCourseInput identifies the course to delete.
type DeleteCourseInput struct {
	ID string `path:"id" doc:"Course ID"`
}

// DeleteCourseOutput represents a deletion response.
type DeleteCourseOutput struct {
	Body struct {
		Message string `json:"message"`
	}
}

// DeleteCourse removes a course owned by the calling instructor.
func (h *CourseHandler) DeleteCourse(ctx context.Context, input *DeleteCourseInput) (*DeleteCourseOutput, error) {
	if err := h.courseSvc.Delete(ctx, input.ID, getUserID(ctx)); err != nil {
		return nil, mapCourseError(err, "failed to delete course")
	}
	out := &DeleteCourseOutput{}
	out.Body.Message = "course deleted"
	return out, nil
}

// EnrollInput identifies the course to enroll in.
type EnrollInput struct {
	ID string `path:"id" doc:"Course ID"`
}

// EnrollOutput represents an enrollment response.
type EnrollOutput struct {
	Status int
	Body   struct {
		Message string `json:"message"`
	}
}

// Enroll adds the calling student to a course.
func (h *CourseHandler) Enroll(ctx context.Context, input *EnrollInput) (*EnrollOutput, error) {
	err := h.courseSvc.Enroll(ctx, input.ID, getUserID(ctx))
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		return nil, huma.Error404NotFound("course not found")
	case errors.Is(err, service.ErrAlreadyEnrolled):
		return nil, huma.Error409Conflict("already enrolled in this course")
	case err != nil:
		return nil, huma.Error500InternalServerError("failed to enroll")
	}

	out := &EnrollOutput{Status: 201}
	out.Body.Message = "enrolled"
	return out, nil
}

// ListEnrolled returns the calling student's courses.
func (h *CourseHandler) ListEnrolled(ctx context.Context, input *struct{}) (*CourseListOutput, error) {
	courses, err := h.courseSvc.EnrolledCourses(ctx, getUserID(ctx))
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list enrolled courses")
	}
	return courseList(courses), nil
}

// ListTeaching returns the calling instructor's courses.
func (h *CourseHandler) ListTeaching(ctx context.Context, input *struct{}) (*CourseListOutput, error) {
	courses, err := h.courseSvc.ListByInstructor(ctx, getUserID(ctx))
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list courses")
	}
	return courseList(courses), nil
}

// RosterInput identifies the course whose roster is requested.
type RosterInput struct {
	ID string `path:"id" doc:"Course ID"`
}

// RosterOutput represents a course roster.
type RosterOutput struct {
	Body struct {
		Students []*models.EnrolledStudent `json:"students"`
		Count    int                       `json:"count"`
	}
}

// Roster returns the students enrolled in one of the caller's courses.
func (h *CourseHandler) Roster(ctx context.Context, input *RosterInput) (*RosterOutput, error) {
	students, err := h.courseSvc.Roster(ctx, input.ID, getUserID(ctx))
	if err != nil {
		return nil, mapCourseError(err, "failed to get roster")
	}
	out := &RosterOutput{}
	out.Body.Students = students
	out.Body.Count = len(students)
	if out.Body.Students == nil {
		out.Body.Students = []*models.EnrolledStudent{}
	}
	return out, nil
}

// mapCourseError converts course service errors to HTTP errors.
func mapCourseError(err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		return huma.Error404NotFound("course not found")
	case errors.Is(err, service.ErrNotCourseOwner):
		return huma.Error403Forbidden("course belongs to another instructor")
	default:
		return huma.Error500InternalServerError(fallback)
	}
}
