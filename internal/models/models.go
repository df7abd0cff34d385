// Package models defines the domain models for the application.
package models

import (
	"time"
)

// Role represents a user's role.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// SelfAssignable reports whether the role may be chosen at registration.
// Admin accounts are only created through the bootstrap path.
func (r Role) SelfAssignable() bool {
	return r == RoleStudent || r == RoleInstructor
}

// User represents a registered account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Course represents a course authored by an instructor.
type Course struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	Content            string    `json:"content"`
	InstructorID       string    `json:"instructor_id"`
	InstructorUsername string    `json:"instructor_username,omitempty"` // Joined on read
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Enrollment records a student's membership in a course.
type Enrollment struct {
	CourseID   string    `json:"course_id"`
	StudentID  string    `json:"student_id"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// EnrolledStudent is a roster entry for a course.
type EnrolledStudent struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// Ledger defaults and bounds for the daily request ceiling.
const (
	DefaultMaxRequests = 250
	MinMaxRequests     = 1
	MaxMaxRequests     = 1000
)

// UsageRecord is the per-day ledger entry gating external advisor calls.
// Exactly one record exists per calendar day (UTC), created lazily on first
// access. RequestsToday is reset by an explicit admin action; TotalRequests
// only ever grows.
type UsageRecord struct {
	ID            string    `json:"id"`
	Day           string    `json:"date"` // YYYY-MM-DD, UTC
	TotalRequests int       `json:"total_requests"`
	RequestsToday int       `json:"requests_today"`
	MaxRequests   int       `json:"max_requests"`
	LastReset     time.Time `json:"last_reset"`
	IsActive      bool      `json:"is_active"`
	AdminNotes    string    `json:"admin_notes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsLimitReached reports whether today's count has hit the ceiling.
// Increment never enforces the ceiling, so the count can sit above it.
func (u *UsageRecord) IsLimitReached() bool {
	return u.RequestsToday >= u.MaxRequests
}

// CanMakeRequest reports whether a gated external call is currently allowed.
func (u *UsageRecord) CanMakeRequest() bool {
	return u.IsActive && !u.IsLimitReached()
}

// RemainingRequests returns the number of slots left today.
func (u *UsageRecord) RemainingRequests() int {
	return u.MaxRequests - u.RequestsToday
}

// UsagePercent returns today's usage as a rounded percentage of the ceiling.
func (u *UsageRecord) UsagePercent() int {
	if u.MaxRequests == 0 {
		return 0
	}
	return int(float64(u.RequestsToday)/float64(u.MaxRequests)*100 + 0.5)
}

// ClampMaxRequests bounds a requested ceiling to [MinMaxRequests, MaxMaxRequests].
// Out-of-range values are silently clamped, never rejected.
func ClampMaxRequests(n int) int {
	if n < MinMaxRequests {
		return MinMaxRequests
	}
	if n > MaxMaxRequests {
		return MaxMaxRequests
	}
	return n
}

// DayKey normalizes a time to its UTC calendar-day key.
// All ledger bucketing uses the half-open interval [midnight, midnight+24h).
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Recommendation is a single advisor suggestion enriched with its course.
type Recommendation struct {
	CourseID  string  `json:"course_id"`
	Title     string  `json:"title"`
	Reason    string  `json:"reason"`
	Relevance string  `json:"relevance"`
	Course    *Course `json:"course,omitempty"`
}

// RecommendationResult is the advisor's full reply for a learning goal.
type RecommendationResult struct {
	Analysis         string           `json:"analysis"`
	Recommendations  []Recommendation `json:"recommendations"`
	LearningPath     string           `json:"learning_path"`
	AdditionalAdvice string           `json:"additional_advice"`
	UserPrompt       string           `json:"user_prompt"`
	Note             string           `json:"note,omitempty"` // Set when falling back to canned suggestions
}
