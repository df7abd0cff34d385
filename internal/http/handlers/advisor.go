package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/courseloop/courseloop-api/internal/models"
	"github.com/courseloop/courseloop-api/internal/service"
)

// AdvisorHandler handles course recommendation endpoints.
type AdvisorHandler struct {
	advisorSvc *service.AdvisorService
}

// NewAdvisorHandler creates a new advisor handler.
func NewAdvisorHandler(advisorSvc *service.AdvisorService) *AdvisorHandler {
	return &AdvisorHandler{advisorSvc: advisorSvc}
}

// RecommendInput represents a recommendation request.
type RecommendInput struct {
	Body struct {
		Prompt string `json:"prompt" minLength:"1" maxLength:"500" doc:"The learning goal to match against the catalog"`
	}
}

// RecommendOutput represents a recommendation response.
type RecommendOutput struct {
	Body *models.RecommendationResult
}

// Recommend matches the catalog against a learning goal using the external
// advisor. Subject to the daily request ledger.
func (h *AdvisorHandler) Recommend(ctx context.Context, input *RecommendInput) (*RecommendOutput, error) {
	result, err := h.advisorSvc.Recommend(ctx, input.Body.Prompt)
	switch {
	case errors.Is(err, service.ErrInvalidPrompt):
		return nil, huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, service.ErrQuotaExhausted):
		return nil, huma.Error429TooManyRequests("daily request limit reached, try again tomorrow")
	case errors.Is(err, service.ErrAdvisorDisabled):
		return nil, huma.Error503ServiceUnavailable("advisor is not configured")
	case errors.Is(err, service.ErrNoCourses):
		return nil, huma.Error404NotFound("no courses available to recommend")
	case errors.Is(err, service.ErrLedgerUnavailable):
		return nil, huma.Error500InternalServerError("failed to record usage")
	case err != nil:
		return nil, huma.Error502BadGateway("advisor request failed")
	}
	return &RecommendOutput{Body: result}, nil
}

// SuggestionsInput represents a quota-free suggestion request.
type SuggestionsInput struct {
	Interest string `query:"interest" minLength:"1" maxLength:"200" doc:"Interest keywords to match against the catalog"`
}

// SuggestionsOutput represents keyword-matched courses.
type SuggestionsOutput struct {
	Body struct {
		Courses []*models.Course `json:"courses"`
		Count   int              `json:"count"`
	}
}

// Suggestions returns keyword matches from the catalog without spending
// ledger quota.
func (h *AdvisorHandler) Suggestions(ctx context.Context, input *SuggestionsInput) (*SuggestionsOutput, error) {
	courses, err := h.advisorSvc.Suggestions(ctx, input.Interest)
	if errors.Is(err, service.ErrInvalidPrompt) {
		return nil, huma.Error422UnprocessableEntity("interest is required")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to search courses")
	}

	out := &SuggestionsOutput{}
	out.Body.Courses = courses
	out.Body.Count = len(courses)
	if out.Body.Courses == nil {
		out.Body.Courses = []*models.Course{}
	}
	return out, nil
}
