package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/courseloop/courseloop-api/internal/config"
	"github.com/courseloop/courseloop-api/internal/models"
	"github.com/courseloop/courseloop-api/internal/repository"
)

// Advisor service errors.
var (
	ErrInvalidPrompt     = errors.New("prompt must be between 1 and 500 characters")
	ErrQuotaExhausted    = errors.New("daily request limit reached, try again tomorrow")
	ErrAdvisorDisabled   = errors.New("advisor is not configured")
	ErrNoCourses         = errors.New("no courses available to recommend")
	ErrLedgerUnavailable = errors.New("usage ledger unavailable")
)

const maxPromptLength = 500

// advisorCaller abstracts the chat completion client for testing.
type advisorCaller interface {
	Call(ctx context.Context, prompt string) (*AdvisorCallResult, error)
}

// AdvisorService produces course recommendations from a learning goal.
// External calls are gated by the daily usage ledger.
type AdvisorService struct {
	cfg    *config.Config
	repos  *repository.Repositories
	client advisorCaller
	usage  *UsageService
	logger *slog.Logger
}

// NewAdvisorService creates a new advisor service.
func NewAdvisorService(cfg *config.Config, repos *repository.Repositories, client advisorCaller, usage *UsageService, logger *slog.Logger) *AdvisorService {
	return &AdvisorService{
		cfg:    cfg,
		repos:  repos,
		client: client,
		usage:  usage,
		logger: logger,
	}
}

// Recommend asks the external advisor to match the catalog against a
// learning goal. The ledger is checked before the call and charged only
// after it succeeds, so failed calls never consume quota.
func (s *AdvisorService) Recommend(ctx context.Context, prompt string) (*models.RecommendationResult, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" || len(prompt) > maxPromptLength {
		return nil, ErrInvalidPrompt
	}
	if !s.cfg.AdvisorEnabled() {
		return nil, ErrAdvisorDisabled
	}

	allowed, record, err := s.usage.CanMakeRequest(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	if !allowed {
		s.logger.Warn("recommendation refused, quota exhausted",
			"requests_today", record.RequestsToday,
			"max_requests", record.MaxRequests,
			"is_active", record.IsActive,
		)
		return nil, ErrQuotaExhausted
	}

	courses, err := s.repos.Course.List(ctx, s.cfg.CourseListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	if len(courses) == 0 {
		return nil, ErrNoCourses
	}

	reply, err := s.client.Call(ctx, buildAdvisorPrompt(prompt, courses))
	if err != nil {
		return nil, fmt.Errorf("advisor call failed: %w", err)
	}

	// Charge the ledger only for successful external calls. If the charge
	// cannot be recorded the whole request fails: serving a recommendation
	// the ledger never counted would leak past the daily ceiling.
	if _, err := s.usage.Increment(ctx); err != nil {
		s.logger.Error("failed to record advisor usage", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}

	result := parseAdvisorReply(reply.Content, courses)
	result.UserPrompt = prompt

	s.logger.Info("recommendation produced",
		"recommendations", len(result.Recommendations),
		"fallback", result.Note != "",
		"output_tokens", reply.OutputTokens,
	)
	return result, nil
}

// Suggestions returns quota-free keyword matches against the catalog for a
// stated interest. No external call is made.
func (s *AdvisorService) Suggestions(ctx context.Context, interest string) ([]*models.Course, error) {
	interest = strings.TrimSpace(interest)
	if interest == "" {
		return nil, ErrInvalidPrompt
	}

	seen := make(map[string]bool)
	var matches []*models.Course
	for _, keyword := range strings.Fields(interest) {
		if len(keyword) < 3 {
			continue
		}
		found, err := s.repos.Course.Search(ctx, keyword, s.cfg.CourseListLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to search catalog: %w", err)
		}
		for _, c := range found {
			if !seen[c.ID] {
				seen[c.ID] = true
				matches = append(matches, c)
			}
		}
	}
	return matches, nil
}

// buildAdvisorPrompt renders the catalog and learning goal into a single
// instruction asking for a strict JSON reply.
func buildAdvisorPrompt(goal string, courses []*models.Course) string {
	var b strings.Builder
	b.WriteString("You are a course advisor. Available courses:\n")
	for _, c := range courses {
		fmt.Fprintf(&b, "- id: %s, title: %s, description: %s\n", c.ID, c.Title, c.Description)
	}
	b.WriteString("\nStudent's learning goal: ")
	b.WriteString(goal)
	b.WriteString("\n\nReply with JSON only, using this shape: ")
	b.WriteString(`{"analysis": "...", "recommendations": [{"course_id": "...", "title": "...", "reason": "...", "relevance": "high|medium|low"}], "learning_path": "...", "additional_advice": "..."}`)
	b.WriteString("\nRecommend at most 3 courses, only from the list above.")
	return b.String()
}

// parseAdvisorReply extracts the structured recommendation from the model's
// reply. Replies wrapped in prose or code fences are tolerated; if no usable
// JSON is found the top courses are returned with a note instead of failing.
func parseAdvisorReply(content string, courses []*models.Course) *models.RecommendationResult {
	byID := make(map[string]*models.Course, len(courses))
	byTitle := make(map[string]*models.Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
		byTitle[strings.ToLower(c.Title)] = c
	}

	doc := extractJSON(content)
	if !gjson.Valid(doc) || !gjson.Get(doc, "recommendations").Exists() {
		return fallbackResult(courses)
	}

	result := &models.RecommendationResult{
		Analysis:         gjson.Get(doc, "analysis").String(),
		LearningPath:     gjson.Get(doc, "learning_path").String(),
		AdditionalAdvice: gjson.Get(doc, "additional_advice").String(),
	}
	for _, item := range gjson.Get(doc, "recommendations").Array() {
		rec := models.Recommendation{
			CourseID:  item.Get("course_id").String(),
			Title:     item.Get("title").String(),
			Reason:    item.Get("reason").String(),
			Relevance: item.Get("relevance").String(),
		}
		// Only surface recommendations that match real catalog entries
		if c, ok := byID[rec.CourseID]; ok {
			rec.Course = c
		} else if c, ok := byTitle[strings.ToLower(rec.Title)]; ok {
			rec.Course = c
			rec.CourseID = c.ID
		} else {
			continue
		}
		rec.Title = rec.Course.Title
		result.Recommendations = append(result.Recommendations, rec)
	}
	if len(result.Recommendations) == 0 {
		return fallbackResult(courses)
	}
	return result
}

// fallbackResult suggests the newest courses when the model's reply could
// not be parsed.
func fallbackResult(courses []*models.Course) *models.RecommendationResult {
	result := &models.RecommendationResult{
		Analysis: "The advisor reply could not be parsed, so here are the most recent courses.",
		Note:     "fallback suggestions",
	}
	for i, c := range courses {
		if i >= 3 {
			break
		}
		result.Recommendations = append(result.Recommendations, models.Recommendation{
			CourseID:  c.ID,
			Title:     c.Title,
			Reason:    "Recently added course",
			Relevance: "medium",
			Course:    c,
		})
	}
	return result
}

// extractJSON pulls the outermost JSON object out of a reply that may be
// wrapped in code fences or surrounding prose.
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return content[start : end+1]
}
