package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/courseloop/courseloop-api/internal/config"
	"github.com/courseloop/courseloop-api/internal/models"
	"github.com/courseloop/courseloop-api/internal/repository"
)

// UsageStatistics aggregates ledger records over a window of days.
type UsageStatistics struct {
	TotalRequests         int `json:"total_requests"`
	AverageRequestsPerDay int `json:"average_requests_per_day"`
	DaysTracked           int `json:"days_tracked"`
}

// UsageOverview is the admin dashboard view: today's record, seven-day
// statistics and the raw seven-day history oldest first.
type UsageOverview struct {
	Current    *models.UsageRecord   `json:"current_usage"`
	Statistics UsageStatistics       `json:"statistics"`
	History    []*models.UsageRecord `json:"historical_data"`
}

// UsageSummary is the month-to-date rollup.
type UsageSummary struct {
	Month                 string              `json:"month"` // YYYY-MM
	TotalRequests         int                 `json:"total_requests"`
	DaysTracked           int                 `json:"days_tracked"`
	AverageRequestsPerDay int                 `json:"average_requests_per_day"`
	TodayPercentUsed      int                 `json:"today_percent_used"`
	Current               *models.UsageRecord `json:"current_usage"`
}

// UsageSettings carries the mutable ledger fields for an admin update.
// Nil fields are left unchanged.
type UsageSettings struct {
	MaxRequests *int
	IsActive    *bool
	AdminNotes  *string
}

// UsageService manages the daily external-call ledger. All bucketing is by
// UTC calendar day; today's record is created lazily on first access.
type UsageService struct {
	cfg    *config.Config
	repos  *repository.Repositories
	logger *slog.Logger
	now    func() time.Time // Injectable for tests
}

// NewUsageService creates a new usage service.
func NewUsageService(cfg *config.Config, repos *repository.Repositories, logger *slog.Logger) *UsageService {
	return &UsageService{
		cfg:    cfg,
		repos:  repos,
		logger: logger,
		now:    time.Now,
	}
}

// GetOrCreateToday returns today's ledger record, creating it with the
// configured default ceiling if this is the first access of the day.
func (s *UsageService) GetOrCreateToday(ctx context.Context) (*models.UsageRecord, error) {
	now := s.now()
	record, err := s.repos.Usage.GetOrCreateDay(ctx, models.DayKey(now), s.cfg.UsageDailyLimit, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load today's usage: %w", err)
	}
	return record, nil
}

// CanMakeRequest reports whether a gated external call is allowed right now.
// This is a point-in-time read; pair it with Increment only where a small
// overshoot under concurrency is acceptable, otherwise use TryAcquire.
func (s *UsageService) CanMakeRequest(ctx context.Context) (bool, *models.UsageRecord, error) {
	record, err := s.GetOrCreateToday(ctx)
	if err != nil {
		return false, nil, err
	}
	return record.CanMakeRequest(), record, nil
}

// Increment adds one request to today's counters. It never enforces the
// ceiling, so callers that checked CanMakeRequest earlier may push the count
// past max_requests under concurrency.
func (s *UsageService) Increment(ctx context.Context) (*models.UsageRecord, error) {
	now := s.now()
	if _, err := s.GetOrCreateToday(ctx); err != nil {
		return nil, err
	}
	record, err := s.repos.Usage.Increment(ctx, models.DayKey(now), now)
	if err != nil {
		return nil, fmt.Errorf("failed to increment usage: %w", err)
	}
	if record.IsLimitReached() {
		s.logger.Warn("daily request limit reached",
			"day", record.Day,
			"requests_today", record.RequestsToday,
			"max_requests", record.MaxRequests,
		)
	}
	return record, nil
}

// TryAcquire atomically takes one request slot for today. Unlike the
// check-then-increment pair it can never overshoot the ceiling.
func (s *UsageService) TryAcquire(ctx context.Context) (*models.UsageRecord, bool, error) {
	now := s.now()
	if _, err := s.GetOrCreateToday(ctx); err != nil {
		return nil, false, err
	}
	record, acquired, err := s.repos.Usage.TryAcquire(ctx, models.DayKey(now), now)
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire usage slot: %w", err)
	}
	return record, acquired, nil
}

// ResetDailyCount zeroes today's counter and stamps last_reset. The running
// total and settings are untouched.
func (s *UsageService) ResetDailyCount(ctx context.Context) (*models.UsageRecord, error) {
	now := s.now()
	if _, err := s.GetOrCreateToday(ctx); err != nil {
		return nil, err
	}
	record, err := s.repos.Usage.Reset(ctx, models.DayKey(now), now)
	if err != nil {
		return nil, fmt.Errorf("failed to reset usage: %w", err)
	}

	s.logger.Info("daily usage counter reset", "day", record.Day)
	return record, nil
}

// UpdateSettings applies admin changes to today's record. Out-of-range
// ceilings are clamped, never rejected.
func (s *UsageService) UpdateSettings(ctx context.Context, settings UsageSettings) (*models.UsageRecord, error) {
	record, err := s.GetOrCreateToday(ctx)
	if err != nil {
		return nil, err
	}

	if settings.MaxRequests != nil {
		record.MaxRequests = models.ClampMaxRequests(*settings.MaxRequests)
	}
	if settings.IsActive != nil {
		record.IsActive = *settings.IsActive
	}
	if settings.AdminNotes != nil {
		record.AdminNotes = *settings.AdminNotes
	}

	if err := s.repos.Usage.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save usage settings: %w", err)
	}

	s.logger.Info("usage settings updated",
		"day", record.Day,
		"max_requests", record.MaxRequests,
		"is_active", record.IsActive,
	)
	return record, nil
}

// Overview returns today's record, statistics over the last seven days and
// the seven-day history oldest first.
func (s *UsageService) Overview(ctx context.Context) (*UsageOverview, error) {
	current, err := s.GetOrCreateToday(ctx)
	if err != nil {
		return nil, err
	}

	since := models.DayKey(s.now().AddDate(0, 0, -6))
	history, err := s.repos.Usage.Since(ctx, since, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load usage history: %w", err)
	}

	return &UsageOverview{
		Current:    current,
		Statistics: aggregate(history),
		History:    history,
	}, nil
}

// History returns ledger records for the last N days, newest first.
// A non-positive days value falls back to 30.
func (s *UsageService) History(ctx context.Context, days int) ([]*models.UsageRecord, error) {
	if days <= 0 {
		days = 30
	}
	since := models.DayKey(s.now().AddDate(0, 0, -(days - 1)))
	records, err := s.repos.Usage.Since(ctx, since, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load usage history: %w", err)
	}
	return records, nil
}

// Summary returns the month-to-date rollup plus today's record.
func (s *UsageService) Summary(ctx context.Context) (*UsageSummary, error) {
	current, err := s.GetOrCreateToday(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	records, err := s.repos.Usage.Since(ctx, models.DayKey(monthStart), true)
	if err != nil {
		return nil, fmt.Errorf("failed to load monthly usage: %w", err)
	}

	stats := aggregate(records)
	return &UsageSummary{
		Month:                 now.Format("2006-01"),
		TotalRequests:         stats.TotalRequests,
		DaysTracked:           stats.DaysTracked,
		AverageRequestsPerDay: stats.AverageRequestsPerDay,
		TodayPercentUsed:      current.UsagePercent(),
		Current:               current,
	}, nil
}

// aggregate sums requests_today across records. Days with no record do not
// count towards the average.
func aggregate(records []*models.UsageRecord) UsageStatistics {
	stats := UsageStatistics{DaysTracked: len(records)}
	for _, r := range records {
		stats.TotalRequests += r.RequestsToday
	}
	if stats.DaysTracked > 0 {
		stats.AverageRequestsPerDay = int(float64(stats.TotalRequests)/float64(stats.DaysTracked) + 0.5)
	}
	return stats
}
