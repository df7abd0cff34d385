package handlers

import (
	"context"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/courseloop/courseloop-api/internal/models"
	"github.com/courseloop/courseloop-api/internal/service"
)

// AdminUsageHandler exposes the daily request ledger to administrators.
type AdminUsageHandler struct {
	usageSvc *service.UsageService
}

// NewAdminUsageHandler creates a new admin usage handler.
func NewAdminUsageHandler(usageSvc *service.UsageService) *AdminUsageHandler {
	return &AdminUsageHandler{usageSvc: usageSvc}
}

// CurrentUsage is the dashboard view of today's ledger record.
type CurrentUsage struct {
	Date              string    `json:"date"`
	RequestsToday     int       `json:"requests_today"`
	MaxRequests       int       `json:"max_requests"`
	RemainingRequests int       `json:"remaining_requests"`
	IsLimitReached    bool      `json:"is_limit_reached"`
	IsActive          bool      `json:"is_active"`
	LastReset         time.Time `json:"last_reset"`
	AdminNotes        string    `json:"admin_notes"`
}

func currentUsage(r *models.UsageRecord) CurrentUsage {
	return CurrentUsage{
		Date:              r.Day,
		RequestsToday:     r.RequestsToday,
		MaxRequests:       r.MaxRequests,
		RemainingRequests: r.RemainingRequests(),
		IsLimitReached:    r.IsLimitReached(),
		IsActive:          r.IsActive,
		LastReset:         r.LastReset,
		AdminNotes:        r.AdminNotes,
	}
}

// GetUsageOutput is the admin dashboard response.
type GetUsageOutput struct {
	Body struct {
		CurrentUsage   CurrentUsage            `json:"current_usage"`
		Statistics     service.UsageStatistics `json:"statistics"`
		HistoricalData []*models.UsageRecord   `json:"historical_data"`
	}
}

// GetUsage returns today's ledger state plus seven-day statistics.
func (h *AdminUsageHandler) GetUsage(ctx context.Context, input *struct{}) (*GetUsageOutput, error) {
	overview, err := h.usageSvc.Overview(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to load usage")
	}

	out := &GetUsageOutput{}
	out.Body.CurrentUsage = currentUsage(overview.Current)
	out.Body.Statistics = overview.Statistics
	out.Body.HistoricalData = overview.History
	if out.Body.HistoricalData == nil {
		out.Body.HistoricalData = []*models.UsageRecord{}
	}
	return out, nil
}

// UpdateSettingsInput represents a ledger settings update. Omitted fields
// are left unchanged; out-of-range ceilings are clamped to [1, 1000].
type UpdateSettingsInput struct {
	Body struct {
		MaxRequests *int    `json:"max_requests,omitempty" doc:"Daily ceiling, clamped to [1, 1000]"`
		IsActive    *bool   `json:"is_active,omitempty" doc:"Master switch for external calls"`
		AdminNotes  *string `json:"admin_notes,omitempty" maxLength:"1000"`
	}
}

// UpdateSettingsOutput represents the updated ledger state.
type UpdateSettingsOutput struct {
	Body struct {
		Message      string       `json:"message"`
		CurrentUsage CurrentUsage `json:"current_usage"`
	}
}

// UpdateSettings applies admin changes to today's ledger record.
func (h *AdminUsageHandler) UpdateSettings(ctx context.Context, input *UpdateSettingsInput) (*UpdateSettingsOutput, error) {
	record, err := h.usageSvc.UpdateSettings(ctx, service.UsageSettings{
		MaxRequests: input.Body.MaxRequests,
		IsActive:    input.Body.IsActive,
		AdminNotes:  input.Body.AdminNotes,
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to update settings")
	}

	out := &UpdateSettingsOutput{}
	out.Body.Message = "settings updated"
	out.Body.CurrentUsage = currentUsage(record)
	return out, nil
}

// ResetUsageOutput represents a reset response.
type ResetUsageOutput struct {
	Body struct {
		Message      string       `json:"message"`
		CurrentUsage CurrentUsage `json:"current_usage"`
	}
}

// ResetUsage zeroes today's counter without touching the running total.
func (h *AdminUsageHandler) ResetUsage(ctx context.Context, input *struct{}) (*ResetUsageOutput, error) {
	record, err := h.usageSvc.ResetDailyCount(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to reset usage")
	}

	out := &ResetUsageOutput{}
	out.Body.Message = "daily count reset"
	out.Body.CurrentUsage = currentUsage(record)
	return out, nil
}

// UsageHistoryInput selects the history window.
type UsageHistoryInput struct {
	Days int `query:"days" default:"30" minimum:"1" maximum:"365" doc:"Number of trailing days to return"`
}

// UsageHistoryOutput represents ledger history, newest first.
type UsageHistoryOutput struct {
	Body struct {
		Days    int                   `json:"days"`
		Records []*models.UsageRecord `json:"records"`
	}
}

// GetHistory returns raw ledger records for the trailing window.
func (h *AdminUsageHandler) GetHistory(ctx context.Context, input *UsageHistoryInput) (*UsageHistoryOutput, error) {
	records, err := h.usageSvc.History(ctx, input.Days)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to load history")
	}

	out := &UsageHistoryOutput{}
	out.Body.Days = input.Days
	out.Body.Records = records
	if out.Body.Records == nil {
		out.Body.Records = []*models.UsageRecord{}
	}
	return out, nil
}

// UsageSummaryOutput represents the month-to-date rollup.
type UsageSummaryOutput struct {
	Body *service.UsageSummary
}

// GetSummary returns the month-to-date usage rollup.
func (h *AdminUsageHandler) GetSummary(ctx context.Context, input *struct{}) (*UsageSummaryOutput, error) {
	summary, err := h.usageSvc.Summary(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to load summary")
	}
	return &UsageSummaryOutput{Body: summary}, nil
}
