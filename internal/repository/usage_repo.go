package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/courseloop/courseloop-api/internal/models"
)

// SQLiteUsageRepository implements UsageRepository for SQLite.
type SQLiteUsageRepository struct {
	db *sql.DB
}

// NewSQLiteUsageRepository creates a new SQLite usage repository.
func NewSQLiteUsageRepository(db *sql.DB) *SQLiteUsageRepository {
	return &SQLiteUsageRepository{db: db}
}

const usageColumns = `id, day, total_requests, requests_today, max_requests, last_reset, is_active, admin_notes, created_at, updated_at`

func (r *SQLiteUsageRepository) GetOrCreateDay(ctx context.Context, day string, maxRequests int, now time.Time) (*models.UsageRecord, error) {
	// Create-if-absent keyed on day, not check-then-insert: the UNIQUE
	// constraint makes concurrent first reads of a day converge on one row.
	// The ceiling is clamped here so no row is ever persisted out of range,
	// whatever the configured default.
	maxRequests = models.ClampMaxRequests(maxRequests)
	ts := now.UTC().Format(time.RFC3339)
	query := `INSERT INTO api_usage (id, day, total_requests, requests_today, max_requests, last_reset, is_active, admin_notes, created_at, updated_at)
		VALUES (?, ?, 0, 0, ?, ?, 1, '', ?, ?)
		ON CONFLICT(day) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, ulid.Make().String(), day, maxRequests, ts, ts, ts); err != nil {
		return nil, fmt.Errorf("failed to ensure usage record: %w", err)
	}
	return r.getDay(ctx, day)
}

func (r *SQLiteUsageRepository) Increment(ctx context.Context, day string, now time.Time) (*models.UsageRecord, error) {
	// Single-statement atomic add. Deliberately no ceiling check: the caller
	// contract is check-then-act, and overshoot past max_requests is allowed.
	query := `UPDATE api_usage
		SET requests_today = requests_today + 1,
		    total_requests = total_requests + 1,
		    updated_at = ?
		WHERE day = ?`
	res, err := r.db.ExecContext(ctx, query, now.UTC().Format(time.RFC3339), day)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("no usage record for day %s", day)
	}
	return r.getDay(ctx, day)
}

func (r *SQLiteUsageRepository) TryAcquire(ctx context.Context, day string, now time.Time) (*models.UsageRecord, bool, error) {
	// Conditional increment: the availability check and the add happen in one
	// statement, so concurrent acquirers can never push past the ceiling.
	query := `UPDATE api_usage
		SET requests_today = requests_today + 1,
		    total_requests = total_requests + 1,
		    updated_at = ?
		WHERE day = ? AND is_active = 1 AND requests_today < max_requests`
	res, err := r.db.ExecContext(ctx, query, now.UTC().Format(time.RFC3339), day)
	if err != nil {
		return nil, false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	record, err := r.getDay(ctx, day)
	if err != nil {
		return nil, false, err
	}
	return record, n > 0, nil
}

func (r *SQLiteUsageRepository) Reset(ctx context.Context, day string, now time.Time) (*models.UsageRecord, error) {
	ts := now.UTC().Format(time.RFC3339)
	query := `UPDATE api_usage
		SET requests_today = 0, last_reset = ?, updated_at = ?
		WHERE day = ?`
	if _, err := r.db.ExecContext(ctx, query, ts, ts, day); err != nil {
		return nil, err
	}
	return r.getDay(ctx, day)
}

func (r *SQLiteUsageRepository) Save(ctx context.Context, record *models.UsageRecord) error {
	record.UpdatedAt = time.Now().UTC()
	query := `UPDATE api_usage
		SET max_requests = ?, is_active = ?, admin_notes = ?, updated_at = ?
		WHERE day = ?`
	_, err := r.db.ExecContext(ctx, query,
		record.MaxRequests, boolToInt(record.IsActive), record.AdminNotes,
		record.UpdatedAt.Format(time.RFC3339), record.Day)
	return err
}

func (r *SQLiteUsageRepository) Since(ctx context.Context, day string, ascending bool) ([]*models.UsageRecord, error) {
	order := "DESC"
	if ascending {
		order = "ASC"
	}
	query := `SELECT ` + usageColumns + ` FROM api_usage WHERE day >= ? ORDER BY day ` + order
	rows, err := r.db.QueryContext(ctx, query, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.UsageRecord
	for rows.Next() {
		record, err := scanUsage(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *SQLiteUsageRepository) getDay(ctx context.Context, day string) (*models.UsageRecord, error) {
	query := `SELECT ` + usageColumns + ` FROM api_usage WHERE day = ?`
	record, err := scanUsage(r.db.QueryRowContext(ctx, query, day))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no usage record for day %s", day)
	}
	return record, err
}

func scanUsage(row rowScanner) (*models.UsageRecord, error) {
	var u models.UsageRecord
	var lastReset, createdAt, updatedAt string
	var isActive int
	err := row.Scan(&u.ID, &u.Day, &u.TotalRequests, &u.RequestsToday, &u.MaxRequests,
		&lastReset, &isActive, &u.AdminNotes, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	u.IsActive = isActive != 0
	u.LastReset, _ = time.Parse(time.RFC3339, lastReset)
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	u.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
