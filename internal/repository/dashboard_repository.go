package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/quizdesk-backend/internal/model"
)

// DashboardRepository handles admin dashboard data access.
type DashboardRepository struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository creates a new DashboardRepository.
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

// GetSummaryCounts retrieves the high-level metrics for the dashboard.
func (r *DashboardRepository) GetSummaryCounts(ctx context.Context) (*model.Analytics, error) {
	a := &model.Analytics{}
	err := r.pool.QueryRow(ctx,
		`SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE passed),
			COUNT(*) FILTER (WHERE is_cheater),
			COUNT(*) FILTER (WHERE is_auto_submitted AND NOT is_cheater),
			COALESCE(AVG(percentage), 0),
			(SELECT COUNT(*) FROM questions)
		 FROM results`,
	).Scan(&a.TotalAttempts, &a.TotalPassed, &a.TotalCheaters, &a.AutoSubmitted, &a.AveragePercentage, &a.TotalQuestions)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetCategoryStats aggregates results per category.
func (r *DashboardRepository) GetCategoryStats(ctx context.Context) ([]model.CategoryStats, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT category,
			COUNT(*),
			COUNT(*) FILTER (WHERE passed),
			COUNT(*) FILTER (WHERE is_cheater),
			COALESCE(AVG(percentage), 0)
		 FROM results
		 GROUP BY category
		 ORDER BY category`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []model.CategoryStats
	for rows.Next() {
		var s model.CategoryStats
		if err := rows.Scan(&s.Category, &s.Attempts, &s.Passed, &s.Cheaters, &s.AveragePercentage); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	if stats == nil {
		stats = []model.CategoryStats{}
	}
	return stats, rows.Err()
}

// GetRecentResults retrieves the last N results without breakdowns.
func (r *DashboardRepository) GetRecentResults(ctx context.Context, limit int) ([]model.Result, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+resultColumns+` FROM results ORDER BY submitted_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results, err := scanResults(rows)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].Breakdown = nil
	}
	if results == nil {
		results = []model.Result{}
	}
	return results, nil
}

// ListCheaters returns the latest cheating result of every flagged roll number.
func (r *DashboardRepository) ListCheaters(ctx context.Context) ([]model.Result, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT ON (roll_number) `+resultColumns+`
		 FROM results WHERE is_cheater
		 ORDER BY roll_number, submitted_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results, err := scanResults(rows)
	if results == nil && err == nil {
		results = []model.Result{}
	}
	return results, err
}
