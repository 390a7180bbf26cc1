package service

import (
	"context"

	"github.com/stemsi/quizdesk-backend/internal/model"
	"github.com/stemsi/quizdesk-backend/internal/repository"
)

// RecentResultsLimit is the number of results shown on the dashboard.
const RecentResultsLimit = 10

// DashboardService handles admin dashboard business logic.
type DashboardService struct {
	repo *repository.DashboardRepository
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(repo *repository.DashboardRepository) *DashboardService {
	return &DashboardService{repo: repo}
}

// GetAnalytics aggregates every persisted result.
func (s *DashboardService) GetAnalytics(ctx context.Context) (*model.Analytics, error) {
	a, err := s.repo.GetSummaryCounts(ctx)
	if err != nil {
		return nil, err
	}

	a.Categories, err = s.repo.GetCategoryStats(ctx)
	if err != nil {
		return nil, err
	}

	a.RecentResults, err = s.repo.GetRecentResults(ctx, RecentResultsLimit)
	if err != nil {
		return nil, err
	}

	Finalize(a)
	return a, nil
}

// ListCheaters returns the latest cheating result per flagged roll number.
func (s *DashboardService) ListCheaters(ctx context.Context) ([]model.Result, error) {
	return s.repo.ListCheaters(ctx)
}

// Finalize derives the rate fields of a.
func Finalize(a *model.Analytics) {
	a.PassRate = 0
	if a.TotalAttempts > 0 {
		a.PassRate = float64(a.TotalPassed) * 100 / float64(a.TotalAttempts)
	}
}
