package service

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/quizdesk-backend/internal/model"
	"github.com/stemsi/quizdesk-backend/internal/repository"
	"github.com/stemsi/quizdesk-backend/internal/response"
)

// ResultService serves persisted results to the dashboard.
type ResultService struct {
	resultRepo *repository.ResultRepository
	beaconRepo *repository.BeaconRepository
}

// NewResultService creates a new ResultService.
func NewResultService(resultRepo *repository.ResultRepository, beaconRepo *repository.BeaconRepository) *ResultService {
	return &ResultService{resultRepo: resultRepo, beaconRepo: beaconRepo}
}

// List retrieves results with pagination.
func (s *ResultService) List(ctx context.Context, filter model.ResultFilter, page, perPage int) ([]model.Result, *response.Pagination, error) {
	page, perPage = response.NormalizePage(page, perPage)

	results, total, err := s.resultRepo.ListPaginated(ctx, filter, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	for i := range results {
		results[i].Breakdown = nil
	}
	if results == nil {
		results = []model.Result{}
	}
	return results, response.NewPagination(page, perPage, total), nil
}

// Get retrieves a result with its per-question breakdown.
func (s *ResultService) Get(ctx context.Context, id uuid.UUID) (*model.Result, error) {
	return s.resultRepo.GetByID(ctx, id)
}

// Delete removes a result.
func (s *ResultService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.resultRepo.Delete(ctx, id)
}

// Beacons lists the unload beacons a session sent, oldest first.
func (s *ResultService) Beacons(ctx context.Context, sessionID uuid.UUID) ([]model.Beacon, error) {
	beacons, err := s.beaconRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if beacons == nil {
		beacons = []model.Beacon{}
	}
	return beacons, nil
}

// ExportCSV writes every result matching filter to w.
func (s *ResultService) ExportCSV(ctx context.Context, filter model.ResultFilter, w io.Writer) error {
	results, err := s.resultRepo.ListAll(ctx, filter)
	if err != nil {
		return err
	}
	return WriteResultsCSV(w, results)
}

var csvHeader = []string{
	"id", "roll_number", "name", "category", "correct_answers", "total_questions",
	"obtained_marks", "total_marks", "percentage", "passed", "auto_submitted", "cheater",
	"cheat_reason", "submitted_at",
}

// WriteResultsCSV renders results as CSV with a header row.
func WriteResultsCSV(w io.Writer, results []model.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range results {
		reason := ""
		if r.CheatReason != nil {
			reason = *r.CheatReason
		}
		if err := cw.Write([]string{
			r.ID.String(),
			r.RollNumber,
			r.Name,
			r.Category,
			strconv.Itoa(r.CorrectAnswers),
			strconv.Itoa(r.TotalQuestions),
			strconv.Itoa(r.ObtainedMarks),
			strconv.Itoa(r.TotalMarks),
			strconv.FormatFloat(r.Percentage, 'f', 2, 64),
			strconv.FormatBool(r.Passed),
			strconv.FormatBool(r.IsAutoSubmitted),
			strconv.FormatBool(r.IsCheater),
			reason,
			r.SubmittedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
