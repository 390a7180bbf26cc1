package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizdesk-backend/internal/model"
	"github.com/stemsi/quizdesk-backend/internal/repository"
	"github.com/stemsi/quizdesk-backend/internal/response"
	"github.com/stemsi/quizdesk-backend/internal/validator"
)

// RuleError is returned when a question breaks one or more editor rules.
type RuleError struct {
	Violations []validator.RuleViolation
}

func (e *RuleError) Error() string {
	kinds := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		kinds[i] = v.Kind
	}
	return "question rules violated: " + strings.Join(kinds, ", ")
}

// Fields groups violation details by rule for the error envelope.
func (e *RuleError) Fields() map[string]string {
	fields := make(map[string]string, len(e.Violations))
	for _, v := range e.Violations {
		if prev, ok := fields[v.Kind]; ok {
			fields[v.Kind] = prev + "; " + v.Detail
			continue
		}
		fields[v.Kind] = v.Detail
	}
	return fields
}

// QuestionService handles question bank business logic.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
	cache        *repository.QuestionCache
	settings     *SettingService
	log          zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(
	questionRepo *repository.QuestionRepository,
	cache *repository.QuestionCache,
	settings *SettingService,
	log zerolog.Logger,
) *QuestionService {
	return &QuestionService{
		questionRepo: questionRepo,
		cache:        cache,
		settings:     settings,
		log:          log.With().Str("component", "question_service").Logger(),
	}
}

// List retrieves questions with pagination.
func (s *QuestionService) List(ctx context.Context, filter model.QuestionFilter, page, perPage int) ([]model.Question, *response.Pagination, error) {
	page, perPage = response.NormalizePage(page, perPage)

	questions, total, err := s.questionRepo.ListPaginated(ctx, filter, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if questions == nil {
		questions = []model.Question{}
	}
	return questions, response.NewPagination(page, perPage, total), nil
}

// Get retrieves a specific question.
func (s *QuestionService) Get(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	return s.questionRepo.GetByID(ctx, id)
}

// ByCategory returns every question of a category through the cache. It
// serves session loads.
func (s *QuestionService) ByCategory(ctx context.Context, category string) ([]model.Question, error) {
	return s.cache.ListByCategory(ctx, category)
}

// Categories lists categories with their question counts.
func (s *QuestionService) Categories(ctx context.Context) ([]model.CategorySummary, error) {
	cats, err := s.questionRepo.Categories(ctx)
	if cats == nil && err == nil {
		cats = []model.CategorySummary{}
	}
	return cats, err
}

// Create validates and stores a new question.
func (s *QuestionService) Create(ctx context.Context, req *model.QuestionRequest) (*model.Question, error) {
	q := req.ToQuestion()
	if err := s.checkRules(ctx, q); err != nil {
		return nil, err
	}
	if err := s.questionRepo.Create(ctx, &q); err != nil {
		return nil, err
	}
	s.invalidate(ctx, q.Category)
	s.log.Info().Str("question_id", q.ID.String()).Str("category", q.Category).Msg("Question created")
	return &q, nil
}

// Update validates and replaces an existing question.
func (s *QuestionService) Update(ctx context.Context, id uuid.UUID, req *model.QuestionRequest) (*model.Question, error) {
	existing, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	q := req.ToQuestion()
	q.ID = id
	if err := s.checkRules(ctx, q); err != nil {
		return nil, err
	}
	if err := s.questionRepo.Update(ctx, &q); err != nil {
		return nil, err
	}
	s.invalidate(ctx, existing.Category, q.Category)
	return &q, nil
}

// Delete removes a question.
func (s *QuestionService) Delete(ctx context.Context, id uuid.UUID) error {
	existing, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.questionRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, existing.Category)
	return nil
}

// Count returns the size of the question bank.
func (s *QuestionService) Count(ctx context.Context) (int, error) {
	return s.questionRepo.Count(ctx)
}

func (s *QuestionService) checkRules(ctx context.Context, q model.Question) error {
	cfg, err := s.settings.QuizConfig(ctx)
	if err != nil {
		return fmt.Errorf("load quiz config: %w", err)
	}
	others, err := s.questionRepo.SumMarksByCategory(ctx, q.Category, q.ID)
	if err != nil {
		return fmt.Errorf("sum category marks: %w", err)
	}
	if violations := validator.ValidateQuestion(q, *cfg, others); len(violations) > 0 {
		return &RuleError{Violations: violations}
	}
	return nil
}

func (s *QuestionService) invalidate(ctx context.Context, categories ...string) {
	if err := s.cache.Invalidate(ctx, categories...); err != nil {
		s.log.Warn().Err(err).Strs("categories", categories).Msg("Failed to invalidate question cache")
	}
}
