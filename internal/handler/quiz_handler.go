package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizdesk-backend/internal/backend"
	"github.com/stemsi/quizdesk-backend/internal/model"
	"github.com/stemsi/quizdesk-backend/internal/response"
	"github.com/stemsi/quizdesk-backend/internal/service"
	"github.com/stemsi/quizdesk-backend/internal/validator"
)

// QuizHandler serves the quiz backend REST API that session hosts consume.
type QuizHandler struct {
	questionService *service.QuestionService
	settingService  *service.SettingService
	syncService     *service.SyncService
	log             zerolog.Logger
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(
	questionService *service.QuestionService,
	settingService *service.SettingService,
	syncService *service.SyncService,
	log zerolog.Logger,
) *QuizHandler {
	return &QuizHandler{
		questionService: questionService,
		settingService:  settingService,
		syncService:     syncService,
		log:             log.With().Str("component", "quiz_handler").Logger(),
	}
}

// GetQuestions godoc
// GET /api/v1/quiz/questions/:category
// Returns every question of a category with correctness flags; scoring runs
// in the session host.
func (h *QuizHandler) GetQuestions(c *gin.Context) {
	category := strings.TrimSpace(c.Param("category"))
	if category == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrValidation)
		return
	}

	questions, err := h.questionService.ByCategory(c.Request.Context(), category)
	if err != nil {
		h.log.Error().Err(err).Str("category", category).Msg("Failed to load questions")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, backend.QuestionsPayload{Questions: questions})
}

// GetConfig godoc
// GET /api/v1/config
func (h *QuizHandler) GetConfig(c *gin.Context) {
	cfg, err := h.settingService.QuizConfig(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load quiz config")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, backend.ConfigPayload{Config: *cfg})
}

// Submit godoc
// POST /api/v1/quiz/submit
// Queues a finished attempt for persistence.
func (h *QuizHandler) Submit(c *gin.Context) {
	var sub model.Submission
	if fields := validator.Bind(c, &sub); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if !validator.IsRollNumber(sub.Result.RollNumber) {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"result.roll_number": "roll_number is invalid"})
		return
	}

	if err := h.syncService.QueueSubmission(c.Request.Context(), sub); err != nil {
		h.log.Error().Err(err).Str("result_id", sub.Result.ID.String()).Msg("Failed to queue submission")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrBackendUnavailable)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{"queued": true})
}

// Beacon godoc
// POST /api/v1/quiz/beacon
// Accepts an unload beacon. Browsers ignore the reply.
func (h *QuizHandler) Beacon(c *gin.Context) {
	var b model.Beacon
	if fields := validator.Bind(c, &b); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if b.SentAt.IsZero() {
		b.SentAt = time.Now()
	}

	if err := h.syncService.QueueBeacon(c.Request.Context(), b); err != nil {
		h.log.Warn().Err(err).Str("session_id", b.SessionID.String()).Msg("Failed to queue beacon")
	}

	c.Status(http.StatusNoContent)
}
