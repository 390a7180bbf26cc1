package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizdesk-backend/internal/model"
	"github.com/stemsi/quizdesk-backend/internal/response"
	"github.com/stemsi/quizdesk-backend/internal/service"
	"github.com/stemsi/quizdesk-backend/internal/validator"
)

type SettingHandler struct {
	settingService *service.SettingService
	log            zerolog.Logger
}

func NewSettingHandler(settingService *service.SettingService, log zerolog.Logger) *SettingHandler {
	return &SettingHandler{
		settingService: settingService,
		log:            log.With().Str("component", "setting_handler").Logger(),
	}
}

// GetQuizConfig godoc
// GET /api/v1/admin/settings
func (h *SettingHandler) GetQuizConfig(c *gin.Context) {
	cfg, err := h.settingService.QuizConfig(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load quiz config")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"config": cfg})
}

// UpdateQuizConfig godoc
// PUT /api/v1/admin/settings
func (h *SettingHandler) UpdateQuizConfig(c *gin.Context) {
	var req model.QuizConfig
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.settingService.UpdateQuizConfig(c.Request.Context(), req); err != nil {
		h.log.Error().Err(err).Msg("Failed to update quiz config")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"config": req})
}
