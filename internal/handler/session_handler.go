package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizdesk-backend/internal/model"
	"github.com/stemsi/quizdesk-backend/internal/response"
	"github.com/stemsi/quizdesk-backend/internal/service"
	"github.com/stemsi/quizdesk-backend/internal/validator"
)

// SessionHandler handles the registration handoff and result display.
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// Register godoc
// POST /api/v1/sessions
// Stores the registration a quiz session starts from, replacing any earlier one.
func (h *SessionHandler) Register(c *gin.Context) {
	var req model.Registration
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	reg, err := h.sessionService.Register(c.Request.Context(), req)
	if err != nil {
		status, code := sessionError(err)
		response.Fail(c, status, code)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"registration": reg,
		"stream":       "/ws/v1/sessions/" + reg.RollNumber + "/stream",
	})
}

// GetResult godoc
// GET /api/v1/sessions/:roll/result
// Returns the last result stored for a roll number.
func (h *SessionHandler) GetResult(c *gin.Context) {
	roll := c.Param("roll")
	if !validator.IsRollNumber(roll) {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.sessionService.Result(c.Request.Context(), roll)
	if err != nil {
		status, code := sessionError(err)
		response.Fail(c, status, code)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}
