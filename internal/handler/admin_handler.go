package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizdesk-backend/internal/middleware"
	"github.com/stemsi/quizdesk-backend/internal/response"
	"github.com/stemsi/quizdesk-backend/internal/service"
	"github.com/stemsi/quizdesk-backend/internal/validator"
)

// AdminHandler handles session administration: cheater flags and live sessions.
type AdminHandler struct {
	sessionService   *service.SessionService
	dashboardService *service.DashboardService
	log              zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(sessionService *service.SessionService, dashboardService *service.DashboardService, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		sessionService:   sessionService,
		dashboardService: dashboardService,
		log:              log.With().Str("component", "admin_handler").Logger(),
	}
}

// ListCheaters godoc
// GET /api/v1/admin/cheaters
// Returns the latest cheating result of every flagged roll number.
func (h *AdminHandler) ListCheaters(c *gin.Context) {
	cheaters, err := h.dashboardService.ListCheaters(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"cheaters": cheaters})
}

// GetCheater godoc
// GET /api/v1/admin/cheaters/:roll
// Returns the live flag record of a roll number.
func (h *AdminHandler) GetCheater(c *gin.Context) {
	roll, ok := rollParam(c)
	if !ok {
		return
	}

	record, err := h.sessionService.CheaterRecord(c.Request.Context(), roll)
	if err != nil {
		status, code := sessionError(err)
		response.Fail(c, status, code)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"cheater": record})
}

// PardonCheater godoc
// DELETE /api/v1/admin/cheaters/:roll
// Lifts the cheater flag so the roll number can take the quiz again.
func (h *AdminHandler) PardonCheater(c *gin.Context) {
	roll, ok := rollParam(c)
	if !ok {
		return
	}

	if err := h.sessionService.Pardon(c.Request.Context(), roll); err != nil {
		status, code := sessionError(err)
		response.Fail(c, status, code)
		return
	}

	h.logAction(c, "pardon", roll)
	response.Success(c, http.StatusOK, gin.H{"message": "cheater flag cleared"})
}

// ListActiveSessions godoc
// GET /api/v1/admin/sessions
// Lists sessions hosted by this instance.
func (h *AdminHandler) ListActiveSessions(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"sessions": h.sessionService.Active(c.Request.Context())})
}

// AbandonSession godoc
// DELETE /api/v1/admin/sessions/:roll
// Drops an attempt without producing a result.
func (h *AdminHandler) AbandonSession(c *gin.Context) {
	roll, ok := rollParam(c)
	if !ok {
		return
	}

	if err := h.sessionService.Abandon(c.Request.Context(), roll); err != nil {
		status, code := sessionError(err)
		response.Fail(c, status, code)
		return
	}

	h.logAction(c, "abandon", roll)
	response.Success(c, http.StatusOK, gin.H{"message": "session abandoned"})
}

func (h *AdminHandler) logAction(c *gin.Context, action, roll string) {
	ev := h.log.Info().Str("action", action).Str("roll_number", roll)
	if claims := middleware.GetClaims(c); claims != nil {
		ev = ev.Int("admin_id", claims.UserID)
	}
	ev.Msg("Admin action")
}

func rollParam(c *gin.Context) (string, bool) {
	roll := c.Param("roll")
	if !validator.IsRollNumber(roll) {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return "", false
	}
	return roll, true
}
