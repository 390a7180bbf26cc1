package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizdesk-backend/internal/response"
	"github.com/stemsi/quizdesk-backend/internal/service"
)

// DashboardHandler handles admin dashboard endpoints.
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetAnalytics godoc
// GET /api/v1/admin/dashboard
// Returns attempt totals, pass rate, per-category stats and recent results.
func (h *DashboardHandler) GetAnalytics(c *gin.Context) {
	data, err := h.dashboardService.GetAnalytics(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, data)
}
