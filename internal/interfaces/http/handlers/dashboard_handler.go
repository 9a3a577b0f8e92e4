package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"recovery-kita.backend/internal/interfaces/http/middleware"
	"recovery-kita.backend/internal/interfaces/http/response"
	"recovery-kita.backend/internal/usecases"
)

// DashboardHandler serves the merchant overview endpoints
type DashboardHandler struct {
	dashboardUsecase *usecases.DashboardUsecase
}

func NewDashboardHandler(dashboardUsecase *usecases.DashboardUsecase) *DashboardHandler {
	return &DashboardHandler{dashboardUsecase: dashboardUsecase}
}

// GetDashboard handles GET /dashboard
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	merchant, ok := middleware.GetMerchant(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "merchant not resolved"})
		return
	}

	view, err := h.dashboardUsecase.View(c.Request.Context(), merchant)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// GetActivity handles GET /activity
func (h *DashboardHandler) GetActivity(c *gin.Context) {
	merchant, ok := middleware.GetMerchant(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "merchant not resolved"})
		return
	}

	logs, err := h.dashboardUsecase.Activity(c.Request.Context(), merchant)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"activity": logs})
}
