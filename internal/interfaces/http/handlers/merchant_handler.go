package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"recovery-kita.backend/internal/domain/entities"
	"recovery-kita.backend/internal/interfaces/http/middleware"
	"recovery-kita.backend/internal/interfaces/http/response"
	"recovery-kita.backend/internal/usecases"
)

// MerchantHandler serves merchant self-service settings
type MerchantHandler struct {
	merchantUsecase *usecases.MerchantUsecase
}

func NewMerchantHandler(merchantUsecase *usecases.MerchantUsecase) *MerchantHandler {
	return &MerchantHandler{merchantUsecase: merchantUsecase}
}

// UpdateMerchant handles PATCH /merchants/:id. The path id must match the
// session merchant; the response strips sensitive columns.
func (h *MerchantHandler) UpdateMerchant(c *gin.Context) {
	merchant, ok := middleware.GetMerchant(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "merchant not resolved"})
		return
	}

	if c.Param("id") != merchant.ID.String() {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot modify another merchant"})
		return
	}

	var input entities.MerchantSettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.merchantUsecase.UpdateSettings(c.Request.Context(), merchant, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, updated.ToResponse())
}
