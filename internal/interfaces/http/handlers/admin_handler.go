package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"recovery-kita.backend/internal/interfaces/http/response"
	"recovery-kita.backend/internal/usecases"
)

// AdminHandler serves operator-only endpoints behind the admin key
type AdminHandler struct {
	merchantUsecase *usecases.MerchantUsecase
}

func NewAdminHandler(merchantUsecase *usecases.MerchantUsecase) *AdminHandler {
	return &AdminHandler{merchantUsecase: merchantUsecase}
}

// EraseMerchant handles DELETE /admin/merchants/:id (GDPR erasure). If the
// provider-side subscription cancel fails the erasure aborts with a 502 so
// no merchant is left billed for deleted data.
func (h *AdminHandler) EraseMerchant(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid merchant id"})
		return
	}

	if err := h.merchantUsecase.Erase(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"erased": true})
}
