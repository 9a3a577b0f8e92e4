package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"recovery-kita.backend/internal/domain/entities"
	"recovery-kita.backend/internal/interfaces/http/middleware"
	"recovery-kita.backend/internal/interfaces/http/response"
	"recovery-kita.backend/internal/usecases"
)

// TemplateHandler serves merchant email-template management
type TemplateHandler struct {
	templateUsecase *usecases.TemplateUsecase
}

func NewTemplateHandler(templateUsecase *usecases.TemplateUsecase) *TemplateHandler {
	return &TemplateHandler{templateUsecase: templateUsecase}
}

// SaveTemplate handles POST /email-templates
func (h *TemplateHandler) SaveTemplate(c *gin.Context) {
	merchant, ok := middleware.GetMerchant(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "merchant not resolved"})
		return
	}

	var input entities.EmailTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tpl, err := h.templateUsecase.Save(c.Request.Context(), merchant, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, tpl)
}
