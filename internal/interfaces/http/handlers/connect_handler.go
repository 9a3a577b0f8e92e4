package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"recovery-kita.backend/internal/interfaces/http/middleware"
	"recovery-kita.backend/internal/interfaces/http/response"
	"recovery-kita.backend/internal/usecases"
)

// ConnectHandler serves the provider OAuth connect flow
type ConnectHandler struct {
	connectUsecase *usecases.ConnectUsecase
}

func NewConnectHandler(connectUsecase *usecases.ConnectUsecase) *ConnectHandler {
	return &ConnectHandler{connectUsecase: connectUsecase}
}

// Authorize handles POST /stripe/connect/authorize
func (h *ConnectHandler) Authorize(c *gin.Context) {
	merchant, ok := middleware.GetMerchant(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "merchant not resolved"})
		return
	}

	authorizeURL, err := h.connectUsecase.Authorize(c.Request.Context(), merchant)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"url": authorizeURL})
}

// Callback handles GET /stripe/connect/callback
func (h *ConnectHandler) Callback(c *gin.Context) {
	merchant, ok := middleware.GetMerchant(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "merchant not resolved"})
		return
	}

	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state and code are required"})
		return
	}

	if err := h.connectUsecase.Callback(c.Request.Context(), merchant, state, code); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"connected": true})
}

// Disconnect handles POST /stripe/disconnect. The body is ignored; the
// session merchant is the subject.
func (h *ConnectHandler) Disconnect(c *gin.Context) {
	merchant, ok := middleware.GetMerchant(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "merchant not resolved"})
		return
	}

	if err := h.connectUsecase.Disconnect(c.Request.Context(), merchant); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"disconnected": true})
}
