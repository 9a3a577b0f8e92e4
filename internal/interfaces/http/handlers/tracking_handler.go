package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recovery-kita.backend/internal/usecases"
	"recovery-kita.backend/pkg/logger"
)

// trackingPixel is a 1×1 transparent GIF.
var trackingPixel = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

// TrackingHandler serves the unauthenticated open/click tracking endpoints
type TrackingHandler struct {
	trackingUsecase *usecases.TrackingUsecase
}

func NewTrackingHandler(trackingUsecase *usecases.TrackingUsecase) *TrackingHandler {
	return &TrackingHandler{trackingUsecase: trackingUsecase}
}

// TrackOpen handles GET /track/open/:logId. The pixel is always served;
// counting failures never break email rendering.
func (h *TrackingHandler) TrackOpen(c *gin.Context) {
	if logID, err := strconv.ParseInt(c.Param("logId"), 10, 64); err == nil {
		if err := h.trackingUsecase.RecordOpen(c.Request.Context(), logID); err != nil {
			logger.Warn(c.Request.Context(), "failed to record open", zap.Error(err))
		}
	}
	c.Data(http.StatusOK, "image/gif", trackingPixel)
}

// TrackClick handles GET /track/click?url&logId&sig. A bad signature is a
// 403 with no redirect and no counting.
func (h *TrackingHandler) TrackClick(c *gin.Context) {
	target := c.Query("url")
	sig := c.Query("sig")
	logID, err := strconv.ParseInt(c.Query("logId"), 10, 64)
	if target == "" || sig == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url, logId and sig are required"})
		return
	}

	dest, err := h.trackingUsecase.RecordClick(c.Request.Context(), target, logID, sig)
	if err != nil {
		logger.Warn(c.Request.Context(), "click signature rejected",
			zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
		return
	}
	c.Redirect(http.StatusFound, dest)
}
