package response

import (
	"errors"

	"github.com/gin-gonic/gin"

	domainerrors "recovery-kita.backend/internal/domain/errors"
)

var productionMode = false

// SetProductionMode switches error responses to sanitized messages.
func SetProductionMode(on bool) {
	productionMode = on
}

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error maps an error to its HTTP shape. Unknown errors become a 500; in
// production their message is sanitized.
func Error(c *gin.Context, err error) {
	var appErr *domainerrors.AppError
	if !errors.As(err, &appErr) {
		appErr = domainerrors.InternalError(err)
	}

	message := appErr.Message
	if productionMode && appErr.Status >= 500 {
		message = "Internal Server Error"
	}

	c.JSON(appErr.Status, gin.H{
		"code":    appErr.Code,
		"message": message,
	})
}
