package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"recovery-kita.backend/internal/domain/entities"
	"recovery-kita.backend/pkg/jwt"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	// MerchantKey is the context key for the provisioned merchant
	MerchantKey = "merchant"
)

// MerchantProvisioner resolves (and lazily creates) the merchant for an
// authenticated user. Implemented by usecases.MerchantUsecase.
type MerchantProvisioner interface {
	Provision(ctx context.Context, authUserID, email string) (*entities.Merchant, error)
}

// AuthMiddleware validates the auth-provider token and attaches the
// merchant to the request, auto-provisioning a FREE merchant on the user's
// first authenticated request.
func AuthMiddleware(verifier *jwt.Verifier, merchantUsecase MerchantProvisioner) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeader)
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header is required",
			})
			return
		}

		if !strings.HasPrefix(authHeader, BearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization format. Use: Bearer <token>",
			})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		claims, err := verifier.Verify(tokenString)
		if err != nil {
			if err == jwt.ErrExpiredToken {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "Token has expired",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid token",
			})
			return
		}

		merchant, err := merchantUsecase.Provision(c.Request.Context(), claims.Subject, claims.Email)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to resolve merchant",
			})
			return
		}

		c.Set(MerchantKey, merchant)
		c.Next()
	}
}

// GetMerchant gets the provisioned merchant from context
func GetMerchant(c *gin.Context) (*entities.Merchant, bool) {
	v, exists := c.Get(MerchantKey)
	if !exists {
		return nil, false
	}
	merchant, ok := v.(*entities.Merchant)
	return merchant, ok
}
