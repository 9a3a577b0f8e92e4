package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	WorkerSecretHeader = "X-Worker-Secret"
	AdminKeyHeader     = "X-Admin-Key"
)

// secretMiddleware compares a header against a shared secret in constant
// time. An empty configured secret disables the surface entirely.
func secretMiddleware(header, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(header)
		if secret == "" || provided == "" ||
			subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid credentials",
			})
			return
		}
		c.Next()
	}
}

// WorkerSecretMiddleware guards the worker admin endpoints.
func WorkerSecretMiddleware(secret string) gin.HandlerFunc {
	return secretMiddleware(WorkerSecretHeader, secret)
}

// AdminKeyMiddleware guards the GDPR erasure endpoint.
func AdminKeyMiddleware(key string) gin.HandlerFunc {
	return secretMiddleware(AdminKeyHeader, key)
}
