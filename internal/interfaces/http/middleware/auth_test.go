package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recovery-kita.backend/internal/domain/entities"
	"recovery-kita.backend/pkg/jwt"
)

type stubProvisioner struct {
	merchant *entities.Merchant
	calls    []string
}

func (s *stubProvisioner) Provision(ctx context.Context, authUserID, email string) (*entities.Merchant, error) {
	s.calls = append(s.calls, authUserID)
	return s.merchant, nil
}

func authRouter(verifier *jwt.Verifier, provisioner MerchantProvisioner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(verifier, provisioner), func(c *gin.Context) {
		merchant, _ := GetMerchant(c)
		c.JSON(http.StatusOK, gin.H{"merchantId": merchant.ID})
	})
	return r
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	r := authRouter(jwt.NewVerifier("secret"), &stubProvisioner{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_BadScheme(t *testing.T) {
	r := authRouter(jwt.NewVerifier("secret"), &stubProvisioner{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(AuthorizationHeader, "Basic abc")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	verifier := jwt.NewVerifier("secret")
	r := authRouter(verifier, &stubProvisioner{})

	token, err := verifier.Sign("auth0|u1", "", -time.Minute)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(AuthorizationHeader, BearerPrefix+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "expired")
}

func TestAuthMiddleware_ProvisionsAndAttachesMerchant(t *testing.T) {
	verifier := jwt.NewVerifier("secret")
	merchant := &entities.Merchant{ID: uuid.New()}
	provisioner := &stubProvisioner{merchant: merchant}
	r := authRouter(verifier, provisioner)

	token, err := verifier.Sign("auth0|u1", "m@example.com", time.Minute)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(AuthorizationHeader, BearerPrefix+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), merchant.ID.String())
	assert.Equal(t, []string{"auth0|u1"}, provisioner.calls)
}
