package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraudguard/fraudguard/internal/config"
	"github.com/fraudguard/fraudguard/pkg/constants"
	"github.com/fraudguard/fraudguard/pkg/logger"
)

func protectedRouter(cfg config.AuthConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequireJWT(cfg, logger.NewNoop()))
	router.GET("/protected", func(c *gin.Context) {
		subject, _ := c.Request.Context().Value(constants.ContextKeySubject).(string)
		c.JSON(http.StatusOK, gin.H{"subject": subject})
	})
	return router
}

func signToken(t *testing.T, secret, issuer, subject string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	if issuer != "" {
		claims["iss"] = issuer
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestRequireJWT_DisabledPassesThrough(t *testing.T) {
	router := protectedRouter(config.AuthConfig{Enabled: false})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireJWT_MissingToken(t *testing.T) {
	router := protectedRouter(config.AuthConfig{Enabled: true, Secret: "s3cret"})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireJWT_ValidToken(t *testing.T) {
	cfg := config.AuthConfig{Enabled: true, Secret: "s3cret", Issuer: "fraudguard"}
	router := protectedRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "s3cret", "fraudguard", "analyst-1"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "analyst-1")
}

func TestRequireJWT_WrongSecret(t *testing.T) {
	router := protectedRouter(config.AuthConfig{Enabled: true, Secret: "s3cret"})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "other", "", "analyst-1"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireJWT_WrongIssuer(t *testing.T) {
	router := protectedRouter(config.AuthConfig{Enabled: true, Secret: "s3cret", Issuer: "fraudguard"})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "s3cret", "someone-else", "analyst-1"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireJWT_ExpiredToken(t *testing.T) {
	router := protectedRouter(config.AuthConfig{Enabled: true, Secret: "s3cret"})

	claims := jwt.MapClaims{"sub": "analyst-1", "exp": time.Now().Add(-time.Hour).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExtractBearer(t *testing.T) {
	assert.Equal(t, "tok", extractBearer("Bearer tok"))
	assert.Equal(t, "tok", extractBearer("bearer tok"))
	assert.Equal(t, "", extractBearer(""))
	assert.Equal(t, "", extractBearer("Basic dXNlcg=="))
	assert.Equal(t, "", extractBearer("Bearer"))
}
