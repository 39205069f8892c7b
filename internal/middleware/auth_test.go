package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"studyhelper_backend/internal/config"
	"studyhelper_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "middleware-test-secret"

func whoami(c *gin.Context) {
	id := util.CurrentUserID(c)
	if id == nil {
		c.String(http.StatusOK, "anonymous")
		return
	}
	c.String(http.StatusOK, *id)
}

func serve(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWT: config.JWTConfig{Secret: secret}}
	r := gin.New()
	r.GET("/me", AuthMiddleware(cfg), whoami)

	assert.Equal(t, http.StatusUnauthorized, serve(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Bearer garbage").Code)

	tok, err := util.GenerateJWT("u-42", "", secret, time.Minute)
	require.NoError(t, err)
	w := serve(r, "Bearer "+tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-42", w.Body.String())
}

func TestTryAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWT: config.JWTConfig{Secret: secret}}
	r := gin.New()
	r.GET("/me", TryAuthMiddleware(cfg), whoami)

	assert.Equal(t, "anonymous", serve(r, "").Body.String())
	assert.Equal(t, "anonymous", serve(r, "Bearer garbage").Body.String())

	tok, err := util.GenerateJWT("u-7", "", secret, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "u-7", serve(r, "Bearer "+tok).Body.String())
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/me", whoami)

	w := serve(r, "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-Request-ID", "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
}
