package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"studyhelper_backend/internal/config"
	"studyhelper_backend/internal/controller"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestOwnerRoutesRejectAnonymousCallers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "router-test-secret"}}

	// 认证在进入控制器之前完成，服务层可以为空
	c := &controllers{
		document: controller.NewDocumentController(nil),
		quiz:     controller.NewQuizController(nil),
		health:   controller.NewHealthController(nil),
	}
	r := gin.New()
	(&App{}).registerRoutes(r, c, cfg)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodDelete, "/api/quizzes/1"},
		{http.MethodGet, "/api/attempts/1"},
		{http.MethodPost, "/api/documents/1/export"},
		{http.MethodDelete, "/api/documents/1"},
		{http.MethodPost, "/api/attempts/1/save-as"},
		{http.MethodGet, "/api/users/me/performance"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(rt.method, rt.path, nil))
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}
