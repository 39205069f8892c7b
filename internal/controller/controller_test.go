package controller

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"studyhelper_backend/internal/backend"
	"studyhelper_backend/internal/config"
	"studyhelper_backend/internal/middleware"
	"studyhelper_backend/internal/repository"
	"studyhelper_backend/internal/service"
	"studyhelper_backend/internal/util"
	"studyhelper_backend/pkg/database"
	"studyhelper_backend/pkg/lock"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "controller-test-secret"

type testServer struct {
	engine   *gin.Engine
	selector *backend.Selector
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func memoryDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite("file:"+uuid.NewString()+"?mode=memory&cache=shared&_foreign_keys=on", name)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newTestServer(t *testing.T, fallbackEnabled bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	primary := database.NewPrimaryFromDB(memoryDB(t, "gorm.primary"))
	require.NoError(t, primary.Migrate())
	local := database.NewLocalFromDB(memoryDB(t, "gorm.local"), false)

	sel := backend.NewSelector(backend.Options{
		Timeout:         2 * time.Second,
		FallbackEnabled: fallbackEnabled,
		InitFallback:    local.Init,
	})
	docs := backend.NewRouter[repository.DocumentStore](sel,
		repository.NewPrimaryDocumentRepository(primary),
		repository.NewLocalDocumentRepository(local))
	quizzes := backend.NewRouter[repository.QuizStore](sel,
		repository.NewQuizRepository(primary, true),
		repository.NewQuizRepository(local, false))

	docCtl := NewDocumentController(service.NewDocumentService(docs, nil, nil, nil, service.NewFileTextExtractor()))
	quizCtl := NewQuizController(service.NewQuizService(quizzes, lock.NewLocalLocker(), config.QuizConfig{
		DefaultListLimit: 20,
		MaxListLimit:     100,
		LockTTL:          5 * time.Second,
	}, nil, nil))
	health := NewHealthController(sel)

	cfg := &config.Config{JWT: config.JWTConfig{Secret: testSecret}}
	r := gin.New()
	api := r.Group("/api")
	api.GET("/health", health.HealthCheck)

	open := api.Group("", middleware.TryAuthMiddleware(cfg))
	open.POST("/documents", docCtl.SaveDocument)
	open.GET("/documents/:id", docCtl.GetDocument)
	open.POST("/quizzes", quizCtl.CreateQuiz)
	open.GET("/quizzes/:id", quizCtl.GetQuiz)

	authed := api.Group("", middleware.AuthMiddleware(cfg))
	authed.GET("/documents", docCtl.ListDocuments)
	authed.POST("/documents/:id/export", docCtl.ExportSummary)
	authed.DELETE("/documents/:id", docCtl.DeleteDocument)
	authed.DELETE("/quizzes/:id", quizCtl.DeleteQuiz)
	authed.POST("/quizzes/:id/attempts", quizCtl.SubmitAttempt)
	authed.GET("/attempts", quizCtl.ListAttempts)
	authed.GET("/attempts/:id", quizCtl.GetAttempt)

	return &testServer{engine: r, selector: sel}
}

func token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := util.GenerateJWT(userID, "student", testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, tok string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func sampleQuiz() gin.H {
	return gin.H{
		"topic": "Cells",
		"questions": []gin.H{
			{"question_text": "Powerhouse of the cell?", "option_a": "Nucleus", "option_b": "Mitochondria",
				"option_c": "Ribosome", "option_d": "Golgi", "correct_option": "B"},
			{"question_text": "Plant cell wall?", "option_a": "Cellulose", "option_b": "Chitin",
				"option_c": "Keratin", "option_d": "Lipid", "correct_option": "A", "max_marks": 2},
		},
	}
}

func TestDocumentSaveAndGet(t *testing.T) {
	s := newTestServer(t, true)

	w, env := s.do(t, http.MethodPost, "/api/documents", "", gin.H{
		"topic":   "Photosynthesis",
		"content": "Plants turn light into sugar.",
		"summary": "Light to sugar.",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var doc struct {
		DocID  uint    `json:"doc_id"`
		UserID *string `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &doc))
	assert.NotZero(t, doc.DocID)
	assert.Nil(t, doc.UserID)

	w, env = s.do(t, http.MethodGet, "/api/documents/1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "Photosynthesis")

	w, _ = s.do(t, http.MethodGet, "/api/documents/99", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/documents/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentListRequiresAuth(t *testing.T) {
	s := newTestServer(t, true)

	w, _ := s.do(t, http.MethodGet, "/api/documents", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	alice := token(t, "alice")
	s.do(t, http.MethodPost, "/api/documents", alice, gin.H{"topic": "A", "content": "a"})
	s.do(t, http.MethodPost, "/api/documents", token(t, "bob"), gin.H{"topic": "B", "content": "b"})

	w, env := s.do(t, http.MethodGet, "/api/documents", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 1, page.Total)
}

func TestDeleteDocumentOwnership(t *testing.T) {
	s := newTestServer(t, true)
	alice := token(t, "alice")

	w, _ := s.do(t, http.MethodPost, "/api/documents", alice, gin.H{"topic": "Mine", "content": "x"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/api/documents/1", token(t, "mallory"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/api/documents/1", alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/documents/1", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateQuizValidation(t *testing.T) {
	s := newTestServer(t, true)
	quiz := sampleQuiz()
	quiz["questions"].([]gin.H)[1]["correct_option"] = "E"

	w, env := s.do(t, http.MethodPost, "/api/quizzes", "", quiz)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Contains(t, string(env.Data), "questions[1].correct_option")
}

func TestQuizViewHidesAnswers(t *testing.T) {
	s := newTestServer(t, true)

	w, env := s.do(t, http.MethodPost, "/api/quizzes", "", sampleQuiz())
	require.Equal(t, http.StatusCreated, w.Code)
	var created service.CreatedQuiz
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, 2, created.TotalQuestions)

	w, env = s.do(t, http.MethodGet, "/api/quizzes/1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "Mitochondria")
	assert.False(t, strings.Contains(string(env.Data), "correct_option"))

	w, _ = s.do(t, http.MethodGet, "/api/quizzes/42", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitAttempt(t *testing.T) {
	s := newTestServer(t, true)
	_, env := s.do(t, http.MethodPost, "/api/quizzes", "", sampleQuiz())
	var created service.CreatedQuiz
	require.NoError(t, json.Unmarshal(env.Data, &created))

	_, env = s.do(t, http.MethodGet, "/api/quizzes/1", "", nil)
	var view struct {
		Questions []struct {
			QuestionID uint `json:"question_id"`
		} `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	require.Len(t, view.Questions, 2)

	answers := gin.H{"answers": []gin.H{
		{"question_id": view.Questions[0].QuestionID, "selected_option": "b"},
		{"question_id": view.Questions[1].QuestionID, "selected_option": "C"},
	}}

	w, _ := s.do(t, http.MethodPost, "/api/quizzes/1/attempts", "", answers)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	alice := token(t, "alice")
	w, env = s.do(t, http.MethodPost, "/api/quizzes/1/attempts", alice, answers)
	require.Equal(t, http.StatusOK, w.Code)
	var result service.AttemptResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 1, result.Score)
	assert.Equal(t, 3, result.TotalMarks)
	assert.Equal(t, 33.33, result.Percentage)

	w, env = s.do(t, http.MethodGet, "/api/attempts", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "Cells")
}

func TestDeleteQuizOwnership(t *testing.T) {
	s := newTestServer(t, true)
	owner := token(t, "owner")

	w, _ := s.do(t, http.MethodPost, "/api/quizzes", owner, sampleQuiz())
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/api/quizzes/1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/api/quizzes/1", token(t, "mallory"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/quizzes/1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/api/quizzes/1", owner, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/quizzes/1", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAttemptDetailIsPrivate(t *testing.T) {
	s := newTestServer(t, true)
	_, env := s.do(t, http.MethodPost, "/api/quizzes", "", sampleQuiz())
	var created service.CreatedQuiz
	require.NoError(t, json.Unmarshal(env.Data, &created))

	alice := token(t, "alice")
	w, _ := s.do(t, http.MethodPost, "/api/quizzes/1/attempts", alice, gin.H{"answers": []gin.H{}})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/attempts/1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/attempts/1", token(t, "mallory"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = s.do(t, http.MethodGet, "/api/attempts/1", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "Cells")
}

func TestExportRequiresOwner(t *testing.T) {
	s := newTestServer(t, true)
	alice := token(t, "alice")

	w, _ := s.do(t, http.MethodPost, "/api/documents", alice, gin.H{"topic": "Private", "content": "x", "summary": "y"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/documents/1/export", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/documents/1/export", token(t, "mallory"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, false)

	w, env := s.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"primary":"up"`)

	s.selector.MarkFailed("save_document", errors.New("connection refused"))

	w, env = s.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, string(env.Data), `"primary":"down"`)
}

func TestHealthDegradedWithFallback(t *testing.T) {
	s := newTestServer(t, true)
	s.selector.MarkFailed("get_quiz", errors.New("timeout"))

	w, env := s.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"status":"degraded"`)
}
