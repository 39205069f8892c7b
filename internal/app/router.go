package app

import (
	"studyhelper_backend/docs"
	"studyhelper_backend/internal/config"
	"studyhelper_backend/internal/middleware"
	"studyhelper_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	api.Use(middleware.RequestID())
	api.GET("/health", c.health.HealthCheck)

	// 1. 可选认证：游客可用，登录用户记录所有者
	a.registerPublicRoutes(api, c, cfg)

	// 2. 需要登录
	authGroup := api.Group("")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	a.registerUserRoutes(authGroup, c)
}

func (a *App) registerPublicRoutes(api *gin.RouterGroup, c *controllers, cfg *config.Config) {
	public := api.Group("")
	public.Use(middleware.TryAuthMiddleware(cfg))
	{
		public.POST("/documents", c.document.SaveDocument)
		public.POST("/documents/summarize", c.document.Summarize)
		public.POST("/documents/summarize/file", c.document.SummarizeFile)
		public.GET("/documents/:id", c.document.GetDocument)
		public.GET("/documents/:id/download", c.document.DownloadDocument)

		public.POST("/quizzes", c.quiz.CreateQuiz)
		public.POST("/quizzes/generate", c.quiz.GenerateQuiz)
		public.GET("/quizzes/:id", c.quiz.GetQuiz)
		public.GET("/quizzes/:id/analytics", c.quiz.QuizAnalytics)
	}
}

func (a *App) registerUserRoutes(auth *gin.RouterGroup, c *controllers) {
	auth.GET("/documents", c.document.ListDocuments)
	auth.GET("/documents/search", c.document.SearchDocuments)
	auth.GET("/documents/summaries", c.document.ListSummaries)
	auth.POST("/documents/:id/export", c.document.ExportSummary)
	auth.DELETE("/documents/:id", c.document.DeleteDocument)

	auth.POST("/quizzes/:id/attempts", c.quiz.SubmitAttempt)
	auth.DELETE("/quizzes/:id", c.quiz.DeleteQuiz)
	auth.GET("/attempts", c.quiz.ListAttempts)
	auth.GET("/attempts/:id", c.quiz.GetAttempt)
	auth.POST("/attempts/:id/save-as", c.quiz.SaveQuizAs)
	auth.GET("/users/me/performance", c.quiz.MyPerformance)
}
