package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studyhelper_backend/internal/backend"
	"studyhelper_backend/internal/config"
	"studyhelper_backend/internal/controller"
	"studyhelper_backend/internal/repository"
	"studyhelper_backend/internal/service"
	"studyhelper_backend/internal/util"
	"studyhelper_backend/pkg/configwatcher"
	"studyhelper_backend/pkg/database"
	"studyhelper_backend/pkg/lock"
	"studyhelper_backend/pkg/logger"
	"studyhelper_backend/pkg/monitoring"
	"studyhelper_backend/pkg/security"
	"studyhelper_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type App struct {
	Config   *config.Config
	Router   *gin.Engine
	Primary  *database.Primary
	Local    *database.Local
	Redis    *redis.Client
	Selector *backend.Selector

	cors            *security.CORSPolicy
	limiter         *security.RateLimiter
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type routers struct {
	documents *backend.Router[repository.DocumentStore]
	quizzes   *backend.Router[repository.QuizStore]
}

type services struct {
	storage  *service.StorageService
	ai       *service.AIService
	document *service.DocumentService
	quiz     *service.QuizService
}

type controllers struct {
	document *controller.DocumentController
	quiz     *controller.QuizController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// initBackends 打开主库并准备本地兜底库，主库不可达时直接切换
func (a *App) initBackends(cfg *config.Config) {
	a.Primary = database.OpenPrimary(&cfg.Database.Primary)
	a.Local = database.NewLocal(&cfg.Database.Fallback)

	a.Selector = backend.NewSelector(backend.Options{
		Timeout:         cfg.Database.Primary.Timeout,
		FallbackEnabled: cfg.Database.Fallback.Enabled,
		InitFallback:    a.Local.Init,
	})
	a.Selector.OnFailover(func(reason string) {
		logger.Log.Warn("Serving from local fallback until restart", zap.String("reason", reason))
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.Primary.Timeout)
	defer cancel()
	if !a.Selector.Probe(ctx, a.Primary.Ping) {
		return
	}

	if cfg.Database.Primary.AutoMigrate || cfg.MigrateOnly {
		if err := a.Primary.Migrate(); err != nil {
			if cfg.MigrateOnly {
				logger.Log.Fatal("Primary database migration failed", zap.Error(err))
			}
			a.Selector.MarkFailed("migrate", err)
		}
	}
}

func (a *App) initRouters() *routers {
	fallbackTx := a.Local.Transactional()
	return &routers{
		documents: backend.NewRouter[repository.DocumentStore](a.Selector,
			repository.NewPrimaryDocumentRepository(a.Primary),
			repository.NewLocalDocumentRepository(a.Local)),
		quizzes: backend.NewRouter[repository.QuizStore](a.Selector,
			repository.NewQuizRepository(a.Primary, true),
			repository.NewQuizRepository(a.Local, fallbackTx)),
	}
}

// initLocker 配置了 Redis 时使用分布式锁，否则退回进程内锁
func (a *App) initLocker(cfg *config.Config) lock.Locker {
	if !cfg.Redis.Enabled {
		return lock.NewLocalLocker()
	}
	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Warn("Redis unavailable, using in-process locks", zap.Error(err))
		return lock.NewLocalLocker()
	}
	a.Redis = rdb
	return lock.NewRedisLocker(rdb, "studyhelper:lock:")
}

func (a *App) initServices(r *routers, cfg *config.Config, locker lock.Locker) *services {
	s := &services{
		storage: service.NewStorageService(cfg),
		ai:      service.NewAIService(cfg.AI),
	}

	// 未配置 AI 时保持接口为 nil，相关接口返回 503
	var (
		summarizer service.Summarizer
		finder     service.ResourceFinder
		generator  service.QuestionGenerator
		feedback   service.FeedbackWriter
	)
	if s.ai.Configured() {
		summarizer, finder, generator, feedback = s.ai, s.ai, s.ai, s.ai
	} else {
		logger.Log.Warn("AI service not configured, generation endpoints disabled")
	}

	s.document = service.NewDocumentService(r.documents, s.storage, summarizer, finder, service.NewFileTextExtractor())
	s.quiz = service.NewQuizService(r.quizzes, locker, cfg.Quiz, generator, feedback)
	return s
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		document: controller.NewDocumentController(s.document),
		quiz:     controller.NewQuizController(s.quiz),
		health:   controller.NewHealthController(a.Selector),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	a.cors = security.NewCORSPolicy(cfg.CORS.AllowedOrigins)
	a.limiter = security.NewRateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute)

	router.Use(a.cors.Handler())
	router.Use(security.Secure())
	router.Use(a.limiter.Handler())

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())

	a.RegisterConfigCallback(logger.ApplyConfig)
	a.RegisterConfigCallback(func(c *config.Config) {
		a.cors.Update(c.CORS.AllowedOrigins)
		a.limiter.Update(c.RateLimit.MaxRequests, time.Duration(c.RateLimit.WindowMinutes)*time.Minute)
	})
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	// 监控初始化
	monitoring.Init()

	app := &App{Config: cfg}
	app.initBackends(cfg)
	if cfg.MigrateOnly {
		return app
	}

	r := app.initRouters()
	services := app.initServices(r, cfg, app.initLocker(cfg))
	controllers := app.initControllers(services)

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("studyhelper-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
		} else {
			app.tracer = tp
		}
	}

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) applyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go func() {
		if err := configwatcher.WatchConfig(watchCtx, a.Config.ConfigDir, a.applyConfig); err != nil {
			logger.Log.Warn("Config hot reload disabled", zap.Error(err))
		}
	}()

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Close(ctx)
	logger.Log.Info("Server exiting")
}

// Close 释放数据库、Redis 和追踪资源
func (a *App) Close(ctx context.Context) {
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.Local != nil {
		if err := a.Local.Close(); err != nil {
			logger.Log.Error("Failed to close local database", zap.Error(err))
		}
	}
	if a.Primary != nil {
		if err := a.Primary.Close(); err != nil {
			logger.Log.Error("Failed to close primary database", zap.Error(err))
		}
	}
}
