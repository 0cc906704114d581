package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ndtutor/tutor-api/internal/handler"
	"github.com/ndtutor/tutor-api/internal/middleware"
	"github.com/ndtutor/tutor-api/internal/repository"
	"github.com/ndtutor/tutor-api/internal/service"
	"github.com/ndtutor/tutor-api/pkg/cache"
	"github.com/ndtutor/tutor-api/pkg/config"
	"github.com/ndtutor/tutor-api/pkg/export"
	"github.com/ndtutor/tutor-api/pkg/gemini"
	"github.com/ndtutor/tutor-api/pkg/logger"
	"github.com/ndtutor/tutor-api/pkg/middleware/cors"
	"github.com/ndtutor/tutor-api/pkg/middleware/requestid"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server exited: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := repository.NewFirestoreClient(ctx, cfg.Firestore)
	if err != nil {
		return fmt.Errorf("firestore: %w", err)
	}
	defer func() { _ = store.Close() }()

	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Analytics.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(redisClient, log)
			defer func() { _ = repo.Close() }()
			cacheRepo = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Analytics.CacheTTL, log, cacheRepo != nil)

	var aiClient *gemini.Client
	if cfg.Gemini.APIKey != "" {
		aiClient, err = gemini.NewClient(gemini.Config{
			APIKey:  cfg.Gemini.APIKey,
			BaseURL: cfg.Gemini.BaseURL,
			Timeout: cfg.Gemini.Timeout,
		})
		if err != nil {
			return fmt.Errorf("gemini: %w", err)
		}
	} else {
		log.Warn("no Gemini API key configured, AI features degraded")
	}

	missionRepo := repository.NewMissionRepository(store)
	sessionRepo := repository.NewSessionRepository(store)
	userRepo := repository.NewUserRepository(store)
	summaryRepo := repository.NewSessionSummaryRepository(store)
	itemRepo := repository.NewReviewItemRepository(store)
	usageRepo := repository.NewUsageRepository(store)
	pulseRepo := repository.NewPulseRepository(store)
	lessonRepo := repository.NewReviewLessonRepository(store)

	analyticsSvc := service.NewAnalyticsService(
		missionRepo, sessionRepo, userRepo, summaryRepo, itemRepo, usageRepo,
		cacheSvc, metrics, log, cfg.Analytics, cfg.Costs,
	)

	var generator service.TextGenerator
	if aiClient != nil {
		generator = aiClient
	}
	pulseSvc := service.NewPulseService(
		analyticsSvc, pulseRepo, generator, metrics, log,
		cfg.Gemini.PulseModel, cfg.Pulse,
	)

	mistakesSvc := service.NewMistakesService(userRepo, itemRepo, log)

	reviewSvc := service.NewReviewService(lessonRepo, itemRepo, userRepo, cacheSvc, log, cfg.Review)
	reviewSvc.Start(ctx)
	defer reviewSvc.Stop()

	var tokenSvc *service.TokenService
	if aiClient != nil {
		tokenSvc = service.NewTokenService(aiClient, log, cfg.Gemini.LiveModel)
	}

	var languageSvc *service.LanguageService
	translateClient, err := repository.NewTranslateClient(ctx, cfg.Firestore)
	if err != nil {
		log.Warn("translate client unavailable", zap.Error(err))
	}
	speechClient, err := repository.NewSpeechClient(ctx, cfg.Firestore)
	if err != nil {
		log.Warn("text-to-speech client unavailable", zap.Error(err))
	}
	if translateClient != nil && speechClient != nil {
		defer func() { _ = translateClient.Close() }()
		defer func() { _ = speechClient.Close() }()
		languageSvc = service.NewLanguageService(translateClient, speechClient, log)
	}

	router := buildRouter(cfg, log, metrics, routerDeps{
		analytics: handler.NewAnalyticsHandler(analyticsSvc),
		pulse:     handler.NewPulseHandler(pulseSvc),
		mistakes:  handler.NewMistakesHandler(mistakesSvc, export.NewCSVExporter(), export.NewPDFExporter()),
		review:    handler.NewReviewHandler(reviewSvc),
		token:     tokenHandlerOrNil(tokenSvc),
		prompt:    handler.NewPromptHandler(service.NewPromptBuilder()),
		language:  languageHandlerOrNil(languageSvc),
		metrics:   handler.NewMetricsHandler(metrics),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.Int("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type routerDeps struct {
	analytics *handler.AnalyticsHandler
	pulse     *handler.PulseHandler
	mistakes  *handler.MistakesHandler
	review    *handler.ReviewHandler
	token     *handler.TokenHandler
	prompt    *handler.PromptHandler
	language  *handler.LanguageHandler
	metrics   *handler.MetricsHandler
}

func buildRouter(cfg *config.Config, log *zap.Logger, metrics *service.MetricsService, deps routerDeps) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.Middleware())
	router.Use(logger.GinMiddleware(log))
	router.Use(cors.New(cfg.CORS.AllowedOrigins))
	router.Use(middleware.Metrics(metrics))
	router.Use(middleware.WithResponseMeta())

	router.GET("/health", deps.metrics.Health)
	router.GET("/ready", deps.metrics.Ready)
	router.GET("/metrics", deps.metrics.Prometheus)

	api := router.Group(cfg.APIPrefix)
	{
		api.GET("/analytics/teacher/:teacherId", deps.analytics.Teacher)

		api.GET("/pulse/teacher/:teacherId", deps.pulse.Get)
		api.POST("/pulse/teacher/:teacherId", deps.pulse.Generate)

		api.GET("/mistakes/teacher/:teacherId", deps.mistakes.Teacher)
		api.GET("/mistakes/teacher/:teacherId/export", deps.mistakes.Export)

		review := api.Group("/review", middleware.RequireSharedSecret(cfg.Review.SharedSecret))
		{
			review.POST("/generate", deps.review.Generate)
			review.POST("/generate-batch", deps.review.GenerateBatch)
		}

		api.POST("/token", deps.token.Create)
		api.POST("/prompt/build", deps.prompt.Build)
		api.POST("/translate", deps.language.Translate)
		api.POST("/tts", deps.language.Synthesize)
	}

	return router
}

// tokenHandlerOrNil keeps the route registered even without an AI client;
// the handler then answers with a clean internal error instead of a 404.
func tokenHandlerOrNil(svc *service.TokenService) *handler.TokenHandler {
	if svc == nil {
		return handler.NewTokenHandler(nil)
	}
	return handler.NewTokenHandler(svc)
}

func languageHandlerOrNil(svc *service.LanguageService) *handler.LanguageHandler {
	if svc == nil {
		return handler.NewLanguageHandler(nil)
	}
	return handler.NewLanguageHandler(svc)
}
