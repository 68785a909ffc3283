package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeplay/internal/agents"
	"codeplay/internal/ai"
	"codeplay/internal/auth"
	"codeplay/internal/cache"
	"codeplay/internal/config"
	"codeplay/internal/db"
	"codeplay/internal/handlers"
	"codeplay/internal/keyrotation"
	"codeplay/internal/logging"
	"codeplay/internal/metrics"
	"codeplay/internal/middleware"
	"codeplay/internal/store"
	"codeplay/internal/subpages"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const providerTimeout = 180 * time.Second

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// Try parent directory for .env
		_ = godotenv.Load("../.env")
	}

	logging.Init()
	defer logging.Sync()
	log := logging.L()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("configuration rejected", zap.Error(err))
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	database, err := db.NewDatabase(cfg.Database, !cfg.IsProduction())
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	// Redis is optional; without it public pages are rendered on every request
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err = db.NewRedisClient(ctx, db.DefaultRedisConfig(cfg.RedisURL))
		cancel()
		if err != nil {
			log.Warn("redis unavailable, public page cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	projects := store.NewProjectStore(database.DB)
	rotator := keyrotation.NewRotator("gemini", cfg.Gemini.Keys, store.NewRotationStore(database.DB),
		keyrotation.WithInterval(cfg.RotationInterval))

	var sweeper *keyrotation.Sweeper
	if cfg.RotationSweep != "" && rotator.Size() > 0 {
		sweeper, err = keyrotation.NewSweeper(rotator, cfg.RotationSweep)
		if err != nil {
			log.Fatal("invalid KEY_ROTATION_SWEEP schedule", zap.String("schedule", cfg.RotationSweep), zap.Error(err))
		}
		sweeper.Start()
		defer sweeper.Stop()
	}

	gemini := ai.NewGeminiClient(cfg.Gemini.BaseURL, cfg.Gemini.Model, providerTimeout)
	gateway := ai.NewGatewayClient(cfg.Gateway.APIKey, cfg.Gateway.URL, cfg.Gateway.Model, providerTimeout)
	var fallback ai.Completer
	if gateway.Configured() {
		fallback = gateway
	} else {
		log.Warn("AI gateway key missing, fallback and continuation disabled")
	}

	generator := ai.NewGenerator(gemini, rotator, fallback)
	materializer := subpages.NewMaterializer(projects, fallback, subpages.Options{
		FallbackRoutes: cfg.SubpageFallbackRoutes,
		MinChars:       cfg.SubpageMinChars,
	})
	hub := agents.NewHub()
	orchestrator := agents.NewOrchestrator(projects, generator, materializer, hub)
	continuer := agents.NewContinueService(projects, fallback, cfg.ContinuePolicy)

	pageCache := cache.NewPageCache(redisClient, cfg.PublicCacheTTL)
	h := handlers.NewHandler(projects, store.NewArticleStore(database.DB), orchestrator, continuer, hub, pageCache, cfg.AllowedOrigins)
	h.Checks["database"] = func(ctx context.Context) error { return database.Health() }
	if redisClient != nil {
		h.Checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	router := setupRouter(cfg, h)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	log.Info("server ready",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.Int("gemini_keys", rotator.Size()),
		zap.Bool("gateway", fallback != nil),
		zap.Bool("page_cache", pageCache.Enabled()))

	// Graceful shutdown: listen for SIGTERM/SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Fatal("failed to start server", zap.Error(err))
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	// Give in-flight requests up to 15 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
	log.Info("graceful shutdown complete")
}

func setupRouter(cfg *config.Config, h *handlers.Handler) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger("/health", "/metrics"))
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(metrics.PrometheusMiddleware())

	var limiter *middleware.IPRateLimiter
	if cfg.BuildRatePerMinute > 0 {
		limiter = middleware.NewIPRateLimiter(cfg.BuildRatePerMinute, cfg.BuildRatePerMinute)
	}

	h.RegisterRoutes(router, handlers.RouteOptions{
		Validator:    auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer),
		BuildLimiter: limiter,
		Metrics:      true,
	})
	return router
}
