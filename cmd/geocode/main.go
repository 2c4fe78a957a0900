package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/richxcame/maproute/internal/geocode"
	"github.com/richxcame/maproute/pkg/cache"
	"github.com/richxcame/maproute/pkg/common"
	"github.com/richxcame/maproute/pkg/config"
	"github.com/richxcame/maproute/pkg/errors"
	"github.com/richxcame/maproute/pkg/health"
	"github.com/richxcame/maproute/pkg/logger"
	"github.com/richxcame/maproute/pkg/middleware"
	redisClient "github.com/richxcame/maproute/pkg/redis"
	"github.com/richxcame/maproute/pkg/resilience"
	"github.com/richxcame/maproute/pkg/tracing"
	"go.uber.org/zap"
)

const (
	serviceName = config.ServiceGeocode
	version     = "1.0.0"
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if err := logger.Init(cfg.Server.Environment, logger.Options{Level: cfg.Server.LogLevel, ServiceName: serviceName}); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting geocode proxy",
		zap.String("service", serviceName),
		zap.String("version", version),
		zap.String("geocoder", cfg.Geocoder.BaseURL),
	)

	if err := errors.InitSentry(cfg.Sentry, cfg.Server.Environment, serviceName, version); err != nil {
		logger.Warn("Sentry disabled, continuing without error tracking", zap.Error(err))
	} else {
		defer errors.Flush(2 * time.Second)
		logger.Info("Sentry error tracking initialized successfully")
	}

	tp, err := tracing.InitTracer(tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: cfg.Tracing.ServiceVersion,
		Environment:    cfg.Server.Environment,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		Enabled:        cfg.Tracing.Enabled,
	}, logger.Get())
	if err != nil {
		logger.Warn("Failed to initialize tracer, continuing without tracing", zap.Error(err))
	} else if tp != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Failed to shutdown tracer", zap.Error(err))
			}
		}()
		logger.Info("OpenTelemetry tracing initialized successfully")
	}

	deep := health.NewDeepChecker(health.DeepCheckerConfig{Version: version, CacheTTL: 10 * time.Second})
	healthChecks := make(map[string]func() error)

	var store cache.Store
	if cfg.Redis.Enabled {
		redis, err := redisClient.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redis.Close()
		logger.Info("Connected to Redis", zap.String("addr", cfg.Redis.RedisAddr()))

		store = cache.NewManager(redis)
		redisCheck := health.PingChecker(redis, health.DefaultCheckerConfig())
		healthChecks["redis"] = redisCheck
		deep.AddDependency("redis", redisCheck, true)
	} else {
		memory := cache.NewMemory(time.Minute)
		defer memory.Close()
		store = memory
		logger.Info("Redis disabled, using in-process geocode cache")
	}

	breaker := resilience.NewFromConfig(cfg.Resilience.CircuitBreaker, "nominatim")
	deep.AddCircuitBreaker(breaker)

	nominatim := geocode.NewNominatimClient(cfg.Geocoder, breaker)
	service := geocode.NewService(nominatim, store, cfg.Geocoder.CacheTTL(), cfg.Geocoder.Timeout())
	handler := geocode.NewHandler(service)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.NoRoute(common.NoRouteHandler())
	router.NoMethod(common.NoMethodHandler())
	router.Use(middleware.RecoveryWithSentry())
	router.Use(middleware.SentryMiddleware())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout()))
	router.Use(middleware.RequestLogger(serviceName))
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	router.Use(middleware.Metrics(serviceName))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware(serviceName))
	}
	router.Use(middleware.ErrorHandler())

	router.GET("/healthz", common.HealthCheck(serviceName, version))
	router.GET("/health/live", common.LivenessProbe(serviceName, version))
	router.GET("/health/ready", common.ReadinessProbe(serviceName, version, healthChecks))
	router.GET("/health/deep", deep.GinHandler())
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": serviceName, "version": version})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
