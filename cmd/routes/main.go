package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/richxcame/maproute/internal/resolver"
	"github.com/richxcame/maproute/internal/routing"
	"github.com/richxcame/maproute/internal/search"
	"github.com/richxcame/maproute/pkg/cache"
	"github.com/richxcame/maproute/pkg/common"
	"github.com/richxcame/maproute/pkg/config"
	"github.com/richxcame/maproute/pkg/errors"
	"github.com/richxcame/maproute/pkg/geo"
	"github.com/richxcame/maproute/pkg/health"
	"github.com/richxcame/maproute/pkg/logger"
	"github.com/richxcame/maproute/pkg/middleware"
	"github.com/richxcame/maproute/pkg/ratelimit"
	redisClient "github.com/richxcame/maproute/pkg/redis"
	"github.com/richxcame/maproute/pkg/resilience"
	"github.com/richxcame/maproute/pkg/tracing"
	"github.com/richxcame/maproute/pkg/validation"
	"github.com/richxcame/maproute/pkg/websocket"
	"go.uber.org/zap"
)

const (
	serviceName = config.ServiceRoutes
	version     = "1.0.0"
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	if err := logger.Init(cfg.Server.Environment, logger.Options{Level: cfg.Server.LogLevel, ServiceName: serviceName}); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting route search service",
		zap.String("service", serviceName),
		zap.String("version", version),
		zap.String("geocode_proxy", cfg.Search.GeocodeProxyURL),
		zap.String("router", cfg.Router.BaseURL),
	)

	if err := validation.RegisterGinBinding(); err != nil {
		logger.Fatal("Failed to register validators", zap.Error(err))
	}

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
	var limiter *ratelimit.Limiter
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

		if cfg.RateLimit.Enabled {
			limiter = ratelimit.NewLimiter(redis.Client, cfg.RateLimit)
			logger.Info("Rate limiting enabled", zap.Int("limit", cfg.RateLimit.Limit), zap.Duration("window", cfg.RateLimit.Window()))
		}
	} else {
		memory := cache.NewMemory(time.Minute)
		defer memory.Close()
		store = memory
		logger.Info("Redis disabled, sessions and routes are kept in-process")
		if cfg.RateLimit.Enabled {
			logger.Warn("Rate limiting requires Redis, continuing without it")
		}
	}

	// Geocoding goes through the proxy service so every lookup shares its
	// cache and rate limit.
	geocodeResolver := resolver.NewProxyResolver(cfg.Search.GeocodeProxyURL, cfg.Search.CallTimeout())
	deep.AddDependency("geocode_proxy",
		health.HTTPEndpointChecker(strings.TrimRight(cfg.Search.GeocodeProxyURL, "/")+"/health/live", health.DefaultCheckerConfig()),
		false,
	)

	osrmBreaker := resilience.NewFromConfig(cfg.Resilience.CircuitBreaker, "osrm")
	deep.AddCircuitBreaker(osrmBreaker)

	router := routing.NewOSRMClient(cfg.Router, osrmBreaker)
	routeService := routing.NewService(router, store, cfg.Router.CacheTTL(), cfg.Router.Timeout())

	hub := websocket.NewHub()
	go hub.Run(rootCtx)

	defaultOrigin, err := geo.New(cfg.Search.DefaultLatitude, cfg.Search.DefaultLongitude)
	if err != nil {
		logger.Fatal("Invalid default origin", zap.Error(err))
	}

	workflow := search.NewWorkflow(geocodeResolver, routeService, cfg.Search.CallTimeout())
	manager := search.NewManager(workflow, search.NewStore(store, cfg.Search.SessionTTL()), hub, search.ManagerConfig{
		DefaultOrigin: defaultOrigin,
		IdleTTL:       cfg.Search.SessionTTL(),
	})
	go manager.Run(rootCtx)

	resolverHandler := resolver.NewHandler(geocodeResolver)
	routingHandler := routing.NewHandler(routeService)
	searchHandler := search.NewHandler(manager, hub)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.NoRoute(common.NoRouteHandler())
	engine.NoMethod(common.NoMethodHandler())
	engine.Use(middleware.RecoveryWithSentry())
	engine.Use(middleware.SentryMiddleware())
	engine.Use(middleware.CorrelationID())
	engine.Use(middleware.RequestLogger(serviceName))
	engine.Use(middleware.CORS(cfg.Server.CORSOrigins))
	engine.Use(middleware.Metrics(serviceName))
	if cfg.Tracing.Enabled {
		engine.Use(middleware.TracingMiddleware(serviceName))
	}
	engine.Use(middleware.ErrorHandler())

	engine.GET("/healthz", common.HealthCheck(serviceName, version))
	engine.GET("/health/live", common.LivenessProbe(serviceName, version))
	engine.GET("/health/ready", common.ReadinessProbe(serviceName, version, healthChecks))
	engine.GET("/health/deep", deep.GinHandler())
	engine.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": serviceName, "version": version})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api/v1")
	api.Use(middleware.RateLimit(limiter))
	api.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout()))
	{
		resolverHandler.RegisterRoutes(api)
		routingHandler.RegisterRoutes(api)
		searchHandler.RegisterRoutes(api)
	}

	// Websocket upgrades cannot run behind the buffered timeout writer.
	stream := engine.Group("/api/v1")
	searchHandler.RegisterStreamRoutes(stream)

	srv := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     engine,
		ReadTimeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
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

	cancelRoot()
	manager.Stop()

	logger.Info("Server stopped")
}
