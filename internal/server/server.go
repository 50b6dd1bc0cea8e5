// Package server assembles the planner service from configuration and runs
// the HTTP listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"project-planner/backend/internal/cache"
	"project-planner/backend/internal/config"
	"project-planner/backend/internal/database"
	"project-planner/backend/internal/events"
	"project-planner/backend/internal/gateway"
	"project-planner/backend/internal/generation"
	"project-planner/backend/internal/handlers"
	"project-planner/backend/internal/middleware"
	"project-planner/backend/internal/monitoring"
	"project-planner/backend/internal/planner"
	"project-planner/backend/internal/resilience"
	"project-planner/backend/internal/services"
)

const memoryCacheEntries = 1000

type Server struct {
	cfg     *config.Config
	logger  *zap.SugaredLogger
	pool    *database.DatabasePool
	redis   *redis.Client
	cache   cache.Cache
	broker  events.Broker
	limiter *middleware.RateLimiter
	gateway *gateway.Gateway
	router  *gin.Engine
	http    *http.Server
}

// New connects to the database (and redis when enabled and reachable) and
// builds the router. Redis is optional: without it the service caches in
// memory only and delivers refresh events in-process.
func New(cfg *config.Config, logger *zap.SugaredLogger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Server{cfg: cfg, logger: logger}

	pool, err := database.NewDatabasePool(database.PoolConfigFrom(cfg))
	if err != nil {
		return nil, err
	}
	if err := pool.Migrate(); err != nil {
		_ = pool.Close()
		return nil, err
	}
	s.pool = pool

	s.redis = s.connectRedis()
	if s.redis != nil {
		// List keys live only in redis so every instance reads the same list
		// right after another one invalidates it.
		s.cache = cache.NewMultiLevelCache(cache.NewMemoryCache(memoryCacheEntries), cache.NewRedisCache(s.redis),
			cache.WithSharedKeys(services.TaskKeyPattern, services.ProjectKeyPattern))
		s.broker = events.NewRedisBroker(s.redis, logger)
	} else {
		s.cache = cache.NewMultiLevelCache(cache.NewMemoryCache(memoryCacheEntries), nil)
		s.broker = events.NewLocalBroker()
	}

	model, err := generation.NewOpenAIModel(cfg.LLM)
	if err != nil {
		s.Close()
		return nil, err
	}
	if cfg.LLM.APIKey == "" {
		logger.Warnw("LLM API key not set, AI planning is disabled")
	}
	text := generation.NewTextClient(model,
		generation.WithTemperature(cfg.LLM.Temperature),
		generation.WithTextLogger(logger),
	)
	images := generation.NewImageClient(cfg.LLM, logger)

	p := planner.New(text, images,
		planner.WithPlaceholder(cfg.LLM.PlaceholderImageURL),
		planner.WithRecorder(monitoring.GenerationRecorder{}),
		planner.WithLogger(logger),
	)

	s.gateway = gateway.New(pool.DB,
		services.NewCachedTaskService(services.NewTaskService(), s.cache, logger),
		services.NewCachedProjectService(services.NewProjectService(), s.cache, logger),
		p,
		gateway.WithBroker(s.broker),
		gateway.WithLogger(logger),
	)

	if cfg.RateLimit.Enabled {
		s.limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstSize, cfg.RateLimit.CleanupInterval)
	}

	s.registerChecks(images.Breaker())
	s.router = s.buildRouter()
	s.http = &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s, nil
}

func (s *Server) connectRedis() *redis.Client {
	if !s.cfg.Redis.Enabled {
		s.logger.Infow("redis disabled, using in-memory cache and local events")
		return nil
	}

	client := cache.NewRedisClient(cache.CacheConfigFrom(s.cfg))
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		s.logger.Warnw("redis unreachable, falling back to in-memory cache and local events",
			"addr", s.cfg.GetRedisAddr(), "error", err)
		_ = client.Close()
		return nil
	}
	s.logger.Infow("connected to redis", "addr", s.cfg.GetRedisAddr())
	return client
}

func (s *Server) registerChecks(imageBreaker *resilience.Breaker) {
	monitoring.RegisterHealthCheck("database", s.pool.Health)
	monitoring.RegisterHealthCheck("cache", s.cache.Health)
	if s.redis != nil {
		client := s.redis
		monitoring.RegisterHealthCheck("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	} else {
		monitoring.UnregisterHealthCheck("redis")
	}

	monitoring.RegisterStatsProvider("database", s.pool.Stats)
	monitoring.RegisterStatsProvider("cache", s.cache.Stats)
	monitoring.RegisterStatsProvider("image_breaker", imageBreaker.Stats)
}

func (s *Server) buildRouter() *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		middleware.RecoveryWithLog(s.logger),
		middleware.RequestLogger(s.logger),
		middleware.CORS(s.cfg.Server.CORSAllowedOrigins),
		monitoring.MetricsMiddleware(),
	)

	router.GET("/health", monitoring.HealthHandler())
	router.GET("/ready", monitoring.ReadinessHandler())
	router.GET("/live", monitoring.LivenessHandler())
	router.GET("/metrics", monitoring.MetricsHandler())

	var planLimit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if s.limiter != nil {
		planLimit = s.limiter.Middleware()
	}

	taskHandler := handlers.NewTaskHandler(s.gateway)
	projectHandler := handlers.NewProjectHandler(s.gateway)
	eventHandler := handlers.NewEventHandler(s.broker, 0)

	api := router.Group("/api")
	{
		api.GET("/tasks", taskHandler.GetTasks)
		api.POST("/tasks", taskHandler.CreateTask)
		api.POST("/tasks/plan", planLimit, taskHandler.PlanTask)
		api.PUT("/tasks/:id", taskHandler.UpdateTask)
		api.DELETE("/tasks/:id", taskHandler.DeleteTask)

		api.GET("/projects", projectHandler.GetProjects)
		api.POST("/projects/plan", planLimit, projectHandler.PlanProject)
		api.DELETE("/projects/:id", projectHandler.DeleteProject)
		api.PATCH("/subtasks/:id", projectHandler.UpdateSubTask)

		api.GET("/events", eventHandler.Stream)
	}

	return router
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Gateway() *gateway.Gateway {
	return s.gateway
}

// Run serves until ctx is cancelled, then drains in-flight requests within
// the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("server listening", "addr", s.http.Addr, "environment", s.cfg.Server.Environment)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Infow("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	// Event streams never finish on their own; closing the broker ends them.
	_ = s.broker.Close()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.logger.Infow("server exited")
	return nil
}

// Close releases every connection the server holds. The redis client is
// shared by the cache and the broker and is closed once, by the cache.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	if s.broker != nil {
		_ = s.broker.Close()
	}
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Warnw("failed to close cache", "error", err)
		}
	}
	if s.pool != nil {
		if err := s.pool.Close(); err != nil {
			s.logger.Warnw("failed to close database", "error", err)
		}
	}
}
