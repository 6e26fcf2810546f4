package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	httpAdapter "github.com/lorrc/user-directory/internal/adapters/primary/http"
	mw "github.com/lorrc/user-directory/internal/adapters/primary/http/middleware"
	"github.com/lorrc/user-directory/internal/adapters/primary/websocket"
	"github.com/lorrc/user-directory/internal/adapters/secondary/deletion"
	"github.com/lorrc/user-directory/internal/adapters/secondary/pagecache"
	"github.com/lorrc/user-directory/internal/adapters/secondary/postgres"
	"github.com/lorrc/user-directory/internal/adapters/secondary/randomuser"
	"github.com/lorrc/user-directory/internal/config"
	apperrors "github.com/lorrc/user-directory/internal/core/errors"
	"github.com/lorrc/user-directory/internal/core/ports"
	"github.com/lorrc/user-directory/internal/core/services"
	"github.com/lorrc/user-directory/internal/infrastructure/logging"
	"github.com/lorrc/user-directory/internal/infrastructure/metrics"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Initialize Structured Logger
	logger := logging.NewLogger(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      os.Stdout,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
	})

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"config", cfg.String(),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	appMetrics := metrics.New()
	healthHandler := httpAdapter.NewHealthHandler(cfg.App.Version)

	// 3. Page source behind the page cache
	source := randomuser.NewClient(randomuser.Config{
		BaseURL:  cfg.Source.BaseURL,
		PageSize: cfg.Source.PageSize,
		Seed:     cfg.Source.Seed,
		MaxPage:  cfg.Source.MaxPage,
		Timeout:  cfg.Source.Timeout,
		RPS:      cfg.Source.RPS,
		Burst:    cfg.Source.Burst,
	}, nil, logger)

	var cacheBackend pagecache.Backend
	if cfg.Cache.RedisURL != "" {
		redisBackend, err := pagecache.NewRedisBackendFromURL(ctx, cfg.Cache.RedisURL)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisBackend.Close()
		healthHandler.AddCheck("redis", redisBackend)
		cacheBackend = redisBackend
		logger.Info("page cache backed by redis")
	} else {
		memoryBackend := pagecache.NewMemoryBackend()
		go memoryBackend.Janitor(ctx, time.Minute)
		cacheBackend = memoryBackend
	}
	fetcher := pagecache.NewCachingFetcher(source, cacheBackend, cfg.Cache.Prefix, cfg.Cache.TTL, logger)

	// 4. Deletion intent, journaled when a database is configured
	var intent ports.DeletionIntent = deletion.NewLogIntent(logger)
	var journal *postgres.DeletionJournal
	if cfg.Database.URL != "" {
		pool := connectDatabase(ctx, cfg, logger)
		defer pool.Close()

		journal = postgres.NewDeletionJournal(pool, logger)
		healthHandler.AddCheck("database", journal)
		intent = journal
	}
	if cfg.Deletion.FailureRate > 0 || cfg.Deletion.Latency > 0 {
		logger.Warn("deletion fault injection enabled",
			"failure_rate", cfg.Deletion.FailureRate,
			"latency", cfg.Deletion.Latency,
		)
		intent = deletion.NewFaultInjector(intent, cfg.Deletion.FailureRate, cfg.Deletion.Latency, logger)
	}

	// 5. Real-time hub
	hub := websocket.NewHub(appMetrics, logger)
	go hub.Run(ctx)

	// 6. Dependency Injection (Wiring the Hexagon)
	store := services.NewUserStore(fetcher, hub, appMetrics, logger)
	pipeline := services.NewViewPipeline(cfg.LocaleTag())
	coordinator := services.NewMutationCoordinator(store, intent, fetcher, appMetrics, cfg.Deletion.Timeout, logger)

	errorHandler := httpAdapter.NewErrorHandler(logger)
	directoryHandler := httpAdapter.NewDirectoryHandler(store, coordinator, pipeline, hub, errorHandler, logger)
	wsHandler := httpAdapter.NewWebSocketHandler(hub, httpAdapter.WebSocketConfig{
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		Timing: websocket.Timing{
			PingPeriod: cfg.WebSocket.PingInterval,
			PongWait:   cfg.WebSocket.PongWait,
		},
		IsDevelopment: cfg.IsDevelopment(),
	}, logger)

	// 7. Rate Limiter
	var rateLimiter *mw.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = mw.NewRateLimiter(mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
			OnLimited: func(w http.ResponseWriter, r *http.Request) {
				errorHandler.Handle(w, r, apperrors.NewRateLimitError())
			},
		})
		defer rateLimiter.Stop()
	}

	// 8. Setup Router
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(mw.Metrics(appMetrics))
	r.Use(cors.Handler(corsOptions(cfg)))

	healthHandler.RegisterRoutes(r)
	r.Handle("/metrics", appMetrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// The event stream is long-lived and exempt from rate limiting.
		r.Get("/ws", wsHandler.ServeHTTP)

		r.Group(func(r chi.Router) {
			if rateLimiter != nil {
				r.Use(rateLimiter.Middleware)
			}
			directoryHandler.RegisterRoutes(r)
			if journal != nil {
				httpAdapter.NewDeletionsHandler(journal, errorHandler, logger).RegisterRoutes(r)
			}
		})
	})

	// 9. Load the first page
	if err := store.FetchNextPage(ctx); err != nil {
		// The store is in error; viewers can refetch.
		logger.Warn("initial page fetch failed", "error", err)
	}

	// 10. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutdown signal received", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// Let pending deletion intents settle before the journal closes.
	coordinator.Shutdown()
	stop()

	logger.Info("server shutdown complete")
}

func connectDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
			logger.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("database migrations applied")
	}

	pool, err := postgres.Connect(ctx, postgres.PoolConfig{
		URL:             cfg.Database.URL,
		MaxConns:        cfg.Database.MaxOpenConns,
		MinConns:        cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("database connection established")
	return pool
}

func corsOptions(cfg *config.Config) cors.Options {
	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 && cfg.IsDevelopment() {
		origins = []string{"http://*", "https://*"}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", mw.RequestIDHeader},
		ExposedHeaders:   []string{mw.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}
}
