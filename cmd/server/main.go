package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clientdesk/internal/cache"
	"clientdesk/internal/config"
	"clientdesk/internal/db"
	"clientdesk/internal/handler"
	"clientdesk/internal/httpserver"
	"clientdesk/internal/repository"
	"clientdesk/internal/service/assignment"
	"clientdesk/internal/service/auth"
	"clientdesk/internal/service/dashboard"
	"clientdesk/internal/service/project"
	"clientdesk/internal/service/sentiment"
	pkgconfig "clientdesk/pkg/config"
	pkgdb "clientdesk/pkg/db"
	"clientdesk/pkg/logger"
	"clientdesk/pkg/mq"
	"clientdesk/pkg/otel"
	"clientdesk/pkg/outbox"
	redisclient "clientdesk/pkg/redis"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	env := pkgconfig.GetConfigEnv()
	cfg, err := config.Load(env, pkgconfig.GetEnv("CONFIG_DIR", "config"))
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger(cfg.Env)
	defer log.Sync()

	if cfg.UsesInsecureSecret() {
		log.Warn("JWT_SECRET is not set, using insecure default secret")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("Starting clientdesk server...",
		zap.String("env", cfg.Env),
		zap.String("db_host", cfg.DB.Host),
		zap.Bool("mq_enabled", cfg.MQ.Enabled),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
		zap.String("sentiment_provider", cfg.Sentiment.Provider),
	)

	// Tracing
	shutdownTracing, err := otel.Init(otel.Config{
		ServiceName:    "clientdesk-server",
		ServiceVersion: cfg.Tracing.ServiceVersion,
		Endpoint:       cfg.Tracing.Endpoint,
		Enabled:        cfg.Tracing.Enabled,
	}, log)
	if err != nil {
		log.Warn("Failed to init tracing, continuing without it", zap.Error(err))
		shutdownTracing = func() {}
	}
	defer shutdownTracing()

	// DB
	log.Info("Initializing database connection...")
	pool, err := pkgdb.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer pool.Close()
	log.Info("Database connection established successfully")

	if cfg.DB.AutoMigrate {
		log.Info("Running database migrations...")
		n, err := db.NewMigrator(pool, log).Up(context.Background())
		if err != nil {
			log.Fatal("Failed to run migrations", zap.Error(err))
		}
		log.Info("Database migrations applied", zap.Int("applied", n))
	}

	// Redis（可选）
	var sentimentCache sentiment.Cache = cache.Nop{}
	if cfg.Redis.Enabled {
		log.Info("Initializing Redis client...", zap.String("addr", cfg.Redis.Addr))
		rdb, err := redisclient.NewRedisClient(context.Background(), cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, sentiment cache disabled", zap.Error(err))
		} else {
			defer rdb.Close()
			sentimentCache = cache.NewSentimentCache(rdb, cfg.Redis.CacheTTL, log)
		}
	}

	// MQ + Outbox（可选）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		events       repository.EventRecorder = repository.NopRecorder{}
		publisher    *mq.Publisher
		adminHandler *handler.AdminHandler
	)
	if cfg.MQ.Enabled {
		log.Info("Initializing MQ publisher...", zap.String("mq_url", cfg.MQ.URL))
		publisher, err = mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			log.Fatal("Failed to init MQ publisher", zap.Error(err))
		}
		defer publisher.Close()

		outboxRepo := outbox.NewRepository(pool)
		events = repository.NewOutboxRecorder(pool)

		dispatcher := outbox.NewDispatcher(outboxRepo, publisher, log).
			WithMaxRetries(cfg.Outbox.MaxRetries).
			WithInterval(cfg.Outbox.Interval).
			WithBatchSize(cfg.Outbox.BatchSize)
		go dispatcher.Start(ctx)
		log.Info("Outbox dispatcher started", zap.Duration("interval", cfg.Outbox.Interval))

		adminHandler = handler.NewAdminHandler(outbox.NewReplayService(outboxRepo, publisher, log), log)
	}

	// Repositories
	tx := repository.NewTxManager(pool)
	projectRepo := repository.NewProjectRepository(pool, log)
	timelineRepo := repository.NewTimelineRepository(pool, log)
	noteRepo := repository.NewNoteRepository(pool, log)
	userRepo := repository.NewUserRepository(pool, log)
	assignmentRepo := repository.NewAssignmentRepository(pool, log)
	sentimentRepo := repository.NewSentimentRepository(pool, log)

	// Services
	projectSvc := project.NewService(tx, projectRepo, timelineRepo, noteRepo, events, log)
	assignmentSvc := assignment.NewService(tx, assignmentRepo, projectRepo, userRepo, events, log)
	authSvc := auth.NewService(userRepo, cfg.JWT.Secret, cfg.JWT.TTL, log)
	dashboardSvc := dashboard.NewService(projectSvc)

	classifier := sentiment.NewClassifier(cfg.Sentiment, log)
	sentimentSvc := sentiment.NewService(tx, sentimentRepo, projectRepo, events, sentimentCache, classifier,
		sentiment.NewKeywordClassifier(cfg.Sentiment.PositiveWords, cfg.Sentiment.NegativeWords, cfg.Sentiment.FallbackConfidence),
		sentiment.Options{
			MaxTextLength:   cfg.Sentiment.MaxTextLength,
			TrendCap:        cfg.Sentiment.TrendCap,
			FallbackEnabled: cfg.Sentiment.FallbackEnabled,
			ModelTimeout:    cfg.Sentiment.Timeout,
		},
		log,
	)

	// HTTP Server
	opts := httpserver.Options{
		JWTSecret:   cfg.JWT.Secret,
		RequireAuth: cfg.Server.RequireAuth,
		DB:          pool,
	}
	if publisher != nil {
		opts.MQ = publisher
	}
	router := httpserver.NewRouter(httpserver.Handlers{
		Project:   handler.NewProjectHandler(projectSvc, log),
		Developer: handler.NewDeveloperHandler(assignmentSvc, log),
		Sentiment: handler.NewSentimentHandler(sentimentSvc, log),
		Auth:      handler.NewAuthHandler(authSvc, log),
		Dashboard: handler.NewDashboardHandler(dashboardSvc, log),
		Admin:     adminHandler,
	}, opts, log)

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("clientdesk server is fully initialized and running",
		zap.String("http_addr", cfg.Server.Port),
		zap.Bool("require_auth", cfg.Server.RequireAuth),
	)

	// 优雅退出处理
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down clientdesk server gracefully...")

	// 停止 outbox dispatcher
	cancel()

	log.Info("Shutting down HTTP server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	log.Info("clientdesk server shutdown complete")
}
