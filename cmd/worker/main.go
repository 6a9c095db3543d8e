package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	mqcontracts "clientdesk/contracts/mq"
	"clientdesk/internal/cache"
	"clientdesk/internal/config"
	"clientdesk/internal/mqhandler"
	"clientdesk/internal/repository"
	"clientdesk/internal/service/sentiment"
	pkgconfig "clientdesk/pkg/config"
	pkgdb "clientdesk/pkg/db"
	"clientdesk/pkg/logger"
	"clientdesk/pkg/mq"
	"clientdesk/pkg/otel"
	redisclient "clientdesk/pkg/redis"
	"clientdesk/pkg/util"

	"go.uber.org/zap"
)

const inquirySentimentQueue = "inquiry.submitted.sentiment.q"

func main() {
	env := pkgconfig.GetConfigEnv()
	cfg, err := config.Load(env, pkgconfig.GetEnv("CONFIG_DIR", "config"))
	if err != nil {
		panic(err)
	}

	log := logger.NewLogger(cfg.Env)
	defer log.Sync()

	log.Info("Starting clientdesk worker...",
		zap.String("env", cfg.Env),
		zap.String("mq_url", cfg.MQ.URL),
		zap.String("redis_addr", cfg.Redis.Addr),
	)

	shutdownTracing, err := otel.Init(otel.Config{
		ServiceName:    "clientdesk-worker",
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

	// Redis：去重和重试计数都依赖它
	log.Info("Initializing Redis client...")
	rdb, err := redisclient.NewRedisClient(context.Background(), cfg.Redis)
	if err != nil {
		log.Fatal("Failed to init Redis", zap.Error(err))
	}
	defer rdb.Close()

	deduper := util.NewDeduper(rdb, cfg.Worker.DedupTTL, log)
	retryCounter := util.NewRetryCounter(rdb, cfg.Worker.DedupTTL)

	// 基线情感记录用的 publisher 同时负责 DLQ 和 outbox 之外的事件
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	tx := repository.NewTxManager(pool)
	sentimentSvc := sentiment.NewService(
		tx,
		repository.NewSentimentRepository(pool, log),
		repository.NewProjectRepository(pool, log),
		repository.NewOutboxRecorder(pool),
		cache.NewSentimentCache(rdb, cfg.Redis.CacheTTL, log),
		nil,
		sentiment.NewKeywordClassifier(cfg.Sentiment.PositiveWords, cfg.Sentiment.NegativeWords, cfg.Sentiment.FallbackConfidence),
		sentiment.Options{
			MaxTextLength:   cfg.Sentiment.MaxTextLength,
			TrendCap:        cfg.Sentiment.TrendCap,
			FallbackEnabled: true,
		},
		log,
	)

	inquiryHandler := mqhandler.NewInquirySubmittedHandler(sentimentSvc, deduper, retryCounter, publisher, cfg.Worker.MaxRetries, log)

	// MQ Consumer for inquiry.submitted
	log.Info("Initializing MQ consumer for inquiry.submitted...",
		zap.String("queue", inquirySentimentQueue),
		zap.String("routing_key", mqcontracts.RoutingInquirySubmitted),
	)
	consumer, err := mq.NewConsumer(cfg.MQ.URL, inquirySentimentQueue, mqcontracts.RoutingInquirySubmitted, log)
	if err != nil {
		log.Fatal("Failed to init consumer", zap.Error(err))
	}
	defer consumer.Close()

	consumer.SetHandler(inquiryHandler.Handle)

	go func() {
		log.Info("Starting inquiry.submitted consumer...")
		if err := consumer.StartConsuming(); err != nil {
			log.Fatal("Inquiry consumer failed", zap.Error(err))
		}
	}()
	log.Info("clientdesk worker is fully initialized and running")

	// 优雅退出处理
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down worker gracefully...")
	consumer.Stop()
	log.Info("Worker shutdown complete")
}
