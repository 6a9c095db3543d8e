package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mqcontracts "clientdesk/contracts/mq"
	"clientdesk/internal/model"
	"clientdesk/internal/service/sentiment"
	"clientdesk/pkg/logger"
	"clientdesk/pkg/trace"
	"clientdesk/pkg/util"

	"go.uber.org/zap"
)

const (
	handlerName       = "inquiry_sentiment"
	defaultMaxRetries = 3
)

// SentimentGenerator 由 sentiment.Service 实现
type SentimentGenerator interface {
	GenerateForProject(ctx context.Context, projectID model.ID) (*model.ProjectSentiment, bool, error)
}

// Deduper 由 util.Deduper 实现
type Deduper interface {
	AcquireOnce(ctx context.Context, handler string, key int64) bool
	Release(ctx context.Context, handler string, key int64)
}

// RetryCounter 由 util.RetryCounter 实现
type RetryCounter interface {
	IncrementAndGet(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

// DLQPublisher 由 mq.Publisher 实现
type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, routingKey string, payload []byte, errorType, originalError string) error
}

// InquirySubmittedHandler 为新询盘生成基线情感记录
type InquirySubmittedHandler struct {
	generator    SentimentGenerator
	deduper      Deduper
	retryCounter RetryCounter
	dlq          DLQPublisher
	maxRetries   int64
	logger       *zap.Logger
}

func NewInquirySubmittedHandler(
	generator SentimentGenerator,
	deduper Deduper,
	retryCounter RetryCounter,
	dlq DLQPublisher,
	maxRetries int64,
	logger *zap.Logger,
) *InquirySubmittedHandler {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	return &InquirySubmittedHandler{
		generator:    generator,
		deduper:      deduper,
		retryCounter: retryCounter,
		dlq:          dlq,
		maxRetries:   maxRetries,
		logger:       logger,
	}
}

// Handle 返回 nil 表示 ack，返回 error 表示 nack 并重投递
func (h *InquirySubmittedHandler) Handle(ctx context.Context, raw json.RawMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("panic recovered in handler", zap.Any("panic", r))
			err = nil
		}
	}()

	var payload mqcontracts.InquirySubmittedPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.ProjectID <= 0 {
		if err == nil {
			err = errors.New("missing project_id")
		}
		h.logger.Error("Invalid InquirySubmittedPayload, sending to DLQ",
			zap.String("raw", string(raw)),
			zap.Error(err),
		)
		h.deadLetter(ctx, raw, "bad_payload", err)
		return nil
	}

	if payload.TraceID != "" {
		ctx = trace.WithContext(ctx, payload.TraceID)
	}
	log := logger.WithTrace(ctx, h.logger).With(zap.Int64("project_id", payload.ProjectID))
	log.Info("InquirySubmittedHandler: received inquiry", zap.String("project_type", payload.ProjectType))

	if !h.deduper.AcquireOnce(ctx, handlerName, payload.ProjectID) {
		return nil
	}

	retryKey := util.FormatRetryKey(handlerName, payload.ProjectID)
	retryCount, err := h.retryCounter.IncrementAndGet(ctx, retryKey)
	if err != nil {
		log.Warn("Retry counter unavailable", zap.Error(err))
		retryCount = 1
	}

	rec, created, err := h.generator.GenerateForProject(ctx, model.ID(payload.ProjectID))
	if err != nil {
		return h.handleError(ctx, log, raw, err, retryKey, retryCount, payload.ProjectID)
	}

	_ = h.retryCounter.Reset(ctx, retryKey)
	if !created {
		log.Info("Sentiment already exists, skip")
		return nil
	}
	log.Info("Baseline sentiment generated",
		zap.String("label", string(rec.SentimentLabel)),
		zap.Int("health_score", rec.RelationshipHealthScore),
	)
	return nil
}

func (h *InquirySubmittedHandler) handleError(ctx context.Context, log *zap.Logger, raw []byte, err error, retryKey string, retryCount, projectID int64) error {
	// 项目已被删除，重试没有意义
	if errors.Is(err, sentiment.ErrProjectNotFound) {
		log.Warn("Project no longer exists, dropping event")
		_ = h.retryCounter.Reset(ctx, retryKey)
		return nil
	}

	isRetryable, errType := util.IsRetryableError(err)
	log.Warn("Sentiment generation failed",
		zap.String("error_type", errType),
		zap.Bool("retryable", isRetryable),
		zap.Int64("retry", retryCount),
		zap.Error(err),
	)

	if util.ShouldRetry(retryCount, h.maxRetries, isRetryable) {
		// 释放去重键，让重投递的消息可以再次处理
		h.deduper.Release(ctx, handlerName, projectID)
		return fmt.Errorf("generate sentiment for project %d: %w", projectID, err)
	}

	h.deadLetter(ctx, raw, errType, err)
	_ = h.retryCounter.Reset(ctx, retryKey)
	return nil
}

func (h *InquirySubmittedHandler) deadLetter(ctx context.Context, raw []byte, errType string, cause error) {
	if h.dlq == nil {
		return
	}
	if err := h.dlq.PublishToDLQ(ctx, mqcontracts.RoutingInquirySubmitted, raw, errType, cause.Error()); err != nil {
		h.logger.Error("Failed to publish to DLQ", zap.Error(err))
	}
}
