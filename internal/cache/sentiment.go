package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"clientdesk/internal/model"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultTTL = 5 * time.Minute

// kv 是 *redis.Client 中缓存用到的部分
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// SentimentCache 项目情感记录的读缓存；Redis 出错时按未命中处理
type SentimentCache struct {
	rdb    kv
	ttl    time.Duration
	logger *zap.Logger
}

func NewSentimentCache(rdb kv, ttl time.Duration, logger *zap.Logger) *SentimentCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &SentimentCache{rdb: rdb, ttl: ttl, logger: logger}
}

func sentimentKey(projectID model.ID) string {
	return fmt.Sprintf("sentiment:%d", projectID)
}

func (c *SentimentCache) Get(ctx context.Context, projectID model.ID) (*model.ProjectSentiment, bool) {
	raw, err := c.rdb.Get(ctx, sentimentKey(projectID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Sentiment cache read failed", zap.Int64("project_id", int64(projectID)), zap.Error(err))
		}
		return nil, false
	}

	var s model.ProjectSentiment
	if err := json.Unmarshal(raw, &s); err != nil {
		c.logger.Warn("Sentiment cache entry corrupt", zap.Int64("project_id", int64(projectID)), zap.Error(err))
		return nil, false
	}
	return &s, true
}

func (c *SentimentCache) Set(ctx context.Context, s *model.ProjectSentiment) {
	raw, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, sentimentKey(s.ProjectID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("Sentiment cache write failed", zap.Int64("project_id", int64(s.ProjectID)), zap.Error(err))
	}
}

func (c *SentimentCache) Invalidate(ctx context.Context, projectID model.ID) {
	if err := c.rdb.Del(ctx, sentimentKey(projectID)).Err(); err != nil {
		c.logger.Warn("Sentiment cache invalidate failed", zap.Int64("project_id", int64(projectID)), zap.Error(err))
	}
}

// Nop Redis 关闭时使用
type Nop struct{}

func (Nop) Get(context.Context, model.ID) (*model.ProjectSentiment, bool) { return nil, false }
func (Nop) Set(context.Context, *model.ProjectSentiment)                  {}
func (Nop) Invalidate(context.Context, model.ID)                          {}
