package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"clientdesk/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memKV struct {
	data map[string]string
	ttl  time.Duration
	err  error
}

func (m *memKV) Get(_ context.Context, key string) *redis.StringCmd {
	if m.err != nil {
		return redis.NewStringResult("", m.err)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memKV) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if m.err != nil {
		return redis.NewStatusResult("", m.err)
	}
	m.data[key] = string(value.([]byte))
	m.ttl = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *memKV) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(m.data, k)
	}
	return redis.NewIntResult(int64(len(keys)), m.err)
}

func TestSentimentCache_RoundTripAndInvalidate(t *testing.T) {
	kv := &memKV{data: map[string]string{}}
	c := NewSentimentCache(kv, time.Minute, zap.NewNop())
	ctx := context.Background()

	_, ok := c.Get(ctx, 3)
	require.False(t, ok)

	ts := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	c.Set(ctx, &model.ProjectSentiment{
		ProjectID:               3,
		SentimentLabel:          model.SentimentPositive,
		RelationshipHealthScore: 97,
		TrendHistory:            []model.TrendPoint{{Score: 97, Date: ts}},
	})
	require.Contains(t, kv.data, "sentiment:3")
	require.Equal(t, time.Minute, kv.ttl)

	got, ok := c.Get(ctx, 3)
	require.True(t, ok)
	require.Equal(t, model.ID(3), got.ProjectID)
	require.Equal(t, 97, got.RelationshipHealthScore)
	require.True(t, got.TrendHistory[0].Date.Equal(ts))

	c.Invalidate(ctx, 3)
	_, ok = c.Get(ctx, 3)
	require.False(t, ok)
}

func TestSentimentCache_RedisErrorIsMiss(t *testing.T) {
	kv := &memKV{data: map[string]string{}, err: errors.New("connection refused")}
	c := NewSentimentCache(kv, 0, zap.NewNop())

	c.Set(context.Background(), &model.ProjectSentiment{ProjectID: 1})
	_, ok := c.Get(context.Background(), 1)
	require.False(t, ok)
}
