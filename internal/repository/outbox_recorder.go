package repository

import (
	"context"

	"clientdesk/internal/model"
	"clientdesk/pkg/outbox"
)

// OutboxRecorder 把领域事件写进 outbox_events，使用 ctx 中的事务
type OutboxRecorder struct {
	db   DBTX
	repo *outbox.Repository
}

func NewOutboxRecorder(db DBTX) *OutboxRecorder {
	return &OutboxRecorder{db: db, repo: outbox.NewRepository(db)}
}

func (r *OutboxRecorder) Record(ctx context.Context, aggregateType string, aggregateID model.ID, routingKey string, payload any) error {
	id := int64(aggregateID)
	return r.repo.Append(ctx, conn(ctx, r.db), aggregateType, &id, routingKey, payload)
}

// NopRecorder 在 MQ 关闭时使用，不写任何事件
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, string, model.ID, string, any) error { return nil }
