package outbox

import (
	"context"
	"encoding/json"
)

// Writer 在业务事务中追加事件
type Writer interface {
	Append(ctx context.Context, tx DBTX, aggregateType string, aggregateID *int64, routingKey string, payload interface{}) error
}

// Append implements Writer.
func (r *Repository) Append(ctx context.Context, tx DBTX, aggregateType string, aggregateID *int64, routingKey string, payload interface{}) error {
	return InsertEventInTx(ctx, tx, r, aggregateType, aggregateID, routingKey, payload)
}

// InsertEventInTx 在事务中插入事件到 outbox（辅助函数）
func InsertEventInTx(
	ctx context.Context,
	tx DBTX,
	repo *Repository,
	aggregateType string,
	aggregateID *int64,
	routingKey string,
	payload interface{},
) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	event := &Event{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		RoutingKey:    routingKey,
		Payload:       payloadJSON,
		Status:        StatusPending,
	}

	return repo.InsertEvent(ctx, tx, event)
}
