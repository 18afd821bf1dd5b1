package queue

import (
	"context"

	"autoeda/backend/go/internal/models"
)

// EventSink 接收任务状态变更事件。
type EventSink interface {
	Publish(ctx context.Context, ev models.JobEvent) error
}

// NopSink 丢弃所有事件。
type NopSink struct{}

func (NopSink) Publish(context.Context, models.JobEvent) error { return nil }
