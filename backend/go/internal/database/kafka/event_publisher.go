package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"autoeda/backend/go/internal/config"
	"autoeda/backend/go/internal/models"

	"github.com/segmentio/kafka-go"
)

// messageWriter 是 kafka.Writer 中用到的部分，便于测试替换。
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventPublisher 将任务状态变更发送到事件主题。
type EventPublisher struct {
	writer messageWriter
}

// NewEventPublisher 创建一个写入 EventsTopic 的 EventPublisher。
func NewEventPublisher(cfg *config.KafkaConfig) *EventPublisher {
	return &EventPublisher{writer: NewWriter(cfg, cfg.EventsTopic)}
}

// Publish 将事件序列化为 JSON 写入 Kafka，以 job id 作为 key。
func (p *EventPublisher) Publish(ctx context.Context, ev models.JobEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal job event: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(ev.JobID), Value: data}); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

// Close 关闭底层的 writer 连接。
func (p *EventPublisher) Close() error {
	return p.writer.Close()
}
