package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"autoeda/backend/go/internal/config"
	edakafka "autoeda/backend/go/internal/database/kafka"
	"autoeda/backend/go/internal/models"
	"autoeda/backend/go/pkg/logger"

	"github.com/segmentio/kafka-go"
)

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaQueue 把任务写入 jobs 主题，并以消费组方式读取。
type KafkaQueue struct {
	writer  kafkaWriter
	reader  kafkaReader
	brokers []string
	logger  *logger.Logger
	// retryDelay 是读取失败后的等待时间，为 0 时使用 1s。
	retryDelay time.Duration
}

// NewKafkaQueue 创建 KafkaQueue。reader 在第一次 FetchMessage 前不会建立连接。
func NewKafkaQueue(cfg *config.KafkaConfig, log *logger.Logger) *KafkaQueue {
	return &KafkaQueue{
		writer:  edakafka.NewWriter(cfg, cfg.JobsTopic),
		reader:  edakafka.NewReader(cfg, cfg.JobsTopic),
		brokers: cfg.Brokers,
		logger:  log,
	}
}

func (q *KafkaQueue) Enqueue(ctx context.Context, msg models.JobMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal job message: %w", err)
	}
	if err := q.writer.WriteMessages(ctx, kafka.Message{Key: []byte(msg.JobID), Value: data}); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}
	return nil
}

// Consume begins consuming messages from the jobs topic. Each message is
// committed after its handler returns, whatever the outcome.
func (q *KafkaQueue) Consume(ctx context.Context, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			q.logger.Info("Stopping Kafka job consumer...")
			return nil
		default:
		}
		msg, err := q.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				q.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: "queue_error"}).Error("Error fetching message from Kafka")
				sleep(ctx, q.backoff())
			}
			continue
		}
		dispatch(ctx, q.logger, msg.Value, handler, map[string]interface{}{
			"topic":     msg.Topic,
			"partition": msg.Partition,
			"offset":    msg.Offset,
		})
		if err := q.reader.CommitMessages(ctx, msg); err != nil {
			q.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to commit Kafka message")
		}
	}
}

func (q *KafkaQueue) backoff() time.Duration {
	if q.retryDelay > 0 {
		return q.retryDelay
	}
	return time.Second
}

// Ping 检查第一个 broker 是否可以连接。
func (q *KafkaQueue) Ping(ctx context.Context) error {
	if len(q.brokers) == 0 {
		return fmt.Errorf("未配置 Kafka brokers")
	}
	conn, err := kafka.DialContext(ctx, "tcp", q.brokers[0])
	if err != nil {
		return err
	}
	return conn.Close()
}

func (q *KafkaQueue) Close() error {
	werr := q.writer.Close()
	if err := q.reader.Close(); err != nil {
		return err
	}
	return werr
}
