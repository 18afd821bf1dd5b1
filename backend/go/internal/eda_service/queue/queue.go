// Package queue carries job messages from the API to the worker over Redis
// or Kafka.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"autoeda/backend/go/internal/models"
	"autoeda/backend/go/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// Handler 处理一条任务消息。
type Handler func(ctx context.Context, msg models.JobMessage) error

// Queue 是任务队列的抽象。
type Queue interface {
	Enqueue(ctx context.Context, msg models.JobMessage) error
	// Consume 阻塞直到 ctx 结束，逐条把消息交给 handler。
	Consume(ctx context.Context, handler Handler) error
	Ping(ctx context.Context) error
	Close() error
}

// RedisKey 返回队列使用的列表键，默认队列为 eda:jobs。
func RedisKey(name string) string {
	if name == "" || name == "default" {
		return "eda:jobs"
	}
	return "eda:jobs:" + name
}

// redisList 是 RedisQueue 用到的 redis.Client 方法。
type redisList interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisQueue 使用 LPUSH / BRPOP 实现先进先出队列。
type RedisQueue struct {
	rdb     redisList
	key     string
	timeout time.Duration
	logger  *logger.Logger
}

// NewRedisQueue 创建 RedisQueue。
func NewRedisQueue(rdb *redis.Client, name string, log *logger.Logger) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: RedisKey(name), timeout: 5 * time.Second, logger: log}
}

func (q *RedisQueue) Enqueue(ctx context.Context, msg models.JobMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal job message: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("入队失败: %w", err)
	}
	return nil
}

func (q *RedisQueue) Consume(ctx context.Context, handler Handler) error {
	for {
		if ctx.Err() != nil {
			q.logger.Info("Stopping Redis job consumer...")
			return nil
		}
		vals, err := q.rdb.BRPop(ctx, q.timeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			q.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: "queue_error"}).Error("Error popping job from Redis")
			sleep(ctx, time.Second)
			continue
		}
		// BRPOP 返回 [key, value]
		dispatch(ctx, q.logger, []byte(vals[len(vals)-1]), handler, nil)
	}
}

func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.rdb.Ping(ctx).Err()
}

// Close 不关闭 Redis 客户端，客户端由创建者管理。
func (q *RedisQueue) Close() error {
	return nil
}

// dispatch 解码消息并调用 handler，失败只记录日志。
func dispatch(ctx context.Context, log *logger.Logger, raw []byte, handler Handler, fields map[string]interface{}) {
	var msg models.JobMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		l := log.WithError(models.ErrorInfo{Message: err.Error(), Type: "decode_error"})
		if fields != nil {
			l = l.WithPayload(fields)
		}
		l.Error("Dropping malformed job message")
		return
	}
	if err := handler(ctx, msg); err != nil {
		payload := map[string]interface{}{"job_id": msg.JobID}
		for k, v := range fields {
			payload[k] = v
		}
		log.WithError(models.ErrorInfo{Message: err.Error(), Type: "pipeline_error"}).WithPayload(payload).Error("Error handling job message")
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
