package redis

import (
	"context"
	"fmt"
	"time"

	"autoeda/backend/go/internal/config"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Options 把配置转换为 redis.Options。设置了 URL 时优先使用 URL。
func Options(cfg *config.RedisConfig) (*redis.Options, error) {
	if cfg.URL != "" {
		opt, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("无效的 REDIS_URL: %w", err)
		}
		return opt, nil
	}
	return &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	}, nil
}

// NewClient 创建 Redis 客户端并 Ping 一次。调用方负责 Close。
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	opt, err := Options(cfg)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("无法连接到 Redis: %w", err)
	}
	logrus.WithField("addr", opt.Addr).Info("redis connected")
	return rdb, nil
}
