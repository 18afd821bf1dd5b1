// Package ratelimiter provides in-process request limiters, keyed per client.
package ratelimiter

import (
	"fmt"
	"time"

	"autoeda/backend/go/internal/config"
)

// RateLimiter 判断一次请求是否放行。
type RateLimiter interface {
	Allow() bool
}

// Factory 为新出现的 key 创建一个独立的限流器。
type Factory func() RateLimiter

// FromConfig 根据配置返回限流器工厂，默认使用令牌桶。
func FromConfig(cfg config.RateLimiterConfig) (Factory, error) {
	switch cfg.Algorithm {
	case "", "tokenBucket":
		conf := cfg.TokenBucket
		if conf.Rate <= 0 || conf.Capacity <= 0 {
			return nil, fmt.Errorf("tokenBucket requires positive rate and capacity")
		}
		return func() RateLimiter { return NewTokenBucket(conf.Rate, conf.Capacity) }, nil
	case "fixedWindow":
		conf := cfg.FixedWindow
		window, err := time.ParseDuration(conf.Window)
		if err != nil {
			return nil, fmt.Errorf("invalid fixedWindow duration: %w", err)
		}
		return func() RateLimiter { return NewFixedWindowCounter(conf.Limit, window) }, nil
	default:
		return nil, fmt.Errorf("unknown rate limiter algorithm: %s", cfg.Algorithm)
	}
}
