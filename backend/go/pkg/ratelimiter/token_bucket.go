package ratelimiter

import (
	"sync"
	"time"
)

// TokenBucket 以固定速率补充令牌，允许不超过容量的突发请求。
type TokenBucket struct {
	rate     float64 // 每秒补充的令牌数
	capacity float64
	tokens   float64
	last     time.Time
	now      func() time.Time
	mu       sync.Mutex
}

// NewTokenBucket 创建一个装满令牌的桶。
func NewTokenBucket(rate float64, capacity int) *TokenBucket {
	tb := &TokenBucket{rate: rate, capacity: float64(capacity), tokens: float64(capacity), now: time.Now}
	tb.last = tb.now()
	return tb
}

func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	if elapsed := now.Sub(tb.last); elapsed > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+elapsed.Seconds()*tb.rate)
		tb.last = now
	}
	if tb.tokens < 1 {
		return false
	}
	tb.tokens--
	return true
}
