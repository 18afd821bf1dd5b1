package ratelimiter

import (
	"sync"

	"autoeda/backend/go/pkg/util"
)

// Keyed 为每个 key（通常是客户端 IP）维护独立的限流器。
// 最近最少使用的 key 会在超过 maxKeys 时被淘汰。
type Keyed struct {
	factory  Factory
	limiters *util.LRU[string, RateLimiter]
	mu       sync.Mutex
}

// NewKeyed 创建 Keyed。maxKeys <= 0 时使用 10000。
func NewKeyed(factory Factory, maxKeys int) *Keyed {
	if maxKeys <= 0 {
		maxKeys = 10000
	}
	lru, _ := util.NewLRU[string, RateLimiter](maxKeys, 0)
	return &Keyed{factory: factory, limiters: lru}
}

// Allow 判断 key 的这次请求是否放行。
func (k *Keyed) Allow(key string) bool {
	k.mu.Lock()
	l, ok := k.limiters.Get(key)
	if !ok {
		l = k.factory()
		k.limiters.Put(key, l)
	}
	k.mu.Unlock()
	return l.Allow()
}
