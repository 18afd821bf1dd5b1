package ratelimiter

import (
	"sync"
	"time"
)

// FixedWindowCounter 在每个固定窗口内最多放行 limit 次。
type FixedWindowCounter struct {
	limit int
	win   time.Duration
	count int
	start time.Time
	now   func() time.Time
	mu    sync.Mutex
}

func NewFixedWindowCounter(limit int, window time.Duration) *FixedWindowCounter {
	c := &FixedWindowCounter{limit: limit, win: window, now: time.Now}
	c.start = c.now()
	return c
}

func (c *FixedWindowCounter) Allow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if now := c.now(); !now.Before(c.start.Add(c.win)) {
		c.start, c.count = now, 0
	}
	if c.count >= c.limit {
		return false
	}
	c.count++
	return true
}
