package ratelimiter

import (
	"testing"
	"time"

	"autoeda/backend/go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestTokenBucket(t *testing.T) {
	c := &clock{t: time.Unix(0, 0)}
	tb := NewTokenBucket(1, 2)
	tb.now, tb.last = c.now, c.t

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	c.t = c.t.Add(1500 * time.Millisecond)
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	c.t = c.t.Add(time.Hour)
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow(), "refill is capped at capacity")
}

func TestFixedWindow(t *testing.T) {
	c := &clock{t: time.Unix(0, 0)}
	fw := NewFixedWindowCounter(2, time.Minute)
	fw.now, fw.start = c.now, c.t

	assert.True(t, fw.Allow())
	assert.True(t, fw.Allow())
	assert.False(t, fw.Allow())

	c.t = c.t.Add(time.Minute)
	assert.True(t, fw.Allow())
}

func TestKeyedIsolatesClients(t *testing.T) {
	k := NewKeyed(func() RateLimiter { return NewFixedWindowCounter(1, time.Hour) }, 2)

	assert.True(t, k.Allow("1.1.1.1"))
	assert.False(t, k.Allow("1.1.1.1"))
	assert.True(t, k.Allow("2.2.2.2"))

	// 第三个 key 淘汰最久未用的 1.1.1.1
	assert.True(t, k.Allow("3.3.3.3"))
	assert.True(t, k.Allow("1.1.1.1"))
}

func TestFromConfig(t *testing.T) {
	f, err := FromConfig(config.RateLimiterConfig{TokenBucket: config.TokenBucketConfig{Rate: 1, Capacity: 1}})
	require.NoError(t, err)
	assert.IsType(t, &TokenBucket{}, f())

	f, err = FromConfig(config.RateLimiterConfig{Algorithm: "fixedWindow", FixedWindow: config.FixedWindowConfig{Limit: 3, Window: "1m"}})
	require.NoError(t, err)
	assert.IsType(t, &FixedWindowCounter{}, f())

	_, err = FromConfig(config.RateLimiterConfig{Algorithm: "fixedWindow", FixedWindow: config.FixedWindowConfig{Window: "soon"}})
	assert.Error(t, err)
	_, err = FromConfig(config.RateLimiterConfig{Algorithm: "leaky"})
	assert.Error(t, err)
	_, err = FromConfig(config.RateLimiterConfig{})
	assert.Error(t, err)
}
