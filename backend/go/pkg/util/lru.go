package util

import (
	"container/list"
	"errors"
	"sync"
	"time"
)

// ErrNoCapacity 表示缓存容量配置无效。
var ErrNoCapacity = errors.New("lru: capacity must be positive")

// LRU 是一个线程安全的泛型 LRU 缓存，可选 TTL。
type LRU[K comparable, V any] struct {
	capacity int
	ttl      time.Duration
	now      func() time.Time

	mu    sync.Mutex
	order *list.List
	items map[K]*list.Element
}

type lruItem[K comparable, V any] struct {
	key     K
	value   V
	expires time.Time
}

// NewLRU 创建容量为 capacity 的缓存，ttl 为 0 时条目不过期。
func NewLRU[K comparable, V any](capacity int, ttl time.Duration) (*LRU[K, V], error) {
	if capacity <= 0 {
		return nil, ErrNoCapacity
	}
	return &LRU[K, V]{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		order:    list.New(),
		items:    make(map[K]*list.Element, capacity),
	}, nil
}

// Get 返回 key 对应的值，并将其标记为最近使用。过期条目会被移除。
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	it := el.Value.(*lruItem[K, V])
	if c.ttl > 0 && c.now().After(it.expires) {
		c.remove(el)
		return zero, false
	}
	c.order.MoveToFront(el)
	return it.value, true
}

// Put 写入或更新一个条目，超出容量时淘汰最久未使用的条目。
func (c *LRU[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expires time.Time
	if c.ttl > 0 {
		expires = c.now().Add(c.ttl)
	}
	if el, ok := c.items[key]; ok {
		it := el.Value.(*lruItem[K, V])
		it.value, it.expires = value, expires
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&lruItem[K, V]{key: key, value: value, expires: expires})
	for c.order.Len() > c.capacity {
		c.remove(c.order.Back())
	}
}

// Remove 删除一个条目。
func (c *LRU[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.remove(el)
	}
}

// Len 返回当前条目数量。
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// remove 需要调用方持有锁。
func (c *LRU[K, V]) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*lruItem[K, V]).key)
}
