package auth

import (
	"sync"
	"time"
)

// SessionCache 按会话键缓存的 TTL 缓存
type SessionCache[V any] struct {
	cache *sync.Map
	ttl   time.Duration
	now   func() time.Time
}

// cacheEntry 缓存条目
type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// NewSessionCache 创建会话缓存
func NewSessionCache[V any](ttl time.Duration) *SessionCache[V] {
	return &SessionCache[V]{
		cache: &sync.Map{},
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get 获取缓存
func (c *SessionCache[V]) Get(key string) (V, bool) {
	var zero V
	val, found := c.cache.Load(key)
	if !found {
		return zero, false
	}

	entry := val.(*cacheEntry[V])
	if c.now().After(entry.expiresAt) {
		// 已过期，删除
		c.cache.Delete(key)
		return zero, false
	}

	return entry.value, true
}

// Set 设置缓存
func (c *SessionCache[V]) Set(key string, value V) {
	c.cache.Store(key, &cacheEntry[V]{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	})
}

// Delete 删除缓存
func (c *SessionCache[V]) Delete(key string) {
	c.cache.Delete(key)
}

// DeletePrefix 删除指定前缀的所有缓存,用于清除某个 subject 的全部会话
func (c *SessionCache[V]) DeletePrefix(prefix string) {
	c.cache.Range(func(key, _ interface{}) bool {
		if k, ok := key.(string); ok && len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			c.cache.Delete(key)
		}
		return true
	})
}

// Clear 清空缓存
func (c *SessionCache[V]) Clear() {
	c.cache.Range(func(key, value interface{}) bool {
		c.cache.Delete(key)
		return true
	})
}

// SetClock 替换时钟,用于测试过期
func (c *SessionCache[V]) SetClock(now func() time.Time) {
	c.now = now
}
