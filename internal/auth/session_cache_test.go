package auth_test

import (
	"testing"
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/auth"
	"github.com/stretchr/testify/assert"
)

// TestSessionCache_GetSet 测试缓存读写
func TestSessionCache_GetSet(t *testing.T) {
	cache := auth.NewSessionCache[string](time.Minute)

	_, ok := cache.Get("k")
	assert.False(t, ok)

	cache.Set("k", "v")
	v, ok := cache.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	cache.Delete("k")
	_, ok = cache.Get("k")
	assert.False(t, ok)
}

// TestSessionCache_Expiry 测试过期
func TestSessionCache_Expiry(t *testing.T) {
	now := time.Now()
	cache := auth.NewSessionCache[int](time.Minute)
	cache.SetClock(func() time.Time { return now })

	cache.Set("k", 1)
	now = now.Add(2 * time.Minute)

	_, ok := cache.Get("k")
	assert.False(t, ok)
}

// TestSessionCache_DeletePrefix 测试按前缀删除
func TestSessionCache_DeletePrefix(t *testing.T) {
	cache := auth.NewSessionCache[int](time.Minute)
	cache.Set("u1:s1", 1)
	cache.Set("u1:s2", 2)
	cache.Set("u2:s1", 3)

	cache.DeletePrefix("u1:")

	_, ok := cache.Get("u1:s1")
	assert.False(t, ok)
	_, ok = cache.Get("u1:s2")
	assert.False(t, ok)
	_, ok = cache.Get("u2:s1")
	assert.True(t, ok)

	cache.Clear()
	_, ok = cache.Get("u2:s1")
	assert.False(t, ok)
}
