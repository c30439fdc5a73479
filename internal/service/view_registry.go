package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrViewNotFound 视图不存在、已关闭或不属于当前用户
var ErrViewNotFound = errors.New("view not found")

// closer 可关闭的视图
type closer interface {
	Close()
}

// viewEntry 注册表条目
type viewEntry[V closer] struct {
	owner    string
	view     V
	lastUsed time.Time
}

// viewRegistry 按用户隔离的视图注册表,空闲超时的视图会被关闭
type viewRegistry[V closer] struct {
	mu    sync.Mutex
	views map[string]*viewEntry[V]
	ttl   time.Duration
	now   func() time.Time
}

// newViewRegistry 创建视图注册表
func newViewRegistry[V closer](ttl time.Duration) *viewRegistry[V] {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &viewRegistry[V]{
		views: make(map[string]*viewEntry[V]),
		ttl:   ttl,
		now:   time.Now,
	}
}

// add 注册视图并返回 ID
func (r *viewRegistry[V]) add(owner string, build func(id string) V) V {
	id := uuid.New().String()
	view := build(id)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.views[id] = &viewEntry[V]{owner: owner, view: view, lastUsed: r.now()}
	return view
}

// getOrAdd 获取指定 ID 的视图,不存在时以该 ID 注册
// ID 已被其他用户占用时返回 ErrViewNotFound
func (r *viewRegistry[V]) getOrAdd(owner, id string, build func(id string) V) (V, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.views[id]; ok {
		if entry.owner != owner {
			var zero V
			return zero, ErrViewNotFound
		}
		entry.lastUsed = r.now()
		return entry.view, nil
	}

	view := build(id)
	r.views[id] = &viewEntry[V]{owner: owner, view: view, lastUsed: r.now()}
	return view, nil
}

// get 获取视图并刷新使用时间
func (r *viewRegistry[V]) get(owner, id string) (V, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.views[id]
	if !ok || entry.owner != owner {
		var zero V
		return zero, ErrViewNotFound
	}
	entry.lastUsed = r.now()
	return entry.view, nil
}

// remove 移除并关闭视图
func (r *viewRegistry[V]) remove(owner, id string) error {
	r.mu.Lock()
	entry, ok := r.views[id]
	if !ok || entry.owner != owner {
		r.mu.Unlock()
		return ErrViewNotFound
	}
	delete(r.views, id)
	r.mu.Unlock()

	entry.view.Close()
	return nil
}

// removeOwner 关闭用户的所有视图
func (r *viewRegistry[V]) removeOwner(owner string) int {
	r.mu.Lock()
	var closing []V
	for id, entry := range r.views {
		if entry.owner == owner {
			closing = append(closing, entry.view)
			delete(r.views, id)
		}
	}
	r.mu.Unlock()

	for _, view := range closing {
		view.Close()
	}
	return len(closing)
}

// evictIdle 关闭空闲超时的视图,返回关闭数量
func (r *viewRegistry[V]) evictIdle() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	var closing []V
	for id, entry := range r.views {
		if entry.lastUsed.Before(cutoff) {
			closing = append(closing, entry.view)
			delete(r.views, id)
		}
	}
	r.mu.Unlock()

	for _, view := range closing {
		view.Close()
	}
	return len(closing)
}

// closeAll 关闭所有视图
func (r *viewRegistry[V]) closeAll() {
	r.mu.Lock()
	views := r.views
	r.views = make(map[string]*viewEntry[V])
	r.mu.Unlock()

	for _, entry := range views {
		entry.view.Close()
	}
}

// Count 当前视图数
func (r *viewRegistry[V]) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// runJanitor 定期清理空闲视图,直到 ctx 结束
func (r *viewRegistry[V]) runJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.evictIdle()
		}
	}
}
