package metrics

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// ViewCounter 返回当前打开的视图数
type ViewCounter interface {
	Count() int
}

// Collector 指标收集器
type Collector struct {
	db       *gorm.DB
	views    map[string]ViewCounter
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCollector 创建指标收集器
func NewCollector(db *gorm.DB, interval time.Duration) *Collector {
	ctx, cancel := context.WithCancel(context.Background())
	return &Collector{
		db:       db,
		views:    make(map[string]ViewCounter),
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// WatchViews 注册需要统计的视图注册表,须在 Start 之前调用
func (c *Collector) WatchViews(kind string, counter ViewCounter) {
	c.views[kind] = counter
}

// Start 启动指标收集器
func (c *Collector) Start() {
	go c.collect()
}

// Stop 停止指标收集器
func (c *Collector) Stop() {
	c.cancel()
	<-c.done
}

// CollectOnce 立即收集一次
func (c *Collector) CollectOnce() {
	if c.db != nil {
		_ = UpdateDatabaseConnections(c.db)
	}
	for kind, counter := range c.views {
		SetActiveViews(kind, counter.Count())
	}
}

// collect 定期收集指标
func (c *Collector) collect() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.done)

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.CollectOnce()
		}
	}
}
