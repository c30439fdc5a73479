package integration

import (
	"context"
	"sync"
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/client"
	"github.com/UKHomeOffice/cop-ui/internal/metrics"
	"github.com/UKHomeOffice/cop-ui/internal/utils"
	"github.com/sirupsen/logrus"
)

// AlertSink 用户可见告警的接收者
type AlertSink interface {
	Raise(ctx context.Context, report client.FailureReport) error
}

// ReporterOptions 异步报告器选项
type ReporterOptions struct {
	QueueSize          int
	Workers            int
	TokenEncryptionKey string
}

// AsyncReporter 异步失败报告器
// Report 只入队,由 worker 写日志、生成告警并发布事件。队列满时丢弃。
type AsyncReporter struct {
	logger    logrus.FieldLogger
	alerts    AlertSink
	publisher Publisher
	key       string
	queue     chan client.FailureReport
	stop      chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
}

// NewAsyncReporter 创建并启动异步报告器
func NewAsyncReporter(logger logrus.FieldLogger, alerts AlertSink, publisher Publisher, opts ReporterOptions) *AsyncReporter {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1000
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if publisher == nil {
		publisher = NoopPublisher{}
	}

	r := &AsyncReporter{
		logger:    logger,
		alerts:    alerts,
		publisher: publisher,
		key:       opts.TokenEncryptionKey,
		queue:     make(chan client.FailureReport, opts.QueueSize),
		stop:      make(chan struct{}),
	}

	// 启动 worker goroutines
	for i := 0; i < opts.Workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}

	return r
}

// Report 实现 client.Reporter,不阻塞调用方
func (r *AsyncReporter) Report(report client.FailureReport) {
	if report.Kind == client.KindCanceled {
		return
	}

	select {
	case <-r.stop:
		return
	default:
	}

	select {
	case r.queue <- report:
		// 成功入队
	default:
		// 队列满时记录日志,不阻塞
		metrics.RecordReportDropped()
		r.logger.WithFields(logrus.Fields{
			"kind":         report.Kind,
			"request_path": report.RequestPath,
		}).Warn("failure report queue full, dropping report")
	}
}

// Stop 停止 worker,处理完已入队的报告
func (r *AsyncReporter) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
		r.wg.Wait()
	})
}

// worker 报告处理 worker
func (r *AsyncReporter) worker() {
	defer r.wg.Done()
	for {
		select {
		case report := <-r.queue:
			r.handle(report)
		case <-r.stop:
			// 处理剩余报告
			for {
				select {
				case report := <-r.queue:
					r.handle(report)
				default:
					return
				}
			}
		}
	}
}

// handle 处理单个报告
func (r *AsyncReporter) handle(report client.FailureReport) {
	// 1. 结构化日志
	r.logger.WithFields(logrus.Fields{
		"token":        utils.ProtectToken(report.Token, r.key),
		"message":      report.Payload,
		"path":         report.RoutePath,
		"status":       report.Status,
		"request_path": report.RequestPath,
		"kind":         report.Kind,
		"request_id":   report.RequestID,
		"user_id":      report.UserID,
	}).Error(report.Message)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 2. 用户可见告警
	if r.alerts != nil && report.UserID != "" {
		if err := r.alerts.Raise(ctx, report); err != nil {
			r.logger.WithError(err).Warn("failed to raise alert")
		}
	}

	// 3. 发布事件
	event := map[string]interface{}{
		"kind":         report.Kind,
		"status":       report.Status,
		"message":      report.Message,
		"request_path": report.RequestPath,
		"route_path":   report.RoutePath,
		"request_id":   report.RequestID,
		"user_id":      report.UserID,
		"occurred_at":  report.OccurredAt,
	}
	if err := r.publisher.Publish(ctx, "alerts."+string(report.Kind), event); err != nil {
		r.logger.WithError(err).Warn("failed to publish alert event")
	}
}
