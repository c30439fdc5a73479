package client

import "time"

// FailureReport 一次上游失败的报告
// 同时用于结构化日志和用户可见告警
type FailureReport struct {
	Kind        Kind
	Token       string
	UserID      string
	Status      int
	Message     string
	Payload     string
	Method      string
	RequestPath string // 上游请求路径
	RoutePath   string // 发起请求的本服务路由
	RequestID   string
	OccurredAt  time.Time
}

// Reporter 失败报告接收者,Report 不得阻塞调用方
type Reporter interface {
	Report(report FailureReport)
}

// ReporterFunc 函数适配器
type ReporterFunc func(report FailureReport)

// Report 实现 Reporter
func (f ReporterFunc) Report(report FailureReport) {
	f(report)
}

type nopReporter struct{}

func (nopReporter) Report(FailureReport) {}
