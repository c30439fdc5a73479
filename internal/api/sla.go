package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SLA 监控的操作
const (
	OperationTaskQuery  = "task_query"
	OperationTaskView   = "task_view"
	OperationTaskDetail = "task_detail"
	OperationTaskSubmit = "task_submit"
	OperationSession    = "session"
)

// SLAConfig 各操作的最大响应时间
type SLAConfig struct {
	TaskQueryMaxTime  time.Duration // 单页任务查询
	TaskViewMaxTime   time.Duration // 任务视图周期(筛选、加载更多、刷新)
	TaskDetailMaxTime time.Duration // 任务详情
	TaskSubmitMaxTime time.Duration // 表单提交
	SessionMaxTime    time.Duration // 会话上下文
}

// DefaultSLAConfig 返回默认 SLA 配置
// 任务查询包含计数、分页和两次补充请求,阈值按四次上游往返估算
func DefaultSLAConfig() *SLAConfig {
	return &SLAConfig{
		TaskQueryMaxTime:  2 * time.Second,
		TaskViewMaxTime:   2 * time.Second,
		TaskDetailMaxTime: 1 * time.Second,
		TaskSubmitMaxTime: 3 * time.Second,
		SessionMaxTime:    1 * time.Second,
	}
}

// getOperation 根据路由模板和方法获取操作类型
func getOperation(c *gin.Context) string {
	method := c.Request.Method
	switch c.FullPath() {
	case "/api/v1/tasks":
		if method == http.MethodGet {
			return OperationTaskQuery
		}
	case "/api/v1/task-views",
		"/api/v1/task-views/:view/filters",
		"/api/v1/task-views/:view/load-more",
		"/api/v1/task-views/:view/refresh":
		if method != http.MethodDelete {
			return OperationTaskView
		}
	case "/api/v1/tasks/:id":
		return OperationTaskDetail
	case "/api/v1/tasks/:id/submission":
		return OperationTaskSubmit
	case "/api/v1/session":
		if method == http.MethodGet {
			return OperationSession
		}
	}
	return ""
}

// expected 返回操作的期望响应时间,0 表示不检查
func (cfg *SLAConfig) expected(operation string) time.Duration {
	switch operation {
	case OperationTaskQuery:
		return cfg.TaskQueryMaxTime
	case OperationTaskView:
		return cfg.TaskViewMaxTime
	case OperationTaskDetail:
		return cfg.TaskDetailMaxTime
	case OperationTaskSubmit:
		return cfg.TaskSubmitMaxTime
	case OperationSession:
		return cfg.SessionMaxTime
	default:
		return 0
	}
}

// CheckSLA 检查 SLA,未知操作视为满足
func CheckSLA(operation string, duration time.Duration, config *SLAConfig) bool {
	expected := config.expected(operation)
	return expected <= 0 || duration <= expected
}

// SLAViolation SLA 违反记录
type SLAViolation struct {
	Operation string
	Duration  time.Duration
	Expected  time.Duration
	Timestamp time.Time
	Path      string
	Method    string
}

// maxViolationsKept 每个操作保留的违反记录数
const maxViolationsKept = 100

// SLAAlertManager SLA 告警管理器
// 同一操作的违反次数达到阈值时触发回调,然后重新计数
type SLAAlertManager struct {
	violations     map[string][]SLAViolation
	counts         map[string]int
	thresholds     map[string]int
	alertCallbacks []func(string, []SLAViolation)
	mu             sync.RWMutex
}

// NewSLAAlertManager 创建 SLA 告警管理器
func NewSLAAlertManager() *SLAAlertManager {
	return &SLAAlertManager{
		violations: make(map[string][]SLAViolation),
		counts:     make(map[string]int),
		thresholds: make(map[string]int),
	}
}

// RecordViolation 记录 SLA 违反
func (m *SLAAlertManager) RecordViolation(violation SLAViolation) {
	m.mu.Lock()
	operation := violation.Operation
	list := append(m.violations[operation], violation)
	if len(list) > maxViolationsKept {
		list = list[len(list)-maxViolationsKept:]
	}
	m.violations[operation] = list
	m.counts[operation]++

	var fire []func(string, []SLAViolation)
	var snapshot []SLAViolation
	threshold := m.thresholds[operation]
	if threshold > 0 && m.counts[operation] >= threshold {
		m.counts[operation] = 0
		fire = append(fire, m.alertCallbacks...)
		snapshot = append(snapshot, list...)
	}
	m.mu.Unlock()

	// 回调在锁外执行
	for _, callback := range fire {
		callback(operation, snapshot)
	}
}

// SetAlertThreshold 设置告警阈值
func (m *SLAAlertManager) SetAlertThreshold(operation string, threshold int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thresholds[operation] = threshold
}

// OnAlert 注册告警回调
func (m *SLAAlertManager) OnAlert(callback func(string, []SLAViolation)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alertCallbacks = append(m.alertCallbacks, callback)
}

// GetViolations 获取违反记录
func (m *SLAAlertManager) GetViolations(operation string) []SLAViolation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]SLAViolation(nil), m.violations[operation]...)
}

// LogSLAAlerts 将 SLA 告警写入日志
func LogSLAAlerts(logger logrus.FieldLogger) func(string, []SLAViolation) {
	return func(operation string, violations []SLAViolation) {
		last := violations[len(violations)-1]
		logger.WithFields(logrus.Fields{
			"operation":  operation,
			"violations": len(violations),
			"duration":   last.Duration.String(),
			"expected":   last.Expected.String(),
			"path":       last.Path,
		}).Warn("SLA threshold exceeded")
	}
}

// SLAMonitorMiddleware SLA 监控中间件,alertManager 可为 nil
func SLAMonitorMiddleware(config *SLAConfig, alertManager *SLAAlertManager) gin.HandlerFunc {
	if config == nil {
		config = DefaultSLAConfig()
	}

	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		operation := getOperation(c)
		duration := time.Since(start)
		if CheckSLA(operation, duration, config) {
			return
		}

		violation := SLAViolation{
			Operation: operation,
			Duration:  duration,
			Expected:  config.expected(operation),
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
			Method:    c.Request.Method,
		}
		metrics.RecordSLAViolation(operation)
		if alertManager != nil {
			alertManager.RecordViolation(violation)
		}
	}
}
