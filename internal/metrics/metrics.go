package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

var (
	// API 请求计数器
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	// API 请求响应时间
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 上游请求计数器
	upstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of requests sent to the process engine and gateway services",
		},
		[]string{"method", "endpoint", "status"},
	)

	// 上游请求响应时间
	upstreamRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Upstream request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// 任务列表获取周期
	taskListCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_list_cycles_total",
			Help: "Total number of task list fetch cycles by result",
		},
		[]string{"result"}, // loaded, empty, failed, canceled, superseded
	)

	// 任务详情加载
	taskDetailLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_detail_loads_total",
			Help: "Total number of task detail loads by result",
		},
		[]string{"result"},
	)

	// 表单提交数
	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submissions_total",
			Help: "Total number of form submissions by result",
		},
		[]string{"result"}, // succeeded, failed, rejected
	)

	// 告警数
	alertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_total",
			Help: "Total number of user alerts raised by kind",
		},
		[]string{"kind"},
	)

	// 丢弃的失败报告
	reportsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "failure_reports_dropped_total",
			Help: "Total number of failure reports dropped because the queue was full",
		},
	)

	// SLA 违反次数
	slaViolationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sla_violations_total",
			Help: "Total number of API responses slower than the operation SLA",
		},
		[]string{"operation"},
	)

	// 活跃视图数
	activeViews = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "active_views",
			Help: "Number of open task list and task detail views",
		},
		[]string{"kind"},
	)

	// 数据库连接数
	databaseConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_active",
			Help: "Number of active database connections",
		},
	)

	databaseConnectionsIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	databaseConnectionsMax = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_max",
			Help: "Maximum number of database connections",
		},
	)
)

var (
	once sync.Once
)

func init() {
	// 注册指标
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(upstreamRequestsTotal)
	prometheus.MustRegister(upstreamRequestDuration)
	prometheus.MustRegister(taskListCyclesTotal)
	prometheus.MustRegister(taskDetailLoadsTotal)
	prometheus.MustRegister(submissionsTotal)
	prometheus.MustRegister(alertsTotal)
	prometheus.MustRegister(reportsDroppedTotal)
	prometheus.MustRegister(slaViolationsTotal)
	prometheus.MustRegister(activeViews)
	prometheus.MustRegister(databaseConnectionsActive)
	prometheus.MustRegister(databaseConnectionsIdle)
	prometheus.MustRegister(databaseConnectionsMax)

	// 注册 Go 运行时指标（只注册一次）
	once.Do(func() {
		_ = prometheus.Register(prometheus.NewGoCollector())
		_ = prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	})
}

// Handler 返回 Prometheus 指标处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAPIRequest 记录 API 请求
func RecordAPIRequest(method, path string, status int, duration float64) {
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = fmt.Sprintf("%d", status)
	}
	apiRequestsTotal.WithLabelValues(method, path, statusText).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordUpstreamRequest 记录上游请求,传输失败时 status 为 0
func RecordUpstreamRequest(method, endpoint string, status int, duration time.Duration) {
	upstreamRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	upstreamRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordTaskListCycle 记录任务列表周期结果
func RecordTaskListCycle(result string) {
	taskListCyclesTotal.WithLabelValues(result).Inc()
}

// RecordTaskDetailLoad 记录任务详情加载结果
func RecordTaskDetailLoad(result string) {
	taskDetailLoadsTotal.WithLabelValues(result).Inc()
}

// RecordSubmission 记录表单提交结果
func RecordSubmission(result string) {
	submissionsTotal.WithLabelValues(result).Inc()
}

// RecordAlert 记录告警
func RecordAlert(kind string) {
	alertsTotal.WithLabelValues(kind).Inc()
}

// RecordReportDropped 记录丢弃的失败报告
func RecordReportDropped() {
	reportsDroppedTotal.Inc()
}

// RecordSLAViolation 记录 SLA 违反
func RecordSLAViolation(operation string) {
	slaViolationsTotal.WithLabelValues(operation).Inc()
}

// SetActiveViews 更新活跃视图数
func SetActiveViews(kind string, count int) {
	activeViews.WithLabelValues(kind).Set(float64(count))
}

// UpdateDatabaseConnections 更新数据库连接数指标
func UpdateDatabaseConnections(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	stats := sqlDB.Stats()
	databaseConnectionsActive.Set(float64(stats.OpenConnections - stats.Idle))
	databaseConnectionsIdle.Set(float64(stats.Idle))
	databaseConnectionsMax.Set(float64(stats.MaxOpenConnections))

	return nil
}
