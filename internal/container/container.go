package container

import (
	"context"
	"fmt"
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/api"
	"github.com/UKHomeOffice/cop-ui/internal/auth"
	"github.com/UKHomeOffice/cop-ui/internal/client"
	"github.com/UKHomeOffice/cop-ui/internal/config"
	"github.com/UKHomeOffice/cop-ui/internal/database"
	"github.com/UKHomeOffice/cop-ui/internal/integration"
	"github.com/UKHomeOffice/cop-ui/internal/metrics"
	"github.com/UKHomeOffice/cop-ui/internal/repository"
	"github.com/UKHomeOffice/cop-ui/internal/service"
	"github.com/UKHomeOffice/cop-ui/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// 后台任务间隔
const (
	janitorInterval   = time.Minute
	collectorInterval = 15 * time.Second
)

// Container 依赖注入容器
// 管理所有应用依赖,包括数据库、上游客户端、服务和后台任务
type Container struct {
	cfg    *config.Config
	logger *logrus.Logger
	db     *gorm.DB

	validator auth.TokenValidator
	publisher integration.Publisher
	reporter  *integration.AsyncReporter
	factory   *client.Factory
	hub       *websocket.Hub
	broker    *api.AlertBroker
	slaAlerts *api.SLAAlertManager
	collector *metrics.Collector
	retention *service.RetentionScheduler

	taskLists   service.TaskListService
	listViews   *service.TaskListViews
	detailViews *service.TaskDetailViews
	submissions service.SubmissionService
	sessions    service.SessionService
	alerts      service.AlertService
	statistics  service.StatisticsService

	cancel context.CancelFunc
}

// Options 容器选项,零值字段使用默认实现
type Options struct {
	Logger    *logrus.Logger
	DB        *gorm.DB
	Validator auth.TokenValidator
	Publisher integration.Publisher
}

// NewContainer 创建依赖注入容器
// 根据配置初始化所有依赖组件
func NewContainer(cfg *config.Config, opts Options) (*Container, error) {
	// 1. 日志
	logger := opts.Logger
	if logger == nil {
		var err error
		logger, err = api.NewLoggerFromConfig(&cfg.Log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}
	api.SetDefaultLogger(logger)

	// 2. 数据库(带重试机制),默认重试 3 次,初始间隔 1 秒
	db := opts.DB
	if db == nil {
		var err error
		db, err = database.ConnectWithRetry(cfg.Database, 3, time.Second)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// 3. 事件发布
	publisher := opts.Publisher
	if publisher == nil {
		var err error
		publisher, err = integration.NewPublisher(cfg.NATS, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize publisher: %w", err)
		}
	}

	// 4. Keycloak Token 验证器
	validator := opts.Validator
	if validator == nil {
		validator = auth.NewKeycloakTokenValidator(cfg.Keycloak.Issuer, cfg.Keycloak.JWKSURL)
	}

	// 5. 告警:推送通道 -> 告警服务 -> 异步报告器
	hub := websocket.NewHub(logger)
	broker := api.NewAlertBroker()
	alertRepo := repository.NewAlertRepository(db)
	alerts := service.NewAlertService(alertRepo, cfg.Alerts.MaxListed, hub, broker)
	reporter := integration.NewAsyncReporter(logger, alerts, publisher, integration.ReporterOptions{
		QueueSize:          cfg.Alerts.QueueSize,
		Workers:            cfg.Alerts.Workers,
		TokenEncryptionKey: cfg.Security.TokenEncryptionKey,
	})

	// 6. 上游客户端工厂
	factory := client.NewFactory(client.Options{
		BaseURL: cfg.Gateway.BaseURL,
		Paths: client.Paths{
			Engine:  cfg.Gateway.EnginePath,
			UI:      cfg.Gateway.UIPath,
			RefData: cfg.Gateway.RefDataPath,
			OpData:  cfg.Gateway.OpDataPath,
		},
		Timeout:  time.Duration(cfg.Gateway.TimeoutSeconds) * time.Second,
		Reporter: reporter,
	})

	// 7. 业务服务
	auditRepo := repository.NewAuditLogRepository(db)
	auditService := service.NewAuditLogService(auditRepo)
	viewTTL := time.Duration(cfg.Tasks.ViewTTLSeconds) * time.Second

	taskLists := service.NewTaskListService(cfg.Tasks, logger)
	listViews := service.NewTaskListViews(taskLists, viewTTL, logger)
	normalizer := service.NewNormalizer(api.DefaultI18nManager(), nil)
	detailViews := service.NewTaskDetailViews(service.NewTaskDetailService(normalizer, logger), viewTTL)
	submissions := service.NewSubmissionService(repository.NewSubmissionRepository(db), auditService, publisher, logger)
	sessionCache := auth.NewSessionCache[service.SessionSnapshot](time.Duration(cfg.Session.CacheTTLSeconds) * time.Second)
	sessions := service.NewSessionService(sessionCache, factory, auditService, logger, listViews, detailViews)

	// 8. 后台任务
	collector := metrics.NewCollector(db, collectorInterval)
	collector.WatchViews("task_list", listViews)
	collector.WatchViews("task_detail", detailViews)
	collector.WatchViews("websocket", hub)
	collector.WatchViews("sse", broker)

	retention := service.NewRetentionScheduler(alertRepo, auditRepo, service.RetentionConfig{}, logger)

	slaAlerts := api.NewSLAAlertManager()
	for _, operation := range []string{api.OperationTaskQuery, api.OperationTaskView, api.OperationTaskDetail, api.OperationTaskSubmit} {
		slaAlerts.SetAlertThreshold(operation, 10)
	}
	slaAlerts.OnAlert(api.LogSLAAlerts(logger))

	return &Container{
		cfg:         cfg,
		logger:      logger,
		db:          db,
		validator:   validator,
		publisher:   publisher,
		reporter:    reporter,
		factory:     factory,
		hub:         hub,
		broker:      broker,
		slaAlerts:   slaAlerts,
		collector:   collector,
		retention:   retention,
		taskLists:   taskLists,
		listViews:   listViews,
		detailViews: detailViews,
		submissions: submissions,
		sessions:    sessions,
		alerts:      alerts,
		statistics:  service.NewStatisticsService(db),
	}, nil
}

// Router 构建 HTTP 路由
func (c *Container) Router() *gin.Engine {
	return api.SetupRoutes(api.RouterDeps{
		Config:      c.cfg,
		Logger:      c.logger,
		DB:          c.db,
		Validator:   c.validator,
		Factory:     c.factory,
		Hub:         c.hub,
		Broker:      c.broker,
		SLAAlerts:   c.slaAlerts,
		TaskLists:   c.taskLists,
		ListViews:   c.listViews,
		DetailViews: c.detailViews,
		Submissions: c.submissions,
		Sessions:    c.sessions,
		Alerts:      c.alerts,
		Statistics:  c.statistics,
	})
}

// Start 启动后台任务:推送中心、视图清理、指标收集和数据保留
func (c *Container) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	c.cancel = cancel

	go c.hub.Run(ctx)
	go func() {
		<-ctx.Done()
		c.broker.Close()
	}()
	c.listViews.StartJanitor(ctx, janitorInterval)
	c.detailViews.StartJanitor(ctx, janitorInterval)
	c.collector.Start()
	c.retention.Start(ctx)
}

// ApplyConfig 应用热更新的配置
// 只有日志级别和任务列表配置支持热更新
func (c *Container) ApplyConfig(cfg *config.Config) {
	if !api.ApplyLogLevel(c.logger, cfg.Log.Level) {
		c.logger.WithField("level", cfg.Log.Level).Warn("ignoring invalid log level")
	}
	c.taskLists.ApplyConfig(cfg.Tasks)
	c.logger.Info("configuration reloaded")
}

// Logger 获取日志记录器
func (c *Container) Logger() *logrus.Logger {
	return c.logger
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Factory 获取上游客户端工厂
func (c *Container) Factory() *client.Factory {
	return c.factory
}

// Close 关闭容器,清理资源
// 顺序:停止后台任务,关闭视图,排空报告队列,最后关闭发布器和数据库
func (c *Container) Close() error {
	if c.cancel != nil {
		c.cancel()
		c.retention.Stop()
		c.collector.Stop()
	}
	c.listViews.Shutdown()
	c.detailViews.Shutdown()
	c.reporter.Stop()

	if err := c.publisher.Close(); err != nil {
		c.logger.WithError(err).Warn("failed to close publisher")
	}
	if c.db != nil {
		if err := database.Close(c.db); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	return nil
}
