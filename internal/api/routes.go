package api

import (
	"fmt"
	"net/http"

	_ "github.com/UKHomeOffice/cop-ui/docs" // 导入生成的 docs 包
	"github.com/UKHomeOffice/cop-ui/internal/auth"
	"github.com/UKHomeOffice/cop-ui/internal/client"
	"github.com/UKHomeOffice/cop-ui/internal/config"
	"github.com/UKHomeOffice/cop-ui/internal/service"
	"github.com/UKHomeOffice/cop-ui/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// RouterDeps 路由依赖
type RouterDeps struct {
	Config    *config.Config
	Logger    logrus.FieldLogger
	DB        *gorm.DB
	Validator auth.TokenValidator
	Factory   *client.Factory
	Hub       *websocket.Hub
	Broker    *AlertBroker
	SLAAlerts *SLAAlertManager

	TaskLists   service.TaskListService
	ListViews   *service.TaskListViews
	DetailViews *service.TaskDetailViews
	Submissions service.SubmissionService
	Sessions    service.SessionService
	Alerts      service.AlertService
	Statistics  service.StatisticsService
}

// SetupRoutes 配置路由
func SetupRoutes(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	router := gin.New()

	// 1. 全局中间件
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	if cfg.Tracing.Enabled {
		router.Use(TracingMiddleware())
	}
	router.Use(RequestLogMiddleware(deps.Logger))
	router.Use(SecurityHeadersMiddleware())
	router.Use(HTTPSRedirectMiddlewareWithConfig(cfg.Security.HTTPSRedirect))
	router.Use(CORSMiddleware(cfg.CORS))
	router.Use(RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	router.Use(VersionMiddleware())
	router.Use(I18nMiddleware())
	router.Use(ErrorHandlerMiddleware())

	// 2. 无需认证的路由
	var engine EnginePinger
	if deps.Factory != nil {
		engine = deps.Factory.Probe()
	}
	healthController := NewHealthController(deps.DB, engine)
	router.GET("/health", healthController.Check)
	router.GET("/metrics", MetricsHandler)

	// 如果 host 是 0.0.0.0,使用 localhost 作为 Swagger URL
	swaggerHost := cfg.Server.Host
	if swaggerHost == "" || swaggerHost == "0.0.0.0" {
		swaggerHost = "localhost"
	}
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.URL(fmt.Sprintf("http://%s:%d/swagger/doc.json", swaggerHost, cfg.Server.Port)),
	))

	// 3. 告警推送,token 通过 query 参数认证
	if deps.Hub != nil {
		router.GET("/ws/alerts", websocket.WebSocketHandler(deps.Hub, deps.Validator, cfg.CORS.AllowedOrigins))
	}
	if deps.Broker != nil {
		router.GET("/sse/alerts", SSEHandler(deps.Broker, deps.Validator))
	}

	// 4. API v1 路由组
	taskController := NewTaskController(deps.TaskLists, deps.DetailViews, deps.Submissions)
	viewController := NewTaskViewController(deps.ListViews)
	sessionController := NewSessionController(deps.Sessions)
	alertController := NewAlertController(deps.Alerts)
	statisticsController := NewStatisticsController(deps.Statistics)

	v1 := router.Group("/api/v1")
	v1.Use(auth.KeycloakAuthMiddleware(deps.Validator))
	v1.Use(SessionClientMiddleware(deps.Factory))
	v1.Use(SLAMonitorMiddleware(DefaultSLAConfig(), deps.SLAAlerts))
	{
		tasks := v1.Group("/tasks")
		{
			tasks.GET("", taskController.List)
			tasks.GET("/:id", taskController.Get)
			tasks.POST("/:id/submission", taskController.Submit)
			tasks.GET("/:id/submissions", taskController.Submissions)
		}

		views := v1.Group("/task-views")
		{
			views.POST("", viewController.Open)
			views.GET("/:view", viewController.Get)
			views.PUT("/:view/filters", viewController.SetFilters)
			views.POST("/:view/load-more", viewController.LoadMore)
			views.POST("/:view/refresh", viewController.Refresh)
			views.DELETE("/:view", viewController.Close)
		}

		v1.DELETE("/task-detail-views/:view", taskController.CloseDetailView)

		v1.GET("/session", sessionController.Get)
		v1.DELETE("/session", sessionController.Delete)

		alerts := v1.Group("/alerts")
		{
			alerts.GET("", alertController.List)
			alerts.DELETE("", alertController.DismissAll)
			alerts.DELETE("/:id", alertController.Dismiss)
		}

		v1.GET("/statistics", statisticsController.Get)
	}

	// 自定义 NoRoute 处理器,返回 JSON 格式的 404
	router.NoRoute(func(c *gin.Context) {
		Error(c, http.StatusNotFound, "route not found", "the requested route does not exist")
	})

	return router
}
