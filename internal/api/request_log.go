package api

import (
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequestLogMiddleware 请求日志中间件
func RequestLogMiddleware(logger logrus.FieldLogger) gin.HandlerFunc {
	if logger == nil {
		logger = GetLogger()
	}

	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		// 指标按路由模板记录,避免 ID 进入标签
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordAPIRequest(method, route, status, latency.Seconds())

		// 使用结构化日志记录请求信息
		entry := logger.WithFields(logrus.Fields{
			"request_id": c.GetString(RequestIDKey),
			"method":     method,
			"path":       c.Request.URL.Path,
			"route":      route,
			"status":     status,
			"latency":    latency.String(),
			"ip":         c.ClientIP(),
		})
		if identity := currentIdentity(c); identity != nil {
			entry = entry.WithField("user_id", identity.Email)
		}

		// 根据状态码选择日志级别
		if status >= 500 {
			entry.Error("API request")
		} else if status >= 400 {
			entry.Warn("API request")
		} else {
			entry.Info("API request")
		}
	}
}
