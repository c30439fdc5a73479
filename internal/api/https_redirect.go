package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// HTTPSRedirectMiddleware HTTPS 重定向中间件(生产环境强制 HTTPS)
// 健康检查和指标接口由集群内探针通过 HTTP 访问,不做重定向
func HTTPSRedirectMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsHTTPS(c) || c.Request.URL.Path == "/health" || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		host := c.Request.Host
		if host == "" {
			host = "localhost"
		}

		// 非幂等请求使用 308,保留方法和请求体
		status := http.StatusMovedPermanently
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			status = http.StatusPermanentRedirect
		}

		c.Redirect(status, "https://"+host+c.Request.RequestURI)
		c.Abort()
	}
}

// HTTPSRedirectMiddlewareWithConfig 带配置的 HTTPS 重定向中间件
func HTTPSRedirectMiddlewareWithConfig(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return HTTPSRedirectMiddleware()
}

// IsHTTPS 检查请求是否通过 HTTPS
func IsHTTPS(c *gin.Context) bool {
	// 优先检查 X-Forwarded-Proto 头
	proto := strings.ToLower(c.GetHeader("X-Forwarded-Proto"))
	if proto == "https" {
		return true
	}

	// 检查 X-Forwarded-SSL 头(部分代理使用)
	if c.GetHeader("X-Forwarded-SSL") == "on" {
		return true
	}

	// 检查请求的 Scheme
	if c.Request.URL.Scheme == "https" {
		return true
	}

	// 检查 TLS 连接(直连时)
	if c.Request.TLS != nil {
		return true
	}

	return false
}

