package api

import (
	"github.com/UKHomeOffice/cop-ui/internal/auth"
	"github.com/UKHomeOffice/cop-ui/internal/client"
	"github.com/UKHomeOffice/cop-ui/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	// RoutePathHeader 前端当前路由,用于告警定位
	RoutePathHeader = "X-Route-Path"
	clientKey       = "upstream_client"
)

// SessionClientMiddleware 会话客户端中间件
// 必须在认证中间件之后注册
func SessionClientMiddleware(factory *client.Factory) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 请求上下文携带路由和请求 ID,失败报告和审计日志从中读取
		route := c.GetHeader(RoutePathHeader)
		if route == "" {
			route = c.Request.URL.Path
		}
		requestID := c.GetString(RequestIDKey)

		ctx := c.Request.Context()
		ctx = client.WithRoute(ctx, route)
		ctx = client.WithRequestID(ctx, requestID)
		ctx = service.WithRequestMeta(ctx, service.RequestMeta{
			RequestID: requestID,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)

		// 2. 绑定当前用户的上游客户端,token 缺失时为 nil
		c.Set(clientKey, factory.For(auth.GetIdentity(c)))

		c.Next()
	}
}

// currentIdentity 当前请求的身份
func currentIdentity(c *gin.Context) *auth.Identity {
	return auth.GetIdentity(c)
}

// currentClient 当前请求的上游客户端,可能为 nil
func currentClient(c *gin.Context) *client.Client {
	val, ok := c.Get(clientKey)
	if !ok {
		return nil
	}
	cl, _ := val.(*client.Client)
	return cl
}
