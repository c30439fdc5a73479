package api

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader 请求 ID 头
	RequestIDHeader = "X-Request-ID"
	// RequestIDKey 请求 ID 在 gin 上下文中的键
	RequestIDKey = "request_id"
)

// maxRequestIDLength 接受客户端传入请求 ID 的最大长度
const maxRequestIDLength = 128

// RequestIDMiddleware 请求 ID 中间件
// 沿用客户端传入的 X-Request-ID,否则生成新的 UUID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}
