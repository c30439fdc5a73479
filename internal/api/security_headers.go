package api

import (
	"github.com/gin-gonic/gin"
)

// SecurityHeadersMiddleware 安全头中间件
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 防止 MIME 类型嗅探
		c.Header("X-Content-Type-Options", "nosniff")

		// 防止点击劫持
		c.Header("X-Frame-Options", "DENY")

		// 强制 HTTPS(HSTS)
		c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")

		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// 任务数据带有个人信息,禁止中间代理缓存
		c.Header("Cache-Control", "no-store")

		// swagger 页面需要加载自身脚本,其余接口只返回 JSON
		if len(c.Request.URL.Path) < 9 || c.Request.URL.Path[:9] != "/swagger/" {
			c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		}

		c.Next()
	}
}
