package websocket

import (
	"net/http"

	"github.com/UKHomeOffice/cop-ui/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gorillaWS "github.com/gorilla/websocket"
)

// newUpgrader 按允许的来源创建 upgrader,包含 "*" 时不检查
func newUpgrader(allowedOrigins []string) gorillaWS.Upgrader {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return gorillaWS.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return allowAll || origin == "" || allowed[origin]
		},
	}
}

// WebSocketHandler 告警推送处理器
// 浏览器无法为 WebSocket 设置 Authorization 头,token 通过 query 参数传递
func WebSocketHandler(hub *Hub, validator auth.TokenValidator, allowedOrigins []string) gin.HandlerFunc {
	upgrader := newUpgrader(allowedOrigins)

	return func(c *gin.Context) {
		// 1. 从 query 参数获取 token
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		// 2. 验证 token
		claims, err := validator.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		identity := auth.NewIdentity(claims, token)

		// 3. 升级连接
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade 已写入错误响应
			return
		}

		// 4. 创建并注册客户端
		client := NewClient(uuid.New().String(), identity.Email, hub, conn)
		select {
		case hub.Register <- client:
		case <-hub.done:
			conn.Close()
			return
		}

		// 5. 启动 readPump 和 writePump
		go client.ReadPump()
		go client.WritePump()
	}
}
