package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/auth"
	"github.com/UKHomeOffice/cop-ui/internal/model"
	"github.com/gin-gonic/gin"
)

const (
	// sseBufferSize 单个订阅者的消息缓冲
	sseBufferSize = 32
	// sseHeartbeatInterval 心跳间隔
	sseHeartbeatInterval = 30 * time.Second
)

// SSEMessage SSE 推送消息
type SSEMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
	Time int64       `json:"time"`
}

// AlertBroker 按用户分发告警的 SSE 代理
type AlertBroker struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan SSEMessage]struct{}
	closed      bool
}

// NewAlertBroker 创建告警代理
func NewAlertBroker() *AlertBroker {
	return &AlertBroker{
		subscribers: make(map[string]map[chan SSEMessage]struct{}),
	}
}

// Subscribe 订阅用户告警,返回的函数用于取消订阅
func (b *AlertBroker) Subscribe(userID string) (<-chan SSEMessage, func()) {
	ch := make(chan SSEMessage, sseBufferSize)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	if b.subscribers[userID] == nil {
		b.subscribers[userID] = make(map[chan SSEMessage]struct{})
	}
	b.subscribers[userID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subscribers[userID][ch]; !ok {
				return
			}
			delete(b.subscribers[userID], ch)
			close(ch)
			if len(b.subscribers[userID]) == 0 {
				delete(b.subscribers, userID)
			}
		})
	}
}

// NotifyAlert 推送告警给用户的所有订阅者
// 缓冲已满的订阅者跳过本条消息
func (b *AlertBroker) NotifyAlert(userID string, alert *model.AlertModel) {
	msg := SSEMessage{Type: "alert", Data: alert, Time: time.Now().Unix()}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers[userID] {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Close 关闭所有订阅,进行中的 SSE 连接随之结束
func (b *AlertBroker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, subs := range b.subscribers {
		for ch := range subs {
			close(ch)
		}
	}
	b.subscribers = make(map[string]map[chan SSEMessage]struct{})
}

// Count 当前订阅数
func (b *AlertBroker) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, subs := range b.subscribers {
		n += len(subs)
	}
	return n
}

// SSEHandler SSE 告警推送处理器
// EventSource 无法设置请求头,token 通过 query 参数传递
// @Summary      告警推送(SSE)
// @Description  以 text/event-stream 推送当前用户的告警
// @Tags         告警
// @Produce      text/event-stream
// @Param        token query string true "Bearer token"
// @Success      200
// @Failure      401  {object}  ErrorResponse
// @Router       /sse/alerts [get]
func SSEHandler(broker *AlertBroker, validator auth.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 从 query 参数获取并验证 token
		token := c.Query("token")
		if token == "" {
			Error(c, http.StatusUnauthorized, "missing token", "")
			c.Abort()
			return
		}
		claims, err := validator.ValidateToken(token)
		if err != nil {
			Error(c, http.StatusUnauthorized, "invalid token", err.Error())
			c.Abort()
			return
		}
		identity := auth.NewIdentity(claims, token)

		// 2. 获取 Flusher
		flusher, ok := c.Writer.(http.Flusher)
		if !ok {
			Error(c, http.StatusInternalServerError, "streaming not supported", "")
			c.Abort()
			return
		}

		// 3. 设置 SSE 响应头
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no") // 禁用 Nginx 缓冲

		// 4. 订阅告警
		messages, unsubscribe := broker.Subscribe(identity.Email)
		defer unsubscribe()

		// 5. 发送初始连接消息
		if err := sendSSEMessage(c.Writer, SSEMessage{
			Type: "connected",
			Data: gin.H{"user_id": identity.Email},
			Time: time.Now().Unix(),
		}); err != nil {
			return
		}
		flusher.Flush()

		// 6. 持续推送告警和心跳
		ticker := time.NewTicker(sseHeartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-c.Request.Context().Done():
				return
			case <-ticker.C:
				if err := sendSSEMessage(c.Writer, SSEMessage{Type: "heartbeat", Time: time.Now().Unix()}); err != nil {
					return
				}
				flusher.Flush()
			case msg, ok := <-messages:
				if !ok {
					return
				}
				if err := sendSSEMessage(c.Writer, msg); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

// sendSSEMessage 发送 SSE 消息
// 格式: event: <type>\ndata: <json>\n\n
func sendSSEMessage(w io.Writer, msg SSEMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal sse message: %w", err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, data)
	return err
}
