package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/model"
	"github.com/sirupsen/logrus"
)

// 推送消息类型
const (
	MessageTypeAlert = "alert"
)

// Message 推送给客户端的消息
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	Time time.Time   `json:"time"`
}

// Hub 管理所有 WebSocket 连接,按用户推送告警
type Hub struct {
	// 已注册的客户端
	clients map[*Client]bool

	// 注册新客户端
	Register chan *Client

	// 注销客户端
	Unregister chan *Client

	// Run 退出后关闭
	done chan struct{}

	// 互斥锁,保护 clients map
	mu sync.RWMutex

	logger logrus.FieldLogger
}

// NewHub 创建新的 Hub
func NewHub(logger logrus.FieldLogger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run 运行 Hub,直到 ctx 结束
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
		}
	}
}

// unregister 注销客户端,Hub 已停止时直接返回
func (h *Hub) unregister(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// NotifyAlert 向用户推送告警
func (h *Hub) NotifyAlert(userID string, alert *model.AlertModel) {
	message, err := json.Marshal(Message{Type: MessageTypeAlert, Data: alert, Time: time.Now()})
	if err != nil {
		h.logger.WithError(err).Error("failed to marshal alert message")
		return
	}
	h.BroadcastToUser(userID, message)
}

// BroadcastToUser 向特定用户广播消息,发送队列已满的客户端会被断开
func (h *Hub) BroadcastToUser(userID string, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if client.UserID != userID {
			continue
		}
		select {
		case client.Send <- message:
		default:
			h.remove(client)
		}
	}
}

// HasClient 检查客户端是否存在
func (h *Hub) HasClient(clientID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.ID == clientID {
			return true
		}
	}
	return false
}

// GetClientCount 获取客户端数量
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// Count 实现 metrics.ViewCounter
func (h *Hub) Count() int {
	return h.GetClientCount()
}

// remove 移除客户端并关闭发送队列,调用方持有写锁
func (h *Hub) remove(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
	}
}

// closeAll 关闭所有客户端
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		h.remove(client)
	}
}
