package websocket_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/auth/authtest"
	"github.com/UKHomeOffice/cop-ui/internal/model"
	"github.com/UKHomeOffice/cop-ui/internal/websocket"
	"github.com/gin-gonic/gin"
	gorillaWS "github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// setupServer 启动带告警推送的测试服务器
func setupServer(t *testing.T) (*websocket.Hub, *authtest.Issuer, string) {
	t.Helper()
	issuer := authtest.NewIssuer(t)
	hub := websocket.NewHub(newLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws/alerts", websocket.WebSocketHandler(hub, issuer.Validator(), []string{"https://cop.example.com"}))

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		cancel()
		server.Close()
	})
	return hub, issuer, "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/alerts"
}

// TestWebSocket_PushesAlertToUser 测试告警只推送给对应用户
func TestWebSocket_PushesAlertToUser(t *testing.T) {
	hub, issuer, url := setupServer(t)

	alice, _, err := gorillaWS.DefaultDialer.Dial(url+"?token="+issuer.Token("a@x.com", nil, ""), nil)
	require.NoError(t, err)
	defer alice.Close()
	bob, _, err := gorillaWS.DefaultDialer.Dial(url+"?token="+issuer.Token("b@x.com", nil, ""), nil)
	require.NoError(t, err)
	defer bob.Close()

	require.Eventually(t, func() bool { return hub.GetClientCount() == 2 }, time.Second, 10*time.Millisecond)

	hub.NotifyAlert("a@x.com", &model.AlertModel{ID: "alert-1", UserID: "a@x.com", Kind: "status", Status: 500})

	_ = alice.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := alice.ReadMessage()
	require.NoError(t, err)

	var message struct {
		Type string           `json:"type"`
		Data model.AlertModel `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &message))
	assert.Equal(t, websocket.MessageTypeAlert, message.Type)
	assert.Equal(t, "alert-1", message.Data.ID)
	assert.Equal(t, 500, message.Data.Status)

	// bob 不会收到
	_ = bob.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = bob.ReadMessage()
	assert.Error(t, err)
}

// TestWebSocket_Unauthorized 测试缺少或无效的 token
func TestWebSocket_Unauthorized(t *testing.T) {
	_, _, url := setupServer(t)

	_, resp, err := gorillaWS.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = gorillaWS.DefaultDialer.Dial(url+"?token=garbage", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// TestWebSocket_RejectsForeignOrigin 测试来源检查
func TestWebSocket_RejectsForeignOrigin(t *testing.T) {
	_, issuer, url := setupServer(t)

	header := http.Header{}
	header.Set("Origin", "https://evil.example.com")
	_, resp, err := gorillaWS.DefaultDialer.Dial(url+"?token="+issuer.Token("a@x.com", nil, ""), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header.Set("Origin", "https://cop.example.com")
	conn, _, err := gorillaWS.DefaultDialer.Dial(url+"?token="+issuer.Token("a@x.com", nil, ""), header)
	require.NoError(t, err)
	conn.Close()
}

// TestWebSocket_UnregisterOnClose 测试断开后注销
func TestWebSocket_UnregisterOnClose(t *testing.T) {
	hub, issuer, url := setupServer(t)

	conn, _, err := gorillaWS.DefaultDialer.Dial(url+"?token="+issuer.Token("a@x.com", nil, ""), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}
