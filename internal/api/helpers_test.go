package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/UKHomeOffice/cop-ui/internal/auth/authtest"
	"github.com/UKHomeOffice/cop-ui/internal/client/clienttest"
	"github.com/UKHomeOffice/cop-ui/internal/config"
	"github.com/UKHomeOffice/cop-ui/internal/container"
	"github.com/UKHomeOffice/cop-ui/internal/database"
	"github.com/UKHomeOffice/cop-ui/internal/integration"
	"github.com/UKHomeOffice/cop-ui/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// testServer 完整装配的测试服务
type testServer struct {
	router *gin.Engine
	gw     *clienttest.Gateway
	issuer *authtest.Issuer
	ctr    *container.Container
}

// envelope 响应信封
type envelope struct {
	Code       int             `json:"code"`
	Message    string          `json:"message"`
	Detail     string          `json:"detail"`
	Data       json.RawMessage `json:"data"`
	Pagination json.RawMessage `json:"pagination"`
}

// newTestServer 使用模拟网关、测试签发者和 sqlite 装配服务
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gw := clienttest.NewGateway(t)
	issuer := authtest.NewIssuer(t)

	cfg := config.Default()
	cfg.Gateway.BaseURL = gw.URL
	cfg.Gateway.EnginePath = clienttest.Paths.Engine
	cfg.Gateway.UIPath = clienttest.Paths.UI
	cfg.Gateway.RefDataPath = clienttest.Paths.RefData
	cfg.Gateway.OpDataPath = clienttest.Paths.OpData
	cfg.RateLimit.RPS = 0
	cfg.Security.HTTPSRedirect = false

	db, err := database.Connect(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "api.db"),
	})
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	ctr, err := container.NewContainer(cfg, container.Options{
		Logger:    logger,
		DB:        db,
		Validator: issuer.Validator(),
		Publisher: integration.NoopPublisher{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Close() })

	return &testServer{
		router: ctr.Router(),
		gw:     gw,
		issuer: issuer,
		ctr:    ctr,
	}
}

// token 为用户签发 token
func (s *testServer) token(email string, groups ...string) string {
	if groups == nil {
		groups = []string{}
	}
	return s.issuer.Token(email, groups, "")
}

// do 发送请求,token 为空时不带认证头
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// decode 解析响应信封,data 写入 out
func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if out != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}

// seedTasks 设置任务及其流程定义和实例
func seedTasks(gw *clienttest.Gateway, tasks ...*model.Task) {
	for _, task := range tasks {
		task.ProcessDefinitionID = "def-" + task.ID
		task.ProcessInstanceID = "inst-" + task.ID
		gw.AddDefinition(&model.ProcessDefinition{ID: task.ProcessDefinitionID, Category: "cat-" + task.ID})
		gw.AddInstance(&model.ProcessInstance{ID: task.ProcessInstanceID, BusinessKey: "BK-" + task.ID})
	}
	gw.SetTasks(tasks...)
}

// newRouter 只挂载给定中间件的路由
func newRouter(middleware ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware...)
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})
	return router
}
