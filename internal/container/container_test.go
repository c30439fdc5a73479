package container_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/UKHomeOffice/cop-ui/internal/auth/authtest"
	"github.com/UKHomeOffice/cop-ui/internal/client/clienttest"
	"github.com/UKHomeOffice/cop-ui/internal/config"
	"github.com/UKHomeOffice/cop-ui/internal/container"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig sqlite 和模拟网关的配置
func testConfig(t *testing.T, gw *clienttest.Gateway) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Driver = "sqlite"
	cfg.Database.Path = filepath.Join(t.TempDir(), "container.db")
	cfg.Gateway.BaseURL = gw.URL
	cfg.Gateway.EnginePath = clienttest.Paths.Engine
	cfg.Gateway.UIPath = clienttest.Paths.UI
	cfg.Gateway.RefDataPath = clienttest.Paths.RefData
	cfg.Gateway.OpDataPath = clienttest.Paths.OpData
	cfg.Security.HTTPSRedirect = false
	return cfg
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// TestContainer_NewContainer 测试创建依赖注入容器
func TestContainer_NewContainer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gw := clienttest.NewGateway(t)
	issuer := authtest.NewIssuer(t)

	// 数据库和发布器使用配置创建
	ctr, err := container.NewContainer(testConfig(t, gw), container.Options{
		Logger:    quietLogger(),
		Validator: issuer.Validator(),
	})
	require.NoError(t, err)

	require.NotNil(t, ctr.DB(), "database should be initialized")
	require.NotNil(t, ctr.Factory(), "client factory should be initialized")
	assert.NotNil(t, ctr.Logger())

	// 迁移后的表可用
	assert.True(t, ctr.DB().Migrator().HasTable("alerts"))
	assert.True(t, ctr.DB().Migrator().HasTable("submissions"))
	assert.True(t, ctr.DB().Migrator().HasTable("audit_logs"))

	router := ctr.Router()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, ctr.Close())
}

// TestContainer_NewContainer_InvalidConfig 测试使用无效配置创建容器
func TestContainer_NewContainer_InvalidConfig(t *testing.T) {
	gw := clienttest.NewGateway(t)
	cfg := testConfig(t, gw)
	cfg.Database.Driver = "oracle"

	_, err := container.NewContainer(cfg, container.Options{Logger: quietLogger()})
	assert.Error(t, err, "should return error with invalid database config")
}

// TestContainer_StartClose 测试后台任务启动和关闭
func TestContainer_StartClose(t *testing.T) {
	gw := clienttest.NewGateway(t)
	ctr, err := container.NewContainer(testConfig(t, gw), container.Options{Logger: quietLogger()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctr.Start(ctx)

	done := make(chan error, 1)
	go func() { done <- ctr.Close() }()
	require.NoError(t, <-done)
}

// TestContainer_ApplyConfig 测试配置热更新
func TestContainer_ApplyConfig(t *testing.T) {
	gw := clienttest.NewGateway(t)
	cfg := testConfig(t, gw)
	ctr, err := container.NewContainer(cfg, container.Options{Logger: quietLogger()})
	require.NoError(t, err)
	defer ctr.Close()

	updated := *cfg
	updated.Log.Level = "debug"
	ctr.ApplyConfig(&updated)
	assert.Equal(t, logrus.DebugLevel, ctr.Logger().GetLevel())

	// 无效级别保持不变
	updated.Log.Level = "loud"
	ctr.ApplyConfig(&updated)
	assert.Equal(t, logrus.DebugLevel, ctr.Logger().GetLevel())
}
