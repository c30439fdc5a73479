package service_test

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/UKHomeOffice/cop-ui/internal/config"
	"github.com/UKHomeOffice/cop-ui/internal/database"
	"github.com/UKHomeOffice/cop-ui/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testLogger 丢弃输出的日志
func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// newListService 使用默认配置的任务列表服务
func newListService() service.TaskListService {
	return service.NewTaskListService(config.TasksConfig{
		PageSize:       20,
		DefaultSort:    "asc-dueDate",
		DefaultGroupBy: "category",
	}, testLogger())
}

// setupTestDB 创建已迁移的 sqlite 数据库
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "service.db"),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// published 已发布的事件
type published struct {
	Subject string
	Value   interface{}
}

// recordingPublisher 记录发布的事件
type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, v interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{Subject: subject, Value: v})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Events() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.events...)
}
