package database_test

import (
	"path/filepath"
	"testing"

	"github.com/UKHomeOffice/cop-ui/internal/config"
	"github.com/UKHomeOffice/cop-ui/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuildDSN 测试构建 DSN
func TestBuildDSN(t *testing.T) {
	dsn := database.BuildDSN(config.DatabaseConfig{
		Host: "db", Port: 5432, User: "cop", Password: "secret", DBName: "cop_ui", SSLMode: "require",
	})
	assert.Equal(t, "host=db port=5432 user=cop password=secret dbname=cop_ui sslmode=require", dsn)
}

// TestGetPoolConfig 测试连接池默认值
func TestGetPoolConfig(t *testing.T) {
	pool := database.GetPoolConfig(config.DatabaseConfig{MaxOpenConns: 50})
	assert.Equal(t, 10, pool.MaxIdleConns)
	assert.Equal(t, 50, pool.MaxOpenConns)
	assert.Equal(t, 3600, pool.ConnMaxLifetime)
	assert.Equal(t, 600, pool.ConnMaxIdleTime)
}

// TestConnectAndMigrate_SQLite 测试 sqlite 连接和迁移
func TestConnectAndMigrate_SQLite(t *testing.T) {
	cfg := config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "test.db")}

	db, err := database.Connect(cfg)
	require.NoError(t, err)
	defer database.Close(db)

	require.NoError(t, database.Migrate(db))
	// 重复迁移应当幂等
	require.NoError(t, database.Migrate(db))

	assert.True(t, db.Migrator().HasTable("alerts"))
	assert.True(t, db.Migrator().HasTable("submissions"))
	assert.True(t, db.Migrator().HasTable("audit_logs"))
	assert.True(t, database.CheckHealth(db))
}

// TestConnect_UnsupportedDriver 测试不支持的驱动
func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := database.Connect(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

// TestCheckHealth_Nil 测试空连接
func TestCheckHealth_Nil(t *testing.T) {
	assert.False(t, database.CheckHealth(nil))
	assert.NoError(t, database.Close(nil))
}
