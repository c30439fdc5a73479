package api

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// APIVersionHeader 响应中回显的 API 版本头
	APIVersionHeader = "X-API-Version"
	// DefaultAPIVersion 默认 API 版本
	DefaultAPIVersion = "v1"
	apiVersionKey     = "api_version"
)

// DeprecatedVersionInfo 废弃版本信息
type DeprecatedVersionInfo struct {
	Version         string
	DeprecationDate time.Time
	SunsetDate      time.Time
	MigrationPath   string
}

// 版本兼容性配置
var (
	deprecatedVersions = make(map[string]DeprecatedVersionInfo)
	deprecatedMu       sync.RWMutex
)

// VersionMiddleware API 版本中间件
// 版本取自 URL 路径 /api/vN/...,请求头 API-Version 优先
func VersionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		version := versionFromPath(c.Request.URL.Path)
		if headerVersion := c.GetHeader("API-Version"); headerVersion != "" {
			version = headerVersion
		}

		deprecatedMu.RLock()
		info, isDeprecated := deprecatedVersions[version]
		deprecatedMu.RUnlock()

		if isDeprecated {
			c.Header("X-API-Deprecated", "true")
			c.Header("X-API-Deprecation-Date", info.DeprecationDate.Format("2006-01-02"))
			c.Header("X-API-Sunset-Date", info.SunsetDate.Format("2006-01-02"))
			if info.MigrationPath != "" {
				c.Header("X-API-Migration-Path", info.MigrationPath)
			}
		}

		c.Set(apiVersionKey, version)
		c.Header(APIVersionHeader, version)
		c.Next()
	}
}

// versionFromPath 从 /api/vN/... 中提取版本
func versionFromPath(path string) string {
	rest, ok := strings.CutPrefix(path, "/api/")
	if !ok {
		return DefaultAPIVersion
	}
	segment, _, _ := strings.Cut(rest, "/")
	if len(segment) > 1 && segment[0] == 'v' {
		return segment
	}
	return DefaultAPIVersion
}

// GetAPIVersion 从上下文获取 API 版本
func GetAPIVersion(c *gin.Context) string {
	if version := c.GetString(apiVersionKey); version != "" {
		return version
	}
	return DefaultAPIVersion
}

// RegisterDeprecatedVersion 注册废弃版本信息
func RegisterDeprecatedVersion(info DeprecatedVersionInfo) {
	deprecatedMu.Lock()
	defer deprecatedMu.Unlock()
	deprecatedVersions[info.Version] = info
}
