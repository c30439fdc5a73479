package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/database"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// healthCheckTimeout 单项检查超时
const healthCheckTimeout = 5 * time.Second

// EnginePinger 流程引擎探测接口
type EnginePinger interface {
	PingEngine(ctx context.Context) error
}

// HealthController 健康检查控制器
type HealthController struct {
	db     *gorm.DB
	engine EnginePinger
}

// NewHealthController 创建健康检查控制器,engine 可为 nil
func NewHealthController(db *gorm.DB, engine EnginePinger) *HealthController {
	return &HealthController{
		db:     db,
		engine: engine,
	}
}

// Check 健康检查
// @Summary      健康检查
// @Description  检查数据库和流程引擎连通性
// @Tags         系统
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /health [get]
func (c *HealthController) Check(ctx *gin.Context) {
	status := "healthy"
	checks := make(map[string]string)

	// 检查数据库连接
	if c.db != nil {
		if err := c.checkDatabase(ctx.Request.Context()); err != nil {
			status = "unhealthy"
			checks["database"] = "unhealthy: " + err.Error()
		} else {
			checks["database"] = "healthy"
		}
	} else {
		checks["database"] = "not configured"
	}

	// 流程引擎不可达时服务降级但仍可用,只标记 degraded
	if c.engine != nil {
		if err := c.checkEngine(ctx.Request.Context()); err != nil {
			if status == "healthy" {
				status = "degraded"
			}
			checks["engine"] = "unhealthy: " + err.Error()
		} else {
			checks["engine"] = "healthy"
		}
	} else {
		checks["engine"] = "not configured"
	}

	httpStatus := http.StatusOK
	if status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	ctx.JSON(httpStatus, gin.H{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	})
}

// checkDatabase 检查数据库连接
func (c *HealthController) checkDatabase(ctx context.Context) error {
	if err := database.Ping(ctx, c.db); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// checkEngine 检查流程引擎连接
func (c *HealthController) checkEngine(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	return c.engine.PingEngine(ctx)
}
