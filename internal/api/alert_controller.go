package api

import (
	"net/http"

	"github.com/UKHomeOffice/cop-ui/internal/service"
	"github.com/gin-gonic/gin"
)

// AlertController 告警控制器
type AlertController struct {
	alerts service.AlertService
}

// NewAlertController 创建告警控制器
func NewAlertController(alerts service.AlertService) *AlertController {
	return &AlertController{alerts: alerts}
}

// List 列出当前用户未关闭的告警
// @Summary      告警列表
// @Tags         告警
// @Produce      json
// @Success      200  {object}  Response
// @Failure      500  {object}  ErrorResponse
// @Router       /alerts [get]
// @Security     BearerAuth
func (c *AlertController) List(ctx *gin.Context) {
	alerts, err := c.alerts.List(ctx.Request.Context(), currentIdentity(ctx).Email)
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to list alerts", err.Error())
		return
	}
	Success(ctx, alerts)
}

// DismissAll 关闭当前用户的全部告警
// @Summary      关闭全部告警
// @Tags         告警
// @Produce      json
// @Success      200  {object}  Response
// @Failure      500  {object}  ErrorResponse
// @Router       /alerts [delete]
// @Security     BearerAuth
func (c *AlertController) DismissAll(ctx *gin.Context) {
	count, err := c.alerts.DismissAll(ctx.Request.Context(), currentIdentity(ctx).Email)
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to dismiss alerts", err.Error())
		return
	}
	Success(ctx, gin.H{"dismissed": count})
}

// Dismiss 关闭单条告警
// @Summary      关闭告警
// @Tags         告警
// @Produce      json
// @Param        id path string true "告警 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /alerts/{id} [delete]
// @Security     BearerAuth
func (c *AlertController) Dismiss(ctx *gin.Context) {
	ok, err := c.alerts.Dismiss(ctx.Request.Context(), currentIdentity(ctx).Email, ctx.Param("id"))
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to dismiss alert", err.Error())
		return
	}
	if !ok {
		Error(ctx, http.StatusNotFound, "alert not found", "")
		return
	}
	Success(ctx, nil)
}
