package api

import (
	"net/http"
	"strconv"

	"github.com/UKHomeOffice/cop-ui/internal/service"
	"github.com/gin-gonic/gin"
)

// defaultStatisticsDays 按天统计的默认天数
const defaultStatisticsDays = 30

// StatisticsController 统计控制器
type StatisticsController struct {
	statistics service.StatisticsService
}

// NewStatisticsController 创建统计控制器
func NewStatisticsController(statistics service.StatisticsService) *StatisticsController {
	return &StatisticsController{statistics: statistics}
}

// Get 当前用户的提交和告警统计
// @Summary      用户统计
// @Description  汇总当前用户的表单提交和告警
// @Tags         统计
// @Produce      json
// @Param        days query int false "按天统计的天数,默认 30"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /statistics [get]
// @Security     BearerAuth
func (c *StatisticsController) Get(ctx *gin.Context) {
	days := defaultStatisticsDays
	if raw := ctx.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 365 {
			Error(ctx, http.StatusBadRequest, "invalid days", "days must be between 1 and 365")
			return
		}
		days = n
	}

	userID := currentIdentity(ctx).Email
	reqCtx := ctx.Request.Context()

	summary, err := c.statistics.GetSummary(reqCtx, userID)
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to get statistics", err.Error())
		return
	}
	byStatus, err := c.statistics.GetSubmissionsByStatus(reqCtx, userID)
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to get statistics", err.Error())
		return
	}
	byDay, err := c.statistics.GetSubmissionsByDay(reqCtx, userID, days)
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to get statistics", err.Error())
		return
	}
	alertsByKind, err := c.statistics.GetAlertsByKind(reqCtx, userID)
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to get statistics", err.Error())
		return
	}

	Success(ctx, gin.H{
		"summary":                summary,
		"submissions_by_status": byStatus,
		"submissions_by_day":    byDay,
		"alerts_by_kind":        alertsByKind,
	})
}
