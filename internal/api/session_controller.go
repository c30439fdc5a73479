package api

import (
	"github.com/UKHomeOffice/cop-ui/internal/service"
	"github.com/gin-gonic/gin"
)

// SessionController 会话上下文控制器
type SessionController struct {
	sessions service.SessionService
}

// NewSessionController 创建会话上下文控制器
func NewSessionController(sessions service.SessionService) *SessionController {
	return &SessionController{sessions: sessions}
}

// Get 获取会话上下文
// @Summary      会话上下文
// @Description  返回当前用户的团队、员工 ID 和分组,结果按会话缓存
// @Tags         会话
// @Produce      json
// @Success      200  {object}  Response
// @Failure      401  {object}  ErrorResponse
// @Router       /session [get]
// @Security     BearerAuth
func (c *SessionController) Get(ctx *gin.Context) {
	Success(ctx, c.sessions.Snapshot(ctx.Request.Context(), currentClient(ctx), currentIdentity(ctx)))
}

// Delete 失效会话上下文
// @Summary      失效会话上下文
// @Description  清除缓存的会话上下文并关闭该用户打开的视图
// @Tags         会话
// @Produce      json
// @Success      200  {object}  Response
// @Failure      401  {object}  ErrorResponse
// @Router       /session [delete]
// @Security     BearerAuth
func (c *SessionController) Delete(ctx *gin.Context) {
	c.sessions.Invalidate(ctx.Request.Context(), currentIdentity(ctx))
	Success(ctx, nil)
}
