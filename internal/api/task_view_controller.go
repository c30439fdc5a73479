package api

import (
	"net/http"

	"github.com/UKHomeOffice/cop-ui/internal/service"
	"github.com/gin-gonic/gin"
)

// TaskViewController 任务列表视图控制器
// 视图在多次请求之间累积分页结果,修改过滤条件会取消进行中的加载
type TaskViewController struct {
	views *service.TaskListViews
}

// NewTaskViewController 创建任务列表视图控制器
func NewTaskViewController(views *service.TaskListViews) *TaskViewController {
	return &TaskViewController{views: views}
}

// OpenViewRequest 打开视图请求
type OpenViewRequest struct {
	service.TaskFilters
	PageSize int `json:"page_size" binding:"min=0,max=200" example:"20"`
}

// Open 打开任务列表视图
// @Summary      打开任务列表视图
// @Description  创建视图并加载第一页
// @Tags         任务视图
// @Accept       json
// @Produce      json
// @Param        request body OpenViewRequest false "过滤条件和分页大小"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Router       /task-views [post]
// @Security     BearerAuth
func (c *TaskViewController) Open(ctx *gin.Context) {
	var req OpenViewRequest
	if ctx.Request.ContentLength != 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
			return
		}
	}

	state, err := c.views.Open(ctx.Request.Context(), currentClient(ctx), currentIdentity(ctx), req.TaskFilters, req.PageSize)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, state)
}

// Get 获取视图当前状态
// @Summary      获取任务列表视图
// @Tags         任务视图
// @Produce      json
// @Param        view path string true "视图 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /task-views/{view} [get]
// @Security     BearerAuth
func (c *TaskViewController) Get(ctx *gin.Context) {
	state, err := c.views.Snapshot(currentIdentity(ctx), ctx.Param("view"))
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, state)
}

// SetFilters 修改过滤条件
// @Summary      修改过滤条件
// @Description  取消进行中的加载,清空已累积的任务并从第一页重新加载
// @Tags         任务视图
// @Accept       json
// @Produce      json
// @Param        view    path string              true "视图 ID"
// @Param        request body service.TaskFilters true "过滤条件"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /task-views/{view}/filters [put]
// @Security     BearerAuth
func (c *TaskViewController) SetFilters(ctx *gin.Context) {
	var filters service.TaskFilters
	if err := ctx.ShouldBindJSON(&filters); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	state, err := c.views.SetFilters(ctx.Request.Context(), currentClient(ctx), currentIdentity(ctx), ctx.Param("view"), filters)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, state)
}

// LoadMore 加载下一页
// @Summary      加载更多
// @Description  加载下一页并按任务 ID 合并到已有结果
// @Tags         任务视图
// @Produce      json
// @Param        view path string true "视图 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /task-views/{view}/load-more [post]
// @Security     BearerAuth
func (c *TaskViewController) LoadMore(ctx *gin.Context) {
	state, err := c.views.LoadMore(ctx.Request.Context(), currentClient(ctx), currentIdentity(ctx), ctx.Param("view"))
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, state)
}

// Refresh 刷新视图
// @Summary      刷新任务列表视图
// @Description  以当前过滤条件从第一页重新加载
// @Tags         任务视图
// @Produce      json
// @Param        view path string true "视图 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /task-views/{view}/refresh [post]
// @Security     BearerAuth
func (c *TaskViewController) Refresh(ctx *gin.Context) {
	state, err := c.views.Refresh(ctx.Request.Context(), currentClient(ctx), currentIdentity(ctx), ctx.Param("view"))
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, state)
}

// Close 卸载视图
// @Summary      关闭任务列表视图
// @Description  取消进行中的加载并释放视图
// @Tags         任务视图
// @Produce      json
// @Param        view path string true "视图 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /task-views/{view} [delete]
// @Security     BearerAuth
func (c *TaskViewController) Close(ctx *gin.Context) {
	if err := c.views.Close(currentIdentity(ctx), ctx.Param("view")); err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, nil)
}
