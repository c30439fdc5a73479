package api

import (
	"net/http"

	"github.com/UKHomeOffice/cop-ui/internal/service"
	"github.com/UKHomeOffice/cop-ui/internal/utils"
	"github.com/gin-gonic/gin"
)

// maxPageSize 单页最大任务数
const maxPageSize = 200

// TaskController 任务控制器
type TaskController struct {
	lists       service.TaskListService
	details     *service.TaskDetailViews
	submissions service.SubmissionService
}

// NewTaskController 创建任务控制器
func NewTaskController(
	lists service.TaskListService,
	details *service.TaskDetailViews,
	submissions service.SubmissionService,
) *TaskController {
	return &TaskController{
		lists:       lists,
		details:     details,
		submissions: submissions,
	}
}

// ListTasksQuery 单页任务查询参数
type ListTasksQuery struct {
	FirstResult int    `form:"first_result" binding:"min=0"`
	MaxResults  int    `form:"max_results" binding:"min=0,max=200"`
	SortBy      string `form:"sort_by"`
	GroupBy     string `form:"group_by"`
	Search      string `form:"search"`
}

// validateTaskID 验证任务 ID 并返回错误响应(如果无效)
func (c *TaskController) validateTaskID(ctx *gin.Context, id string) bool {
	if err := utils.ValidateTaskID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid task ID", err.Error())
		return false
	}
	return true
}

// List 查询一页任务
// @Summary      查询任务
// @Description  查询当前用户可处理的一页任务,每次请求只返回这一页
// @Tags         任务
// @Produce      json
// @Param        first_result query int    false "起始偏移"
// @Param        max_results  query int    false "每页数量"
// @Param        sort_by      query string false "排序,如 asc-dueDate"
// @Param        group_by     query string false "分组字段"
// @Param        search       query string false "按名称搜索"
// @Success      200  {object}  PaginatedResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /tasks [get]
// @Security     BearerAuth
func (c *TaskController) List(ctx *gin.Context) {
	var query ListTasksQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid query", err.Error())
		return
	}

	filters, err := c.lists.NormalizeFilters(service.TaskFilters{
		SortBy:  query.SortBy,
		GroupBy: query.GroupBy,
		Search:  query.Search,
	})
	if err != nil {
		RespondError(ctx, err)
		return
	}

	maxResults := query.MaxResults
	if maxResults == 0 {
		maxResults = c.lists.PageSize()
	}

	state := c.lists.LoadPage(ctx.Request.Context(), currentClient(ctx), currentIdentity(ctx), filters, query.FirstResult, maxResults)
	Paginated(ctx, state, NewPaginationInfo(state.FirstResult, state.MaxResults, len(state.Tasks), state.Total))
}

// Get 获取任务详情
// @Summary      获取任务详情
// @Description  加载任务、表单、流程实例和变量;传入 view 时绑定详情视图,切换任务会取消上一次加载
// @Tags         任务
// @Produce      json
// @Param        id   path  string true  "任务 ID"
// @Param        view query string false "详情视图 ID"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /tasks/{id} [get]
// @Security     BearerAuth
func (c *TaskController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateTaskID(ctx, id) {
		return
	}

	state, err := c.details.Load(ctx.Request.Context(), currentClient(ctx), currentIdentity(ctx), GetLanguage(ctx), ctx.Query("view"), id)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, state)
}

// CloseDetailView 关闭详情视图
// @Summary      关闭详情视图
// @Description  取消视图中正在进行的加载并释放视图
// @Tags         任务
// @Produce      json
// @Param        view path string true "详情视图 ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /task-detail-views/{view} [delete]
// @Security     BearerAuth
func (c *TaskController) CloseDetailView(ctx *gin.Context) {
	if err := c.details.Close(currentIdentity(ctx), ctx.Param("view")); err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, nil)
}

// Submit 提交任务表单
// @Summary      提交任务表单
// @Description  将表单数据提交到默认或自定义提交路径;同一任务的提交未完成前再次提交返回 409
// @Tags         任务
// @Accept       json
// @Produce      json
// @Param        id      path string                true "任务 ID"
// @Param        request body service.SubmitRequest true "提交内容"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Failure      502  {object}  ErrorResponse
// @Router       /tasks/{id}/submission [post]
// @Security     BearerAuth
func (c *TaskController) Submit(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateTaskID(ctx, id) {
		return
	}

	var req service.SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	req.TaskID = id

	result, err := c.submissions.Submit(ctx.Request.Context(), currentClient(ctx), currentIdentity(ctx), req, service.SubmitCallbacks{})
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, result)
}

// Submissions 查询任务的提交历史
// @Summary      提交历史
// @Description  查询当前用户在任务上的表单提交记录,按时间顺序
// @Tags         任务
// @Produce      json
// @Param        id path string true "任务 ID"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /tasks/{id}/submissions [get]
// @Security     BearerAuth
func (c *TaskController) Submissions(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateTaskID(ctx, id) {
		return
	}

	history, err := c.submissions.History(ctx.Request.Context(), currentIdentity(ctx), id)
	if err != nil {
		Error(ctx, http.StatusInternalServerError, "failed to list submissions", err.Error())
		return
	}

	Success(ctx, gin.H{
		"submissions": history,
		"in_flight":   c.submissions.InFlight(currentIdentity(ctx), id),
	})
}
