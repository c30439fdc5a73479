package service

import (
	"context"
	"sync"
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/auth"
	"github.com/UKHomeOffice/cop-ui/internal/client"
	"github.com/UKHomeOffice/cop-ui/internal/cycle"
	"github.com/UKHomeOffice/cop-ui/internal/metrics"
	"github.com/UKHomeOffice/cop-ui/internal/model"
	"github.com/sirupsen/logrus"
)

// TaskListView 累积式任务列表视图
// 每次操作开始新周期并取消上一个周期,只有当前周期的结果会被应用
type TaskListView struct {
	id    string
	scope *cycle.Scope

	mu           sync.Mutex
	state        TaskListState
	committed    int  // 最近一次成功应用的页偏移
	resetPending bool // 过滤条件变更后尚未成功加载
}

// newTaskListView 创建视图
func newTaskListView(id string, filters TaskFilters, pageSize int) *TaskListView {
	return &TaskListView{
		id:    id,
		scope: cycle.New(),
		state: TaskListState{
			ViewID:     id,
			IsLoading:  true,
			Tasks:      []*model.Task{},
			MaxResults: pageSize,
			Filters:    filters,
		},
		resetPending: true,
	}
}

// ID 视图 ID
func (v *TaskListView) ID() string {
	return v.id
}

// Close 卸载视图,取消进行中的周期
func (v *TaskListView) Close() {
	v.scope.Close()
}

// snapshot 当前状态的副本
func (v *TaskListView) snapshot() TaskListState {
	v.mu.Lock()
	defer v.mu.Unlock()

	state := v.state
	state.Tasks = append([]*model.Task{}, v.state.Tasks...)
	state.Groups = GroupTasks(state.Tasks, state.Filters.GroupBy)
	return state
}

// cyclePlan 单个周期的参数
type cyclePlan struct {
	filters     TaskFilters
	firstResult int
	maxResults  int
	reset       bool
	held        []*model.Task
}

// TaskListViews 任务列表视图管理
type TaskListViews struct {
	lists    TaskListService
	registry *viewRegistry[*TaskListView]
	logger   logrus.FieldLogger
}

// NewTaskListViews 创建任务列表视图管理
func NewTaskListViews(lists TaskListService, ttl time.Duration, logger logrus.FieldLogger) *TaskListViews {
	return &TaskListViews{
		lists:    lists,
		registry: newViewRegistry[*TaskListView](ttl),
		logger:   logger,
	}
}

// Open 打开视图并执行第一个周期
func (s *TaskListViews) Open(ctx context.Context, cl *client.Client, identity *auth.Identity, filters TaskFilters, pageSize int) (TaskListState, error) {
	filters, err := s.lists.NormalizeFilters(filters)
	if err != nil {
		return TaskListState{}, err
	}
	if pageSize <= 0 {
		pageSize = s.lists.PageSize()
	}

	view := s.registry.add(ownerOf(identity), func(id string) *TaskListView {
		return newTaskListView(id, filters, pageSize)
	})
	return s.run(ctx, cl, identity, view, &filters, true), nil
}

// SetFilters 修改过滤条件,重置累积结果并从第一页重新加载
func (s *TaskListViews) SetFilters(ctx context.Context, cl *client.Client, identity *auth.Identity, viewID string, filters TaskFilters) (TaskListState, error) {
	view, err := s.registry.get(ownerOf(identity), viewID)
	if err != nil {
		return TaskListState{}, err
	}
	filters, err = s.lists.NormalizeFilters(filters)
	if err != nil {
		return TaskListState{}, err
	}
	return s.run(ctx, cl, identity, view, &filters, true), nil
}

// Refresh 以当前过滤条件从第一页重新加载
func (s *TaskListViews) Refresh(ctx context.Context, cl *client.Client, identity *auth.Identity, viewID string) (TaskListState, error) {
	view, err := s.registry.get(ownerOf(identity), viewID)
	if err != nil {
		return TaskListState{}, err
	}
	return s.run(ctx, cl, identity, view, nil, true), nil
}

// LoadMore 加载下一页并按 ID 合并
// 没有更多数据时直接返回当前状态,过滤条件变更尚未完成时改为重新加载
func (s *TaskListViews) LoadMore(ctx context.Context, cl *client.Client, identity *auth.Identity, viewID string) (TaskListState, error) {
	view, err := s.registry.get(ownerOf(identity), viewID)
	if err != nil {
		return TaskListState{}, err
	}

	view.mu.Lock()
	resetPending := view.resetPending
	hasMore := view.state.HasMore
	view.mu.Unlock()

	if resetPending {
		return s.run(ctx, cl, identity, view, nil, true), nil
	}
	if !hasMore {
		return view.snapshot(), nil
	}
	return s.run(ctx, cl, identity, view, nil, false), nil
}

// Snapshot 返回视图当前状态
func (s *TaskListViews) Snapshot(identity *auth.Identity, viewID string) (TaskListState, error) {
	view, err := s.registry.get(ownerOf(identity), viewID)
	if err != nil {
		return TaskListState{}, err
	}
	return view.snapshot(), nil
}

// Close 卸载视图
func (s *TaskListViews) Close(identity *auth.Identity, viewID string) error {
	return s.registry.remove(ownerOf(identity), viewID)
}

// CloseOwner 关闭用户的所有视图
func (s *TaskListViews) CloseOwner(identity *auth.Identity) int {
	return s.registry.removeOwner(ownerOf(identity))
}

// Count 当前视图数
func (s *TaskListViews) Count() int {
	return s.registry.Count()
}

// StartJanitor 定期关闭空闲视图
func (s *TaskListViews) StartJanitor(ctx context.Context, interval time.Duration) {
	go s.registry.runJanitor(ctx, interval)
}

// Shutdown 关闭所有视图
func (s *TaskListViews) Shutdown() {
	s.registry.closeAll()
}

// run 执行一个获取周期
// filters 为 nil 时沿用视图当前过滤条件
func (s *TaskListViews) run(ctx context.Context, cl *client.Client, identity *auth.Identity, view *TaskListView, filters *TaskFilters, reset bool) TaskListState {
	// 1. 开始新周期,取消上一个
	cycleCtx, token := view.scope.Begin(ctx)
	defer view.scope.Finish(token)

	// 2. 进入加载状态并确定本周期参数
	var plan cyclePlan
	err := view.scope.Apply(token, func() {
		view.mu.Lock()
		defer view.mu.Unlock()

		if filters != nil {
			view.state.Filters = *filters
		}
		plan = cyclePlan{
			filters:    view.state.Filters,
			maxResults: view.state.MaxResults,
			reset:      reset,
		}
		if reset {
			view.state.Tasks = []*model.Task{}
			view.state.Total = 0
			view.state.HasMore = false
			view.resetPending = true
			plan.firstResult = 0
		} else {
			plan.firstResult = view.committed + view.state.MaxResults
			plan.held = append([]*model.Task{}, view.state.Tasks...)
		}
		view.state.FirstResult = plan.firstResult
		view.state.IsLoading = true
		view.state.Failed = false
		view.state.Error = ""
	})
	if err != nil {
		return view.snapshot()
	}

	// 客户端不可用时保持加载状态,不发请求
	if cl == nil {
		return view.snapshot()
	}

	// 3. 获取
	page, fetchErr := s.lists.FetchPage(cycleCtx, cl, identity, plan.filters, plan.firstResult, plan.maxResults)

	// 4. 仅当周期仍为当前周期时应用结果
	err = view.scope.Apply(token, func() {
		view.mu.Lock()
		defer view.mu.Unlock()

		view.state.IsLoading = false

		if fetchErr != nil {
			if client.IsCanceled(fetchErr) {
				// 请求方断开,保留已有结果
				metrics.RecordTaskListCycle(cycleCanceled)
				view.state.FirstResult = view.committed
				return
			}
			metrics.RecordTaskListCycle(cycleFailed)
			s.logger.WithError(fetchErr).WithFields(logrus.Fields{
				"view_id": view.id,
				"user_id": identity.Email,
			}).Warn("task list cycle failed")
			view.state.Tasks = plan.held
			if plan.held == nil {
				view.state.Tasks = []*model.Task{}
			}
			view.state.Total = 0
			view.state.HasMore = false
			view.state.Failed = true
			view.state.Error = fetchErr.Error()
			return
		}

		if len(page.Tasks) == 0 {
			metrics.RecordTaskListCycle(cycleEmpty)
		} else {
			metrics.RecordTaskListCycle(cycleLoaded)
		}

		view.state.Tasks = MergeTasks(plan.held, page.Tasks)
		view.state.Total = page.Total
		view.state.FirstResult = plan.firstResult
		view.state.HasMore = page.Total > int64(plan.maxResults) && int64(len(view.state.Tasks)) < page.Total
		view.committed = plan.firstResult
		view.resetPending = false
	})
	if err != nil {
		metrics.RecordTaskListCycle(cycleSuperseded)
	}

	return view.snapshot()
}

// ownerOf 视图归属键
func ownerOf(identity *auth.Identity) string {
	return identity.OwnerKey()
}
