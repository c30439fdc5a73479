package service

import (
	"context"
	"sync"
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/auth"
	"github.com/UKHomeOffice/cop-ui/internal/client"
	"github.com/UKHomeOffice/cop-ui/internal/cycle"
	"github.com/UKHomeOffice/cop-ui/internal/utils"
)

// TaskDetailView 任务详情视图
// 切换任务时重置为加载状态,上一个任务的请求被取消且结果被丢弃
type TaskDetailView struct {
	id    string
	scope *cycle.Scope

	mu    sync.Mutex
	state TaskDetailState
}

// newTaskDetailView 创建详情视图
func newTaskDetailView(id string) *TaskDetailView {
	return &TaskDetailView{
		id:    id,
		scope: cycle.New(),
		state: TaskDetailState{ViewID: id, IsLoading: true},
	}
}

// Close 卸载视图
func (v *TaskDetailView) Close() {
	v.scope.Close()
}

// snapshot 当前状态的副本
func (v *TaskDetailView) snapshot() TaskDetailState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// TaskDetailViews 任务详情视图管理
type TaskDetailViews struct {
	details  TaskDetailService
	registry *viewRegistry[*TaskDetailView]
}

// NewTaskDetailViews 创建任务详情视图管理
func NewTaskDetailViews(details TaskDetailService, ttl time.Duration) *TaskDetailViews {
	return &TaskDetailViews{
		details:  details,
		registry: newViewRegistry[*TaskDetailView](ttl),
	}
}

// Load 在视图中加载任务详情
// viewID 为空时不绑定视图,直接加载
func (s *TaskDetailViews) Load(ctx context.Context, cl *client.Client, identity *auth.Identity, lang, viewID, taskID string) (TaskDetailState, error) {
	if viewID == "" {
		return s.details.Load(ctx, cl, identity, lang, taskID), nil
	}
	if err := utils.ValidateViewID(viewID); err != nil {
		return TaskDetailState{}, err
	}

	view, err := s.registry.getOrAdd(ownerOf(identity), viewID, newTaskDetailView)
	if err != nil {
		return TaskDetailState{}, err
	}

	// 1. 开始新周期,重置为加载状态
	cycleCtx, token := view.scope.Begin(ctx)
	defer view.scope.Finish(token)

	err = view.scope.Apply(token, func() {
		view.mu.Lock()
		defer view.mu.Unlock()
		view.state = TaskDetailState{ViewID: view.id, TaskID: taskID, IsLoading: true}
	})
	if err != nil {
		return view.snapshot(), nil
	}

	// 2. 获取并归一化
	state := s.details.Load(cycleCtx, cl, identity, lang, taskID)
	state.ViewID = view.id

	// 3. 仅当周期仍为当前周期时应用
	_ = view.scope.Apply(token, func() {
		view.mu.Lock()
		defer view.mu.Unlock()
		view.state = state
	})

	return view.snapshot(), nil
}

// Close 卸载详情视图
func (s *TaskDetailViews) Close(identity *auth.Identity, viewID string) error {
	return s.registry.remove(ownerOf(identity), viewID)
}

// CloseOwner 关闭用户的所有详情视图
func (s *TaskDetailViews) CloseOwner(identity *auth.Identity) int {
	return s.registry.removeOwner(ownerOf(identity))
}

// Count 当前视图数
func (s *TaskDetailViews) Count() int {
	return s.registry.Count()
}

// StartJanitor 定期关闭空闲视图
func (s *TaskDetailViews) StartJanitor(ctx context.Context, interval time.Duration) {
	go s.registry.runJanitor(ctx, interval)
}

// Shutdown 关闭所有视图
func (s *TaskDetailViews) Shutdown() {
	s.registry.closeAll()
}
