package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/UKHomeOffice/cop-ui/internal/auth"
	"github.com/UKHomeOffice/cop-ui/internal/client"
	"github.com/UKHomeOffice/cop-ui/internal/config"
	"github.com/UKHomeOffice/cop-ui/internal/metrics"
	"github.com/UKHomeOffice/cop-ui/internal/model"
	"github.com/UKHomeOffice/cop-ui/internal/utils"
	"github.com/sirupsen/logrus"
)

// 任务列表周期结果,用于指标
const (
	cycleLoaded     = "loaded"
	cycleEmpty      = "empty"
	cycleFailed     = "failed"
	cycleCanceled   = "canceled"
	cycleSuperseded = "superseded"
)

// DefaultSortBy 默认排序
const DefaultSortBy = "asc-dueDate"

// TaskFilters 任务列表过滤条件
type TaskFilters struct {
	SortBy  string `json:"sort_by" example:"asc-dueDate"` // 排序: <asc|desc>-<字段>
	GroupBy string `json:"group_by" example:"category"`   // 分组字段
	Search  string `json:"search" example:"review"`       // 按任务名称搜索
}

// TaskPage 单页查询结果
type TaskPage struct {
	Tasks       []*model.Task
	Total       int64
	FirstResult int
	MaxResults  int
}

// TaskListState 任务列表状态
type TaskListState struct {
	ViewID      string        `json:"view_id,omitempty"`
	IsLoading   bool          `json:"is_loading"`
	Tasks       []*model.Task `json:"tasks"`
	Groups      []TaskGroup   `json:"groups,omitempty"`
	Total       int64         `json:"total"`
	FirstResult int           `json:"first_result"`
	MaxResults  int           `json:"max_results"`
	Filters     TaskFilters   `json:"filters"`
	HasMore     bool          `json:"has_more"`
	Failed      bool          `json:"failed"`
	Error       string        `json:"error,omitempty"`
}

// TaskListService 任务列表查询服务
type TaskListService interface {
	// FetchPage 查询一页任务并补充分类和业务键
	FetchPage(ctx context.Context, cl *client.Client, identity *auth.Identity, filters TaskFilters, firstResult, maxResults int) (*TaskPage, error)
	// LoadPage 单页查询,失败时返回空集和 failed 标记
	LoadPage(ctx context.Context, cl *client.Client, identity *auth.Identity, filters TaskFilters, firstResult, maxResults int) TaskListState
	// NormalizeFilters 填充默认值并验证过滤条件
	NormalizeFilters(filters TaskFilters) (TaskFilters, error)
	// PageSize 默认分页大小
	PageSize() int
	// ApplyConfig 热更新配置
	ApplyConfig(cfg config.TasksConfig)
}

// taskListService 任务列表查询服务实现
type taskListService struct {
	mu     sync.RWMutex
	cfg    config.TasksConfig
	logger logrus.FieldLogger
}

// NewTaskListService 创建任务列表查询服务
func NewTaskListService(cfg config.TasksConfig, logger logrus.FieldLogger) TaskListService {
	return &taskListService{cfg: cfg, logger: logger}
}

// ApplyConfig 热更新配置
func (s *taskListService) ApplyConfig(cfg config.TasksConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

// PageSize 默认分页大小
func (s *taskListService) PageSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cfg.PageSize <= 0 {
		return 20
	}
	return s.cfg.PageSize
}

// NormalizeFilters 填充默认值并验证过滤条件
func (s *taskListService) NormalizeFilters(filters TaskFilters) (TaskFilters, error) {
	s.mu.RLock()
	defaultSort, defaultGroupBy := s.cfg.DefaultSort, s.cfg.DefaultGroupBy
	s.mu.RUnlock()

	if defaultSort == "" {
		defaultSort = DefaultSortBy
	}
	if defaultGroupBy == "" {
		defaultGroupBy = GroupByCategory
	}
	if filters.SortBy == "" {
		filters.SortBy = defaultSort
	}
	if filters.GroupBy == "" {
		filters.GroupBy = defaultGroupBy
	}

	sort, err := utils.ParseSortBy(filters.SortBy)
	if err != nil {
		return filters, err
	}
	filters.SortBy = sort.String()

	if !ValidGroupBy(filters.GroupBy) {
		return filters, &utils.ValidationError{Code: "INVALID_GROUP_BY", Message: fmt.Sprintf("unsupported group_by %q", filters.GroupBy)}
	}

	search, err := utils.NormalizeSearch(filters.Search)
	if err != nil {
		return filters, err
	}
	filters.Search = search

	return filters, nil
}

// buildQuery 构造归属条件、排序和名称过滤
func buildQuery(identity *auth.Identity, filters TaskFilters) (client.TaskQuery, error) {
	sort, err := utils.ParseSortBy(filters.SortBy)
	if err != nil {
		return client.TaskQuery{}, err
	}

	query := client.TaskQuery{
		OrQueries: []client.OrQuery{{
			CandidateGroups: identity.Groups,
			Assignee:        identity.Email,
		}},
		Sorting: []client.Sorting{{SortBy: sort.Field, SortOrder: sort.Order}},
	}
	if filters.Search != "" {
		query.NameLike = "%" + filters.Search + "%"
	}
	return query, nil
}

// FetchPage 查询一页任务并补充分类和业务键
func (s *taskListService) FetchPage(
	ctx context.Context,
	cl *client.Client,
	identity *auth.Identity,
	filters TaskFilters,
	firstResult int,
	maxResults int,
) (*TaskPage, error) {
	query, err := buildQuery(identity, filters)
	if err != nil {
		return nil, err
	}

	// 1. 统计总数
	total, err := cl.CountTasks(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	// 2. 分页查询
	tasks, err := cl.QueryTasks(ctx, query, firstResult, maxResults)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}

	page := &TaskPage{
		Tasks:       tasks,
		Total:       total,
		FirstResult: firstResult,
		MaxResults:  maxResults,
	}

	// 3. 空页直接返回,不查询流程定义和实例
	if len(tasks) == 0 {
		page.Tasks = []*model.Task{}
		page.Total = 0
		return page, nil
	}

	// 4. 查询流程定义和流程实例
	definitionIDs := uniqueIDs(tasks, func(t *model.Task) string { return t.ProcessDefinitionID })
	instanceIDs := uniqueIDs(tasks, func(t *model.Task) string { return t.ProcessInstanceID })

	// 独立任务没有流程定义或实例,ID 列表为空时跳过对应查询
	var definitions []*model.ProcessDefinition
	if len(definitionIDs) > 0 {
		definitions, err = cl.GetProcessDefinitions(ctx, definitionIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to get process definitions: %w", err)
		}
	}
	var instances []*model.ProcessInstance
	if len(instanceIDs) > 0 {
		instances, err = cl.GetProcessInstances(ctx, instanceIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to get process instances: %w", err)
		}
	}

	// 5. 补充分类和业务键,找不到时保持为空
	categories := make(map[string]string, len(definitions))
	for _, def := range definitions {
		categories[def.ID] = def.Category
	}
	businessKeys := make(map[string]string, len(instances))
	for _, inst := range instances {
		businessKeys[inst.ID] = inst.BusinessKey
	}
	for _, task := range tasks {
		if category, ok := categories[task.ProcessDefinitionID]; ok {
			task.Category = category
		}
		if businessKey, ok := businessKeys[task.ProcessInstanceID]; ok {
			task.BusinessKey = businessKey
		}
	}

	return page, nil
}

// LoadPage 单页查询,每次请求只保存这一页
func (s *taskListService) LoadPage(
	ctx context.Context,
	cl *client.Client,
	identity *auth.Identity,
	filters TaskFilters,
	firstResult int,
	maxResults int,
) TaskListState {
	state := TaskListState{
		IsLoading:   true,
		Tasks:       []*model.Task{},
		FirstResult: firstResult,
		MaxResults:  maxResults,
		Filters:     filters,
	}

	// 客户端不可用时不发请求
	if cl == nil {
		return state
	}

	state.IsLoading = false
	page, err := s.FetchPage(ctx, cl, identity, filters, firstResult, maxResults)
	if err != nil {
		if client.IsCanceled(err) {
			metrics.RecordTaskListCycle(cycleCanceled)
		} else {
			metrics.RecordTaskListCycle(cycleFailed)
		}
		s.logger.WithError(err).WithField("user_id", identity.Email).Warn("task page load failed")
		state.Failed = true
		state.Error = err.Error()
		return state
	}

	if len(page.Tasks) == 0 {
		metrics.RecordTaskListCycle(cycleEmpty)
	} else {
		metrics.RecordTaskListCycle(cycleLoaded)
	}

	state.Tasks = page.Tasks
	state.Total = page.Total
	state.HasMore = int64(firstResult+len(page.Tasks)) < page.Total
	state.Groups = GroupTasks(page.Tasks, filters.GroupBy)
	return state
}
