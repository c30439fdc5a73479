package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/UKHomeOffice/cop-ui/internal/model"
)

// OrQuery 任务归属条件: 处理人为本人或候选组与本人所在组相交
type OrQuery struct {
	CandidateGroups []string `json:"candidateGroups"`
	Assignee        string   `json:"assignee"`
}

// Sorting 排序条件
type Sorting struct {
	SortBy    string `json:"sortBy"`
	SortOrder string `json:"sortOrder"`
}

// TaskQuery POST /task 和 /task/count 的请求体
type TaskQuery struct {
	OrQueries []OrQuery `json:"orQueries"`
	Sorting   []Sorting `json:"sorting,omitempty"`
	NameLike  string    `json:"nameLike,omitempty"`
}

// CountTasks 统计满足条件的任务数,排序条件不参与统计
func (c *Client) CountTasks(ctx context.Context, query TaskQuery) (int64, error) {
	query.Sorting = nil

	var result model.CountResult
	err := c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "engine:/task/count",
		path:     c.paths.Engine + "/task/count",
		body:     query,
	}, &result)
	if err != nil {
		return 0, err
	}
	return result.Count, nil
}

// QueryTasks 分页查询任务,顺序由引擎决定
func (c *Client) QueryTasks(ctx context.Context, query TaskQuery, firstResult, maxResults int) ([]*model.Task, error) {
	params := url.Values{}
	params.Set("firstResult", strconv.Itoa(firstResult))
	params.Set("maxResults", strconv.Itoa(maxResults))

	tasks := []*model.Task{}
	err := c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "engine:/task",
		path:     c.paths.Engine + "/task",
		query:    params,
		body:     query,
	}, &tasks)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetProcessDefinitions 按 ID 集合查询流程定义
func (c *Client) GetProcessDefinitions(ctx context.Context, ids []string) ([]*model.ProcessDefinition, error) {
	params := url.Values{}
	params.Set("processDefinitionIdIn", strings.Join(ids, ","))

	definitions := []*model.ProcessDefinition{}
	err := c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "engine:/process-definition",
		path:     c.paths.Engine + "/process-definition",
		query:    params,
	}, &definitions)
	if err != nil {
		return nil, err
	}
	return definitions, nil
}

// GetProcessInstances 按 ID 集合查询流程实例
func (c *Client) GetProcessInstances(ctx context.Context, ids []string) ([]*model.ProcessInstance, error) {
	instances := []*model.ProcessInstance{}
	err := c.do(ctx, request{
		method:   http.MethodPost,
		endpoint: "engine:/process-instance",
		path:     c.paths.Engine + "/process-instance",
		body:     map[string][]string{"processInstanceIds": ids},
	}, &instances)
	if err != nil {
		return nil, err
	}
	return instances, nil
}

// PingEngine 检查流程引擎可达
func (c *Client) PingEngine(ctx context.Context) error {
	return c.do(ctx, request{
		method:   http.MethodGet,
		endpoint: "engine:/engine",
		path:     c.paths.Engine + "/engine",
	}, nil)
}
