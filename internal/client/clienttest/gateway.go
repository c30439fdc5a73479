// Package clienttest 提供模拟流程引擎和网关的测试服务器
package clienttest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/UKHomeOffice/cop-ui/internal/auth"
	"github.com/UKHomeOffice/cop-ui/internal/client"
	"github.com/UKHomeOffice/cop-ui/internal/model"
	"github.com/gin-gonic/gin"
)

// 模拟网关的接口名,用于 Fail、Hook 和调用计数
const (
	EndpointCount       = "count"
	EndpointTasks       = "tasks"
	EndpointDefinitions = "definitions"
	EndpointInstances   = "instances"
	EndpointBundle      = "bundle"
	EndpointSubmit      = "submit"
	EndpointTeam        = "team"
	EndpointStaff       = "staff"
	EndpointPing        = "ping"
)

// Paths 模拟网关使用的路径前缀
var Paths = client.Paths{
	Engine:  "/camunda/engine-rest",
	UI:      "/ui",
	RefData: "/refdata",
	OpData:  "/opdata",
}

// Gateway 模拟网关
type Gateway struct {
	URL string

	mu          sync.Mutex
	tasks       []*model.Task
	definitions map[string]*model.ProcessDefinition
	instances   map[string]*model.ProcessInstance
	bundles     map[string]*model.TaskBundle
	teams       map[string]map[string]interface{}
	staff       map[string]string
	submitType  string
	submitBody  string
	failures    map[string]int
	hooks       map[string]func()
	calls       map[string]int
	bodies      map[string][]json.RawMessage
	queries     map[string][]string
	tokens      []string
}

// NewGateway 创建模拟网关,测试结束时自动关闭
func NewGateway(t *testing.T) *Gateway {
	t.Helper()
	g := &Gateway{
		definitions: make(map[string]*model.ProcessDefinition),
		instances:   make(map[string]*model.ProcessInstance),
		bundles:     make(map[string]*model.TaskBundle),
		teams:       make(map[string]map[string]interface{}),
		staff:       make(map[string]string),
		failures:    make(map[string]int),
		hooks:       make(map[string]func()),
		calls:       make(map[string]int),
		bodies:      make(map[string][]json.RawMessage),
		queries:     make(map[string][]string),
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	engine := router.Group(Paths.Engine)
	engine.POST("/task/count", g.handle(EndpointCount, g.count))
	engine.POST("/task", g.handle(EndpointTasks, g.queryTasks))
	engine.GET("/process-definition", g.handle(EndpointDefinitions, g.processDefinitions))
	engine.POST("/process-instance", g.handle(EndpointInstances, g.processInstances))
	engine.GET("/engine", g.handle(EndpointPing, func(c *gin.Context) {
		c.JSON(http.StatusOK, []gin.H{{"name": "default"}})
	}))
	router.GET(Paths.UI+"/tasks/:id", g.handle(EndpointBundle, g.bundle))
	router.POST(Paths.UI+"/tasks/:id/form/_complete", g.handle(EndpointSubmit, g.submit))
	router.POST("/custom/submit", g.handle(EndpointSubmit, g.submit))
	router.GET(Paths.RefData+"/v2/entities/team", g.handle(EndpointTeam, g.team))
	router.GET(Paths.OpData+"/v2/staff", g.handle(EndpointStaff, g.staffID))

	server := httptest.NewServer(router)
	g.URL = server.URL
	t.Cleanup(server.Close)
	return g
}

// Factory 创建指向该网关的客户端工厂
func (g *Gateway) Factory(reporter client.Reporter) *client.Factory {
	return client.NewFactory(client.Options{
		BaseURL:  g.URL,
		Paths:    Paths,
		Reporter: reporter,
	})
}

// Client 创建指定用户的客户端
func (g *Gateway) Client(reporter client.Reporter, email string, groups ...string) *client.Client {
	return g.Factory(reporter).For(Identity(email, groups...))
}

// Identity 构造测试身份
func Identity(email string, groups ...string) *auth.Identity {
	if groups == nil {
		groups = []string{}
	}
	return &auth.Identity{
		Subject:      "sub-" + email,
		Email:        email,
		Groups:       groups,
		SessionState: "state-1",
		Token:        "token-" + email,
	}
}

// SetTasks 设置任务列表,按给定顺序返回
func (g *Gateway) SetTasks(tasks ...*model.Task) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tasks = tasks
}

// AddDefinition 添加流程定义
func (g *Gateway) AddDefinition(def *model.ProcessDefinition) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.definitions[def.ID] = def
}

// AddInstance 添加流程实例
func (g *Gateway) AddInstance(inst *model.ProcessInstance) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.instances[inst.ID] = inst
}

// AddBundle 添加任务详情
func (g *Gateway) AddBundle(taskID string, bundle *model.TaskBundle) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bundles[taskID] = bundle
}

// AddTeam 添加团队参考数据
func (g *Gateway) AddTeam(teamID string, team map[string]interface{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.teams[teamID] = team
}

// AddStaff 添加员工
func (g *Gateway) AddStaff(email, staffID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.staff[email] = staffID
}

// SetSubmitResponse 设置表单提交的响应类型和响应体
func (g *Gateway) SetSubmitResponse(contentType, body string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.submitType = contentType
	g.submitBody = body
}

// Fail 让接口返回指定状态码,status 为 0 时恢复正常
func (g *Gateway) Fail(endpoint string, status int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status == 0 {
		delete(g.failures, endpoint)
		return
	}
	g.failures[endpoint] = status
}

// Hook 在接口响应前调用 fn,可用于阻塞请求
func (g *Gateway) Hook(endpoint string, fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if fn == nil {
		delete(g.hooks, endpoint)
		return
	}
	g.hooks[endpoint] = fn
}

// Calls 返回接口调用次数
func (g *Gateway) Calls(endpoint string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[endpoint]
}

// Bodies 返回接口收到的请求体
func (g *Gateway) Bodies(endpoint string) []json.RawMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]json.RawMessage(nil), g.bodies[endpoint]...)
}

// Queries 返回接口收到的查询串
func (g *Gateway) Queries(endpoint string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.queries[endpoint]...)
}

// Tokens 返回收到的 Authorization 头
func (g *Gateway) Tokens() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.tokens...)
}

// handle 记录调用,执行钩子和故障注入
func (g *Gateway) handle(endpoint string, next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, _ := c.GetRawData()

		g.mu.Lock()
		g.calls[endpoint]++
		if len(body) > 0 {
			g.bodies[endpoint] = append(g.bodies[endpoint], json.RawMessage(body))
		}
		g.queries[endpoint] = append(g.queries[endpoint], c.Request.URL.RawQuery)
		g.tokens = append(g.tokens, c.GetHeader("Authorization"))
		hook := g.hooks[endpoint]
		status := g.failures[endpoint]
		g.mu.Unlock()

		if hook != nil {
			hook()
		}
		if status != 0 {
			c.JSON(status, gin.H{"type": "TestException", "message": "injected failure"})
			return
		}
		c.Set("body", body)
		next(c)
	}
}

// filteredTasks 按 nameLike 过滤任务
func (g *Gateway) filteredTasks(c *gin.Context) []*model.Task {
	var query client.TaskQuery
	if body, ok := c.Get("body"); ok {
		_ = json.Unmarshal(body.([]byte), &query)
	}
	needle := strings.ToLower(strings.Trim(query.NameLike, "%"))

	g.mu.Lock()
	defer g.mu.Unlock()
	result := make([]*model.Task, 0, len(g.tasks))
	for _, task := range g.tasks {
		if needle == "" || strings.Contains(strings.ToLower(task.Name), needle) {
			copied := *task
			result = append(result, &copied)
		}
	}
	return result
}

func (g *Gateway) count(c *gin.Context) {
	c.JSON(http.StatusOK, model.CountResult{Count: int64(len(g.filteredTasks(c)))})
}

func (g *Gateway) queryTasks(c *gin.Context) {
	tasks := g.filteredTasks(c)
	first, _ := strconv.Atoi(c.DefaultQuery("firstResult", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("maxResults", strconv.Itoa(len(tasks))))
	if first > len(tasks) {
		first = len(tasks)
	}
	end := first + limit
	if end > len(tasks) {
		end = len(tasks)
	}
	c.JSON(http.StatusOK, tasks[first:end])
}

func (g *Gateway) processDefinitions(c *gin.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()
	result := []*model.ProcessDefinition{}
	for _, id := range strings.Split(c.Query("processDefinitionIdIn"), ",") {
		if def, ok := g.definitions[id]; ok {
			result = append(result, def)
		}
	}
	c.JSON(http.StatusOK, result)
}

func (g *Gateway) processInstances(c *gin.Context) {
	var body struct {
		ProcessInstanceIDs []string `json:"processInstanceIds"`
	}
	raw, _ := c.Get("body")
	_ = json.Unmarshal(raw.([]byte), &body)

	g.mu.Lock()
	defer g.mu.Unlock()
	result := []*model.ProcessInstance{}
	for _, id := range body.ProcessInstanceIDs {
		if inst, ok := g.instances[id]; ok {
			result = append(result, inst)
		}
	}
	c.JSON(http.StatusOK, result)
}

func (g *Gateway) bundle(c *gin.Context) {
	g.mu.Lock()
	bundle, ok := g.bundles[c.Param("id")]
	g.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "task not found"})
		return
	}
	c.JSON(http.StatusOK, bundle)
}

func (g *Gateway) submit(c *gin.Context) {
	g.mu.Lock()
	contentType, body := g.submitType, g.submitBody
	g.mu.Unlock()
	if contentType != "" {
		c.Data(http.StatusOK, contentType, []byte(body))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

func (g *Gateway) team(c *gin.Context) {
	id := strings.TrimPrefix(c.Query("filter"), "id=eq.")
	g.mu.Lock()
	team, ok := g.teams[id]
	g.mu.Unlock()
	data := []map[string]interface{}{}
	if ok {
		data = append(data, team)
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func (g *Gateway) staffID(c *gin.Context) {
	email := strings.TrimPrefix(c.Query("filter"), "email=eq.")
	g.mu.Lock()
	id, ok := g.staff[email]
	g.mu.Unlock()
	result := []gin.H{}
	if ok {
		result = append(result, gin.H{"staffid": id, "email": email})
	}
	c.JSON(http.StatusOK, result)
}

// Recorder 收集失败报告
type Recorder struct {
	mu      sync.Mutex
	reports []client.FailureReport
}

// Report 实现 client.Reporter
func (r *Recorder) Report(report client.FailureReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, report)
}

// Reports 返回已收到的报告
func (r *Recorder) Reports() []client.FailureReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]client.FailureReport(nil), r.reports...)
}
