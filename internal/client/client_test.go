package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/auth"
	"github.com/UKHomeOffice/cop-ui/internal/client"
	"github.com/UKHomeOffice/cop-ui/internal/client/clienttest"
	"github.com/UKHomeOffice/cop-ui/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFactory_Unavailable 测试未初始化会话时客户端不可用
func TestFactory_Unavailable(t *testing.T) {
	factory := client.NewFactory(client.Options{BaseURL: "http://127.0.0.1:1"})

	assert.Nil(t, factory.For(nil))
	assert.Nil(t, factory.For(&auth.Identity{Subject: "u1"}))
	assert.Equal(t, 0, factory.Len())
}

// TestFactory_RebuildsOnTokenChange 测试 token 刷新后重建客户端
func TestFactory_RebuildsOnTokenChange(t *testing.T) {
	factory := client.NewFactory(client.Options{BaseURL: "http://gateway"})
	identity := &auth.Identity{Subject: "u1", Email: "a@x.com", Token: "t1"}

	first := factory.For(identity)
	require.NotNil(t, first)
	assert.Same(t, first, factory.For(identity))

	refreshed := *identity
	refreshed.Token = "t2"
	second := factory.For(&refreshed)
	assert.NotSame(t, first, second)
	assert.Equal(t, "t2", second.Token())
	assert.Equal(t, 1, factory.Len())

	factory.Forget(identity)
	assert.Equal(t, 0, factory.Len())
}

// TestFactory_ForgetWithoutSubject 测试没有 subject 的身份按邮箱缓存和丢弃
func TestFactory_ForgetWithoutSubject(t *testing.T) {
	factory := client.NewFactory(client.Options{BaseURL: "http://gateway"})
	identity := &auth.Identity{Email: "a@x.com", Token: "t1"}

	require.NotNil(t, factory.For(identity))
	assert.Equal(t, 1, factory.Len())

	factory.Forget(identity)
	assert.Equal(t, 0, factory.Len())
}

// TestClient_BearerHeader 测试每个请求携带 bearer token
func TestClient_BearerHeader(t *testing.T) {
	gw := clienttest.NewGateway(t)
	cl := gw.Client(nil, "a@x.com")

	_, err := cl.CountTasks(context.Background(), client.TaskQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bearer token-a@x.com"}, gw.Tokens())
}

// TestClient_QueryTasks 测试任务查询参数
func TestClient_QueryTasks(t *testing.T) {
	gw := clienttest.NewGateway(t)
	gw.SetTasks(
		&model.Task{ID: "t1", Name: "Review"},
		&model.Task{ID: "t2", Name: "Approve"},
		&model.Task{ID: "t3", Name: "Archive"},
	)
	cl := gw.Client(nil, "a@x.com", "/team-a")

	query := client.TaskQuery{
		OrQueries: []client.OrQuery{{CandidateGroups: []string{"/team-a"}, Assignee: "a@x.com"}},
		Sorting:   []client.Sorting{{SortBy: "dueDate", SortOrder: "asc"}},
	}
	tasks, err := cl.QueryTasks(context.Background(), query, 1, 1)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t2", tasks[0].ID)
	assert.Equal(t, []string{"firstResult=1&maxResults=1"}, gw.Queries(clienttest.EndpointTasks))

	count, err := cl.CountTasks(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	// 统计请求不携带排序
	var countBody map[string]interface{}
	require.NoError(t, json.Unmarshal(gw.Bodies(clienttest.EndpointCount)[0], &countBody))
	assert.NotContains(t, countBody, "sorting")
	assert.Contains(t, countBody, "orQueries")
}

// TestClient_StatusFailureReported 测试非 2xx 响应被报告并原样返回
func TestClient_StatusFailureReported(t *testing.T) {
	gw := clienttest.NewGateway(t)
	gw.Fail(clienttest.EndpointTasks, http.StatusInternalServerError)
	recorder := &clienttest.Recorder{}
	cl := gw.Client(recorder, "a@x.com")

	ctx := client.WithRoute(context.Background(), "/api/v1/tasks")
	ctx = client.WithRequestID(ctx, "req-1")
	_, err := cl.QueryTasks(ctx, client.TaskQuery{}, 0, 20)
	require.Error(t, err)

	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, client.KindStatus, apiErr.Kind)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, client.KindStatus, client.KindOf(err))

	reports := recorder.Reports()
	require.Len(t, reports, 1)
	report := reports[0]
	assert.Equal(t, "token-a@x.com", report.Token)
	assert.Equal(t, "a@x.com", report.UserID)
	assert.Equal(t, http.StatusInternalServerError, report.Status)
	assert.Equal(t, "injected failure", report.Message)
	assert.Contains(t, report.Payload, "TestException")
	assert.Equal(t, "/camunda/engine-rest/task", report.RequestPath)
	assert.Equal(t, "/api/v1/tasks", report.RoutePath)
	assert.Equal(t, "req-1", report.RequestID)
}

// TestClient_TransportFailureReported 测试传输失败
func TestClient_TransportFailureReported(t *testing.T) {
	recorder := &clienttest.Recorder{}
	factory := client.NewFactory(client.Options{
		BaseURL:  "http://127.0.0.1:1",
		Paths:    clienttest.Paths,
		Reporter: recorder,
		Timeout:  time.Second,
	})
	cl := factory.For(clienttest.Identity("a@x.com"))

	_, err := cl.CountTasks(context.Background(), client.TaskQuery{})
	require.Error(t, err)
	assert.Equal(t, client.KindTransport, client.KindOf(err))
	require.Len(t, recorder.Reports(), 1)
	assert.Equal(t, 0, recorder.Reports()[0].Status)
}

// TestClient_CancellationNotReported 测试取消不被报告
func TestClient_CancellationNotReported(t *testing.T) {
	gw := clienttest.NewGateway(t)
	release := make(chan struct{})
	gw.Hook(clienttest.EndpointCount, func() { <-release })
	defer close(release)

	recorder := &clienttest.Recorder{}
	cl := gw.Client(recorder, "a@x.com")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := cl.CountTasks(ctx, client.TaskQuery{})
	require.Error(t, err)
	assert.True(t, client.IsCanceled(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, recorder.Reports())
}

// TestClient_NotFound 测试 404 判断
func TestClient_NotFound(t *testing.T) {
	gw := clienttest.NewGateway(t)
	cl := gw.Client(&clienttest.Recorder{}, "a@x.com")

	_, err := cl.GetTaskBundle(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, client.IsNotFound(err))
}

// TestClient_Enrichment 测试流程定义和实例查询
func TestClient_Enrichment(t *testing.T) {
	gw := clienttest.NewGateway(t)
	gw.AddDefinition(&model.ProcessDefinition{ID: "d1", Category: "Border"})
	gw.AddInstance(&model.ProcessInstance{ID: "i1", BusinessKey: "BK-1"})
	cl := gw.Client(nil, "a@x.com")

	defs, err := cl.GetProcessDefinitions(context.Background(), []string{"d1", "d2"})
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "Border", defs[0].Category)
	assert.Equal(t, []string{"processDefinitionIdIn=d1%2Cd2"}, gw.Queries(clienttest.EndpointDefinitions))

	insts, err := cl.GetProcessInstances(context.Background(), []string{"i1"})
	require.NoError(t, err)
	require.Len(t, insts, 1)
	assert.Equal(t, "BK-1", insts[0].BusinessKey)
	assert.JSONEq(t, `{"processInstanceIds":["i1"]}`, string(gw.Bodies(clienttest.EndpointInstances)[0]))
}

// TestClient_RefData 测试团队和员工查询
func TestClient_RefData(t *testing.T) {
	gw := clienttest.NewGateway(t)
	gw.AddTeam("42", map[string]interface{}{"id": 42, "name": "Ops"})
	gw.AddStaff("a@x.com", "staff-1")
	cl := gw.Client(nil, "a@x.com")

	team, err := cl.GetTeam(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "Ops", team["name"])

	missing, err := cl.GetTeam(context.Background(), "7")
	require.NoError(t, err)
	assert.Nil(t, missing)

	staffID, err := cl.GetStaffID(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, staffID)
	assert.Equal(t, "staff-1", *staffID)
}

// TestClient_Submit 测试表单提交
func TestClient_Submit(t *testing.T) {
	gw := clienttest.NewGateway(t)
	cl := gw.Client(nil, "a@x.com")

	result, err := cl.Submit(context.Background(), cl.DefaultSubmitPath("t1"), client.SubmitPayload{
		Submission:  json.RawMessage(`{"data":{}}`),
		Form:        &model.Form{Name: "MyForm"},
		TaskID:      "t1",
		BusinessKey: "BK-1",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"completed"}`, string(result))
	assert.JSONEq(t,
		`{"submission":{"data":{}},"form":{"name":"MyForm"},"taskId":"t1","businessKey":"BK-1"}`,
		string(gw.Bodies(clienttest.EndpointSubmit)[0]))
}

// TestClient_SubmitPlainTextResponse 测试非 JSON 的成功响应仍视为成功
func TestClient_SubmitPlainTextResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Form submitted"))
	}))
	defer server.Close()

	recorder := &clienttest.Recorder{}
	factory := client.NewFactory(client.Options{
		BaseURL:  server.URL,
		Paths:    clienttest.Paths,
		Reporter: recorder,
		Timeout:  time.Second,
	})
	cl := factory.For(clienttest.Identity("a@x.com"))

	result, err := cl.Submit(context.Background(), cl.DefaultSubmitPath("t1"), client.SubmitPayload{TaskID: "t1"})
	require.NoError(t, err)
	assert.JSONEq(t, `"Form submitted"`, string(result))
	assert.Empty(t, recorder.Reports())
}

// TestClient_SubmitEmptyResponse 测试空响应体
func TestClient_SubmitEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	recorder := &clienttest.Recorder{}
	factory := client.NewFactory(client.Options{
		BaseURL:  server.URL,
		Paths:    clienttest.Paths,
		Reporter: recorder,
		Timeout:  time.Second,
	})
	cl := factory.For(clienttest.Identity("a@x.com"))

	result, err := cl.Submit(context.Background(), "/custom/complete", client.SubmitPayload{ID: "t1"})
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Empty(t, recorder.Reports())
}
