package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/client/clienttest"
	"github.com/UKHomeOffice/cop-ui/internal/model"
	"github.com/UKHomeOffice/cop-ui/internal/repository"
	"github.com/UKHomeOffice/cop-ui/internal/service"
	"github.com/UKHomeOffice/cop-ui/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submissionFixture struct {
	gw        *clienttest.Gateway
	service   service.SubmissionService
	audits    service.AuditLogService
	repo      repository.SubmissionRepository
	publisher *recordingPublisher
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	db := setupTestDB(t)
	repo := repository.NewSubmissionRepository(db)
	audits := service.NewAuditLogService(repository.NewAuditLogRepository(db))
	publisher := &recordingPublisher{}
	return &submissionFixture{
		gw:        clienttest.NewGateway(t),
		service:   service.NewSubmissionService(repo, audits, publisher, testLogger()),
		audits:    audits,
		repo:      repo,
		publisher: publisher,
	}
}

func submitRequest(taskID string) service.SubmitRequest {
	return service.SubmitRequest{
		TaskID:      taskID,
		Submission:  json.RawMessage(`{"data":{"decision":"approve"}}`),
		Form:        &model.Form{ID: "form-1", Name: "reviewForm"},
		BusinessKey: "BK-1",
	}
}

// TestSubmit_DefaultPath 测试默认路径提交
func TestSubmit_DefaultPath(t *testing.T) {
	f := newSubmissionFixture(t)
	identity := clienttest.Identity("a@x.com")
	cl := f.gw.Client(nil, identity.Email)

	var succeeded *service.SubmitResult
	result, err := f.service.Submit(context.Background(), cl, identity, submitRequest("task-1"), service.SubmitCallbacks{
		OnSuccess: func(r *service.SubmitResult) { succeeded = r },
		OnFailure: func(error) { t.Fatal("unexpected failure") },
		OnRepeat:  func() { t.Fatal("unexpected repeat") },
	})
	require.NoError(t, err)
	require.NotNil(t, succeeded)
	assert.Equal(t, result, succeeded)
	assert.Equal(t, model.SubmissionStatusSucceeded, result.Status)
	assert.False(t, result.Repeat)
	assert.JSONEq(t, `{"status":"completed"}`, string(result.Response))

	bodies := f.gw.Bodies(clienttest.EndpointSubmit)
	require.Len(t, bodies, 1)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(bodies[0], &payload))
	assert.Equal(t, "task-1", payload["taskId"])
	assert.NotContains(t, payload, "id")
	assert.Equal(t, "BK-1", payload["businessKey"])
	assert.NotNil(t, payload["submission"])
	assert.NotNil(t, payload["form"])

	// 提交记录、审计日志和事件
	stored, err := f.repo.FindByID(context.Background(), result.SubmissionID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionStatusSucceeded, stored.Status)
	assert.NotNil(t, stored.CompletedAt)

	logs, err := f.audits.ListByResource(context.Background(), "task", "task-1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, service.AuditActionSubmit, logs[0].Action)

	events := f.publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "submissions.succeeded", events[0].Subject)
}

// TestSubmit_CustomPath 测试自定义路径使用 id 字段
func TestSubmit_CustomPath(t *testing.T) {
	f := newSubmissionFixture(t)
	identity := clienttest.Identity("a@x.com")
	cl := f.gw.Client(nil, identity.Email)

	req := submitRequest("task-1")
	req.SubmitPath = "/custom/submit"
	_, err := f.service.Submit(context.Background(), cl, identity, req, service.SubmitCallbacks{})
	require.NoError(t, err)

	bodies := f.gw.Bodies(clienttest.EndpointSubmit)
	require.Len(t, bodies, 1)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(bodies[0], &payload))
	assert.Equal(t, "task-1", payload["id"])
	assert.NotContains(t, payload, "taskId")
}

// TestSubmit_InvalidPath 测试非法提交路径
func TestSubmit_InvalidPath(t *testing.T) {
	f := newSubmissionFixture(t)
	identity := clienttest.Identity("a@x.com")
	cl := f.gw.Client(nil, identity.Email)

	req := submitRequest("task-1")
	req.SubmitPath = "https://evil.example.com/steal"
	_, err := f.service.Submit(context.Background(), cl, identity, req, service.SubmitCallbacks{})
	assert.ErrorIs(t, err, utils.ErrInvalidPath)
	assert.Equal(t, 0, f.gw.Calls(clienttest.EndpointSubmit))
}

// TestSubmit_Repeat 测试可重复表单
func TestSubmit_Repeat(t *testing.T) {
	f := newSubmissionFixture(t)
	identity := clienttest.Identity("a@x.com")
	cl := f.gw.Client(nil, identity.Email)

	repeated := false
	req := submitRequest("task-1")
	req.Repeatable = true
	result, err := f.service.Submit(context.Background(), cl, identity, req, service.SubmitCallbacks{
		OnSuccess: func(*service.SubmitResult) { t.Fatal("success callback not expected for repeat") },
		OnRepeat:  func() { repeated = true },
	})
	require.NoError(t, err)
	assert.True(t, repeated)
	assert.True(t, result.Repeat)
	assert.True(t, result.ScrollToTop)
}

// TestSubmit_Failure 测试提交失败时回调并清除标记
func TestSubmit_Failure(t *testing.T) {
	f := newSubmissionFixture(t)
	identity := clienttest.Identity("a@x.com")
	recorder := &clienttest.Recorder{}
	cl := f.gw.Client(recorder, identity.Email)
	f.gw.Fail(clienttest.EndpointSubmit, http.StatusInternalServerError)

	var failure error
	inFlightDuringCallback := true
	_, err := f.service.Submit(context.Background(), cl, identity, submitRequest("task-1"), service.SubmitCallbacks{
		OnFailure: func(err error) {
			failure = err
			inFlightDuringCallback = f.service.InFlight(identity, "task-1")
		},
	})
	require.Error(t, err)
	require.Error(t, failure)
	assert.False(t, inFlightDuringCallback)
	assert.Equal(t, 1, f.gw.Calls(clienttest.EndpointSubmit))
	assert.Len(t, recorder.Reports(), 1)

	history, err := f.service.History(context.Background(), identity, "task-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.SubmissionStatusFailed, history[0].Status)
	assert.NotEmpty(t, history[0].Error)

	logs, err := f.audits.ListByResource(context.Background(), "task", "task-1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, service.AuditActionSubmitFailed, logs[0].Action)

	events := f.publisher.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "submissions.failed", events[0].Subject)
}

// TestSubmit_RejectsConcurrentSubmission 测试提交中拒绝重复提交
func TestSubmit_RejectsConcurrentSubmission(t *testing.T) {
	f := newSubmissionFixture(t)
	identity := clienttest.Identity("a@x.com")
	cl := f.gw.Client(nil, identity.Email)

	var calls int32
	entered := make(chan struct{})
	release := make(chan struct{})
	f.gw.Hook(clienttest.EndpointSubmit, func() {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(entered)
			<-release
		}
	})

	firstDone := make(chan error, 1)
	go func() {
		_, err := f.service.Submit(context.Background(), cl, identity, submitRequest("task-1"), service.SubmitCallbacks{})
		firstDone <- err
	}()
	<-entered

	assert.True(t, f.service.InFlight(identity, "task-1"))
	_, err := f.service.Submit(context.Background(), cl, identity, submitRequest("task-1"), service.SubmitCallbacks{})
	assert.True(t, errors.Is(err, service.ErrSubmissionInProgress))

	// 其他任务不受影响
	_, err = f.service.Submit(context.Background(), cl, identity, submitRequest("task-2"), service.SubmitCallbacks{})
	require.NoError(t, err)

	close(release)
	select {
	case err := <-firstDone:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("first submission did not finish")
	}
	assert.False(t, f.service.InFlight(identity, "task-1"))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

// TestSubmit_NoClient 测试客户端不可用
func TestSubmit_NoClient(t *testing.T) {
	f := newSubmissionFixture(t)
	_, err := f.service.Submit(context.Background(), nil, clienttest.Identity("a@x.com"), submitRequest("task-1"), service.SubmitCallbacks{})
	assert.Error(t, err)
	assert.False(t, f.service.InFlight(clienttest.Identity("a@x.com"), "task-1"))
}

// TestSubmissionHistory_ScopedToCaller 测试提交历史只返回当前用户的记录
func TestSubmissionHistory_ScopedToCaller(t *testing.T) {
	f := newSubmissionFixture(t)
	owner := clienttest.Identity("a@x.com")
	other := clienttest.Identity("b@x.com")

	_, err := f.service.Submit(context.Background(), f.gw.Client(nil, owner.Email), owner, submitRequest("task-1"), service.SubmitCallbacks{})
	require.NoError(t, err)

	history, err := f.service.History(context.Background(), owner, "task-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "a@x.com", history[0].SubmittedBy)

	history, err = f.service.History(context.Background(), other, "task-1")
	require.NoError(t, err)
	assert.Empty(t, history)

	history, err = f.service.History(context.Background(), nil, "task-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

// TestSubmit_PlainTextResponseSucceeds 测试非 JSON 的成功响应记为成功
func TestSubmit_PlainTextResponseSucceeds(t *testing.T) {
	f := newSubmissionFixture(t)
	identity := clienttest.Identity("a@x.com")
	recorder := &clienttest.Recorder{}
	f.gw.SetSubmitResponse("text/plain", "Form submitted")

	failed := false
	result, err := f.service.Submit(context.Background(), f.gw.Client(recorder, identity.Email), identity, submitRequest("task-1"), service.SubmitCallbacks{
		OnFailure: func(error) { failed = true },
	})
	require.NoError(t, err)
	assert.False(t, failed)
	assert.Equal(t, model.SubmissionStatusSucceeded, result.Status)
	assert.JSONEq(t, `"Form submitted"`, string(result.Response))
	assert.Empty(t, recorder.Reports())
}
