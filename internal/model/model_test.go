package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTask_UnmarshalEngineRecord 测试解析流程引擎返回的任务
func TestTask_UnmarshalEngineRecord(t *testing.T) {
	raw := `{
		"id": "task-1",
		"name": "Review case",
		"due": "2020-05-01T10:00:00.000+0000",
		"priority": 1000,
		"assignee": null,
		"processDefinitionId": "def-1",
		"processInstanceId": "inst-1"
	}`

	var task model.Task
	require.NoError(t, json.Unmarshal([]byte(raw), &task))

	assert.Equal(t, "task-1", task.ID)
	assert.Nil(t, task.Assignee)
	assert.Equal(t, "", task.AssigneeValue())
	require.NotNil(t, task.Due)
	assert.True(t, task.Due.Equal(time.Date(2020, 5, 1, 10, 0, 0, 0, time.UTC)))
	assert.Empty(t, task.Category)
}

// TestEngineTime_RFC3339 测试 RFC3339 时间兼容
func TestEngineTime_RFC3339(t *testing.T) {
	var et model.EngineTime
	require.NoError(t, json.Unmarshal([]byte(`"2021-01-02T03:04:05Z"`), &et))
	assert.Equal(t, 2021, et.Year())

	out, err := json.Marshal(et)
	require.NoError(t, err)
	assert.Equal(t, `"2021-01-02T03:04:05.000+0000"`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`"not a time"`), &et))
}

// TestVariable_IsStructured 测试结构化变量判断
func TestVariable_IsStructured(t *testing.T) {
	assert.True(t, model.Variable{Type: "Json"}.IsStructured())
	assert.False(t, model.Variable{Type: "String"}.IsStructured())
	assert.False(t, model.Variable{Type: "json"}.IsStructured())
}

// TestAlertModel_Validate 测试告警模型验证
func TestAlertModel_Validate(t *testing.T) {
	alert := &model.AlertModel{ID: "a-1", UserID: "a@x.com", Kind: "status"}
	require.NoError(t, alert.Validate())
	assert.Equal(t, "api-error", alert.Type)

	assert.Error(t, (&model.AlertModel{UserID: "a@x.com", Kind: "status"}).Validate())
	assert.Error(t, (&model.AlertModel{ID: "a-1", Kind: "status"}).Validate())
	assert.Error(t, (&model.AlertModel{ID: "a-1", UserID: "a@x.com"}).Validate())
}

// TestSubmissionModel_Validate 测试提交记录验证
func TestSubmissionModel_Validate(t *testing.T) {
	sub := &model.SubmissionModel{ID: "s-1", TaskID: "task-1", SubmittedBy: "a@x.com"}
	require.NoError(t, sub.Validate())
	assert.Equal(t, model.SubmissionStatusPending, sub.Status)

	assert.Error(t, (&model.SubmissionModel{TaskID: "task-1", SubmittedBy: "a"}).Validate())
	assert.Error(t, (&model.SubmissionModel{ID: "s-1", SubmittedBy: "a"}).Validate())
	assert.Error(t, (&model.SubmissionModel{ID: "s-1", TaskID: "task-1"}).Validate())
}

// TestAuditLogModel_Validate 测试审计日志验证
func TestAuditLogModel_Validate(t *testing.T) {
	log := &model.AuditLogModel{ID: "l-1", UserID: "u", Action: "submit", ResourceType: "task", ResourceID: "task-1"}
	assert.NoError(t, log.Validate())

	log.ResourceID = ""
	assert.Error(t, log.Validate())
}
