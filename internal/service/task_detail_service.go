package service

import (
	"context"
	"fmt"
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/auth"
	"github.com/UKHomeOffice/cop-ui/internal/client"
	"github.com/UKHomeOffice/cop-ui/internal/metrics"
	"github.com/UKHomeOffice/cop-ui/internal/model"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// 变量名约定
const (
	submissionDataKey    = "submissionData"
	submissionDataSuffix = "::submissionData"
)

// 处理人标签的翻译键
const (
	LabelCurrentAssignee = "pages.task.current-assignee"
	LabelUnassigned      = "pages.task.unassigned"
)

// Translator 翻译接口
type Translator interface {
	Translate(lang, key string) string
}

// TaskInfo 任务信息,变量已解析
type TaskInfo struct {
	ID                  string                 `json:"id"`
	Name                string                 `json:"name"`
	Description         string                 `json:"description,omitempty"`
	Due                 *model.EngineTime      `json:"due,omitempty"`
	DueLabel            string                 `json:"due_label,omitempty"`
	Created             *model.EngineTime      `json:"created,omitempty"`
	Priority            int                    `json:"priority"`
	PriorityLabel       string                 `json:"priority_label"`
	Assignee            *string                `json:"assignee"`
	ProcessDefinitionID string                 `json:"process_definition_id"`
	ProcessInstanceID   string                 `json:"process_instance_id"`
	TaskDefinitionKey   string                 `json:"task_definition_key,omitempty"`
	Variables           map[string]interface{} `json:"variables,omitempty"`
}

// TaskDetail 归一化后的任务详情
type TaskDetail struct {
	Task              TaskInfo                `json:"task"`
	Variables         map[string]interface{}  `json:"variables"`
	Form              *model.Form             `json:"form"`
	FormSubmission    interface{}             `json:"form_submission"`
	ProcessInstance   model.ProcessInstance   `json:"process_instance"`
	ProcessDefinition model.ProcessDefinition `json:"process_definition"`
	AssigneeLabel     string                  `json:"assignee_label"`
	CanEdit           bool                    `json:"can_edit"`
	SubmissionKey     string                  `json:"submission_key,omitempty"`
	DecodeErrors      []DecodeError           `json:"decode_errors,omitempty"`
}

// TaskDetailState 任务详情加载状态
type TaskDetailState struct {
	ViewID    string      `json:"view_id,omitempty"`
	TaskID    string      `json:"task_id"`
	IsLoading bool        `json:"is_loading"`
	Data      *TaskDetail `json:"data"`
	Failed    bool        `json:"failed"`
	NotFound  bool        `json:"not_found"`
	Error     string      `json:"error,omitempty"`
}

// Normalizer 任务详情归一化,相同输入产生相同输出
type Normalizer struct {
	translator Translator
	now        func() time.Time
}

// NewNormalizer 创建归一化器,now 为 nil 时使用系统时间
func NewNormalizer(translator Translator, now func() time.Time) *Normalizer {
	if now == nil {
		now = time.Now
	}
	return &Normalizer{translator: translator, now: now}
}

// Normalize 解析变量、提取表单提交数据并执行处理人授权检查
func (n *Normalizer) Normalize(bundle *model.TaskBundle, currentUser string, lang string) *TaskDetail {
	// 1. 保留的提交数据变量名
	reservedKey := ""
	if bundle.Form != nil && bundle.Form.Name != "" {
		reservedKey = bundle.Form.Name + submissionDataSuffix
	}

	// 2. 解析任务变量和流程变量
	taskVars, taskErrs := DecodeVariables("task", bundle.Task.Variables)
	processVars, processErrs := DecodeVariables("process", bundle.Variables)

	// 3. 提取表单提交数据
	var submission interface{}
	if reservedKey != "" && processVars[reservedKey] != nil {
		submission = processVars[reservedKey]
	} else if processVars[submissionDataKey] != nil {
		submission = processVars[submissionDataKey]
	} else {
		submission = map[string]interface{}{}
	}

	// 4. 从流程变量中移除提交数据
	delete(processVars, submissionDataKey)
	if reservedKey != "" {
		delete(processVars, reservedKey)
	}

	task := bundle.Task
	detail := &TaskDetail{
		Task: TaskInfo{
			ID:                  task.ID,
			Name:                task.Name,
			Description:         task.Description,
			Due:                 task.Due,
			Created:             task.Created,
			Priority:            task.Priority,
			PriorityLabel:       PriorityLabel(task.Priority),
			Assignee:            task.Assignee,
			ProcessDefinitionID: task.ProcessDefinitionID,
			ProcessInstanceID:   task.ProcessInstanceID,
			TaskDefinitionKey:   task.TaskDefinitionKey,
			Variables:           taskVars,
		},
		Variables:         processVars,
		FormSubmission:    submission,
		ProcessInstance:   bundle.ProcessInstance,
		ProcessDefinition: bundle.ProcessDefinition,
		SubmissionKey:     reservedKey,
		DecodeErrors:      append(taskErrs, processErrs...),
	}
	if task.Due != nil {
		detail.Task.DueLabel = humanize.RelTime(task.Due.Time, n.now(), "ago", "from now")
	}

	// 5. 只有处理人本人可以查看和提交表单
	assignee := task.AssigneeValue()
	switch {
	case assignee != "" && assignee == currentUser:
		detail.Form = bundle.Form
		detail.CanEdit = bundle.Form != nil
		detail.AssigneeLabel = n.translate(lang, LabelCurrentAssignee)
	case assignee == "":
		detail.AssigneeLabel = n.translate(lang, LabelUnassigned)
	default:
		detail.AssigneeLabel = assignee
	}

	return detail
}

// translate 没有翻译器时返回键本身
func (n *Normalizer) translate(lang, key string) string {
	if n.translator == nil {
		return key
	}
	return n.translator.Translate(lang, key)
}

// TaskDetailService 任务详情服务
type TaskDetailService interface {
	// Load 获取并归一化任务详情,失败时返回已加载但为空的状态
	Load(ctx context.Context, cl *client.Client, identity *auth.Identity, lang string, taskID string) TaskDetailState
}

// taskDetailService 任务详情服务实现
type taskDetailService struct {
	normalizer *Normalizer
	logger     logrus.FieldLogger
}

// NewTaskDetailService 创建任务详情服务
func NewTaskDetailService(normalizer *Normalizer, logger logrus.FieldLogger) TaskDetailService {
	return &taskDetailService{normalizer: normalizer, logger: logger}
}

// Load 获取并归一化任务详情
func (s *taskDetailService) Load(ctx context.Context, cl *client.Client, identity *auth.Identity, lang string, taskID string) TaskDetailState {
	state := TaskDetailState{TaskID: taskID, IsLoading: true}

	// 客户端不可用时不发请求
	if cl == nil {
		return state
	}
	state.IsLoading = false

	bundle, err := cl.GetTaskBundle(ctx, taskID)
	if err != nil {
		state.Failed = true
		state.Error = err.Error()
		switch {
		case client.IsCanceled(err):
			metrics.RecordTaskDetailLoad(cycleCanceled)
		case client.IsNotFound(err):
			state.NotFound = true
			metrics.RecordTaskDetailLoad("not_found")
		default:
			metrics.RecordTaskDetailLoad(cycleFailed)
		}
		return state
	}

	detail := s.normalizer.Normalize(bundle, identity.Email, lang)

	// 已被取代或取消的加载不提交结果,也不生成告警
	if ctx.Err() != nil {
		state.Failed = true
		state.Error = fmt.Errorf("%w: %w", client.ErrCanceled, ctx.Err()).Error()
		metrics.RecordTaskDetailLoad(cycleCanceled)
		return state
	}

	// 结构化变量解析失败时降级处理:记录日志并生成告警
	for _, decodeErr := range detail.DecodeErrors {
		s.logger.WithFields(logrus.Fields{
			"task_id": taskID,
			"scope":   decodeErr.Scope,
			"key":     decodeErr.Key,
		}).Warn("failed to decode task variable: " + decodeErr.Message)
		cl.ReportDecodeFailure(ctx, cl.TaskPath(taskID), "failed to decode variable "+decodeErr.Key+": "+decodeErr.Message)
	}

	metrics.RecordTaskDetailLoad(cycleLoaded)
	state.Data = detail
	return state
}
