package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/auth"
	"github.com/UKHomeOffice/cop-ui/internal/client"
	"github.com/UKHomeOffice/cop-ui/internal/integration"
	"github.com/UKHomeOffice/cop-ui/internal/metrics"
	"github.com/UKHomeOffice/cop-ui/internal/model"
	"github.com/UKHomeOffice/cop-ui/internal/repository"
	"github.com/UKHomeOffice/cop-ui/internal/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrSubmissionInProgress 同一用户对同一任务的提交尚未完成
var ErrSubmissionInProgress = errors.New("submission already in progress")

// SubmitRequest 表单提交请求
type SubmitRequest struct {
	TaskID      string          `json:"-"`
	Submission  json.RawMessage `json:"submission" binding:"required"`
	Form        *model.Form     `json:"form"`
	BusinessKey string          `json:"business_key"`
	SubmitPath  string          `json:"submit_path,omitempty"`
	Repeatable  bool            `json:"repeatable"`
}

// SubmitResult 提交结果
type SubmitResult struct {
	SubmissionID string          `json:"submission_id"`
	Status       string          `json:"status"`
	Response     json.RawMessage `json:"response,omitempty"`
	Repeat       bool            `json:"repeat"`
	ScrollToTop  bool            `json:"scroll_to_top"`
}

// SubmitCallbacks 提交结果回调,均在提交标记清除后调用
type SubmitCallbacks struct {
	OnSuccess func(result *SubmitResult)
	OnFailure func(err error)
	OnRepeat  func()
}

// SubmissionEvent 提交事件
type SubmissionEvent struct {
	SubmissionID string    `json:"submission_id"`
	TaskID       string    `json:"task_id"`
	BusinessKey  string    `json:"business_key"`
	FormName     string    `json:"form_name,omitempty"`
	SubmittedBy  string    `json:"submitted_by"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// SubmissionService 表单提交服务
type SubmissionService interface {
	Submit(ctx context.Context, cl *client.Client, identity *auth.Identity, req SubmitRequest, cb SubmitCallbacks) (*SubmitResult, error)
	History(ctx context.Context, identity *auth.Identity, taskID string) ([]*model.SubmissionModel, error)
	InFlight(identity *auth.Identity, taskID string) bool
}

// submissionService 表单提交服务实现
type submissionService struct {
	submissionRepo repository.SubmissionRepository
	auditService   AuditLogService
	publisher      integration.Publisher
	logger         logrus.FieldLogger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewSubmissionService 创建表单提交服务
func NewSubmissionService(
	submissionRepo repository.SubmissionRepository,
	auditService AuditLogService,
	publisher integration.Publisher,
	logger logrus.FieldLogger,
) SubmissionService {
	if publisher == nil {
		publisher = integration.NoopPublisher{}
	}
	return &submissionService{
		submissionRepo: submissionRepo,
		auditService:   auditService,
		publisher:      publisher,
		logger:         logger,
		inFlight:       make(map[string]struct{}),
	}
}

// Submit 提交表单,每次用户操作只尝试一次,不重试
func (s *submissionService) Submit(ctx context.Context, cl *client.Client, identity *auth.Identity, req SubmitRequest, cb SubmitCallbacks) (*SubmitResult, error) {
	// 1. 验证
	if err := utils.ValidateTaskID(req.TaskID); err != nil {
		return nil, err
	}
	if req.SubmitPath != "" {
		if err := utils.ValidateSubmitPath(req.SubmitPath); err != nil {
			return nil, err
		}
	}
	if cl == nil {
		return nil, fmt.Errorf("failed to submit form: %w", client.ErrUnavailable)
	}

	// 2. 标记提交中
	key := ownerOf(identity) + "/" + req.TaskID
	if !s.acquire(key) {
		metrics.RecordSubmission("rejected")
		return nil, ErrSubmissionInProgress
	}
	released := false
	release := func() {
		if !released {
			s.release(key)
			released = true
		}
	}
	defer release()

	// 3. 记录提交
	submission := &model.SubmissionModel{
		ID:          uuid.New().String(),
		TaskID:      req.TaskID,
		BusinessKey: req.BusinessKey,
		SubmittedBy: identity.Email,
		Status:      model.SubmissionStatusPending,
		Repeat:      req.Repeatable,
		CreatedAt:   time.Now(),
	}
	if req.Form != nil {
		submission.FormName = req.Form.Name
	}

	// 4. 组装请求体:默认路径使用 taskId,自定义路径使用 id
	payload := client.SubmitPayload{
		Submission:  req.Submission,
		Form:        req.Form,
		BusinessKey: req.BusinessKey,
	}
	path := req.SubmitPath
	if path == "" {
		path = cl.DefaultSubmitPath(req.TaskID)
		payload.TaskID = req.TaskID
	} else {
		payload.ID = req.TaskID
	}
	submission.SubmitPath = path

	if err := submission.Validate(); err != nil {
		return nil, err
	}
	if err := s.submissionRepo.Save(ctx, submission); err != nil {
		s.logger.WithError(err).WithField("task_id", req.TaskID).Error("failed to save submission")
	}

	// 5. 发送
	response, err := cl.Submit(ctx, path, payload)
	if err != nil {
		s.complete(ctx, submission, model.SubmissionStatusFailed, err)
		release()
		if cb.OnFailure != nil {
			cb.OnFailure(err)
		}
		return nil, fmt.Errorf("failed to submit form: %w", err)
	}

	s.complete(ctx, submission, model.SubmissionStatusSucceeded, nil)
	release()

	// 6. 成功回调
	result := &SubmitResult{
		SubmissionID: submission.ID,
		Status:       model.SubmissionStatusSucceeded,
		Response:     response,
	}
	if req.Repeatable {
		result.Repeat = true
		result.ScrollToTop = true
		if cb.OnRepeat != nil {
			cb.OnRepeat()
		}
	} else if cb.OnSuccess != nil {
		cb.OnSuccess(result)
	}

	return result, nil
}

// History 查询当前用户在任务上的提交历史
func (s *submissionService) History(ctx context.Context, identity *auth.Identity, taskID string) ([]*model.SubmissionModel, error) {
	if err := utils.ValidateTaskID(taskID); err != nil {
		return nil, err
	}
	if identity == nil || identity.Email == "" {
		return []*model.SubmissionModel{}, nil
	}
	submissions, err := s.submissionRepo.FindByTaskID(ctx, taskID, identity.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find submissions: %w", err)
	}
	return submissions, nil
}

// InFlight 是否有进行中的提交
func (s *submissionService) InFlight(identity *auth.Identity, taskID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inFlight[ownerOf(identity)+"/"+taskID]
	return ok
}

// acquire 设置提交标记,已存在时返回 false
func (s *submissionService) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inFlight[key]; ok {
		return false
	}
	s.inFlight[key] = struct{}{}
	return true
}

// release 清除提交标记
func (s *submissionService) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, key)
}

// complete 更新提交状态、写审计日志、记录指标并发布事件
func (s *submissionService) complete(ctx context.Context, submission *model.SubmissionModel, status string, submitErr error) {
	errMsg := ""
	action := AuditActionSubmit
	if submitErr != nil {
		errMsg = submitErr.Error()
		action = AuditActionSubmitFailed
	}
	submission.Status = status
	submission.Error = errMsg

	// 请求方已断开时仍需落库
	persistCtx := context.WithoutCancel(ctx)

	if err := s.submissionRepo.MarkCompleted(persistCtx, submission.ID, status, errMsg); err != nil {
		s.logger.WithError(err).WithField("submission_id", submission.ID).Error("failed to update submission")
	}

	details := map[string]interface{}{
		"submission_id": submission.ID,
		"business_key":  submission.BusinessKey,
		"form_name":     submission.FormName,
		"submit_path":   submission.SubmitPath,
		"repeat":        submission.Repeat,
	}
	if errMsg != "" {
		details["error"] = errMsg
	}
	if err := s.auditService.RecordAction(persistCtx, submission.SubmittedBy, action, "task", submission.TaskID, details); err != nil {
		s.logger.WithError(err).WithField("submission_id", submission.ID).Warn("failed to record audit log")
	}

	metrics.RecordSubmission(status)

	event := SubmissionEvent{
		SubmissionID: submission.ID,
		TaskID:       submission.TaskID,
		BusinessKey:  submission.BusinessKey,
		FormName:     submission.FormName,
		SubmittedBy:  submission.SubmittedBy,
		Status:       status,
		Error:        errMsg,
		OccurredAt:   time.Now(),
	}
	if err := s.publisher.Publish(persistCtx, "submissions."+status, event); err != nil {
		s.logger.WithError(err).WithField("submission_id", submission.ID).Warn("failed to publish submission event")
	}
}
