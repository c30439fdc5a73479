package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/model"
	"github.com/UKHomeOffice/cop-ui/internal/repository"
	"github.com/google/uuid"
)

// 审计动作
const (
	AuditActionSubmit            = "submit"
	AuditActionSubmitFailed      = "submit_failed"
	AuditActionSessionInvalidate = "session_invalidate"
)

// AuditLogService 审计日志服务
type AuditLogService interface {
	RecordAction(ctx context.Context, userID string, action string, resourceType string, resourceID string, details interface{}) error
	ListByResource(ctx context.Context, resourceType string, resourceID string) ([]*model.AuditLogModel, error)
}

// auditLogService 审计日志服务实现
type auditLogService struct {
	auditRepo repository.AuditLogRepository
}

// NewAuditLogService 创建审计日志服务
func NewAuditLogService(auditRepo repository.AuditLogRepository) AuditLogService {
	return &auditLogService{
		auditRepo: auditRepo,
	}
}

// RecordAction 记录操作审计日志
func (s *auditLogService) RecordAction(
	ctx context.Context,
	userID string,
	action string,
	resourceType string,
	resourceID string,
	details interface{},
) error {
	// 序列化详情
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to marshal audit details: %w", err)
	}

	meta := RequestMetaFrom(ctx)

	// 创建审计日志
	auditLog := &model.AuditLogModel{
		ID:           uuid.New().String(),
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    meta.RequestID,
		IP:           meta.IP,
		UserAgent:    meta.UserAgent,
		Details:      detailsJSON,
		CreatedAt:    time.Now(),
	}
	if err := auditLog.Validate(); err != nil {
		return err
	}

	return s.auditRepo.Save(ctx, auditLog)
}

// ListByResource 查询资源的审计日志
func (s *auditLogService) ListByResource(ctx context.Context, resourceType string, resourceID string) ([]*model.AuditLogModel, error) {
	return s.auditRepo.FindByResource(ctx, resourceType, resourceID)
}

// RequestMeta 请求来源信息
type RequestMeta struct {
	RequestID string
	IP        string
	UserAgent string
}

type requestMetaKey struct{}

// WithRequestMeta 在上下文中记录请求来源
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFrom 读取请求来源,不存在时返回零值
func RequestMetaFrom(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}
