package service

import (
	"context"
	"fmt"
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/client"
	"github.com/UKHomeOffice/cop-ui/internal/metrics"
	"github.com/UKHomeOffice/cop-ui/internal/model"
	"github.com/UKHomeOffice/cop-ui/internal/repository"
	"github.com/google/uuid"
)

// AlertNotifier 实时推送告警
type AlertNotifier interface {
	NotifyAlert(userID string, alert *model.AlertModel)
}

// AlertService 告警服务
type AlertService interface {
	Raise(ctx context.Context, report client.FailureReport) error
	List(ctx context.Context, userID string) ([]*model.AlertModel, error)
	Dismiss(ctx context.Context, userID string, id string) (bool, error)
	DismissAll(ctx context.Context, userID string) (int64, error)
}

// alertService 告警服务实现
type alertService struct {
	alertRepo repository.AlertRepository
	notifiers []AlertNotifier
	maxListed int
}

// NewAlertService 创建告警服务
func NewAlertService(alertRepo repository.AlertRepository, maxListed int, notifiers ...AlertNotifier) AlertService {
	if maxListed <= 0 {
		maxListed = 50
	}
	return &alertService{
		alertRepo: alertRepo,
		notifiers: notifiers,
		maxListed: maxListed,
	}
}

// Raise 根据失败报告生成告警,保存并推送给用户
func (s *alertService) Raise(ctx context.Context, report client.FailureReport) error {
	occurredAt := report.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	alert := &model.AlertModel{
		ID:        uuid.New().String(),
		UserID:    report.UserID,
		Type:      "api-error",
		Kind:      string(report.Kind),
		Status:    report.Status,
		Message:   report.Message,
		Path:      report.RequestPath,
		RoutePath: report.RoutePath,
		RequestID: report.RequestID,
		CreatedAt: occurredAt,
	}
	if err := alert.Validate(); err != nil {
		return err
	}

	if err := s.alertRepo.Save(ctx, alert); err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}
	metrics.RecordAlert(alert.Kind)

	for _, notifier := range s.notifiers {
		notifier.NotifyAlert(alert.UserID, alert)
	}
	return nil
}

// List 查询用户未关闭的告警
func (s *alertService) List(ctx context.Context, userID string) ([]*model.AlertModel, error) {
	alerts, err := s.alertRepo.FindActiveByUser(ctx, userID, s.maxListed)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}

// Dismiss 关闭单条告警
func (s *alertService) Dismiss(ctx context.Context, userID string, id string) (bool, error) {
	ok, err := s.alertRepo.Dismiss(ctx, userID, id)
	if err != nil {
		return false, fmt.Errorf("failed to dismiss alert: %w", err)
	}
	return ok, nil
}

// DismissAll 关闭用户的所有告警
func (s *alertService) DismissAll(ctx context.Context, userID string) (int64, error) {
	n, err := s.alertRepo.DismissAll(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to dismiss alerts: %w", err)
	}
	return n, nil
}
