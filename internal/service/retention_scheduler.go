package service

import (
	"context"
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/repository"
	"github.com/sirupsen/logrus"
)

// RetentionConfig 数据保留配置
type RetentionConfig struct {
	Interval                time.Duration // 清理间隔
	DismissedAlertRetention time.Duration // 已关闭告警保留时长
	AuditLogRetention       time.Duration // 审计日志保留时长
}

// RetentionScheduler 定期清理过期的告警和审计日志
type RetentionScheduler struct {
	alertRepo repository.AlertRepository
	auditRepo repository.AuditLogRepository
	config    RetentionConfig
	logger    logrus.FieldLogger
	stopChan  chan struct{}
	now       func() time.Time
}

// NewRetentionScheduler 创建清理调度器
func NewRetentionScheduler(alertRepo repository.AlertRepository, auditRepo repository.AuditLogRepository, config RetentionConfig, logger logrus.FieldLogger) *RetentionScheduler {
	if config.Interval <= 0 {
		config.Interval = 24 * time.Hour
	}
	if config.DismissedAlertRetention <= 0 {
		config.DismissedAlertRetention = 7 * 24 * time.Hour
	}
	if config.AuditLogRetention <= 0 {
		config.AuditLogRetention = 90 * 24 * time.Hour
	}
	return &RetentionScheduler{
		alertRepo: alertRepo,
		auditRepo: auditRepo,
		config:    config,
		logger:    logger,
		stopChan:  make(chan struct{}),
		now:       time.Now,
	}
}

// Start 启动清理调度
func (s *RetentionScheduler) Start(ctx context.Context) {
	go s.schedule(ctx)
}

// Stop 停止清理调度
func (s *RetentionScheduler) Stop() {
	close(s.stopChan)
}

// Config 获取清理配置
func (s *RetentionScheduler) Config() RetentionConfig {
	return s.config
}

// schedule 定期执行清理
func (s *RetentionScheduler) schedule(ctx context.Context) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Cleanup(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Cleanup 执行一次清理,返回删除的告警数和审计日志数
func (s *RetentionScheduler) Cleanup(ctx context.Context) (int64, int64) {
	now := s.now()

	alerts, err := s.alertRepo.PurgeDismissedBefore(ctx, now.Add(-s.config.DismissedAlertRetention))
	if err != nil {
		s.logger.WithError(err).Error("failed to purge dismissed alerts")
	}

	logs, err := s.auditRepo.PurgeBefore(ctx, now.Add(-s.config.AuditLogRetention))
	if err != nil {
		s.logger.WithError(err).Error("failed to purge audit logs")
	}

	if alerts > 0 || logs > 0 {
		s.logger.WithFields(logrus.Fields{
			"alerts":     alerts,
			"audit_logs": logs,
		}).Info("retention cleanup completed")
	}
	return alerts, logs
}
