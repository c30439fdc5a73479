package repository

import (
	"context"
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/model"
	"gorm.io/gorm"
)

// AlertRepository 告警仓储接口
type AlertRepository interface {
	Save(ctx context.Context, alert *model.AlertModel) error
	FindActiveByUser(ctx context.Context, userID string, limit int) ([]*model.AlertModel, error)
	Dismiss(ctx context.Context, userID string, id string) (bool, error)
	DismissAll(ctx context.Context, userID string) (int64, error)
	PurgeDismissedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// alertRepository 告警仓储实现
type alertRepository struct {
	db *gorm.DB
}

// NewAlertRepository 创建告警仓储
func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{db: db}
}

// Save 保存告警
func (r *alertRepository) Save(ctx context.Context, alert *model.AlertModel) error {
	return r.db.WithContext(ctx).Save(alert).Error
}

// FindActiveByUser 查找用户未关闭的告警,按创建时间倒序
func (r *alertRepository) FindActiveByUser(ctx context.Context, userID string, limit int) ([]*model.AlertModel, error) {
	var alerts []*model.AlertModel
	query := r.db.WithContext(ctx).
		Where("user_id = ? AND dismissed = ?", userID, false).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&alerts).Error
	return alerts, err
}

// Dismiss 关闭单条告警,返回是否存在
func (r *alertRepository) Dismiss(ctx context.Context, userID string, id string) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&model.AlertModel{}).
		Where("id = ? AND user_id = ? AND dismissed = ?", id, userID, false).
		Updates(map[string]interface{}{"dismissed": true, "dismissed_at": now})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DismissAll 关闭用户所有告警
func (r *alertRepository) DismissAll(ctx context.Context, userID string) (int64, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&model.AlertModel{}).
		Where("user_id = ? AND dismissed = ?", userID, false).
		Updates(map[string]interface{}{"dismissed": true, "dismissed_at": now})
	return result.RowsAffected, result.Error
}

// PurgeDismissedBefore 删除在 cutoff 之前关闭的告警
func (r *alertRepository) PurgeDismissedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("dismissed = ? AND dismissed_at < ?", true, cutoff).
		Delete(&model.AlertModel{})
	return result.RowsAffected, result.Error
}
