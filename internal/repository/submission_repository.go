package repository

import (
	"context"
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/model"
	"gorm.io/gorm"
)

// SubmissionRepository 提交记录仓储接口
type SubmissionRepository interface {
	Save(ctx context.Context, submission *model.SubmissionModel) error
	FindByID(ctx context.Context, id string) (*model.SubmissionModel, error)
	FindByTaskID(ctx context.Context, taskID string, submittedBy string) ([]*model.SubmissionModel, error)
	CountSucceeded(ctx context.Context, taskID string) (int64, error)
	MarkCompleted(ctx context.Context, id string, status string, errMsg string) error
}

// submissionRepository 提交记录仓储实现
type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository 创建提交记录仓储
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

// Save 保存提交记录
func (r *submissionRepository) Save(ctx context.Context, submission *model.SubmissionModel) error {
	return r.db.WithContext(ctx).Save(submission).Error
}

// FindByID 根据 ID 查找提交记录
func (r *submissionRepository) FindByID(ctx context.Context, id string) (*model.SubmissionModel, error) {
	var submission model.SubmissionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&submission).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

// FindByTaskID 根据任务 ID 查找某个用户的提交记录
func (r *submissionRepository) FindByTaskID(ctx context.Context, taskID string, submittedBy string) ([]*model.SubmissionModel, error) {
	var submissions []*model.SubmissionModel
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND submitted_by = ?", taskID, submittedBy).
		Order("created_at ASC").
		Find(&submissions).Error
	return submissions, err
}

// CountSucceeded 统计任务成功提交次数
func (r *submissionRepository) CountSucceeded(ctx context.Context, taskID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.SubmissionModel{}).
		Where("task_id = ? AND status = ?", taskID, model.SubmissionStatusSucceeded).
		Count(&count).Error
	return count, err
}

// MarkCompleted 更新提交结果
func (r *submissionRepository) MarkCompleted(ctx context.Context, id string, status string, errMsg string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.SubmissionModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       status,
			"error":        errMsg,
			"completed_at": now,
		}).Error
}
