package service

import (
	"context"
	"fmt"
	"time"

	"github.com/UKHomeOffice/cop-ui/internal/model"
	"gorm.io/gorm"
)

// StatisticsService 统计服务接口
type StatisticsService interface {
	GetSubmissionsByStatus(ctx context.Context, userID string) ([]*CountByKey, error)
	GetSubmissionsByDay(ctx context.Context, userID string, days int) ([]*CountByKey, error)
	GetAlertsByKind(ctx context.Context, userID string) ([]*CountByKey, error)
	GetSummary(ctx context.Context, userID string) (*UserStatistics, error)
}

// CountByKey 分组计数
type CountByKey struct {
	Key   string `json:"key" gorm:"column:group_key"`
	Count int64  `json:"count"`
}

// UserStatistics 用户统计汇总
type UserStatistics struct {
	TotalSubmissions  int64   `json:"total_submissions"`
	SucceededCount    int64   `json:"succeeded_count"`
	FailedCount       int64   `json:"failed_count"`
	SuccessRate       float64 `json:"success_rate"`
	ActiveAlerts      int64   `json:"active_alerts"`
	AverageSubmitTime float64 `json:"average_submit_time"` // 单位:秒
}

// statisticsService 统计服务实现
type statisticsService struct {
	db *gorm.DB
}

// NewStatisticsService 创建统计服务
func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// GetSubmissionsByStatus 按状态统计用户的提交
func (s *statisticsService) GetSubmissionsByStatus(ctx context.Context, userID string) ([]*CountByKey, error) {
	var results []*CountByKey
	err := s.db.WithContext(ctx).Model(&model.SubmissionModel{}).
		Select("status AS group_key, COUNT(*) AS count").
		Where("submitted_by = ?", userID).
		Group("status").
		Order("status").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get submission statistics by status: %w", err)
	}
	return results, nil
}

// GetSubmissionsByDay 按天统计用户最近的提交
func (s *statisticsService) GetSubmissionsByDay(ctx context.Context, userID string, days int) ([]*CountByKey, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	var submissions []*model.SubmissionModel
	err := s.db.WithContext(ctx).
		Select("created_at").
		Where("submitted_by = ? AND created_at >= ?", userID, since).
		Order("created_at").
		Find(&submissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get submission statistics by day: %w", err)
	}

	// 按日期聚合,避免依赖数据库的日期函数
	stats := make([]*CountByKey, 0)
	index := make(map[string]*CountByKey)
	for _, sub := range submissions {
		day := sub.CreatedAt.UTC().Format("2006-01-02")
		entry, ok := index[day]
		if !ok {
			entry = &CountByKey{Key: day}
			index[day] = entry
			stats = append(stats, entry)
		}
		entry.Count++
	}
	return stats, nil
}

// GetAlertsByKind 按类型统计用户未关闭的告警
func (s *statisticsService) GetAlertsByKind(ctx context.Context, userID string) ([]*CountByKey, error) {
	var results []*CountByKey
	err := s.db.WithContext(ctx).Model(&model.AlertModel{}).
		Select("kind AS group_key, COUNT(*) AS count").
		Where("user_id = ? AND dismissed = ?", userID, false).
		Group("kind").
		Order("kind").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get alert statistics by kind: %w", err)
	}
	return results, nil
}

// GetSummary 用户统计汇总
func (s *statisticsService) GetSummary(ctx context.Context, userID string) (*UserStatistics, error) {
	db := s.db.WithContext(ctx)
	stats := &UserStatistics{}

	// 提交总数
	if err := db.Model(&model.SubmissionModel{}).
		Where("submitted_by = ?", userID).
		Count(&stats.TotalSubmissions).Error; err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}

	// 成功数
	if err := db.Model(&model.SubmissionModel{}).
		Where("submitted_by = ? AND status = ?", userID, model.SubmissionStatusSucceeded).
		Count(&stats.SucceededCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count succeeded submissions: %w", err)
	}

	// 失败数
	if err := db.Model(&model.SubmissionModel{}).
		Where("submitted_by = ? AND status = ?", userID, model.SubmissionStatusFailed).
		Count(&stats.FailedCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count failed submissions: %w", err)
	}

	if completed := stats.SucceededCount + stats.FailedCount; completed > 0 {
		stats.SuccessRate = float64(stats.SucceededCount) / float64(completed)
	}

	// 未关闭的告警
	if err := db.Model(&model.AlertModel{}).
		Where("user_id = ? AND dismissed = ?", userID, false).
		Count(&stats.ActiveAlerts).Error; err != nil {
		return nil, fmt.Errorf("failed to count alerts: %w", err)
	}

	// 平均提交耗时
	var completed []*model.SubmissionModel
	if err := db.Select("created_at", "completed_at").
		Where("submitted_by = ? AND completed_at IS NOT NULL", userID).
		Find(&completed).Error; err != nil {
		return nil, fmt.Errorf("failed to load completed submissions: %w", err)
	}
	if len(completed) > 0 {
		var total float64
		for _, sub := range completed {
			total += sub.CompletedAt.Sub(sub.CreatedAt).Seconds()
		}
		stats.AverageSubmitTime = total / float64(len(completed))
	}

	return stats, nil
}
