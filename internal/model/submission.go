package model

import (
	"errors"
	"time"
)

// 提交状态
const (
	SubmissionStatusPending   = "pending"
	SubmissionStatusSucceeded = "succeeded"
	SubmissionStatusFailed    = "failed"
)

// SubmissionModel 表单提交记录,每次用户提交一条
type SubmissionModel struct {
	ID          string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	TaskID      string     `gorm:"type:varchar(64);not null;index" json:"task_id"`
	BusinessKey string     `gorm:"type:varchar(255);index" json:"business_key"`
	FormName    string     `gorm:"type:varchar(255)" json:"form_name"`
	SubmitPath  string     `gorm:"type:varchar(512)" json:"submit_path"`
	SubmittedBy string     `gorm:"type:varchar(255);not null;index" json:"submitted_by"`
	Status      string     `gorm:"type:varchar(32);not null;index" json:"status"`
	Repeat      bool       `gorm:"not null;default:false" json:"repeat"`
	Error       string     `gorm:"type:text" json:"error,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;index" json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TableName 指定表名
func (SubmissionModel) TableName() string {
	return "submissions"
}

// Validate 验证提交记录
func (sm *SubmissionModel) Validate() error {
	if sm.ID == "" {
		return errors.New("submission ID is required")
	}
	if sm.TaskID == "" {
		return errors.New("task ID is required")
	}
	if sm.SubmittedBy == "" {
		return errors.New("submitter is required")
	}
	if sm.Status == "" {
		sm.Status = SubmissionStatusPending
	}
	return nil
}
