package model

import (
	"errors"
	"time"
)

// AlertModel 用户可见的告警记录
// 每条记录对应一次上游请求失败（或结构化变量解析失败）
type AlertModel struct {
	ID          string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID      string     `gorm:"type:varchar(255);not null;index" json:"user_id"` // 用户标识（邮箱）
	Type        string     `gorm:"type:varchar(32);not null" json:"type"`          // api-error
	Kind        string     `gorm:"type:varchar(32);not null;index" json:"kind"`    // transport/status/decode
	Status      int        `gorm:"type:int" json:"status"`                         // HTTP 状态码,传输失败为 0
	Message     string     `gorm:"type:text" json:"message"`
	Path        string     `gorm:"type:varchar(512)" json:"path"`       // 上游请求路径
	RoutePath   string     `gorm:"type:varchar(512)" json:"route_path"` // 触发请求的本服务路由
	RequestID   string     `gorm:"type:varchar(64);index" json:"request_id,omitempty"`
	Dismissed   bool       `gorm:"not null;default:false;index" json:"dismissed"`
	CreatedAt   time.Time  `gorm:"not null;index" json:"created_at"`
	DismissedAt *time.Time `json:"dismissed_at,omitempty"`
}

// TableName 指定表名
func (AlertModel) TableName() string {
	return "alerts"
}

// Validate 验证告警模型
func (am *AlertModel) Validate() error {
	if am.ID == "" {
		return errors.New("alert ID is required")
	}
	if am.UserID == "" {
		return errors.New("user ID is required")
	}
	if am.Kind == "" {
		return errors.New("alert kind is required")
	}
	if am.Type == "" {
		am.Type = "api-error"
	}
	return nil
}
