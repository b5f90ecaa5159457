package models

import "time"

// RoleAuditLog 角色变更审计日志
// 说明：记录角色授予与撤销，支持按操作人与时间范围检索。
type RoleAuditLog struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	OperatorUserID uint      `gorm:"index;not null" json:"operator_user_id"`
	TargetUserID   uint      `gorm:"index;not null" json:"target_user_id"`
	Action         string    `gorm:"type:varchar(50);index;not null" json:"action"`
	Role           string    `gorm:"type:varchar(120);index;not null;default:''" json:"role"`
	RequestID      string    `gorm:"type:varchar(64);index;not null;default:''" json:"request_id"`
	DetailJSON     JSON      `gorm:"type:json" json:"detail"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (RoleAuditLog) TableName() string {
	return "role_audit_logs"
}
