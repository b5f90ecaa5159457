package models

import "time"

// ReconciliationItem 待对账事项
// 说明：记录审核扣款失败与孤立凭证文件，供运维人工或后台任务处理。
type ReconciliationItem struct {
	ID           uint       `gorm:"primarykey" json:"id"`                                         // 主键
	Kind         string     `gorm:"type:varchar(32);not null;index" json:"kind"`                  // 类型
	WithdrawalID *uint      `gorm:"index" json:"withdrawal_id,omitempty"`                         // 关联提现申请
	UserID       uint       `gorm:"not null;index" json:"user_id"`                                // 用户ID
	BlobKey      string     `gorm:"type:varchar(255);index" json:"blob_key"`                      // 凭证存储键
	Detail       string     `gorm:"type:text" json:"detail"`                                      // 详情
	Status       string     `gorm:"type:varchar(20);not null;index;default:'open'" json:"status"` // 状态
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`                                        // 处理时间
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt    time.Time  `gorm:"index" json:"updated_at"`                                      // 更新时间
}

// TableName 指定表名
func (ReconciliationItem) TableName() string {
	return "reconciliation_items"
}
