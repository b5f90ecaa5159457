package models

import (
	"time"

	"github.com/bluepay/internal/constants"
)

// ReferralUpgrade 账户升级付款记录（用户侧只追加）
// 说明：ActiveSlot 在待审核时为 1、审核后为 NULL，配合 (user_id, active_slot) 唯一索引
// 保证每个用户同时最多只有一笔待审核的升级申请。
type ReferralUpgrade struct {
	ID            uint       `gorm:"primarykey" json:"id"`                                                    // 主键
	UserID        uint       `gorm:"not null;index;uniqueIndex:idx_upgrade_user_pending" json:"user_id"`      // 用户ID
	PreviousRate  Money      `gorm:"type:decimal(20,2);not null;default:0" json:"previous_rate"`              // 升级前奖励
	NewRate       Money      `gorm:"type:decimal(20,2);not null;default:0" json:"new_rate"`                   // 升级后奖励
	PaymentAmount Money      `gorm:"type:decimal(20,2);not null;default:0" json:"payment_amount"`             // 付款金额
	PaymentProof  *string    `gorm:"type:varchar(255)" json:"-"`                                              // 付款凭证存储键
	PaymentStatus string     `gorm:"type:varchar(20);not null;index;default:'pending'" json:"payment_status"` // 付款状态
	ActiveSlot    *int       `gorm:"uniqueIndex:idx_upgrade_user_pending" json:"-"`                           // 待审核占位
	ReviewedBy    *uint      `gorm:"index" json:"reviewed_by,omitempty"`                                      // 审核人用户ID
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`                                                   // 审核时间
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`                                                 // 创建时间
	UpdatedAt     time.Time  `gorm:"index" json:"updated_at"`                                                 // 更新时间

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"` // 用户信息
}

// TableName 指定表名
func (ReferralUpgrade) TableName() string {
	return "referral_upgrades"
}

// UpgradeActiveSlotFor 返回付款状态对应的占位值
func UpgradeActiveSlotFor(paymentStatus string) *int {
	if paymentStatus != constants.UpgradePaymentStatusPending {
		return nil
	}
	slot := 1
	return &slot
}
