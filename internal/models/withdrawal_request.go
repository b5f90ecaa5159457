package models

import (
	"time"

	"github.com/bluepay/internal/constants"
)

// WithdrawalRequest 推荐收益提现申请
// 说明：ActiveSlot 在非终态时为 1、终态时为 NULL，配合 (user_id, active_slot) 唯一索引
// 保证每个用户同时最多只有一笔未结束的申请。
type WithdrawalRequest struct {
	ID                uint                       `gorm:"primarykey" json:"id"`                                                 // 主键
	UserID            uint                       `gorm:"not null;index;uniqueIndex:idx_withdrawal_user_active" json:"user_id"` // 用户ID
	BankName          string                     `gorm:"type:varchar(120);not null" json:"bank_name"`                          // 收款银行
	AccountName       string                     `gorm:"type:varchar(100);not null" json:"account_name"`                       // 收款户名
	AccountNumber     string                     `gorm:"type:varchar(10);not null" json:"account_number"`                      // 收款账号（10 位数字）
	WithdrawalAmount  Money                      `gorm:"type:decimal(20,2);not null;default:0" json:"withdrawal_amount"`       // 用户期望到账金额
	Amount            Money                      `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`                  // 实收手续费
	ActivationFee     Money                      `gorm:"type:decimal(20,2);not null;default:0" json:"activation_fee"`          // 激活费
	PaymentScreenshot *string                    `gorm:"type:varchar(255)" json:"-"`                                           // 付款凭证存储键
	Status            constants.WithdrawalStatus `gorm:"type:varchar(20);not null;index" json:"status"`                        // 状态
	ActiveSlot        *int                       `gorm:"uniqueIndex:idx_withdrawal_user_active" json:"-"`                      // 未结束占位
	Notes             string                     `gorm:"type:text" json:"notes"`                                               // 审核备注
	ReviewedBy        *uint                      `gorm:"index" json:"reviewed_by,omitempty"`                                   // 审核人用户ID
	ReviewedAt        *time.Time                 `gorm:"index" json:"reviewed_at,omitempty"`                                   // 审核时间
	CreatedAt         time.Time                  `gorm:"index" json:"created_at"`                                              // 创建时间
	UpdatedAt         time.Time                  `gorm:"index" json:"updated_at"`                                              // 更新时间

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"` // 用户信息
}

// TableName 指定表名
func (WithdrawalRequest) TableName() string {
	return "withdrawal_requests"
}

// ActiveSlotFor 返回状态对应的占位值
func ActiveSlotFor(status constants.WithdrawalStatus) *int {
	if status.Terminal() {
		return nil
	}
	slot := 1
	return &slot
}
