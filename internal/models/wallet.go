package models

import "time"

// WalletAccount 用户钱包账户
type WalletAccount struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                 // 主键
	UserID    uint      `gorm:"not null;uniqueIndex" json:"user_id"`                  // 用户ID
	Balance   Money     `gorm:"type:decimal(20,2);not null;default:0" json:"balance"` // 余额
	CreatedAt time.Time `gorm:"index" json:"created_at"`                              // 创建时间
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`                              // 更新时间
}

// TableName 指定表名
func (WalletAccount) TableName() string {
	return "wallet_accounts"
}

// WalletTransaction 钱包流水
type WalletTransaction struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                        // 主键
	UserID        uint      `gorm:"not null;index" json:"user_id"`                               // 用户ID
	Type          string    `gorm:"type:varchar(32);not null;index" json:"type"`                 // 交易类型
	Direction     string    `gorm:"type:varchar(8);not null" json:"direction"`                   // 资金方向
	Amount        Money     `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`         // 金额
	BalanceBefore Money     `gorm:"type:decimal(20,2);not null;default:0" json:"balance_before"` // 变动前余额
	BalanceAfter  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"balance_after"`  // 变动后余额
	Reference     string    `gorm:"type:varchar(255);index" json:"reference"`                    // 关联信息（收款账户等）
	Remark        string    `gorm:"type:varchar(255)" json:"remark"`                             // 备注
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                                     // 创建时间
}

// TableName 指定表名
func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
