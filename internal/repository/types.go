package repository

import (
	"time"

	"github.com/bluepay/internal/constants"
)

// WithdrawalListFilter 提现申请列表过滤条件
type WithdrawalListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      constants.WithdrawalStatus
	Keyword     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// UpgradeListFilter 账户升级列表过滤条件
type UpgradeListFilter struct {
	Page          int
	PageSize      int
	UserID        uint
	PaymentStatus string
}

// WalletTransactionListFilter 钱包流水列表过滤条件
type WalletTransactionListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	Type     string
}

// ReconciliationListFilter 对账事项列表过滤条件
type ReconciliationListFilter struct {
	Page     int
	PageSize int
	Kind     string
	Status   string
}

// RoleAuditLogListFilter 角色审计日志过滤条件
type RoleAuditLogListFilter struct {
	Page           int
	PageSize       int
	OperatorUserID uint
	TargetUserID   uint
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
}
