package constants

// WithdrawalStatus 提现申请状态（封闭枚举）
type WithdrawalStatus string

// 提现申请状态常量
const (
	WithdrawalStatusPending     WithdrawalStatus = "pending"
	WithdrawalStatusUnderReview WithdrawalStatus = "under_review"
	WithdrawalStatusApproved    WithdrawalStatus = "approved"
	WithdrawalStatusRejected    WithdrawalStatus = "rejected"
)

// Valid 是否为已知状态
func (s WithdrawalStatus) Valid() bool {
	switch s {
	case WithdrawalStatusPending, WithdrawalStatusUnderReview, WithdrawalStatusApproved, WithdrawalStatusRejected:
		return true
	}
	return false
}

// Terminal 是否为终态
func (s WithdrawalStatus) Terminal() bool {
	return s == WithdrawalStatusApproved || s == WithdrawalStatusRejected
}

// 提现审核动作常量
const (
	WithdrawalActionApprove = "approve"
	WithdrawalActionReject  = "reject"
)

// WithdrawalFlow 提现流程
type WithdrawalFlow string

// 提现流程常量
const (
	WithdrawalFlowEarnings WithdrawalFlow = "earnings"
	WithdrawalFlowWallet   WithdrawalFlow = "wallet"
)

// 账户升级付款状态常量
const (
	UpgradePaymentStatusPending   = "pending"
	UpgradePaymentStatusConfirmed = "confirmed"
	UpgradePaymentStatusRejected  = "rejected"
)

// 账户升级审核动作常量
const (
	UpgradeActionConfirm = "confirm"
	UpgradeActionReject  = "reject"
)

// 钱包交易类型常量
const (
	WalletTxnTypeCredit      = "credit"
	WalletTxnTypeWithdraw    = "withdraw"
	WalletTxnTypeAdminAdjust = "admin_adjust"
)

// 钱包交易方向常量
const (
	WalletTxnDirectionIn  = "in"
	WalletTxnDirectionOut = "out"
)

// 对账事项类型常量
const (
	ReconciliationKindApprovalDebit = "approval_debit"
	ReconciliationKindOrphanProof   = "orphan_proof"
)

// 对账事项状态常量
const (
	ReconciliationStatusOpen     = "open"
	ReconciliationStatusResolved = "resolved"
)

// 凭证存储场景常量
const (
	ProofSceneWithdrawal = "withdrawal-proofs"
	ProofSceneUpgrade    = "upgrade-proofs"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 角色常量
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// 角色审计动作常量
const (
	RoleAuditActionGrant  = "role_grant"
	RoleAuditActionRevoke = "role_revoke"
)

// 队列常量
const (
	QueueDefault         = "default"
	QueueCritical        = "critical"
	TaskProofCleanup     = "proof:cleanup"
	TaskWithdrawalNotify = "withdrawal:notify_admin"
	TaskUpgradeNotify    = "upgrade:notify_admin"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "bp"
)

// 币种常量
const (
	CurrencyDefault = "NGN"
)

// 站点语言常量
const (
	LocaleEnUS = "en-US"
	LocaleZhCN = "zh-CN"
)

// 支持的站点语言顺序（含回退顺序）
var SupportedLocales = []string{LocaleEnUS, LocaleZhCN}
