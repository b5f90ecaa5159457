package queue

import (
	"encoding/json"

	"github.com/bluepay/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskProofCleanup 孤立凭证清理任务
	TaskProofCleanup = constants.TaskProofCleanup
	// TaskWithdrawalNotify 提现申请管理员通知任务
	TaskWithdrawalNotify = constants.TaskWithdrawalNotify
	// TaskUpgradeNotify 升级申请管理员通知任务
	TaskUpgradeNotify = constants.TaskUpgradeNotify
)

// ProofCleanupPayload 孤立凭证清理任务载荷
type ProofCleanupPayload struct {
	BlobKey          string `json:"blob_key"`
	ReconciliationID uint   `json:"reconciliation_id"`
}

// WithdrawalNotifyPayload 提现申请通知任务载荷
type WithdrawalNotifyPayload struct {
	WithdrawalID uint `json:"withdrawal_id"`
}

// UpgradeNotifyPayload 升级申请通知任务载荷
type UpgradeNotifyPayload struct {
	UpgradeID uint `json:"upgrade_id"`
}

// NewProofCleanupTask 创建孤立凭证清理任务
func NewProofCleanupTask(payload ProofCleanupPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskProofCleanup, body), nil
}

// NewWithdrawalNotifyTask 创建提现申请通知任务
func NewWithdrawalNotifyTask(payload WithdrawalNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWithdrawalNotify, body), nil
}

// NewUpgradeNotifyTask 创建升级申请通知任务
func NewUpgradeNotifyTask(payload UpgradeNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskUpgradeNotify, body), nil
}
