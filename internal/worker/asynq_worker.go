package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bluepay/internal/logger"
	"github.com/bluepay/internal/provider"
	"github.com/bluepay/internal/queue"
	"github.com/bluepay/internal/storage"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskProofCleanup, c.handleProofCleanup)
	mux.HandleFunc(queue.TaskWithdrawalNotify, c.handleWithdrawalNotify)
	mux.HandleFunc(queue.TaskUpgradeNotify, c.handleUpgradeNotify)
}

func (c *Consumer) handleProofCleanup(ctx context.Context, task *asynq.Task) error {
	if task == nil {
		return nil
	}
	var payload queue.ProofCleanupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_proof_cleanup_unmarshal_failed", "error", err)
		return err
	}
	if payload.BlobKey == "" {
		logger.Debugw("worker_proof_cleanup_skip_invalid_payload", "reconciliation_id", payload.ReconciliationID)
		return nil
	}
	if c == nil || c.Container == nil || c.ProofService == nil {
		logger.Warnw("worker_proof_cleanup_skip_service_nil", "blob_key", payload.BlobKey)
		return nil
	}
	if err := c.ProofService.Cleanup(ctx, payload.BlobKey, payload.ReconciliationID); err != nil {
		if errors.Is(err, storage.ErrInvalidKey) {
			logger.Warnw("worker_proof_cleanup_skip_invalid_key", "blob_key", payload.BlobKey)
			return nil
		}
		logger.Warnw("worker_proof_cleanup_failed",
			"blob_key", payload.BlobKey,
			"reconciliation_id", payload.ReconciliationID,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleWithdrawalNotify(ctx context.Context, task *asynq.Task) error {
	if task == nil {
		return nil
	}
	var payload queue.WithdrawalNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_withdrawal_notify_unmarshal_failed", "error", err)
		return err
	}
	if payload.WithdrawalID == 0 {
		logger.Debugw("worker_withdrawal_notify_skip_invalid_payload")
		return nil
	}
	if c == nil || c.Container == nil || c.NotificationService == nil {
		logger.Warnw("worker_withdrawal_notify_skip_service_nil", "withdrawal_id", payload.WithdrawalID)
		return nil
	}
	if err := c.NotificationService.NotifyWithdrawal(ctx, payload.WithdrawalID); err != nil {
		logger.Warnw("worker_withdrawal_notify_failed", "withdrawal_id", payload.WithdrawalID, "error", err)
		return err
	}
	return nil
}

func (c *Consumer) handleUpgradeNotify(ctx context.Context, task *asynq.Task) error {
	if task == nil {
		return nil
	}
	var payload queue.UpgradeNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_upgrade_notify_unmarshal_failed", "error", err)
		return err
	}
	if payload.UpgradeID == 0 {
		logger.Debugw("worker_upgrade_notify_skip_invalid_payload")
		return nil
	}
	if c == nil || c.Container == nil || c.NotificationService == nil {
		logger.Warnw("worker_upgrade_notify_skip_service_nil", "upgrade_id", payload.UpgradeID)
		return nil
	}
	if err := c.NotificationService.NotifyUpgrade(ctx, payload.UpgradeID); err != nil {
		logger.Warnw("worker_upgrade_notify_failed", "upgrade_id", payload.UpgradeID, "error", err)
		return err
	}
	return nil
}
