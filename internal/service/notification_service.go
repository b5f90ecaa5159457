package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bluepay/internal/cache"
	"github.com/bluepay/internal/logger"
	"github.com/bluepay/internal/notify"
	"github.com/bluepay/internal/repository"
)

const notificationDedupeTTL = 10 * time.Minute

// NotificationService 管理员通知服务（新提现、新升级申请）
type NotificationService struct {
	sender         notify.Sender
	withdrawalRepo repository.WithdrawalRepository
	upgradeRepo    repository.UpgradeRepository
	userRepo       repository.UserRepository
	currency       string
}

// NewNotificationService 创建通知服务
func NewNotificationService(
	sender notify.Sender,
	withdrawalRepo repository.WithdrawalRepository,
	upgradeRepo repository.UpgradeRepository,
	userRepo repository.UserRepository,
	currency string,
) *NotificationService {
	if sender == nil {
		sender = notify.LogSender{}
	}
	return &NotificationService{
		sender:         sender,
		withdrawalRepo: withdrawalRepo,
		upgradeRepo:    upgradeRepo,
		userRepo:       userRepo,
		currency:       currency,
	}
}

// NotifyWithdrawal 通知管理员有新的提现申请待审核
func (s *NotificationService) NotifyWithdrawal(ctx context.Context, withdrawalID uint) error {
	req, err := s.withdrawalRepo.WithContext(ctx).GetByID(withdrawalID)
	if err != nil {
		return err
	}
	if req == nil {
		logger.FromContext(ctx).Debugw("notify_withdrawal_skip_not_found", "withdrawal_id", withdrawalID)
		return nil
	}
	lines := []string{
		fmt.Sprintf("New withdrawal #%d (%s)", req.ID, req.Status),
		"User: " + s.describeUser(ctx, req.UserID),
		fmt.Sprintf("Amount: %s %s", s.currency, req.WithdrawalAmount.String()),
		fmt.Sprintf("Fee paid: %s %s", s.currency, req.Amount.String()),
		fmt.Sprintf("Bank: %s / %s / %s", req.BankName, req.AccountNumber, req.AccountName),
	}
	return s.send(ctx, fmt.Sprintf("notify:withdrawal:%d", req.ID), strings.Join(lines, "\n"))
}

// NotifyUpgrade 通知管理员有新的升级付款待确认
func (s *NotificationService) NotifyUpgrade(ctx context.Context, upgradeID uint) error {
	upgrade, err := s.upgradeRepo.WithContext(ctx).GetByID(upgradeID)
	if err != nil {
		return err
	}
	if upgrade == nil {
		logger.FromContext(ctx).Debugw("notify_upgrade_skip_not_found", "upgrade_id", upgradeID)
		return nil
	}
	lines := []string{
		fmt.Sprintf("New account upgrade #%d (%s)", upgrade.ID, upgrade.PaymentStatus),
		"User: " + s.describeUser(ctx, upgrade.UserID),
		fmt.Sprintf("Payment: %s %s", s.currency, upgrade.PaymentAmount.String()),
	}
	return s.send(ctx, fmt.Sprintf("notify:upgrade:%d", upgrade.ID), strings.Join(lines, "\n"))
}

// send 同一事件在去重窗口内只发送一次，发送失败释放去重键以便任务重试
func (s *NotificationService) send(ctx context.Context, dedupeKey, text string) error {
	ok, err := cache.SetNX(ctx, dedupeKey, "1", notificationDedupeTTL)
	if err != nil {
		logger.FromContext(ctx).Warnw("notification_dedupe_failed", "key", dedupeKey, "error", err)
	} else if !ok {
		return nil
	}
	if err := s.sender.Send(ctx, text); err != nil {
		_ = cache.Del(ctx, dedupeKey)
		return err
	}
	return nil
}

func (s *NotificationService) describeUser(ctx context.Context, userID uint) string {
	if s.userRepo == nil {
		return fmt.Sprintf("#%d", userID)
	}
	user, err := s.userRepo.WithContext(ctx).GetByID(userID)
	if err != nil || user == nil {
		return fmt.Sprintf("#%d", userID)
	}
	if user.FullName == "" {
		return fmt.Sprintf("#%d %s", user.ID, user.Email)
	}
	return fmt.Sprintf("#%d %s <%s>", user.ID, user.FullName, user.Email)
}
