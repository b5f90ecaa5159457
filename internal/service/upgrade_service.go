package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bluepay/internal/cache"
	"github.com/bluepay/internal/config"
	"github.com/bluepay/internal/constants"
	"github.com/bluepay/internal/logger"
	"github.com/bluepay/internal/models"
	"github.com/bluepay/internal/queue"
	"github.com/bluepay/internal/repository"

	"gorm.io/gorm"
)

// UpgradeService 账户升级（付款凭证提交与管理员确认）
type UpgradeService struct {
	cfg         config.UpgradeConfig
	upgradeRepo repository.UpgradeRepository
	profileRepo repository.ProfileRepository
	proofSvc    *ProofService
	queue       TaskQueue
	retrier     *Retrier
	now         func() time.Time
}

// UpgradeView 升级记录及其限时凭证链接
type UpgradeView struct {
	models.ReferralUpgrade
	ProofURL string `json:"proof_url,omitempty"`
}

// ReviewUpgradeInput 升级审核输入
type ReviewUpgradeInput struct {
	AdminID   uint
	UpgradeID uint
	Action    string
}

// NewUpgradeService 创建升级服务
func NewUpgradeService(
	cfg config.UpgradeConfig,
	upgradeRepo repository.UpgradeRepository,
	profileRepo repository.ProfileRepository,
	proofSvc *ProofService,
	taskQueue TaskQueue,
	retrier *Retrier,
) *UpgradeService {
	return &UpgradeService{
		cfg:         cfg,
		upgradeRepo: upgradeRepo,
		profileRepo: profileRepo,
		proofSvc:    proofSvc,
		queue:       taskQueue,
		retrier:     retrier,
		now:         time.Now,
	}
}

// SubmitUpgrade 提交升级付款凭证，仅追加记录，不修改升级标记
func (s *UpgradeService) SubmitUpgrade(ctx context.Context, userID uint, proof *ProofFile) (*UpgradeView, error) {
	profile, err := s.profileRepo.WithContext(ctx).GetByUserID(userID)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	if profile.AccountUpgraded {
		return nil, ErrAlreadyUpgraded
	}
	pending, err := s.upgradeRepo.WithContext(ctx).GetPendingByUser(userID)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if pending != nil {
		return nil, ErrUpgradePending
	}

	stored, err := s.proofSvc.Store(ctx, userID, constants.ProofSceneUpgrade, proof)
	if err != nil {
		return nil, err
	}
	key := stored.Key
	upgrade := &models.ReferralUpgrade{
		UserID:        userID,
		PreviousRate:  profile.ReferralRate,
		NewRate:       models.NewMoneyFromDecimal(s.cfg.Rate()),
		PaymentAmount: models.NewMoneyFromDecimal(s.cfg.FeeAmount()),
		PaymentProof:  &key,
		PaymentStatus: constants.UpgradePaymentStatusPending,
	}
	insertCtx := context.WithoutCancel(ctx)
	err = s.retrier.Do(insertCtx, "upgrade_insert", func(ctx context.Context) error {
		upgrade.ID = 0
		return s.upgradeRepo.WithContext(ctx).Create(upgrade)
	})
	if err != nil {
		s.proofSvc.MarkOrphaned(insertCtx, userID, key, err)
		if isUniqueViolation(err) {
			return nil, ErrUpgradePending
		}
		return nil, wrapPersistence(err)
	}

	logger.FromContext(ctx).Infow("upgrade_submitted",
		"upgrade_id", upgrade.ID,
		"user_id", userID,
		"payment_amount", upgrade.PaymentAmount.String(),
	)
	if s.queue != nil && s.queue.Enabled() {
		if err := s.queue.EnqueueUpgradeNotify(queue.UpgradeNotifyPayload{UpgradeID: upgrade.ID}); err != nil {
			logger.FromContext(ctx).Warnw("upgrade_notify_enqueue_failed", "upgrade_id", upgrade.ID, "error", err)
		}
	}
	view := &UpgradeView{ReferralUpgrade: *upgrade}
	if link, err := s.proofSvc.Link(ctx, key); err == nil {
		view.ProofURL = link
	}
	return view, nil
}

// ListMine 用户自己的升级记录
func (s *UpgradeService) ListMine(ctx context.Context, userID uint, page, pageSize int) ([]UpgradeView, int64, error) {
	return s.List(ctx, repository.UpgradeListFilter{Page: page, PageSize: pageSize, UserID: userID})
}

// List 升级记录列表（管理端）
func (s *UpgradeService) List(ctx context.Context, filter repository.UpgradeListFilter) ([]UpgradeView, int64, error) {
	rows, total, err := s.upgradeRepo.WithContext(ctx).List(filter)
	if err != nil {
		return nil, 0, wrapPersistence(err)
	}
	views := make([]UpgradeView, 0, len(rows))
	for _, row := range rows {
		view := UpgradeView{ReferralUpgrade: row}
		if row.PaymentProof != nil && *row.PaymentProof != "" {
			if link, err := s.proofSvc.Link(ctx, *row.PaymentProof); err == nil {
				view.ProofURL = link
			} else {
				logger.FromContext(ctx).Warnw("proof_link_failed", "upgrade_id", row.ID, "error", err)
			}
		}
		views = append(views, view)
	}
	return views, total, nil
}

// Review 管理员确认或驳回升级付款；确认时写入新的推荐奖励并标记已升级
func (s *UpgradeService) Review(ctx context.Context, input ReviewUpgradeInput) (*models.ReferralUpgrade, error) {
	action := strings.ToLower(strings.TrimSpace(input.Action))
	var target string
	switch action {
	case constants.UpgradeActionConfirm:
		target = constants.UpgradePaymentStatusConfirmed
	case constants.UpgradeActionReject:
		target = constants.UpgradePaymentStatusRejected
	default:
		return nil, newValidationError("action", "error.upgrade_action_invalid")
	}
	if input.UpgradeID == 0 {
		return nil, ErrUpgradeNotFound
	}
	ctx = context.WithoutCancel(ctx)

	var reviewed *models.ReferralUpgrade
	err := s.retrier.Do(ctx, "upgrade_review", func(ctx context.Context) error {
		reviewed = nil
		return s.upgradeRepo.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			upgradeRepo := s.upgradeRepo.WithTx(tx)
			upgrade, err := upgradeRepo.GetByIDForUpdate(input.UpgradeID)
			if err != nil {
				return err
			}
			if upgrade == nil {
				return ErrUpgradeNotFound
			}
			if upgrade.PaymentStatus != constants.UpgradePaymentStatusPending {
				return ErrUpgradeStatusInvalid
			}
			now := s.now()
			adminID := input.AdminID
			upgrade.PaymentStatus = target
			upgrade.ReviewedBy = &adminID
			upgrade.ReviewedAt = &now
			upgrade.UpdatedAt = now
			if err := upgradeRepo.Update(upgrade); err != nil {
				return err
			}
			if target == constants.UpgradePaymentStatusConfirmed {
				if err := s.profileRepo.WithTx(tx).SetUpgraded(upgrade.UserID, upgrade.NewRate, now); err != nil {
					return err
				}
			}
			reviewed = upgrade
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, ErrUpgradeNotFound) || errors.Is(err, ErrUpgradeStatusInvalid) {
			return nil, err
		}
		return nil, wrapPersistence(err)
	}
	if err := cache.InvalidateBalance(ctx, reviewed.UserID); err != nil {
		logger.FromContext(ctx).Warnw("balance_cache_invalidate_failed", "user_id", reviewed.UserID, "error", err)
	}
	logger.FromContext(ctx).Infow("upgrade_reviewed",
		"upgrade_id", reviewed.ID,
		"user_id", reviewed.UserID,
		"admin_id", input.AdminID,
		"payment_status", reviewed.PaymentStatus,
	)
	return reviewed, nil
}
