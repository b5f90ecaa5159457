package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bluepay/internal/cache"
	"github.com/bluepay/internal/constants"
	"github.com/bluepay/internal/logger"
	"github.com/bluepay/internal/metrics"
	"github.com/bluepay/internal/models"
	"github.com/bluepay/internal/queue"
	"github.com/bluepay/internal/repository"

	"gorm.io/gorm"
)

// WithdrawalService 推荐收益提现服务（提交、审核、查询）
type WithdrawalService struct {
	gate           *FeeGate
	withdrawalRepo repository.WithdrawalRepository
	profileRepo    repository.ProfileRepository
	reconRepo      repository.ReconciliationRepository
	proofSvc       *ProofService
	queue          TaskQueue
	retrier        *Retrier
	now            func() time.Time
}

// WithdrawalView 提现申请及其限时凭证链接
type WithdrawalView struct {
	models.WithdrawalRequest
	ProofURL string `json:"proof_url,omitempty"`
}

// ReviewWithdrawalInput 审核输入
type ReviewWithdrawalInput struct {
	AdminID   uint
	RequestID uint
	Note      string
}

// NewWithdrawalService 创建提现服务
func NewWithdrawalService(
	gate *FeeGate,
	withdrawalRepo repository.WithdrawalRepository,
	profileRepo repository.ProfileRepository,
	reconRepo repository.ReconciliationRepository,
	proofSvc *ProofService,
	taskQueue TaskQueue,
	retrier *Retrier,
) *WithdrawalService {
	return &WithdrawalService{
		gate:           gate,
		withdrawalRepo: withdrawalRepo,
		profileRepo:    profileRepo,
		reconRepo:      reconRepo,
		proofSvc:       proofSvc,
		queue:          taskQueue,
		retrier:        retrier,
		now:            time.Now,
	}
}

// SubmitEarningsWithdrawal 提交推荐收益提现：校验、存储凭证、以 under_review 状态落库
func (s *WithdrawalService) SubmitEarningsWithdrawal(ctx context.Context, userID uint, input WithdrawalInput, proof *ProofFile) (*WithdrawalView, error) {
	input.Flow = constants.WithdrawalFlowEarnings
	validated, err := s.gate.Validate(ctx, userID, input)
	if err != nil {
		metrics.WithdrawalSubmissions.WithLabelValues(string(input.Flow), metrics.OutcomeRejected).Inc()
		return nil, err
	}

	profile, err := s.profileRepo.WithContext(ctx).GetByUserID(userID)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	if profile.ReferralEarnings.Decimal.LessThan(validated.WithdrawalAmount) {
		metrics.WithdrawalSubmissions.WithLabelValues(string(input.Flow), metrics.OutcomeRejected).Inc()
		return nil, ErrInsufficientEarnings
	}

	stored, err := s.proofSvc.Store(ctx, userID, constants.ProofSceneWithdrawal, proof)
	if err != nil {
		metrics.WithdrawalSubmissions.WithLabelValues(string(input.Flow), metrics.OutcomeError).Inc()
		return nil, err
	}

	key := stored.Key
	fee := models.NewMoneyFromDecimal(validated.Fee)
	req := &models.WithdrawalRequest{
		UserID:            userID,
		BankName:          validated.BankName,
		AccountName:       validated.AccountName,
		AccountNumber:     validated.AccountNumber,
		WithdrawalAmount:  models.NewMoneyFromDecimal(validated.WithdrawalAmount),
		Amount:            fee,
		ActivationFee:     fee,
		PaymentScreenshot: &key,
		Status:            constants.WithdrawalStatusUnderReview,
	}
	insertCtx := context.WithoutCancel(ctx)
	err = s.retrier.Do(insertCtx, "withdrawal_insert", func(ctx context.Context) error {
		req.ID = 0
		return s.withdrawalRepo.WithContext(ctx).Create(req)
	})
	if err != nil {
		s.proofSvc.MarkOrphaned(insertCtx, userID, key, err)
		metrics.WithdrawalSubmissions.WithLabelValues(string(input.Flow), metrics.OutcomeError).Inc()
		if isUniqueViolation(err) {
			return nil, ErrDuplicatePendingRequest
		}
		return nil, wrapPersistence(err)
	}

	metrics.WithdrawalSubmissions.WithLabelValues(string(input.Flow), metrics.OutcomeOK).Inc()
	logger.FromContext(ctx).Infow("withdrawal_submitted",
		"withdrawal_id", req.ID,
		"user_id", userID,
		"withdrawal_amount", req.WithdrawalAmount.String(),
		"fee", fee.String(),
	)
	s.notifyAdmin(ctx, req.ID)

	view := &WithdrawalView{WithdrawalRequest: *req}
	if link, err := s.proofSvc.Link(ctx, key); err == nil {
		view.ProofURL = link
	}
	return view, nil
}

// Approve 审核通过：条件更新状态并在同一事务内扣减推荐收益
func (s *WithdrawalService) Approve(ctx context.Context, input ReviewWithdrawalInput) (*models.WithdrawalRequest, error) {
	if input.RequestID == 0 {
		return nil, ErrWithdrawalNotFound
	}
	ctx = context.WithoutCancel(ctx)
	log := logger.FromContext(ctx)

	var approved *models.WithdrawalRequest
	var debitErr error
	err := s.retrier.Do(ctx, "withdrawal_approve", func(ctx context.Context) error {
		approved = nil
		debitErr = nil
		now := s.now()
		return s.withdrawalRepo.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			withdrawalRepo := s.withdrawalRepo.WithTx(tx)
			req, err := s.transition(withdrawalRepo, input, constants.WithdrawalStatusApproved, now)
			if err != nil {
				return err
			}

			profileRepo := s.profileRepo.WithTx(tx)
			profile, err := profileRepo.GetByUserIDForUpdate(req.UserID)
			if err != nil {
				debitErr = err
				return err
			}
			if profile == nil {
				debitErr = ErrProfileNotFound
				return debitErr
			}
			earnings := profile.ReferralEarnings.SubFloorZero(req.WithdrawalAmount.Decimal)
			if err := profileRepo.UpdateEarnings(req.UserID, earnings, now); err != nil {
				debitErr = err
				return err
			}
			approved = req
			return nil
		})
	})
	if debitErr != nil {
		return nil, s.recordDebitFailure(ctx, input, debitErr)
	}
	if err != nil {
		metrics.WithdrawalTransitions.WithLabelValues(string(constants.WithdrawalStatusApproved), metrics.OutcomeRejected).Inc()
		if errors.Is(err, ErrWithdrawalStatusInvalid) || errors.Is(err, ErrWithdrawalNotFound) {
			return nil, err
		}
		return nil, wrapPersistence(err)
	}

	if err := cache.InvalidateBalance(ctx, approved.UserID); err != nil {
		log.Warnw("balance_cache_invalidate_failed", "user_id", approved.UserID, "error", err)
	}
	metrics.WithdrawalTransitions.WithLabelValues(string(constants.WithdrawalStatusApproved), metrics.OutcomeOK).Inc()
	log.Infow("withdrawal_approved",
		"withdrawal_id", approved.ID,
		"user_id", approved.UserID,
		"admin_id", input.AdminID,
		"withdrawal_amount", approved.WithdrawalAmount.String(),
	)
	return approved, nil
}

// Reject 审核驳回：条件更新状态，不变动账本
func (s *WithdrawalService) Reject(ctx context.Context, input ReviewWithdrawalInput) (*models.WithdrawalRequest, error) {
	if input.RequestID == 0 {
		return nil, ErrWithdrawalNotFound
	}
	ctx = context.WithoutCancel(ctx)

	var rejected *models.WithdrawalRequest
	err := s.retrier.Do(ctx, "withdrawal_reject", func(ctx context.Context) error {
		req, err := s.transition(s.withdrawalRepo.WithContext(ctx), input, constants.WithdrawalStatusRejected, s.now())
		if err != nil {
			return err
		}
		rejected = req
		return nil
	})
	if err != nil {
		metrics.WithdrawalTransitions.WithLabelValues(string(constants.WithdrawalStatusRejected), metrics.OutcomeRejected).Inc()
		if errors.Is(err, ErrWithdrawalStatusInvalid) || errors.Is(err, ErrWithdrawalNotFound) {
			return nil, err
		}
		return nil, wrapPersistence(err)
	}
	metrics.WithdrawalTransitions.WithLabelValues(string(constants.WithdrawalStatusRejected), metrics.OutcomeOK).Inc()
	logger.FromContext(ctx).Infow("withdrawal_rejected",
		"withdrawal_id", rejected.ID,
		"user_id", rejected.UserID,
		"admin_id", input.AdminID,
	)
	return rejected, nil
}

// ListMine 用户自己的提现记录（最新在前）
func (s *WithdrawalService) ListMine(ctx context.Context, userID uint, page, pageSize int) ([]WithdrawalView, int64, error) {
	rows, total, err := s.withdrawalRepo.WithContext(ctx).ListByUser(userID, page, pageSize)
	if err != nil {
		return nil, 0, wrapPersistence(err)
	}
	return s.buildViews(ctx, rows), total, nil
}

// GetActive 用户当前未结束的提现申请，没有时返回 nil
func (s *WithdrawalService) GetActive(ctx context.Context, userID uint) (*WithdrawalView, error) {
	req, err := s.withdrawalRepo.WithContext(ctx).GetActiveByUser(userID)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if req == nil {
		return nil, nil
	}
	views := s.buildViews(ctx, []models.WithdrawalRequest{*req})
	return &views[0], nil
}

// ListAdmin 管理端提现列表，每行附带新的限时凭证链接
func (s *WithdrawalService) ListAdmin(ctx context.Context, filter repository.WithdrawalListFilter) ([]WithdrawalView, int64, error) {
	rows, total, err := s.withdrawalRepo.WithContext(ctx).ListAdmin(filter)
	if err != nil {
		return nil, 0, wrapPersistence(err)
	}
	return s.buildViews(ctx, rows), total, nil
}

// CountByStatus 按状态统计提现申请
func (s *WithdrawalService) CountByStatus(ctx context.Context) (map[constants.WithdrawalStatus]int64, error) {
	counts, err := s.withdrawalRepo.WithContext(ctx).CountByStatus()
	if err != nil {
		return nil, wrapPersistence(err)
	}
	return counts, nil
}

// GetDetail 获取提现申请详情（含凭证链接）
func (s *WithdrawalService) GetDetail(ctx context.Context, id uint) (*WithdrawalView, error) {
	req, err := s.withdrawalRepo.WithContext(ctx).GetByID(id)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if req == nil {
		return nil, ErrWithdrawalNotFound
	}
	views := s.buildViews(ctx, []models.WithdrawalRequest{*req})
	return &views[0], nil
}

func (s *WithdrawalService) transition(repo repository.WithdrawalRepository, input ReviewWithdrawalInput, to constants.WithdrawalStatus, now time.Time) (*models.WithdrawalRequest, error) {
	rows, err := repo.Transition(repository.WithdrawalTransition{
		ID:         input.RequestID,
		From:       sourcesFor(to),
		To:         to,
		ReviewedBy: input.AdminID,
		Notes:      input.Note,
		At:         now,
	})
	if err != nil {
		return nil, err
	}
	req, err := repo.GetByIDForUpdate(input.RequestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrWithdrawalNotFound
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: %s -> %s", ErrWithdrawalStatusInvalid, req.Status, to)
	}
	return req, nil
}

func (s *WithdrawalService) recordDebitFailure(ctx context.Context, input ReviewWithdrawalInput, cause error) error {
	log := logger.FromContext(ctx)
	log.Errorw("withdrawal_approve_debit_failed",
		"withdrawal_id", input.RequestID,
		"admin_id", input.AdminID,
		"error", cause,
	)
	metrics.WithdrawalTransitions.WithLabelValues(string(constants.WithdrawalStatusApproved), metrics.OutcomeError).Inc()

	var userID uint
	if req, err := s.withdrawalRepo.WithContext(ctx).GetByID(input.RequestID); err == nil && req != nil {
		userID = req.UserID
	}
	requestID := input.RequestID
	item := &models.ReconciliationItem{
		Kind:         constants.ReconciliationKindApprovalDebit,
		WithdrawalID: &requestID,
		UserID:       userID,
		Detail:       cause.Error(),
	}
	if err := s.reconRepo.WithContext(ctx).Create(item); err != nil {
		log.Errorw("reconciliation_record_failed", "withdrawal_id", input.RequestID, "error", err)
	} else {
		metrics.ReconciliationItems.WithLabelValues(item.Kind).Inc()
	}
	return &ConsistencyError{WithdrawalID: input.RequestID, ReconciliationID: item.ID, Err: cause}
}

func (s *WithdrawalService) buildViews(ctx context.Context, rows []models.WithdrawalRequest) []WithdrawalView {
	views := make([]WithdrawalView, 0, len(rows))
	for _, row := range rows {
		view := WithdrawalView{WithdrawalRequest: row}
		if row.PaymentScreenshot != nil && *row.PaymentScreenshot != "" {
			link, err := s.proofSvc.Link(ctx, *row.PaymentScreenshot)
			if err != nil {
				logger.FromContext(ctx).Warnw("proof_link_failed", "withdrawal_id", row.ID, "error", err)
			} else {
				view.ProofURL = link
			}
		}
		views = append(views, view)
	}
	return views
}

func (s *WithdrawalService) notifyAdmin(ctx context.Context, withdrawalID uint) {
	if s.queue == nil || !s.queue.Enabled() {
		return
	}
	if err := s.queue.EnqueueWithdrawalNotify(queue.WithdrawalNotifyPayload{WithdrawalID: withdrawalID}); err != nil {
		logger.FromContext(ctx).Warnw("withdrawal_notify_enqueue_failed", "withdrawal_id", withdrawalID, "error", err)
	}
}
