package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bluepay/internal/cache"
	"github.com/bluepay/internal/config"
	"github.com/bluepay/internal/constants"
	"github.com/bluepay/internal/logger"
	"github.com/bluepay/internal/models"
	"github.com/bluepay/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WalletService 钱包服务（余额读穿缓存、提现到银行卡、管理员调整）
type WalletService struct {
	gate        *FeeGate
	walletRepo  repository.WalletRepository
	profileRepo repository.ProfileRepository
	retrier     *Retrier
	balanceTTL  time.Duration
	currency    string
	now         func() time.Time
}

// BalanceView 用户余额视图
type BalanceView struct {
	UserID           uint         `json:"user_id"`
	ReferralEarnings models.Money `json:"referral_earnings"`
	WalletBalance    models.Money `json:"wallet_balance"`
	Currency         string       `json:"currency"`
	Cached           bool         `json:"-"`
}

// WalletAdjustInput 管理员余额调整输入
type WalletAdjustInput struct {
	OperatorID uint
	UserID     uint
	Delta      decimal.Decimal
	Remark     string
}

// NewWalletService 创建钱包服务
func NewWalletService(
	cfg *config.Config,
	gate *FeeGate,
	walletRepo repository.WalletRepository,
	profileRepo repository.ProfileRepository,
	retrier *Retrier,
) *WalletService {
	ttl := time.Duration(cfg.Redis.BalanceTTLSeconds) * time.Second
	currency := strings.ToUpper(strings.TrimSpace(cfg.App.Currency))
	if currency == "" {
		currency = constants.CurrencyDefault
	}
	return &WalletService{
		gate:        gate,
		walletRepo:  walletRepo,
		profileRepo: profileRepo,
		retrier:     retrier,
		balanceTTL:  ttl,
		currency:    currency,
		now:         time.Now,
	}
}

// GetBalance 读取余额，优先命中 Redis 快照
func (s *WalletService) GetBalance(ctx context.Context, userID uint) (*BalanceView, error) {
	if userID == 0 {
		return nil, ErrWalletAccountNotFound
	}
	if snapshot, hit, err := cache.GetBalance(ctx, userID); err == nil && hit && snapshot != nil {
		earnings, errEarnings := decimal.NewFromString(snapshot.ReferralEarnings)
		balance, errBalance := decimal.NewFromString(snapshot.WalletBalance)
		if errEarnings == nil && errBalance == nil {
			return &BalanceView{
				UserID:           userID,
				ReferralEarnings: models.NewMoneyFromDecimal(earnings),
				WalletBalance:    models.NewMoneyFromDecimal(balance),
				Currency:         s.currency,
				Cached:           true,
			}, nil
		}
	} else if err != nil {
		logger.FromContext(ctx).Warnw("balance_cache_read_failed", "user_id", userID, "error", err)
	}

	profile, err := s.profileRepo.WithContext(ctx).GetByUserID(userID)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	account, err := s.walletRepo.WithContext(ctx).GetAccountByUserID(userID)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	walletBalance := models.ZeroMoney()
	if account != nil {
		walletBalance = account.Balance
	}
	view := &BalanceView{
		UserID:           userID,
		ReferralEarnings: profile.ReferralEarnings,
		WalletBalance:    walletBalance,
		Currency:         s.currency,
	}
	if err := cache.SetBalance(ctx, &cache.BalanceSnapshot{
		UserID:           userID,
		ReferralEarnings: view.ReferralEarnings.String(),
		WalletBalance:    view.WalletBalance.String(),
		UpdatedAt:        s.now().Unix(),
	}, s.balanceTTL); err != nil {
		logger.FromContext(ctx).Warnw("balance_cache_write_failed", "user_id", userID, "error", err)
	}
	return view, nil
}

// EnsureAccount 在给定仓库（可为事务）上确保钱包账户存在
func (s *WalletService) EnsureAccount(repo repository.WalletRepository, userID uint) (*models.WalletAccount, error) {
	account, err := repo.GetAccountByUserID(userID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	now := s.now()
	account = &models.WalletAccount{
		UserID:    userID,
		Balance:   models.ZeroMoney(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateAccount(account); err != nil {
		return nil, err
	}
	return account, nil
}

// WithdrawToBank 钱包余额提现到银行卡（需激活码）
func (s *WalletService) WithdrawToBank(ctx context.Context, userID uint, input WithdrawalInput) (*models.WalletAccount, *models.WalletTransaction, error) {
	if userID == 0 {
		return nil, nil, ErrWalletAccountNotFound
	}
	input.Flow = constants.WithdrawalFlowWallet
	validated, err := s.gate.ValidateFields(input)
	if err != nil {
		return nil, nil, err
	}
	reference := fmt.Sprintf("bank:%s:%s:%s", validated.BankName, validated.AccountNumber, validated.AccountName)
	account, txn, err := s.changeBalance(ctx, userID, validated.WithdrawalAmount.Neg(), constants.WalletTxnTypeWithdraw, reference, "提现到银行卡")
	if err != nil {
		return nil, nil, err
	}
	logger.FromContext(ctx).Infow("wallet_withdrawn",
		"user_id", userID,
		"amount", txn.Amount.String(),
		"bank_name", validated.BankName,
	)
	return account, txn, nil
}

// AdminAdjust 管理员增减用户钱包余额
func (s *WalletService) AdminAdjust(ctx context.Context, input WalletAdjustInput) (*models.WalletAccount, *models.WalletTransaction, error) {
	if input.UserID == 0 {
		return nil, nil, ErrWalletAccountNotFound
	}
	delta := input.Delta.Round(2)
	if delta.IsZero() {
		return nil, nil, newValidationErrorWith("delta", "error.wallet_amount_invalid", ErrInvalidAmount)
	}
	reference := fmt.Sprintf("admin_adjust:%d:%d", input.OperatorID, s.now().UnixNano())
	account, txn, err := s.changeBalance(ctx, input.UserID, delta, constants.WalletTxnTypeAdminAdjust, reference, cleanWalletRemark(input.Remark, "管理员调整余额"))
	if err != nil {
		return nil, nil, err
	}
	logger.FromContext(ctx).Infow("wallet_admin_adjusted",
		"user_id", input.UserID,
		"operator_id", input.OperatorID,
		"delta", delta.String(),
	)
	return account, txn, nil
}

// ListTransactions 查询钱包流水
func (s *WalletService) ListTransactions(ctx context.Context, filter repository.WalletTransactionListFilter) ([]models.WalletTransaction, int64, error) {
	rows, total, err := s.walletRepo.WithContext(ctx).ListTransactions(filter)
	if err != nil {
		return nil, 0, wrapPersistence(err)
	}
	return rows, total, nil
}

func (s *WalletService) changeBalance(ctx context.Context, userID uint, delta decimal.Decimal, txnType, reference, remark string) (*models.WalletAccount, *models.WalletTransaction, error) {
	ctx = context.WithoutCancel(ctx)
	var accountResult *models.WalletAccount
	var txnResult *models.WalletTransaction
	err := s.retrier.Do(ctx, "wallet_change_balance", func(ctx context.Context) error {
		return s.walletRepo.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			repo := s.walletRepo.WithTx(tx)
			now := s.now()
			account, err := s.ensureAccountForUpdate(repo, userID, now)
			if err != nil {
				return err
			}

			before := account.Balance.Decimal.Round(2)
			after := before.Add(delta).Round(2)
			if after.LessThan(decimal.Zero) {
				return ErrWalletInsufficientBalance
			}
			direction := constants.WalletTxnDirectionIn
			amount := delta.Round(2)
			if delta.LessThan(decimal.Zero) {
				direction = constants.WalletTxnDirectionOut
				amount = delta.Abs().Round(2)
			}

			account.Balance = models.NewMoneyFromDecimal(after)
			account.UpdatedAt = now
			if err := repo.UpdateAccount(account); err != nil {
				return err
			}
			txn := &models.WalletTransaction{
				UserID:        userID,
				Type:          txnType,
				Direction:     direction,
				Amount:        models.NewMoneyFromDecimal(amount),
				BalanceBefore: models.NewMoneyFromDecimal(before),
				BalanceAfter:  models.NewMoneyFromDecimal(after),
				Reference:     strings.TrimSpace(reference),
				Remark:        remark,
				CreatedAt:     now,
			}
			if err := repo.CreateTransaction(txn); err != nil {
				return err
			}
			accountResult = account
			txnResult = txn
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, ErrWalletInsufficientBalance) {
			return nil, nil, err
		}
		return nil, nil, wrapPersistence(err)
	}
	if err := cache.InvalidateBalance(ctx, userID); err != nil {
		logger.FromContext(ctx).Warnw("balance_cache_invalidate_failed", "user_id", userID, "error", err)
	}
	return accountResult, txnResult, nil
}

func (s *WalletService) ensureAccountForUpdate(repo repository.WalletRepository, userID uint, now time.Time) (*models.WalletAccount, error) {
	account, err := repo.GetAccountByUserIDForUpdate(userID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	account = &models.WalletAccount{
		UserID:    userID,
		Balance:   models.ZeroMoney(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateAccount(account); err != nil {
		created, queryErr := repo.GetAccountByUserIDForUpdate(userID)
		if queryErr == nil && created != nil {
			return created, nil
		}
		return nil, err
	}
	return account, nil
}

func cleanWalletRemark(raw string, fallback string) string {
	remark := strings.TrimSpace(raw)
	if remark == "" {
		return fallback
	}
	return remark
}
