package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/bluepay/internal/cache"
	"github.com/bluepay/internal/config"
	"github.com/bluepay/internal/logger"
	"github.com/bluepay/internal/metrics"
	"github.com/bluepay/internal/models"
	"github.com/bluepay/internal/repository"

	"gorm.io/gorm"
)

const (
	referralCodeAlphabet      = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	defaultReferralCodeLength = 8
	referralCodeMaxRetry      = 8
)

// ReferralService 推荐档案与推荐奖励
type ReferralService struct {
	cfg         config.ReferralConfig
	profileRepo repository.ProfileRepository
	retrier     *Retrier
	now         func() time.Time
	newCode     func() (string, error)
}

var errReferralCodeExhausted = errors.New("推荐码生成次数耗尽")

// ReferralSummary 推荐概览
type ReferralSummary struct {
	ReferralCode     string                  `json:"referral_code"`
	ReferralCount    int                     `json:"referral_count"`
	ReferralEarnings models.Money            `json:"referral_earnings"`
	ReferralRate     models.Money            `json:"referral_rate"`
	AccountUpgraded  bool                    `json:"account_upgraded"`
	Credits          []models.ReferralCredit `json:"credits"`
	CreditTotal      int64                   `json:"credit_total"`
}

// NewReferralService 创建推荐服务
func NewReferralService(cfg config.ReferralConfig, profileRepo repository.ProfileRepository, retrier *Retrier) *ReferralService {
	s := &ReferralService{
		cfg:         cfg,
		profileRepo: profileRepo,
		retrier:     retrier,
		now:         time.Now,
	}
	s.newCode = s.generateCode
	return s
}

// CreateProfile 在给定仓库（可为事务）上为用户创建推荐档案，推荐码冲突时重新生成；档案已存在时直接返回
func (s *ReferralService) CreateProfile(repo repository.ProfileRepository, userID uint) (*models.Profile, error) {
	existing, err := repo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	for i := 0; i < referralCodeMaxRetry; i++ {
		code, err := s.newCode()
		if err != nil {
			return nil, err
		}
		profile := &models.Profile{
			UserID:           userID,
			ReferralCode:     code,
			ReferralEarnings: models.ZeroMoney(),
			ReferralRate:     models.NewMoneyFromDecimal(s.cfg.Rate()),
		}
		err = repo.Transaction(func(tx *gorm.DB) error {
			return repo.WithTx(tx).Create(profile)
		})
		if err == nil {
			return profile, nil
		}
		if !isUniqueViolation(err) {
			return nil, err
		}
		// 唯一约束冲突：user_id 冲突说明档案已被并发创建，否则为推荐码碰撞
		existing, err = repo.GetByUserID(userID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}
	return nil, wrapPersistence(errReferralCodeExhausted)
}

// ProcessReferral 注册时为推荐人发放一次奖励；失败返回可忽略的错误
func (s *ReferralService) ProcessReferral(ctx context.Context, newUserID uint, referrerCode string) error {
	code := normalizeReferralCode(referrerCode)
	if code == "" || newUserID == 0 {
		metrics.ReferralCredits.WithLabelValues(metrics.OutcomeRejected).Inc()
		return ErrReferralCodeInvalid
	}
	ctx = context.WithoutCancel(ctx)

	var credit *models.ReferralCredit
	err := s.retrier.Do(ctx, "referral_credit", func(ctx context.Context) error {
		credit = nil
		return s.profileRepo.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			repo := s.profileRepo.WithTx(tx)
			referrer, err := repo.GetByCode(code)
			if err != nil {
				return err
			}
			if referrer == nil {
				return ErrReferralCodeInvalid
			}
			if referrer.UserID == newUserID {
				return ErrReferralSelf
			}
			existing, err := repo.GetCreditByReferee(newUserID)
			if err != nil {
				return err
			}
			if existing != nil {
				return ErrReferralAlreadyCredited
			}
			referee, err := repo.GetByUserIDForUpdate(newUserID)
			if err != nil {
				return err
			}
			if referee == nil {
				return ErrProfileNotFound
			}

			amount := referrer.ReferralRate.Decimal.Round(2)
			if amount.IsZero() {
				amount = s.cfg.Rate()
			}
			now := s.now()
			record := &models.ReferralCredit{
				ReferrerID: referrer.UserID,
				RefereeID:  newUserID,
				Code:       code,
				Amount:     models.NewMoneyFromDecimal(amount),
				CreatedAt:  now,
			}
			if err := repo.CreateCredit(record); err != nil {
				if isUniqueViolation(err) {
					return ErrReferralAlreadyCredited
				}
				return err
			}
			rows, err := repo.SetReferredBy(newUserID, referrer.UserID, now)
			if err != nil {
				return err
			}
			if rows == 0 {
				return ErrReferralAlreadyCredited
			}
			if err := repo.CreditReferral(referrer.UserID, amount, now); err != nil {
				return err
			}
			credit = record
			return nil
		})
	})
	if err != nil {
		outcome := metrics.OutcomeRejected
		if !isReferralSoftFail(err) {
			outcome = metrics.OutcomeError
			err = wrapPersistence(err)
		}
		metrics.ReferralCredits.WithLabelValues(outcome).Inc()
		return err
	}

	if err := cache.InvalidateBalance(ctx, credit.ReferrerID); err != nil {
		logger.FromContext(ctx).Warnw("balance_cache_invalidate_failed", "user_id", credit.ReferrerID, "error", err)
	}
	metrics.ReferralCredits.WithLabelValues(metrics.OutcomeOK).Inc()
	logger.FromContext(ctx).Infow("referral_credited",
		"referrer_id", credit.ReferrerID,
		"referee_id", credit.RefereeID,
		"amount", credit.Amount.String(),
	)
	return nil
}

// Summary 推荐概览与奖励记录
func (s *ReferralService) Summary(ctx context.Context, userID uint, page, pageSize int) (*ReferralSummary, error) {
	repo := s.profileRepo.WithContext(ctx)
	profile, err := repo.GetByUserID(userID)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	credits, total, err := repo.ListCreditsByReferrer(userID, page, pageSize)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	return &ReferralSummary{
		ReferralCode:     profile.ReferralCode,
		ReferralCount:    profile.ReferralCount,
		ReferralEarnings: profile.ReferralEarnings,
		ReferralRate:     profile.ReferralRate,
		AccountUpgraded:  profile.AccountUpgraded,
		Credits:          credits,
		CreditTotal:      total,
	}, nil
}

func (s *ReferralService) generateCode() (string, error) {
	length := s.cfg.CodeLength
	if length <= 0 {
		length = defaultReferralCodeLength
	}
	var builder strings.Builder
	builder.Grow(length)
	max := big.NewInt(int64(len(referralCodeAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		builder.WriteByte(referralCodeAlphabet[n.Int64()])
	}
	return builder.String(), nil
}

func normalizeReferralCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

func isReferralSoftFail(err error) bool {
	return errors.Is(err, ErrReferralCodeInvalid) ||
		errors.Is(err, ErrReferralSelf) ||
		errors.Is(err, ErrReferralAlreadyCredited)
}
