package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bluepay/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProfileRepository 推荐档案与推荐奖励数据访问接口
type ProfileRepository interface {
	GetByUserID(userID uint) (*models.Profile, error)
	GetByUserIDForUpdate(userID uint) (*models.Profile, error)
	GetByCode(code string) (*models.Profile, error)
	Create(profile *models.Profile) error
	UpdateEarnings(userID uint, earnings models.Money, updatedAt time.Time) error
	CreditReferral(referrerID uint, amount decimal.Decimal, updatedAt time.Time) error
	SetReferredBy(userID, referrerID uint, updatedAt time.Time) (int64, error)
	SetUpgraded(userID uint, rate models.Money, updatedAt time.Time) error
	CreateCredit(credit *models.ReferralCredit) error
	GetCreditByReferee(refereeID uint) (*models.ReferralCredit, error)
	ListCreditsByReferrer(referrerID uint, page, pageSize int) ([]models.ReferralCredit, int64, error)
	WithTx(tx *gorm.DB) ProfileRepository
	WithContext(ctx context.Context) ProfileRepository
	Transaction(fn func(tx *gorm.DB) error) error
}

// GormProfileRepository GORM 实现
type GormProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository 创建推荐档案仓库
func NewProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProfileRepository) WithTx(tx *gorm.DB) ProfileRepository {
	if tx == nil {
		return r
	}
	return &GormProfileRepository{db: tx}
}

// WithContext 绑定请求上下文
func (r *GormProfileRepository) WithContext(ctx context.Context) ProfileRepository {
	if ctx == nil {
		return r
	}
	return &GormProfileRepository{db: r.db.WithContext(ctx)}
}

// Transaction 执行事务
func (r *GormProfileRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetByUserID 按用户获取档案
func (r *GormProfileRepository) GetByUserID(userID uint) (*models.Profile, error) {
	if userID == 0 {
		return nil, nil
	}
	return firstOrNil[models.Profile](r.db.Where("user_id = ?", userID))
}

// GetByUserIDForUpdate 按用户加锁获取档案
func (r *GormProfileRepository) GetByUserIDForUpdate(userID uint) (*models.Profile, error) {
	if userID == 0 {
		return nil, nil
	}
	return firstOrNil[models.Profile](r.db.Clauses(lockForUpdate).Where("user_id = ?", userID))
}

// GetByCode 按推荐码获取档案
func (r *GormProfileRepository) GetByCode(code string) (*models.Profile, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}
	return firstOrNil[models.Profile](r.db.Where("referral_code = ?", code))
}

// Create 创建档案
func (r *GormProfileRepository) Create(profile *models.Profile) error {
	return r.db.Create(profile).Error
}

// UpdateEarnings 覆盖写入推荐收益
func (r *GormProfileRepository) UpdateEarnings(userID uint, earnings models.Money, updatedAt time.Time) error {
	result := r.db.Model(&models.Profile{}).Where("user_id = ?", userID).Updates(map[string]interface{}{
		"referral_earnings": earnings,
		"updated_at":        updatedAt,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreditReferral 推荐人计数加一并累加奖励
func (r *GormProfileRepository) CreditReferral(referrerID uint, amount decimal.Decimal, updatedAt time.Time) error {
	result := r.db.Model(&models.Profile{}).Where("user_id = ?", referrerID).Updates(map[string]interface{}{
		"referral_count":    gorm.Expr("referral_count + 1"),
		"referral_earnings": gorm.Expr("referral_earnings + ?", amount.Round(2).String()),
		"updated_at":        updatedAt,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetReferredBy 仅在尚未绑定推荐人时写入
func (r *GormProfileRepository) SetReferredBy(userID, referrerID uint, updatedAt time.Time) (int64, error) {
	result := r.db.Model(&models.Profile{}).
		Where("user_id = ? AND referred_by IS NULL", userID).
		Updates(map[string]interface{}{
			"referred_by": referrerID,
			"updated_at":  updatedAt,
		})
	return result.RowsAffected, result.Error
}

// SetUpgraded 标记账户已升级并写入新的推荐奖励
func (r *GormProfileRepository) SetUpgraded(userID uint, rate models.Money, updatedAt time.Time) error {
	return r.db.Model(&models.Profile{}).Where("user_id = ?", userID).Updates(map[string]interface{}{
		"account_upgraded": true,
		"referral_rate":    rate,
		"updated_at":       updatedAt,
	}).Error
}

// CreateCredit 写入推荐奖励记录
func (r *GormProfileRepository) CreateCredit(credit *models.ReferralCredit) error {
	return r.db.Create(credit).Error
}

// GetCreditByReferee 按被推荐人查询奖励记录
func (r *GormProfileRepository) GetCreditByReferee(refereeID uint) (*models.ReferralCredit, error) {
	return firstOrNil[models.ReferralCredit](r.db.Where("referee_id = ?", refereeID))
}

// ListCreditsByReferrer 推荐人的奖励记录
func (r *GormProfileRepository) ListCreditsByReferrer(referrerID uint, page, pageSize int) ([]models.ReferralCredit, int64, error) {
	query := r.db.Model(&models.ReferralCredit{}).Where("referrer_id = ?", referrerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, page, pageSize)

	var credits []models.ReferralCredit
	if err := query.Order("id DESC").Find(&credits).Error; err != nil {
		return nil, 0, err
	}
	return credits, total, nil
}
