package repository

import (
	"context"
	"strings"

	"github.com/bluepay/internal/constants"
	"github.com/bluepay/internal/models"

	"gorm.io/gorm"
)

// UpgradeRepository 账户升级记录数据访问接口
type UpgradeRepository interface {
	Create(upgrade *models.ReferralUpgrade) error
	Update(upgrade *models.ReferralUpgrade) error
	GetByID(id uint) (*models.ReferralUpgrade, error)
	GetByIDForUpdate(id uint) (*models.ReferralUpgrade, error)
	GetPendingByUser(userID uint) (*models.ReferralUpgrade, error)
	List(filter UpgradeListFilter) ([]models.ReferralUpgrade, int64, error)
	ListProofKeys() ([]string, error)
	WithTx(tx *gorm.DB) UpgradeRepository
	WithContext(ctx context.Context) UpgradeRepository
	Transaction(fn func(tx *gorm.DB) error) error
}

// GormUpgradeRepository GORM 实现
type GormUpgradeRepository struct {
	db *gorm.DB
}

// NewUpgradeRepository 创建账户升级仓库
func NewUpgradeRepository(db *gorm.DB) *GormUpgradeRepository {
	return &GormUpgradeRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUpgradeRepository) WithTx(tx *gorm.DB) UpgradeRepository {
	if tx == nil {
		return r
	}
	return &GormUpgradeRepository{db: tx}
}

// WithContext 绑定请求上下文
func (r *GormUpgradeRepository) WithContext(ctx context.Context) UpgradeRepository {
	if ctx == nil {
		return r
	}
	return &GormUpgradeRepository{db: r.db.WithContext(ctx)}
}

// Transaction 执行事务
func (r *GormUpgradeRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// Create 追加升级记录；用户已有待审核记录时返回 gorm.ErrDuplicatedKey
func (r *GormUpgradeRepository) Create(upgrade *models.ReferralUpgrade) error {
	upgrade.ActiveSlot = models.UpgradeActiveSlotFor(upgrade.PaymentStatus)
	return r.db.Create(upgrade).Error
}

// Update 更新升级记录，审核后释放待审核占位
func (r *GormUpgradeRepository) Update(upgrade *models.ReferralUpgrade) error {
	upgrade.ActiveSlot = models.UpgradeActiveSlotFor(upgrade.PaymentStatus)
	return r.db.Save(upgrade).Error
}

// GetByID 获取升级记录
func (r *GormUpgradeRepository) GetByID(id uint) (*models.ReferralUpgrade, error) {
	if id == 0 {
		return nil, nil
	}
	return firstOrNil[models.ReferralUpgrade](r.db, id)
}

// GetByIDForUpdate 加锁获取升级记录
func (r *GormUpgradeRepository) GetByIDForUpdate(id uint) (*models.ReferralUpgrade, error) {
	if id == 0 {
		return nil, nil
	}
	return firstOrNil[models.ReferralUpgrade](r.db.Clauses(lockForUpdate), id)
}

// GetPendingByUser 获取用户待审核的升级记录
func (r *GormUpgradeRepository) GetPendingByUser(userID uint) (*models.ReferralUpgrade, error) {
	return firstOrNil[models.ReferralUpgrade](r.db.Where("user_id = ? AND payment_status = ?", userID, constants.UpgradePaymentStatusPending).
		Order("id DESC"))
}

// List 升级记录列表，按时间倒序
func (r *GormUpgradeRepository) List(filter UpgradeListFilter) ([]models.ReferralUpgrade, int64, error) {
	query := r.db.Model(&models.ReferralUpgrade{}).Preload("User")
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if status := strings.TrimSpace(filter.PaymentStatus); status != "" {
		query = query.Where("payment_status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.ReferralUpgrade
	if err := query.Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListProofKeys 返回全部已引用的凭证存储键
func (r *GormUpgradeRepository) ListProofKeys() ([]string, error) {
	var keys []string
	if err := r.db.Model(&models.ReferralUpgrade{}).
		Where("payment_proof IS NOT NULL AND payment_proof <> ''").
		Pluck("payment_proof", &keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}
