package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bluepay/internal/constants"
	"github.com/bluepay/internal/models"

	"gorm.io/gorm"
)

// WithdrawalTransition 条件状态迁移参数
type WithdrawalTransition struct {
	ID         uint
	From       []constants.WithdrawalStatus
	To         constants.WithdrawalStatus
	ReviewedBy uint
	Notes      string
	At         time.Time
}

// WithdrawalRepository 提现申请数据访问接口
type WithdrawalRepository interface {
	Create(req *models.WithdrawalRequest) error
	GetByID(id uint) (*models.WithdrawalRequest, error)
	GetByIDForUpdate(id uint) (*models.WithdrawalRequest, error)
	GetActiveByUser(userID uint) (*models.WithdrawalRequest, error)
	ListByUser(userID uint, page, pageSize int) ([]models.WithdrawalRequest, int64, error)
	ListAdmin(filter WithdrawalListFilter) ([]models.WithdrawalRequest, int64, error)
	Transition(input WithdrawalTransition) (int64, error)
	CountByStatus() (map[constants.WithdrawalStatus]int64, error)
	ListProofKeys() ([]string, error)
	WithTx(tx *gorm.DB) WithdrawalRepository
	WithContext(ctx context.Context) WithdrawalRepository
	Transaction(fn func(tx *gorm.DB) error) error
}

// GormWithdrawalRepository GORM 实现
type GormWithdrawalRepository struct {
	db *gorm.DB
}

// NewWithdrawalRepository 创建提现申请仓库
func NewWithdrawalRepository(db *gorm.DB) *GormWithdrawalRepository {
	return &GormWithdrawalRepository{db: db}
}

// WithTx 绑定事务
func (r *GormWithdrawalRepository) WithTx(tx *gorm.DB) WithdrawalRepository {
	if tx == nil {
		return r
	}
	return &GormWithdrawalRepository{db: tx}
}

// WithContext 绑定请求上下文
func (r *GormWithdrawalRepository) WithContext(ctx context.Context) WithdrawalRepository {
	if ctx == nil {
		return r
	}
	return &GormWithdrawalRepository{db: r.db.WithContext(ctx)}
}

// Transaction 执行事务
func (r *GormWithdrawalRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// Create 创建提现申请
func (r *GormWithdrawalRepository) Create(req *models.WithdrawalRequest) error {
	req.ActiveSlot = models.ActiveSlotFor(req.Status)
	return r.db.Create(req).Error
}

// GetByID 获取提现申请
func (r *GormWithdrawalRepository) GetByID(id uint) (*models.WithdrawalRequest, error) {
	if id == 0 {
		return nil, nil
	}
	return firstOrNil[models.WithdrawalRequest](r.db.Preload("User"), id)
}

// GetByIDForUpdate 加锁获取提现申请
func (r *GormWithdrawalRepository) GetByIDForUpdate(id uint) (*models.WithdrawalRequest, error) {
	if id == 0 {
		return nil, nil
	}
	return firstOrNil[models.WithdrawalRequest](r.db.Clauses(lockForUpdate), id)
}

// GetActiveByUser 获取用户未结束的提现申请
func (r *GormWithdrawalRepository) GetActiveByUser(userID uint) (*models.WithdrawalRequest, error) {
	if userID == 0 {
		return nil, nil
	}
	return firstOrNil[models.WithdrawalRequest](r.db.Where("user_id = ? AND active_slot IS NOT NULL", userID).
		Order("id DESC"))
}

// ListByUser 用户自己的提现申请，按时间倒序
func (r *GormWithdrawalRepository) ListByUser(userID uint, page, pageSize int) ([]models.WithdrawalRequest, int64, error) {
	query := r.db.Model(&models.WithdrawalRequest{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, page, pageSize)

	var rows []models.WithdrawalRequest
	if err := query.Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListAdmin 后台提现申请列表，附带用户信息，按时间倒序
func (r *GormWithdrawalRepository) ListAdmin(filter WithdrawalListFilter) ([]models.WithdrawalRequest, int64, error) {
	query := r.db.Model(&models.WithdrawalRequest{}).Preload("User")

	if filter.UserID != 0 {
		query = query.Where("withdrawal_requests.user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("withdrawal_requests.status = ?", filter.Status)
	}
	if condition, args := keywordCondition(r.db, filter.Keyword,
		"u.email",
		"u.full_name",
		"withdrawal_requests.account_name",
		"withdrawal_requests.account_number",
		"withdrawal_requests.bank_name",
	); condition != "" {
		query = query.
			Joins("LEFT JOIN users u ON u.id = withdrawal_requests.user_id").
			Where(condition, args...)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("withdrawal_requests.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("withdrawal_requests.created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.WithdrawalRequest
	if err := query.Order("withdrawal_requests.created_at DESC, withdrawal_requests.id DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Transition 条件更新状态：仅当当前状态属于 From 时写入，返回受影响行数
func (r *GormWithdrawalRepository) Transition(input WithdrawalTransition) (int64, error) {
	if input.ID == 0 || len(input.From) == 0 {
		return 0, nil
	}
	updates := map[string]interface{}{
		"status":      input.To,
		"active_slot": models.ActiveSlotFor(input.To),
		"updated_at":  input.At,
	}
	if input.ReviewedBy != 0 {
		updates["reviewed_by"] = input.ReviewedBy
		updates["reviewed_at"] = input.At
	}
	if notes := strings.TrimSpace(input.Notes); notes != "" {
		updates["notes"] = notes
	}
	result := r.db.Model(&models.WithdrawalRequest{}).
		Where("id = ? AND status IN ?", input.ID, input.From).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// CountByStatus 按状态统计数量
func (r *GormWithdrawalRepository) CountByStatus() (map[constants.WithdrawalStatus]int64, error) {
	var rows []struct {
		Status constants.WithdrawalStatus
		Total  int64
	}
	if err := r.db.Model(&models.WithdrawalRequest{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[constants.WithdrawalStatus]int64, len(rows))
	for _, row := range rows {
		result[row.Status] = row.Total
	}
	return result, nil
}

// ListProofKeys 返回全部已引用的凭证存储键
func (r *GormWithdrawalRepository) ListProofKeys() ([]string, error) {
	var keys []string
	if err := r.db.Model(&models.WithdrawalRequest{}).
		Where("payment_screenshot IS NOT NULL AND payment_screenshot <> ''").
		Pluck("payment_screenshot", &keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}
