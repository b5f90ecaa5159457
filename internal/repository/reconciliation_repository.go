package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bluepay/internal/constants"
	"github.com/bluepay/internal/models"

	"gorm.io/gorm"
)

// ReconciliationRepository 对账事项数据访问接口
type ReconciliationRepository interface {
	Create(item *models.ReconciliationItem) error
	GetByID(id uint) (*models.ReconciliationItem, error)
	GetOpenByBlobKey(kind, blobKey string) (*models.ReconciliationItem, error)
	List(filter ReconciliationListFilter) ([]models.ReconciliationItem, int64, error)
	MarkResolved(id uint, at time.Time) (int64, error)
	WithContext(ctx context.Context) ReconciliationRepository
}

// GormReconciliationRepository GORM 实现
type GormReconciliationRepository struct {
	db *gorm.DB
}

// NewReconciliationRepository 创建对账事项仓库
func NewReconciliationRepository(db *gorm.DB) *GormReconciliationRepository {
	return &GormReconciliationRepository{db: db}
}

// WithContext 绑定请求上下文
func (r *GormReconciliationRepository) WithContext(ctx context.Context) ReconciliationRepository {
	if ctx == nil {
		return r
	}
	return &GormReconciliationRepository{db: r.db.WithContext(ctx)}
}

// Create 记录对账事项
func (r *GormReconciliationRepository) Create(item *models.ReconciliationItem) error {
	if item.Status == "" {
		item.Status = constants.ReconciliationStatusOpen
	}
	return r.db.Create(item).Error
}

// GetByID 获取对账事项
func (r *GormReconciliationRepository) GetByID(id uint) (*models.ReconciliationItem, error) {
	return firstOrNil[models.ReconciliationItem](r.db, id)
}

// GetOpenByBlobKey 获取某个存储键未处理的对账事项
func (r *GormReconciliationRepository) GetOpenByBlobKey(kind, blobKey string) (*models.ReconciliationItem, error) {
	return firstOrNil[models.ReconciliationItem](r.db.Where("kind = ? AND blob_key = ? AND status = ?", kind, blobKey, constants.ReconciliationStatusOpen))
}

// List 对账事项列表
func (r *GormReconciliationRepository) List(filter ReconciliationListFilter) ([]models.ReconciliationItem, int64, error) {
	query := r.db.Model(&models.ReconciliationItem{})
	if kind := strings.TrimSpace(filter.Kind); kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.ReconciliationItem
	if err := query.Order("id DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// MarkResolved 标记为已处理
func (r *GormReconciliationRepository) MarkResolved(id uint, at time.Time) (int64, error) {
	result := r.db.Model(&models.ReconciliationItem{}).
		Where("id = ? AND status = ?", id, constants.ReconciliationStatusOpen).
		Updates(map[string]interface{}{
			"status":      constants.ReconciliationStatusResolved,
			"resolved_at": at,
			"updated_at":  at,
		})
	return result.RowsAffected, result.Error
}
