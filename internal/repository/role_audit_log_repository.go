package repository

import (
	"github.com/bluepay/internal/models"

	"gorm.io/gorm"
)

// RoleAuditLogRepository 角色审计日志数据访问接口
type RoleAuditLogRepository interface {
	Create(log *models.RoleAuditLog) error
	List(filter RoleAuditLogListFilter) ([]models.RoleAuditLog, int64, error)
}

// GormRoleAuditLogRepository GORM 实现
type GormRoleAuditLogRepository struct {
	db *gorm.DB
}

// NewRoleAuditLogRepository 创建角色审计日志仓库
func NewRoleAuditLogRepository(db *gorm.DB) *GormRoleAuditLogRepository {
	return &GormRoleAuditLogRepository{db: db}
}

// Create 创建角色审计日志
func (r *GormRoleAuditLogRepository) Create(log *models.RoleAuditLog) error {
	if log == nil {
		return nil
	}
	return r.db.Create(log).Error
}

// List 查询角色审计日志
func (r *GormRoleAuditLogRepository) List(filter RoleAuditLogListFilter) ([]models.RoleAuditLog, int64, error) {
	query := r.db.Model(&models.RoleAuditLog{})
	if filter.OperatorUserID != 0 {
		query = query.Where("operator_user_id = ?", filter.OperatorUserID)
	}
	if filter.TargetUserID != 0 {
		query = query.Where("target_user_id = ?", filter.TargetUserID)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	logs := make([]models.RoleAuditLog, 0)
	if err := query.Order("id DESC").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
