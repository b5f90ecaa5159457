package repository

import (
	"context"
	"time"

	"github.com/bluepay/internal/models"

	"gorm.io/gorm"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	GetByEmail(email string) (*models.User, error)
	GetByID(id uint) (*models.User, error)
	ListByIDs(ids []uint) ([]models.User, error)
	Create(user *models.User) error
	UpdateLastLogin(id uint, at time.Time) error
	UpdateStatus(id uint, status string) error
	UpdateProfile(id uint, fullName, phoneNumber, locale string, at time.Time) error
	WithTx(tx *gorm.DB) UserRepository
	WithContext(ctx context.Context) UserRepository
	Transaction(fn func(tx *gorm.DB) error) error
}

// GormUserRepository GORM 实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserRepository) WithTx(tx *gorm.DB) UserRepository {
	if tx == nil {
		return r
	}
	return &GormUserRepository{db: tx}
}

// WithContext 绑定请求上下文
func (r *GormUserRepository) WithContext(ctx context.Context) UserRepository {
	if ctx == nil {
		return r
	}
	return &GormUserRepository{db: r.db.WithContext(ctx)}
}

// Transaction 执行事务
func (r *GormUserRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetByEmail 根据邮箱获取用户
func (r *GormUserRepository) GetByEmail(email string) (*models.User, error) {
	return firstOrNil[models.User](r.db.Where("email = ?", email))
}

// GetByID 根据 ID 获取用户
func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	return firstOrNil[models.User](r.db, id)
}

// ListByIDs 批量获取用户
func (r *GormUserRepository) ListByIDs(ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	if err := r.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Create 创建用户
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// UpdateLastLogin 记录最后登录时间
func (r *GormUserRepository) UpdateLastLogin(id uint, at time.Time) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"last_login_at": at,
		"updated_at":    at,
	}).Error
}

// UpdateStatus 更新用户状态，禁用时令已签发的 Token 失效
func (r *GormUserRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":        status,
		"token_version": gorm.Expr("token_version + 1"),
		"updated_at":    time.Now(),
	}).Error
}

// UpdateProfile 更新用户资料
func (r *GormUserRepository) UpdateProfile(id uint, fullName, phoneNumber, locale string, at time.Time) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"full_name":    fullName,
		"phone_number": phoneNumber,
		"locale":       locale,
		"updated_at":   at,
	}).Error
}
