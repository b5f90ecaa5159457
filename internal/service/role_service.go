package service

import (
	"context"
	"sort"
	"time"

	"github.com/bluepay/internal/authz"
	"github.com/bluepay/internal/constants"
	"github.com/bluepay/internal/logger"
	"github.com/bluepay/internal/models"
	"github.com/bluepay/internal/repository"
)

// RoleStore 角色存储（casbin 实现）
type RoleStore interface {
	HasRole(userID uint, role string) (bool, error)
	GetUserRoles(userID uint) ([]string, error)
	SetUserRoles(userID uint, roles []string) error
}

// SetUserRolesInput 角色覆盖设置输入
type SetUserRolesInput struct {
	OperatorID   uint
	TargetUserID uint
	Roles        []string
	RequestID    string
}

// RoleService 角色管理服务（含审计）
type RoleService struct {
	store     RoleStore
	userRepo  repository.UserRepository
	auditRepo repository.RoleAuditLogRepository
}

// NewRoleService 创建角色管理服务
func NewRoleService(store RoleStore, userRepo repository.UserRepository, auditRepo repository.RoleAuditLogRepository) *RoleService {
	return &RoleService{store: store, userRepo: userRepo, auditRepo: auditRepo}
}

// IsAdmin 判断用户是否为管理员
func (s *RoleService) IsAdmin(userID uint) (bool, error) {
	if s == nil || s.store == nil {
		return false, nil
	}
	return s.store.HasRole(userID, authz.RoleAdmin)
}

// GetRoles 查询用户角色
func (s *RoleService) GetRoles(ctx context.Context, userID uint) ([]string, error) {
	user, err := s.userRepo.WithContext(ctx).GetByID(userID)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return s.store.GetUserRoles(userID)
}

// SetRoles 覆盖设置用户角色并写审计日志
func (s *RoleService) SetRoles(ctx context.Context, input SetUserRolesInput) ([]string, error) {
	user, err := s.userRepo.WithContext(ctx).GetByID(input.TargetUserID)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	desired := make([]string, 0, len(input.Roles))
	seen := make(map[string]struct{}, len(input.Roles))
	for _, role := range input.Roles {
		normalized, err := authz.NormalizeRole(role)
		if err != nil {
			return nil, newValidationErrorWith("roles", "error.role_invalid", err)
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		desired = append(desired, normalized)
	}
	sort.Strings(desired)

	// 操作人不能撤销自己的 admin 角色
	if input.OperatorID == input.TargetUserID {
		if _, keep := seen[authz.RoleAdmin]; !keep {
			return nil, ErrForbidden
		}
	}

	current, err := s.store.GetUserRoles(input.TargetUserID)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetUserRoles(input.TargetUserID, desired); err != nil {
		return nil, err
	}

	granted, revoked := diffRoles(current, desired)
	now := time.Now()
	for _, role := range granted {
		s.record(ctx, input, constants.RoleAuditActionGrant, role, now)
	}
	for _, role := range revoked {
		s.record(ctx, input, constants.RoleAuditActionRevoke, role, now)
	}
	logger.FromContext(ctx).Infow("user_roles_updated",
		"operator_id", input.OperatorID,
		"target_user_id", input.TargetUserID,
		"granted", granted,
		"revoked", revoked,
	)
	return desired, nil
}

// ListAudit 查询角色审计日志
func (s *RoleService) ListAudit(filter repository.RoleAuditLogListFilter) ([]models.RoleAuditLog, int64, error) {
	rows, total, err := s.auditRepo.List(filter)
	if err != nil {
		return nil, 0, wrapPersistence(err)
	}
	return rows, total, nil
}

func (s *RoleService) record(ctx context.Context, input SetUserRolesInput, action, role string, now time.Time) {
	if s.auditRepo == nil {
		return
	}
	item := &models.RoleAuditLog{
		OperatorUserID: input.OperatorID,
		TargetUserID:   input.TargetUserID,
		Action:         action,
		Role:           role,
		RequestID:      input.RequestID,
		DetailJSON:     models.JSON{"roles": input.Roles},
		CreatedAt:      now,
	}
	if err := s.auditRepo.Create(item); err != nil {
		logger.FromContext(ctx).Warnw("role_audit_write_failed",
			"target_user_id", input.TargetUserID,
			"action", action,
			"error", err,
		)
	}
}

func diffRoles(current, desired []string) (granted, revoked []string) {
	currentSet := make(map[string]struct{}, len(current))
	for _, role := range current {
		currentSet[role] = struct{}{}
	}
	desiredSet := make(map[string]struct{}, len(desired))
	for _, role := range desired {
		desiredSet[role] = struct{}{}
		if _, ok := currentSet[role]; !ok {
			granted = append(granted, role)
		}
	}
	for _, role := range current {
		if _, ok := desiredSet[role]; !ok {
			revoked = append(revoked, role)
		}
	}
	return granted, revoked
}
