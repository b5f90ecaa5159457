package authz

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	apiV1Prefix     = "/api/v1"
	casbinTableName = "casbin_rule"
	userSubjectFmt  = "user:%d"
	rolePrefix      = "role:"
	// 所有角色挂在锚点下，使空角色也能被列出
	roleAnchor = "role:__anchor__"
	groupPtype = "g"
)

// RoleAdmin 管理员角色（审核提现与升级、管理角色）
const RoleAdmin = rolePrefix + "admin"

// 授权错误
var (
	ErrUnavailable  = errors.New("authz service unavailable")
	ErrRoleRequired = errors.New("role is required")
	ErrReservedRole = errors.New("reserved role is not allowed")
	ErrUserRequired = errors.New("user id is required")
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// Policy 权限策略
type Policy struct {
	Subject string `json:"subject"`
	Object  string `json:"object"`
	Action  string `json:"action"`
}

// Service 基于 Casbin 的角色存储，角色只按服务端用户 ID 归属
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService 创建授权服务，策略持久化在 casbin_rule 表
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, errors.New("authz db is nil")
	}
	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, fmt.Errorf("create authz adapter: %w", err)
	}
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("init authz enforcer: %w", err)
	}
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("load authz policy: %w", err)
	}
	return &Service{enforcer: enforcer}, nil
}

func (s *Service) ready() error {
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}
	return nil
}

// Enforce 执行授权判断
func (s *Service) Enforce(sub, obj, act string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	return s.enforcer.Enforce(strings.TrimSpace(sub), NormalizeObject(obj), NormalizeAction(act))
}

// EnforceUser 按用户 ID 判定路由授权
func (s *Service) EnforceUser(userID uint, obj, act string) (bool, error) {
	return s.Enforce(SubjectForUser(userID), obj, act)
}

// HasRole 判断用户是否直接或经继承拥有角色
func (s *Service) HasRole(userID uint, role string) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	want, err := NormalizeRole(role)
	if err != nil {
		return false, err
	}
	if err := s.ready(); err != nil {
		return false, err
	}
	roles, err := s.enforcer.GetImplicitRolesForUser(SubjectForUser(userID))
	if err != nil {
		return false, fmt.Errorf("get implicit roles: %w", err)
	}
	for _, item := range roles {
		if item == want {
			return true, nil
		}
	}
	return false, nil
}

// EnsureRole 确保角色存在并返回规范化名称
func (s *Service) EnsureRole(role string) (string, error) {
	normalized, err := NormalizeRole(role)
	if err != nil {
		return "", err
	}
	if normalized == roleAnchor {
		return "", ErrReservedRole
	}
	if err := s.ensureGrouping(normalized, roleAnchor); err != nil {
		return "", err
	}
	return normalized, nil
}

// ListRoles 列出全部角色
func (s *Service) ListRoles() ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rules, err := s.enforcer.GetFilteredNamedGroupingPolicy(groupPtype, 1, roleAnchor)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	roles := make([]string, 0, len(rules))
	for _, rule := range rules {
		roles = append(roles, rule[0])
	}
	sort.Strings(roles)
	return roles, nil
}

// GrantRolePolicy 为角色授予路由策略
func (s *Service) GrantRolePolicy(role, object, action string) error {
	normalizedRole, err := s.EnsureRole(role)
	if err != nil {
		return err
	}
	act := NormalizeAction(action)
	if act == "" {
		return errors.New("action is required")
	}
	if _, err := s.enforcer.AddPolicy(normalizedRole, NormalizeObject(object), act); err != nil {
		return fmt.Errorf("grant policy: %w", err)
	}
	return nil
}

// SetUserRoles 覆盖设置用户角色，仅增删差异部分
func (s *Service) SetUserRoles(userID uint, roles []string) error {
	if userID == 0 {
		return ErrUserRequired
	}
	if err := s.ready(); err != nil {
		return err
	}
	want := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		normalized, err := s.EnsureRole(role)
		if err != nil {
			return err
		}
		want[normalized] = struct{}{}
	}

	subject := SubjectForUser(userID)
	current, err := s.enforcer.GetRolesForUser(subject)
	if err != nil {
		return fmt.Errorf("get user roles: %w", err)
	}
	for _, role := range current {
		if _, keep := want[role]; keep {
			delete(want, role)
			continue
		}
		if _, err := s.enforcer.RemoveNamedGroupingPolicy(groupPtype, subject, role); err != nil {
			return fmt.Errorf("revoke user role: %w", err)
		}
	}
	for role := range want {
		if _, err := s.enforcer.AddNamedGroupingPolicy(groupPtype, subject, role); err != nil {
			return fmt.Errorf("assign user role: %w", err)
		}
	}
	return nil
}

// GetUserRoles 查询用户直接拥有的角色
func (s *Service) GetUserRoles(userID uint) ([]string, error) {
	if userID == 0 {
		return nil, ErrUserRequired
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	roles, err := s.enforcer.GetRolesForUser(SubjectForUser(userID))
	if err != nil {
		return nil, fmt.Errorf("get user roles: %w", err)
	}
	filtered := make([]string, 0, len(roles))
	for _, role := range roles {
		if strings.HasPrefix(role, rolePrefix) && role != roleAnchor {
			filtered = append(filtered, role)
		}
	}
	sort.Strings(filtered)
	return filtered, nil
}

func (s *Service) ensureGrouping(child, parent string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.enforcer.AddNamedGroupingPolicy(groupPtype, child, parent); err != nil {
		return fmt.Errorf("add grouping %s -> %s: %w", child, parent, err)
	}
	return nil
}

// SubjectForUser 生成用户主体标识
func SubjectForUser(userID uint) string {
	return fmt.Sprintf(userSubjectFmt, userID)
}

// NormalizeRole 统一角色名称：小写、空格转下划线、补 role: 前缀
func NormalizeRole(role string) (string, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(role)), " ", "_")
	normalized = strings.TrimPrefix(normalized, rolePrefix)
	if normalized == "" {
		return "", ErrRoleRequired
	}
	return rolePrefix + normalized, nil
}

// NormalizeObject 统一授权资源路径（去掉 /api/v1 前缀）
func NormalizeObject(object string) string {
	normalized := strings.TrimSpace(object)
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	if normalized == apiV1Prefix {
		return "/"
	}
	return strings.TrimPrefix(normalized, apiV1Prefix)
}

// NormalizeAction 统一授权动作
func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}
