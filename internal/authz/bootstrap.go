package authz

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 系统预置角色：auditor 只读，reviewer 可审核，admin 全部
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role:     "auditor",
			Policies: []Policy{{Object: "/admin/*", Action: "GET"}},
		},
		{
			Role:     "reviewer",
			Inherits: []string{"auditor"},
			Policies: []Policy{
				{Object: "/admin/withdrawals/:id/approve", Action: "POST"},
				{Object: "/admin/withdrawals/:id/reject", Action: "POST"},
				{Object: "/admin/upgrades/:id/review", Action: "POST"},
			},
		},
		{
			Role:     "admin",
			Inherits: []string{"reviewer"},
			Policies: []Policy{{Object: "/admin/*", Action: "*"}},
		},
	}
}

// BootstrapBuiltinRoles 写入预置角色、继承关系与策略，可重复执行
func (s *Service) BootstrapBuiltinRoles() error {
	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return err
		}
		for _, parent := range seed.Inherits {
			parentRole, err := s.EnsureRole(parent)
			if err != nil {
				return err
			}
			if err := s.ensureGrouping(role, parentRole); err != nil {
				return err
			}
		}
		for _, policy := range seed.Policies {
			if err := s.GrantRolePolicy(role, policy.Object, policy.Action); err != nil {
				return err
			}
		}
	}
	return nil
}

// BootstrapAdmin 为初始管理员追加 admin 角色，已有其他角色保持不变
func (s *Service) BootstrapAdmin(userID uint) error {
	if userID == 0 {
		return ErrUserRequired
	}
	has, err := s.HasRole(userID, RoleAdmin)
	if err != nil || has {
		return err
	}
	return s.ensureGrouping(SubjectForUser(userID), RoleAdmin)
}
