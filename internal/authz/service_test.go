package authz

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	return svc
}

func TestEnforceUserWithRolePolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("ops", "/admin/withdrawals/:id", "GET"); err != nil {
		t.Fatalf("grant role policy failed: %v", err)
	}
	if err := svc.SetUserRoles(1, []string{"ops"}); err != nil {
		t.Fatalf("set user roles failed: %v", err)
	}

	allow, err := svc.EnforceUser(1, "/api/v1/admin/withdrawals/42", "get")
	if err != nil {
		t.Fatalf("enforce allow failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected allow=true")
	}

	allow, err = svc.EnforceUser(1, "/api/v1/admin/withdrawals/42", "POST")
	if err != nil {
		t.Fatalf("enforce deny failed: %v", err)
	}
	if allow {
		t.Fatalf("expected allow=false")
	}
}

func TestSetUserRolesOverride(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.SetUserRoles(2, []string{"admin"}); err != nil {
		t.Fatalf("set first role failed: %v", err)
	}
	roles, err := svc.GetUserRoles(2)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != RoleAdmin {
		t.Fatalf("roles want [%s], got=%v", RoleAdmin, roles)
	}

	if err := svc.SetUserRoles(2, nil); err != nil {
		t.Fatalf("clear roles failed: %v", err)
	}
	has, err := svc.HasRole(2, "admin")
	if err != nil {
		t.Fatalf("has role failed: %v", err)
	}
	if has {
		t.Fatalf("expected admin role removed")
	}
}

func TestHasRoleIsKeyedByUserID(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.SetUserRoles(7, []string{"admin"}); err != nil {
		t.Fatalf("set roles failed: %v", err)
	}
	has, err := svc.HasRole(7, "admin")
	if err != nil || !has {
		t.Fatalf("expected user 7 admin, has=%v err=%v", has, err)
	}
	has, err = svc.HasRole(8, "admin")
	if err != nil || has {
		t.Fatalf("expected user 8 not admin, has=%v err=%v", has, err)
	}
	has, err = svc.HasRole(0, "admin")
	if err != nil || has {
		t.Fatalf("expected zero user not admin, has=%v err=%v", has, err)
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/api/v1/admin/withdrawals/:id", want: "/admin/withdrawals/:id"},
		{in: "/admin/withdrawals/:id", want: "/admin/withdrawals/:id"},
		{in: "admin/upgrades", want: "/admin/upgrades"},
		{in: "/api/v1", want: "/"},
		{in: "", want: "/"},
	}
	for _, item := range cases {
		got := NormalizeObject(item.in)
		if got != item.want {
			t.Fatalf("normalize object failed, in=%q want=%q got=%q", item.in, item.want, got)
		}
	}
}

func TestBootstrapBuiltinRoles(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}

	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	wantRoles := map[string]bool{
		"role:auditor":  true,
		"role:reviewer": true,
		"role:admin":    true,
	}
	for _, role := range roles {
		delete(wantRoles, role)
	}
	if len(wantRoles) != 0 {
		t.Fatalf("builtin roles missing: %v", wantRoles)
	}

	if err := svc.SetUserRoles(3, []string{"reviewer"}); err != nil {
		t.Fatalf("set user roles failed: %v", err)
	}

	allow, err := svc.EnforceUser(3, "/admin/reconciliation", "GET")
	if err != nil {
		t.Fatalf("enforce inherited read failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected inherited read permission")
	}

	allow, err = svc.EnforceUser(3, "/admin/withdrawals/9/approve", "POST")
	if err != nil {
		t.Fatalf("enforce approve failed: %v", err)
	}
	if !allow {
		t.Fatalf("expected reviewer approve permission")
	}

	allow, err = svc.EnforceUser(3, "/admin/users/9/roles", "PUT")
	if err != nil {
		t.Fatalf("enforce role write failed: %v", err)
	}
	if allow {
		t.Fatalf("expected reviewer denied role management")
	}

	has, err := svc.HasRole(3, "admin")
	if err != nil || has {
		t.Fatalf("reviewer must not inherit admin, has=%v err=%v", has, err)
	}
}

func TestBootstrapAdmin(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap builtin roles failed: %v", err)
	}
	if err := svc.BootstrapAdmin(5); err != nil {
		t.Fatalf("bootstrap admin failed: %v", err)
	}
	if err := svc.BootstrapAdmin(5); err != nil {
		t.Fatalf("bootstrap admin twice failed: %v", err)
	}
	roles, err := svc.GetUserRoles(5)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != RoleAdmin {
		t.Fatalf("unexpected roles: %v", roles)
	}
	allow, err := svc.EnforceUser(5, "/admin/users/9/roles", "PUT")
	if err != nil || !allow {
		t.Fatalf("expected admin full access, allow=%v err=%v", allow, err)
	}
}

func TestNormalizeRole(t *testing.T) {
	cases := map[string]string{
		"Admin":          "role:admin",
		" role:reviewer": "role:reviewer",
		"Ops Team":       "role:ops_team",
	}
	for in, want := range cases {
		got, err := NormalizeRole(in)
		if err != nil || got != want {
			t.Fatalf("normalize %q: want %q got %q err=%v", in, want, got, err)
		}
	}
	for _, in := range []string{"", "  ", "role:"} {
		if _, err := NormalizeRole(in); !errors.Is(err, ErrRoleRequired) {
			t.Fatalf("normalize %q: expected ErrRoleRequired, got %v", in, err)
		}
	}
}

func TestSetUserRolesRejectsReservedRoleWithoutChanges(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.SetUserRoles(4, []string{"reviewer"}); err != nil {
		t.Fatalf("set roles failed: %v", err)
	}
	if err := svc.SetUserRoles(4, []string{"admin", "__anchor__"}); !errors.Is(err, ErrReservedRole) {
		t.Fatalf("expected ErrReservedRole, got %v", err)
	}
	roles, err := svc.GetUserRoles(4)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:reviewer" {
		t.Fatalf("roles must be unchanged after rejected update: %v", roles)
	}
}

func TestNilServiceIsUnavailable(t *testing.T) {
	var svc *Service
	if _, err := svc.EnforceUser(1, "/admin/withdrawals", "GET"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if _, err := svc.HasRole(1, "admin"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
