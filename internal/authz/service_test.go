package authz

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:authz_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("create authz service failed: %v", err)
	}
	return svc
}

func TestRoleLifecycle(t *testing.T) {
	svc := setupAuthzServiceTest(t)

	role, err := svc.EnsureRole("catalog manager")
	if err != nil {
		t.Fatalf("ensure role failed: %v", err)
	}
	if role != "role:catalog_manager" {
		t.Fatalf("unexpected normalized role: %s", role)
	}

	// 重复创建幂等
	if _, err := svc.EnsureRole("role:catalog_manager"); err != nil {
		t.Fatalf("ensure role again failed: %v", err)
	}

	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:catalog_manager" {
		t.Fatalf("unexpected roles: %v", roles)
	}

	if _, err := svc.EnsureRole("role:__anchor__"); err == nil {
		t.Fatal("reserved role must be rejected")
	}
	if _, err := svc.EnsureRole("   "); err == nil {
		t.Fatal("blank role must be rejected")
	}
}

func TestEnforceCustomerWithRolePolicies(t *testing.T) {
	svc := setupAuthzServiceTest(t)

	if err := svc.GrantRolePolicy("catalog_manager", "/admin/products/:id", "*"); err != nil {
		t.Fatalf("grant policy failed: %v", err)
	}
	if err := svc.GrantRolePolicy("catalog_manager", "/admin/products", "GET"); err != nil {
		t.Fatalf("grant policy failed: %v", err)
	}
	if err := svc.SetCustomerRoles(7, []string{"catalog_manager"}); err != nil {
		t.Fatalf("set customer roles failed: %v", err)
	}

	cases := []struct {
		obj, act string
		allowed  bool
	}{
		{"/admin/products/5", "PUT", true},
		// 入口传入完整 URL 前缀也能匹配
		{"/api/v1/admin/products/5", "DELETE", true},
		{"/admin/products", "GET", true},
		{"/admin/products", "POST", false},
		{"/admin/orders", "GET", false},
	}
	for _, tc := range cases {
		allowed, err := svc.EnforceCustomer(7, tc.obj, tc.act)
		if err != nil {
			t.Fatalf("enforce %s %s failed: %v", tc.act, tc.obj, err)
		}
		if allowed != tc.allowed {
			t.Fatalf("%s %s: expected allowed=%v, got %v", tc.act, tc.obj, tc.allowed, allowed)
		}
	}

	// 没有角色的客户全部拒绝
	if allowed, _ := svc.EnforceCustomer(8, "/admin/products", "GET"); allowed {
		t.Fatal("customer without roles must be denied")
	}
}

func TestWildcardObjectMatchesNestedPaths(t *testing.T) {
	svc := setupAuthzServiceTest(t)

	if err := svc.GrantRolePolicy("admin", "/admin/*", "*"); err != nil {
		t.Fatalf("grant policy failed: %v", err)
	}
	if err := svc.SetCustomerRoles(1, []string{"admin"}); err != nil {
		t.Fatalf("set customer roles failed: %v", err)
	}

	for _, obj := range []string{
		"/admin/orders",
		"/admin/orders/12/status",
		"/admin/authz/customers/3/roles",
	} {
		allowed, err := svc.EnforceCustomer(1, obj, "PATCH")
		if err != nil {
			t.Fatalf("enforce %s failed: %v", obj, err)
		}
		if !allowed {
			t.Fatalf("expected wildcard to allow %s", obj)
		}
	}

	if allowed, _ := svc.EnforceCustomer(1, "/public/products", "GET"); allowed {
		t.Fatal("wildcard must not leak outside /admin")
	}
}

func TestSetCustomerRolesReplaces(t *testing.T) {
	svc := setupAuthzServiceTest(t)

	if err := svc.SetCustomerRoles(9, []string{"catalog_manager", "order_manager"}); err != nil {
		t.Fatalf("set roles failed: %v", err)
	}
	roles, err := svc.GetCustomerRoles(9)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 2 {
		t.Fatalf("expected 2 roles, got %v", roles)
	}

	// 覆盖式写入，旧角色被清掉
	if err := svc.SetCustomerRoles(9, []string{"order_manager"}); err != nil {
		t.Fatalf("replace roles failed: %v", err)
	}
	roles, err = svc.GetCustomerRoles(9)
	if err != nil {
		t.Fatalf("get roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "role:order_manager" {
		t.Fatalf("expected only order_manager, got %v", roles)
	}

	if err := svc.SetCustomerRoles(9, nil); err != nil {
		t.Fatalf("clear roles failed: %v", err)
	}
	roles, _ = svc.GetCustomerRoles(9)
	if len(roles) != 0 {
		t.Fatalf("expected no roles, got %v", roles)
	}
}

func TestRevokeRolePolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)

	if err := svc.GrantRolePolicy("order_manager", "/admin/orders", "GET"); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	if err := svc.SetCustomerRoles(2, []string{"order_manager"}); err != nil {
		t.Fatalf("set roles failed: %v", err)
	}
	if allowed, _ := svc.EnforceCustomer(2, "/admin/orders", "GET"); !allowed {
		t.Fatal("expected access before revoke")
	}

	if err := svc.RevokeRolePolicy("order_manager", "/admin/orders", "GET"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if allowed, _ := svc.EnforceCustomer(2, "/admin/orders", "GET"); allowed {
		t.Fatal("expected access denied after revoke")
	}

	policies, err := svc.GetRolePolicies("order_manager")
	if err != nil {
		t.Fatalf("get policies failed: %v", err)
	}
	if len(policies) != 0 {
		t.Fatalf("expected no policies, got %v", policies)
	}
}

func TestBootstrapBuiltinRoles(t *testing.T) {
	svc := setupAuthzServiceTest(t)

	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	// 幂等
	if err := svc.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap again failed: %v", err)
	}

	roles, err := svc.ListRoles()
	if err != nil {
		t.Fatalf("list roles failed: %v", err)
	}
	if len(roles) != len(BuiltinRoleSeeds()) {
		t.Fatalf("expected %d builtin roles, got %v", len(BuiltinRoleSeeds()), roles)
	}

	if err := svc.GrantAllBuiltinRoles(3); err != nil {
		t.Fatalf("grant builtin roles failed: %v", err)
	}
	if allowed, _ := svc.EnforceCustomer(3, "/admin/customers/5/flags", "PATCH"); !allowed {
		t.Fatal("expected admin wildcard to cover customer flags")
	}
	if allowed, _ := svc.EnforceCustomer(3, "/admin/categories/9", "PUT"); !allowed {
		t.Fatal("expected category policy to allow update")
	}
}

func TestNormalizers(t *testing.T) {
	objectCases := map[string]string{
		"":                      "/",
		"/api/v1":               "/",
		"/api/v1/admin/orders":  "/admin/orders",
		"admin/products":        "/admin/products",
		"  /admin/categories  ": "/admin/categories",
	}
	for input, want := range objectCases {
		if got := NormalizeObject(input); got != want {
			t.Fatalf("NormalizeObject(%q) = %q, want %q", input, got, want)
		}
	}

	if got := NormalizeAction("  get "); got != "GET" {
		t.Fatalf("NormalizeAction = %q, want GET", got)
	}

	role, err := NormalizeRole("order manager")
	if err != nil {
		t.Fatalf("normalize role failed: %v", err)
	}
	if role != "role:order_manager" {
		t.Fatalf("unexpected role: %s", role)
	}
	if _, err := NormalizeRole("role:"); err == nil {
		t.Fatal("bare prefix must be rejected")
	}
}
