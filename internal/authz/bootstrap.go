package authz

import (
	"fmt"

	"github.com/sokoni-shop/internal/logger"
)

// RoleSeed 内置角色的初始化定义
type RoleSeed struct {
	Role     string
	Policies []Policy
}

// BuiltinRoleSeeds 内置角色及其默认策略
// 对象路径均为去掉 /api/v1 前缀后的规范形式
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: "role:admin",
			Policies: []Policy{
				{Object: "/admin/*", Action: "*"},
			},
		},
		{
			Role: "role:catalog_manager",
			Policies: []Policy{
				{Object: "/admin/categories", Action: "*"},
				{Object: "/admin/categories/:id", Action: "*"},
				{Object: "/admin/products", Action: "*"},
				{Object: "/admin/products/:id", Action: "*"},
				{Object: "/admin/dashboard/:section", Action: "GET"},
			},
		},
		{
			Role: "role:order_manager",
			Policies: []Policy{
				{Object: "/admin/orders", Action: "GET"},
				{Object: "/admin/orders/:id", Action: "GET"},
				{Object: "/admin/orders/:id/status", Action: "PATCH"},
				{Object: "/admin/dashboard/:section", Action: "GET"},
			},
		},
	}
}

// BootstrapBuiltinRoles 初始化内置角色与策略
// 幂等操作，重复执行不会产生重复策略
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}

	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return fmt.Errorf("bootstrap role %s failed: %w", seed.Role, err)
		}
		for _, policy := range seed.Policies {
			if err := s.GrantRolePolicy(role, policy.Object, policy.Action); err != nil {
				return fmt.Errorf("bootstrap policy for %s failed: %w", role, err)
			}
		}
		logger.Debugw("authz_role_seeded", "role", role, "policies", len(seed.Policies))
	}
	return nil
}

// GrantAllBuiltinRoles 将全部内置角色授予指定客户
// 用于初始化内置管理员账号
func (s *Service) GrantAllBuiltinRoles(customerID uint) error {
	seeds := BuiltinRoleSeeds()
	roles := make([]string, 0, len(seeds))
	for _, seed := range seeds {
		roles = append(roles, seed.Role)
	}
	return s.SetCustomerRoles(customerID, roles)
}
