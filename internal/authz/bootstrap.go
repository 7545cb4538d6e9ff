package authz

import (
	"fmt"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/constants"
)

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Policies []Policy
}

// BuiltinRoleSeeds 系统预置角色矩阵
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: constants.RoleAdmin,
			Policies: []Policy{
				{Object: "/admin/*", Action: "*"},
			},
		},
		{
			Role: constants.RolePharmacy,
			Policies: []Policy{
				{Object: "/pharmacy/*", Action: "*"},
			},
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}
	for _, seed := range BuiltinRoleSeeds() {
		for _, policy := range seed.Policies {
			if err := s.GrantRolePolicy(seed.Role, policy.Object, policy.Action); err != nil {
				return fmt.Errorf("bootstrap role %s failed: %w", seed.Role, err)
			}
		}
	}
	return nil
}
