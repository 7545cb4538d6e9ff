package service

import (
	"strings"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/constants"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/logger"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/models"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/repository"
)

// AccessPolicy 操作员权限判定：管理员角色或邮箱白名单，药房人员按绑定药房
type AccessPolicy struct {
	authorizer   Authorizer
	pharmacyRepo repository.PharmacyRepository
	adminEmails  map[string]struct{}
}

// NewAccessPolicy 创建权限判定
func NewAccessPolicy(authorizer Authorizer, pharmacyRepo repository.PharmacyRepository, adminEmails []string) *AccessPolicy {
	emails := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		normalized := strings.ToLower(strings.TrimSpace(email))
		if normalized != "" {
			emails[normalized] = struct{}{}
		}
	}
	return &AccessPolicy{
		authorizer:   authorizer,
		pharmacyRepo: pharmacyRepo,
		adminEmails:  emails,
	}
}

// IsAdmin 判断是否管理员
func (p *AccessPolicy) IsAdmin(actor Actor) bool {
	if p == nil || actor.OperatorID == 0 {
		return false
	}
	if p.authorizer != nil {
		ok, err := p.authorizer.HasRole(actor.OperatorID, constants.RoleAdmin)
		if err != nil {
			logger.Warnw("access_admin_role_check_failed", "operator_id", actor.OperatorID, "error", err)
		}
		if ok {
			return true
		}
	}
	email := strings.ToLower(strings.TrimSpace(actor.Email))
	if email == "" {
		return false
	}
	_, ok := p.adminEmails[email]
	return ok
}

// RequireAdmin 非管理员返回 ErrUnauthorized
func (p *AccessPolicy) RequireAdmin(actor Actor) error {
	if !p.IsAdmin(actor) {
		return ErrUnauthorized
	}
	return nil
}

// PharmacyFor 返回操作员绑定的药房，未绑定返回 ErrUnauthorized
func (p *AccessPolicy) PharmacyFor(actor Actor) (*models.Pharmacy, error) {
	if p == nil || p.pharmacyRepo == nil || actor.OperatorID == 0 {
		return nil, ErrUnauthorized
	}
	pharmacy, err := p.pharmacyRepo.GetByOperatorID(actor.OperatorID)
	if err != nil {
		return nil, err
	}
	if pharmacy == nil || !pharmacy.IsActive {
		return nil, ErrUnauthorized
	}
	return pharmacy, nil
}
