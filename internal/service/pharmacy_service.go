package service

import (
	"net/mail"
	"strings"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/constants"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/logger"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/models"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/repository"
)

// PharmacyService 药房（履约伙伴）管理
type PharmacyService struct {
	pharmacyRepo repository.PharmacyRepository
	operatorRepo repository.OperatorRepository
	auth         *AuthService
	roles        RoleAssigner
	access       *AccessPolicy
}

// NewPharmacyService 创建药房服务
func NewPharmacyService(pharmacyRepo repository.PharmacyRepository, operatorRepo repository.OperatorRepository, auth *AuthService, roles RoleAssigner, access *AccessPolicy) *PharmacyService {
	return &PharmacyService{
		pharmacyRepo: pharmacyRepo,
		operatorRepo: operatorRepo,
		auth:         auth,
		roles:        roles,
		access:       access,
	}
}

// PharmacyInput 药房创建/更新参数
// OperatorUsername 非空时同时创建药房登录账号
type PharmacyInput struct {
	Name             string
	Location         string
	Phone            string
	Email            string
	IsActive         *bool
	OperatorUsername string
	OperatorPassword string
}

// List 药房列表
func (s *PharmacyService) List(actor Actor, onlyActive bool) ([]models.Pharmacy, error) {
	if err := s.access.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.pharmacyRepo.List(onlyActive)
}

// Create 创建药房
func (s *PharmacyService) Create(actor Actor, input PharmacyInput) (*models.Pharmacy, error) {
	if err := s.access.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validate(input, true); err != nil {
		return nil, err
	}

	pharmacy := &models.Pharmacy{
		Name:     strings.TrimSpace(input.Name),
		Location: strings.TrimSpace(input.Location),
		Phone:    strings.TrimSpace(input.Phone),
		Email:    strings.TrimSpace(input.Email),
		IsActive: input.IsActive == nil || *input.IsActive,
	}
	if strings.TrimSpace(input.OperatorUsername) != "" {
		operator, err := s.createOperator(input)
		if err != nil {
			return nil, err
		}
		pharmacy.OperatorID = &operator.ID
	}
	if err := s.pharmacyRepo.Create(pharmacy); err != nil {
		return nil, err
	}
	logger.Infow("pharmacy_created",
		"pharmacy_id", pharmacy.ID,
		"operator_id", actor.OperatorID,
		"has_login", pharmacy.OperatorID != nil,
	)
	return pharmacy, nil
}

// Update 更新药房资料与启用状态，已有登录账号时不重复创建
func (s *PharmacyService) Update(actor Actor, id uint, input PharmacyInput) (*models.Pharmacy, error) {
	if err := s.access.RequireAdmin(actor); err != nil {
		return nil, err
	}
	pharmacy, err := s.pharmacyRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if pharmacy == nil {
		return nil, ErrPharmacyNotFound
	}
	linkOperator := pharmacy.OperatorID == nil && strings.TrimSpace(input.OperatorUsername) != ""
	if err := s.validate(input, linkOperator); err != nil {
		return nil, err
	}

	pharmacy.Name = strings.TrimSpace(input.Name)
	pharmacy.Location = strings.TrimSpace(input.Location)
	pharmacy.Phone = strings.TrimSpace(input.Phone)
	pharmacy.Email = strings.TrimSpace(input.Email)
	if input.IsActive != nil {
		pharmacy.IsActive = *input.IsActive
	}
	if linkOperator {
		operator, err := s.createOperator(input)
		if err != nil {
			return nil, err
		}
		pharmacy.OperatorID = &operator.ID
	}
	if err := s.pharmacyRepo.Update(pharmacy); err != nil {
		return nil, err
	}
	return pharmacy, nil
}

func (s *PharmacyService) validate(input PharmacyInput, withOperator bool) error {
	verr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		verr.Add("name", "is required")
	}
	if email := strings.TrimSpace(input.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			verr.Add("email", "is invalid")
		}
	}
	if withOperator && strings.TrimSpace(input.OperatorUsername) != "" {
		if problem := operatorPasswordProblem(input.OperatorUsername, input.OperatorPassword); problem != "" {
			verr.Add("operator_password", problem)
		} else if s.operatorRepo != nil {
			existing, err := s.operatorRepo.GetByUsername(strings.TrimSpace(input.OperatorUsername))
			if err != nil {
				return err
			}
			if existing != nil {
				verr.Add("operator_username", "is already taken")
			}
		}
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

func (s *PharmacyService) createOperator(input PharmacyInput) (*models.Operator, error) {
	operator, err := s.auth.CreateOperator(input.OperatorUsername, input.Email, input.OperatorPassword, constants.RolePharmacy)
	if err != nil {
		return nil, err
	}
	if s.roles != nil {
		if err := s.roles.SetOperatorRoles(operator.ID, []string{constants.RolePharmacy}); err != nil {
			logger.Errorw("pharmacy_operator_role_assign_failed", "operator_id", operator.ID, "error", err)
			return nil, err
		}
	}
	return operator, nil
}
