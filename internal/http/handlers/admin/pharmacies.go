package admin

import (
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/handlers/shared"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/response"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// PharmacyRequest 药房创建/更新请求
type PharmacyRequest struct {
	Name             string `json:"name"`
	Location         string `json:"location"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
	IsActive         *bool  `json:"is_active"`
	OperatorUsername string `json:"operator_username"`
	OperatorPassword string `json:"operator_password"`
}

func (r PharmacyRequest) toInput() service.PharmacyInput {
	return service.PharmacyInput{
		Name:             r.Name,
		Location:         r.Location,
		Phone:            r.Phone,
		Email:            r.Email,
		IsActive:         r.IsActive,
		OperatorUsername: r.OperatorUsername,
		OperatorPassword: r.OperatorPassword,
	}
}

// ListPharmacies 药房列表，active=1 时仅返回启用的药房
func (h *Handler) ListPharmacies(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	onlyActive := c.Query("active") == "1" || c.Query("active") == "true"
	pharmacies, err := h.PharmacyService.List(actor, onlyActive)
	if err != nil {
		shared.RespondServiceError(c, err, "error.pharmacy_fetch_failed")
		return
	}
	response.Success(c, pharmacies)
}

// CreatePharmacy 创建药房
func (h *Handler) CreatePharmacy(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	var req PharmacyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	pharmacy, err := h.PharmacyService.Create(actor, req.toInput())
	if err != nil {
		shared.RespondServiceError(c, err, "error.pharmacy_save_failed")
		return
	}
	response.Success(c, pharmacy)
}

// UpdatePharmacy 更新药房
func (h *Handler) UpdatePharmacy(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	id, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req PharmacyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	pharmacy, err := h.PharmacyService.Update(actor, id, req.toInput())
	if err != nil {
		shared.RespondServiceError(c, err, "error.pharmacy_save_failed")
		return
	}
	response.Success(c, pharmacy)
}
