package admin

import (
	"strconv"
	"strings"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/handlers/shared"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/response"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/repository"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// TransitionRequest 按流转表推进状态
type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// ForceStatusRequest 强制设置状态
type ForceStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// AssignRequest 指派药房
type AssignRequest struct {
	PharmacyID uint `json:"pharmacy_id" binding:"required"`
}

// ListOrders 订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	page, pageSize := shared.ParsePagination(c)

	var pharmacyID uint
	if raw := strings.TrimSpace(c.Query("pharmacy_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			pharmacyID = uint(parsed)
		}
	}

	orders, err := h.OrderService.ListAdmin(actor, repository.OrderListFilter{
		Page:       page,
		PageSize:   pageSize,
		Status:     service.NormalizeOrderStatus(c.Query("status")),
		PharmacyID: pharmacyID,
		Keyword:    c.Query("q"),
	})
	if err != nil {
		shared.RespondServiceError(c, err, "error.order_fetch_failed")
		return
	}
	response.Success(c, gin.H{
		"items":     orders,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetOrder 订单详情（含事件时间线）
func (h *Handler) GetOrder(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	id, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetForAdmin(actor, id)
	if err != nil {
		shared.RespondServiceError(c, err, "error.order_fetch_failed")
		return
	}
	response.Success(c, order)
}

// TransitionOrder 按流转表推进订单状态
func (h *Handler) TransitionOrder(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	id, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	order, err := h.OrderService.Transition(actor, id, req.Status)
	if err != nil {
		shared.RespondServiceError(c, err, "error.order_update_failed")
		return
	}
	response.Success(c, order)
}

// ForceOrderStatus 管理员强制设置订单状态
func (h *Handler) ForceOrderStatus(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	id, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req ForceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	order, err := h.OrderService.ForceSetStatus(actor, id, req.Status, req.Note)
	if err != nil {
		shared.RespondServiceError(c, err, "error.order_update_failed")
		return
	}
	response.Success(c, order)
}

// AssignOrder 指派药房
func (h *Handler) AssignOrder(c *gin.Context) {
	h.assign(c, false)
}

// ReassignOrder 改派药房
func (h *Handler) ReassignOrder(c *gin.Context) {
	h.assign(c, true)
}

func (h *Handler) assign(c *gin.Context, reassign bool) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	id, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	assignFn := h.AssignmentService.Assign
	if reassign {
		assignFn = h.AssignmentService.Reassign
	}
	order, err := assignFn(actor, id, req.PharmacyID)
	if err != nil {
		shared.RespondServiceError(c, err, "error.order_update_failed")
		return
	}
	response.Success(c, order)
}
