package pharmacy

import (
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/handlers/shared"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/response"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/realtime"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/repository"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// DeclineRequest 拒单请求
type DeclineRequest struct {
	Reason string `json:"reason"`
}

// ListOrders 指派给当前药房的订单
func (h *Handler) ListOrders(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	page, pageSize := shared.ParsePagination(c)

	orders, err := h.OrderService.ListForPharmacy(actor, repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   service.NormalizeOrderStatus(c.Query("status")),
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

// AcceptOrder 接单
func (h *Handler) AcceptOrder(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	id, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.AssignmentService.Accept(actor, id)
	if err != nil {
		shared.RespondServiceError(c, err, "error.order_update_failed")
		return
	}
	response.Success(c, order)
}

// DeclineOrder 拒单，必须填写原因
func (h *Handler) DeclineOrder(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	id, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req DeclineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	order, err := h.AssignmentService.Decline(actor, id, req.Reason)
	if err != nil {
		shared.RespondServiceError(c, err, "error.order_update_failed")
		return
	}
	response.Success(c, order)
}

// MarkOutForDelivery 标记已出库配送
func (h *Handler) MarkOutForDelivery(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	id, ok := shared.ParseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.AssignmentService.MarkOutForDelivery(actor, id)
	if err != nil {
		shared.RespondServiceError(c, err, "error.order_update_failed")
		return
	}
	response.Success(c, order)
}

// OrdersStream 当前药房的订单变更推送
func (h *Handler) OrdersStream(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	pharmacy, err := h.AccessPolicy.PharmacyFor(actor)
	if err != nil {
		shared.RespondServiceError(c, err, "error.stream_unavailable")
		return
	}
	shared.ServeStream(c, h.Hub, realtime.PharmacyTopic(pharmacy.ID))
}
