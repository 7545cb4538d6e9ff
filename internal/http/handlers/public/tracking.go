package public

import (
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/handlers/shared"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/response"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/realtime"

	"github.com/gin-gonic/gin"
)

// TrackOrder 按追踪码查询订单与事件时间线
func (h *Handler) TrackOrder(c *gin.Context) {
	order, err := h.OrderService.GetByTrackingCode(c.Param("code"))
	if err != nil {
		shared.RespondServiceError(c, err, "error.order_fetch_failed")
		return
	}
	response.Success(c, order)
}

// TrackOrderStream 顾客追踪页的订单变更推送
func (h *Handler) TrackOrderStream(c *gin.Context) {
	order, err := h.OrderService.GetByTrackingCode(c.Param("code"))
	if err != nil {
		shared.RespondServiceError(c, err, "error.order_fetch_failed")
		return
	}
	shared.ServeStream(c, h.Hub, realtime.OrderTopic(order.ID))
}
