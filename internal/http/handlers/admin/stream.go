package admin

import (
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/handlers/shared"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/realtime"

	"github.com/gin-gonic/gin"
)

// OrdersStream 管理端订单表变更推送
func (h *Handler) OrdersStream(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	if err := h.AccessPolicy.RequireAdmin(actor); err != nil {
		shared.RespondServiceError(c, err, "error.stream_unavailable")
		return
	}
	shared.ServeStream(c, h.Hub, realtime.TopicOrders)
}
