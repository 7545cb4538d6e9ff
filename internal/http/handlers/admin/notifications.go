package admin

import (
	"strconv"
	"strings"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/handlers/shared"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ListNotificationAttempts 订单的药房通知审计记录
func (h *Handler) ListNotificationAttempts(c *gin.Context) {
	actor, ok := shared.GetActor(c)
	if !ok {
		return
	}
	if err := h.AccessPolicy.RequireAdmin(actor); err != nil {
		shared.RespondServiceError(c, err, "error.notification_fetch_failed")
		return
	}
	orderID, err := strconv.ParseUint(strings.TrimSpace(c.Query("order_id")), 10, 64)
	if err != nil || orderID == 0 {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	attempts, err := h.NotificationService.ListAttempts(uint(orderID))
	if err != nil {
		shared.RespondError(c, response.CodeInternal, "error.notification_fetch_failed", err)
		return
	}
	response.Success(c, attempts)
}
