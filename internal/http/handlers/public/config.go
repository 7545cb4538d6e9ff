package public

import (
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/constants"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/response"

	"github.com/gin-gonic/gin"
)

const defaultPollIntervalSeconds = 60

// GetConfig 前台公共配置，包含轮询兜底间隔
func (h *Handler) GetConfig(c *gin.Context) {
	poll := h.Config.Realtime.PollIntervalSeconds
	if poll <= 0 {
		poll = defaultPollIntervalSeconds
	}
	response.Success(c, gin.H{
		"currency":     h.Config.Paystack.Currency,
		"campuses":     h.PricingEngine.Campuses(),
		"other_area":   constants.DeliveryAreaOther,
		"tracking_sms": h.Config.Order.TrackingSMSEnabled,
		"realtime":     gin.H{"poll_interval_seconds": poll},
	})
}
