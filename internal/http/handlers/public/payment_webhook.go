package public

import (
	"errors"
	"io"
	"strings"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/handlers/shared"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/response"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

const paystackSignatureHeader = "X-Paystack-Signature"

var webhookErrorRules = []shared.MappedError{
	{Target: service.ErrWebhookSignature, Code: response.CodeUnauthorized, Key: "error.webhook_signature"},
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Key: "error.order_not_found"},
	{Target: service.ErrPaymentAmountMismatch, Code: response.CodeBadRequest, Key: "error.payment_amount_mismatch"},
}

// PaystackWebhook Paystack 支付回调
func (h *Handler) PaystackWebhook(c *gin.Context) {
	log := shared.RequestLog(c)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Warnw("paystack_webhook_body_read_failed", "error", err)
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	signature := strings.TrimSpace(c.GetHeader(paystackSignatureHeader))
	log.Infow("paystack_webhook_received",
		"client_ip", c.ClientIP(),
		"body_size", len(body),
		"has_signature", signature != "",
	)

	result, err := h.PaymentService.HandlePaystackWebhook(c.Request.Context(), body, signature)
	if errors.Is(err, service.ErrWebhookDuplicate) {
		log.Infow("paystack_webhook_duplicate", "reference", result.TrackingCode)
		response.Success(c, gin.H{"accepted": true, "event": result.Event, "updated": false})
		return
	}
	if err != nil {
		log.Warnw("paystack_webhook_handle_failed", "error", err)
		shared.RespondServiceError(c, err, "error.webhook_failed", webhookErrorRules...)
		return
	}

	response.Success(c, gin.H{
		"accepted": true,
		"event":    result.Event,
		"updated":  result.Handled,
	})
}
