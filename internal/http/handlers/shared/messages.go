package shared

// 错误消息表，key 与日志、测试共用
var messages = map[string]string{
	"error.bad_request":               "invalid request",
	"error.unauthorized":              "unauthorized",
	"error.forbidden":                 "forbidden",
	"error.not_found":                 "resource not found",
	"error.internal":                  "internal server error",
	"error.validation_failed":         "validation failed",
	"error.jwt_secret_missing":        "authentication is not configured",
	"error.auth_header_missing":       "authorization header is required",
	"error.auth_header_invalid":       "authorization header is invalid",
	"error.token_invalid":             "token is invalid or expired",
	"error.token_revoked":             "token has been revoked",
	"error.operator_id_invalid":       "operator id is invalid",
	"error.operator_id_type_invalid":  "operator id type is invalid",
	"error.login_invalid":             "username or password is incorrect",
	"error.login_failed":              "login failed",
	"error.login_too_many":            "too many login attempts, retry in %d seconds",
	"error.rate_limited":              "too many requests, retry in %d seconds",
	"error.rate_limit_unavailable":    "rate limiter unavailable",
	"error.order_not_found":           "order not found",
	"error.order_fetch_failed":        "failed to load orders",
	"error.order_update_failed":       "failed to update order",
	"error.order_create_failed":       "failed to place order",
	"error.order_status_invalid":      "order status does not allow this operation",
	"error.tracking_code_invalid":     "tracking code is invalid",
	"error.tracking_code_exhausted":   "could not allocate a tracking code, please retry",
	"error.payment_init_failed":       "payment could not be started, please try again",
	"error.pharmacy_not_found":        "pharmacy not found",
	"error.pharmacy_fetch_failed":     "failed to load pharmacies",
	"error.pharmacy_save_failed":      "failed to save pharmacy",
	"error.ack_not_pending":           "order acknowledgment is no longer pending",
	"error.decline_reason_required":   "a reason is required to decline an order",
	"error.webhook_signature":         "invalid signature",
	"error.payment_amount_mismatch":   "payment amount does not match the order",
	"error.webhook_failed":            "webhook processing failed",
	"error.notification_fetch_failed": "failed to load notification attempts",
	"error.stream_unavailable":        "realtime stream unavailable",
}

// Message 按 key 读取错误消息，未登记的 key 原样返回
func Message(key string) string {
	if msg, ok := messages[key]; ok {
		return msg
	}
	return key
}
