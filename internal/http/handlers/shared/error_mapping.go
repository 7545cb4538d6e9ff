package shared

import (
	"errors"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/response"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// MappedError 定义业务错误到接口错误响应的映射关系。
type MappedError struct {
	Target error
	Code   int
	Key    string
}

// CommonErrorRules 各端共用的业务错误映射
var CommonErrorRules = []MappedError{
	{Target: service.ErrUnauthorized, Code: response.CodeForbidden, Key: "error.forbidden"},
	{Target: service.ErrOrderNotFound, Code: response.CodeNotFound, Key: "error.order_not_found"},
	{Target: service.ErrNotFound, Code: response.CodeNotFound, Key: "error.not_found"},
	{Target: service.ErrPharmacyNotFound, Code: response.CodeNotFound, Key: "error.pharmacy_not_found"},
	{Target: service.ErrOrderStatusInvalid, Code: response.CodeConflict, Key: "error.order_status_invalid"},
	{Target: service.ErrAckNotPending, Code: response.CodeConflict, Key: "error.ack_not_pending"},
	{Target: service.ErrDeclineReasonRequired, Code: response.CodeBadRequest, Key: "error.decline_reason_required"},
	{Target: service.ErrPaymentInitFailed, Code: response.CodeBadGateway, Key: "error.payment_init_failed"},
	{Target: service.ErrTrackingCodeExhausted, Code: response.CodeInternal, Key: "error.tracking_code_exhausted"},
	{Target: service.ErrInvalidCredentials, Code: response.CodeUnauthorized, Key: "error.login_invalid"},
}

// RespondServiceError 按映射规则输出业务错误，字段校验错误附带字段明细
func RespondServiceError(c *gin.Context, err error, fallbackKey string, rules ...MappedError) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		response.ValidationFailed(c, Message("error.validation_failed"), verr.Fields)
		return
	}
	if len(rules) == 0 {
		rules = CommonErrorRules
	}
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			// 5xx 只记录原因，响应保持通用消息
			var cause error
			if rule.Code >= response.CodeInternal {
				cause = err
			}
			RespondError(c, rule.Code, rule.Key, cause)
			return
		}
	}
	RespondError(c, response.CodeInternal, fallbackKey, err)
}
