package shared

import (
	"fmt"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/response"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, key string, err error) {
	respondAppError(c, response.NewError(code, key, Message(key), err))
}

// RespondErrorf 返回带参数的错误响应。
func RespondErrorf(c *gin.Context, code int, key string, args ...interface{}) {
	response.Error(c, code, fmt.Sprintf(Message(key), args...))
}

// RespondErrorWithMsg 返回自定义消息错误响应，并在有原始错误时记录日志。
func RespondErrorWithMsg(c *gin.Context, code int, msg string, err error) {
	respondAppError(c, response.WrapError(code, msg, err))
}

// 客户端错误记 warn，服务端错误记 error
func respondAppError(c *gin.Context, appErr *response.AppError) {
	if appErr.Err != nil {
		if appErr.ServerSide() {
			RequestLog(c).Errorw("handler_error", appErr.LogFields()...)
		} else {
			RequestLog(c).Warnw("handler_rejected", appErr.LogFields()...)
		}
	}
	response.Error(c, appErr.Code, appErr.Message)
}
