package shared

import (
	"strconv"
	"strings"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/response"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// 鉴权中间件写入的上下文 key
const (
	ContextOperatorID    = "operator_id"
	ContextUsername      = "username"
	ContextOperatorEmail = "operator_email"
	ContextOperatorRole  = "operator_role"
)

// GetContextUintWithKeys 从上下文读取 uint 值并统一处理错误响应。
func GetContextUintWithKeys(c *gin.Context, key, invalidKey, typeInvalidKey string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, invalidKey, nil)
			return 0, false
		}
		return uint(v), true
	case float64:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, invalidKey, nil)
			return 0, false
		}
		return uint(v), true
	default:
		RespondError(c, response.CodeInternal, typeInvalidKey, nil)
		return 0, false
	}
}

// GetActor 从上下文组装当前操作员
func GetActor(c *gin.Context) (service.Actor, bool) {
	operatorID, ok := GetContextUintWithKeys(c, ContextOperatorID, "error.operator_id_invalid", "error.operator_id_type_invalid")
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{
		OperatorID: operatorID,
		Username:   c.GetString(ContextUsername),
		Email:      c.GetString(ContextOperatorEmail),
		Role:       c.GetString(ContextOperatorRole),
	}, true
}

// ParseIDParam 解析路径中的数字 ID
func ParseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id == 0 {
		RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return uint(id), true
}
