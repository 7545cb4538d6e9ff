package shared

import (
	"time"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/response"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/models"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// LoginRequest 操作员登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginOperator 登录后返回的操作员信息
type LoginOperator struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// HandleLogin 按入口角色完成登录并输出 token
func HandleLogin(c *gin.Context, auth *service.AuthService, role string, extra func(*models.Operator) gin.H) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	operator, token, expiresAt, err := auth.Login(req.Username, req.Password, role)
	if err != nil {
		RequestLog(c).Warnw("operator_login_failed", "username", req.Username, "role", role)
		RespondServiceError(c, err, "error.login_failed", MappedError{
			Target: service.ErrInvalidCredentials,
			Code:   response.CodeUnauthorized,
			Key:    "error.login_invalid",
		})
		return
	}

	data := gin.H{
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
		"operator": LoginOperator{
			ID:       operator.ID,
			Username: operator.Username,
			Email:    operator.Email,
			Role:     operator.Role,
		},
	}
	if extra != nil {
		for k, v := range extra(operator) {
			data[k] = v
		}
	}
	RequestLog(c).Infow("operator_login", "operator_id", operator.ID, "role", role)
	response.Success(c, data)
}
