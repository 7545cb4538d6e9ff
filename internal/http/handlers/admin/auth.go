package admin

import (
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/constants"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

// Login 管理员登录
func (h *Handler) Login(c *gin.Context) {
	shared.HandleLogin(c, h.AuthService, constants.RoleAdmin, nil)
}
