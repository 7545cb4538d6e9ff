package admin

import "github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/provider"

// Handler 管理端接口处理器入口
// 说明：订单管理、药房指派与通知审计，均需管理员登录。
type Handler struct {
	*provider.Container
}

// New 创建管理端处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
