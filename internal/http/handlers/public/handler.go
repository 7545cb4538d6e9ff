package public

import "github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/provider"

// Handler 顾客侧接口处理器入口
// 说明：结算、计价、订单追踪与支付回调，均无需登录。
type Handler struct {
	*provider.Container
}

// New 创建顾客侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
