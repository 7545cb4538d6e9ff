package pharmacy

import "github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/provider"

// Handler 药房端接口处理器入口
type Handler struct {
	*provider.Container
}

// New 创建药房端处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
