package repository

import "github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/models"

// OrderListFilter 查询订单列表的过滤条件（分页为可选便利参数）
type OrderListFilter struct {
	Page       int
	PageSize   int
	Status     string
	PharmacyID uint
	Keyword    string // 追踪码 / 配送区域 / 邮箱 / 商品名模糊匹配
}

// 订单变更类型
const (
	ChangeInsert = "INSERT"
	ChangeUpdate = "UPDATE"
	ChangeDelete = "DELETE"
)

// OrderChangePublisher 订单表变更订阅方（实时推送）
type OrderChangePublisher interface {
	PublishOrderChange(changeType string, before, after *models.Order)
}
