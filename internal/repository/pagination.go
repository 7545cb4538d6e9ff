package repository

import "gorm.io/gorm"

// 仓库层单页上限，与接口层上限一致
const maxListPageSize = 100

// pageOrders 订单列表按创建时间倒序分页，id 倒序保证同一时刻创建的订单顺序稳定。
// PageSize 为 0 时返回全部，供命令行工具等内部调用。
func pageOrders(query *gorm.DB, filter OrderListFilter) *gorm.DB {
	if query == nil {
		return nil
	}
	query = query.Order("created_at DESC").Order("id DESC")
	if filter.PageSize <= 0 {
		return query
	}
	pageSize := filter.PageSize
	if pageSize > maxListPageSize {
		pageSize = maxListPageSize
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}
