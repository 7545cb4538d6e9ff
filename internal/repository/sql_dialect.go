package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// 订单搜索覆盖的列
var orderSearchColumns = []string{"tracking_code", "delivery_area", "email"}

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

// buildLikeCondition 构建多列 LIKE 条件，并返回参数数量。
func buildLikeCondition(db *gorm.DB, columns []string) (string, int) {
	return buildLikeConditionByDialect(dbDialectName(db), columns)
}

func buildLikeConditionByDialect(dialect string, columns []string) (string, int) {
	parts := make([]string, 0, len(columns)+1)
	for _, column := range columns {
		trimmed := strings.TrimSpace(column)
		if trimmed == "" {
			continue
		}
		parts = append(parts, likeClauseByDialect(dialect, trimmed))
	}
	// 商品名存于订单项
	parts = append(parts, fmt.Sprintf("EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = orders.id AND %s)", likeClauseByDialect(dialect, "oi.name")))
	return strings.Join(parts, " OR "), len(parts)
}

// sqlite 的 LIKE 无默认转义符
func likeClauseByDialect(dialect, column string) string {
	clause := fmt.Sprintf("%s %s ?", column, likeOperatorByDialect(dialect))
	if dialect == "sqlite" {
		clause += ` ESCAPE '\'`
	}
	return clause
}

func likeOperatorByDialect(dialect string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return "ILIKE"
	default:
		return "LIKE"
	}
}

// likePattern 转义通配符后包成 %keyword%
func likePattern(keyword string) string {
	replacer := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return "%" + replacer.Replace(strings.TrimSpace(keyword)) + "%"
}

// repeatLikeArgs 生成重复的 LIKE 参数列表。
func repeatLikeArgs(like string, count int) []interface{} {
	args := make([]interface{}, 0, count)
	for i := 0; i < count; i++ {
		args = append(args, like)
	}
	return args
}
