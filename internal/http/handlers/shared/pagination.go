package shared

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ParsePagination 读取 page / page_size 查询参数，非法值回落到默认值
func ParsePagination(c *gin.Context) (int, int) {
	page := queryInt(c, "page")
	pageSize := queryInt(c, "page_size")
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return 0
	}
	return n
}
