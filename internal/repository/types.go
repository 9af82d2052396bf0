package repository

import (
	"time"

	"gorm.io/gorm"
)

// ProductListFilter 查询商品列表的过滤条件
// CategoryIDs 为空表示不限分类；调用方负责展开子树。
type ProductListFilter struct {
	Page         int
	PageSize     int
	CategoryIDs  []uint
	Search       string
	OnlyActive   bool
	OnlyInStock  bool
	WithCategory bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	CustomerID  uint
	Status      string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// applyPagination 应用分页参数，统一处理非法页码与偏移量。
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize
	return query.Limit(pageSize).Offset(offset)
}
