package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderItem 订单项表
// unit_price 为下单时的价格快照，订单创建后不再变化。
type OrderItem struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                     // 主键
	OrderID     uint           `gorm:"not null;uniqueIndex:uniq_order_product" json:"order_id"`  // 订单ID
	ProductID   uint           `gorm:"not null;uniqueIndex:uniq_order_product" json:"product_id"` // 商品ID（同一订单内唯一）
	ProductName string         `gorm:"type:varchar(200);not null" json:"product_name"`           // 商品名称快照
	ProductSKU  string         `gorm:"type:varchar(50);not null" json:"product_sku"`             // 商品 SKU 快照
	UnitPrice   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`  // 单价快照
	Quantity    int            `gorm:"not null" json:"quantity"`                                 // 数量（>= 1）
	TotalPrice  Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"` // 小计 = 单价 × 数量
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                  // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                                               // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                           // 软删除时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
