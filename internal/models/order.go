package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                      // 主键
	OrderNo         string         `gorm:"uniqueIndex;not null" json:"order_no"`                      // 订单编号
	CustomerID      uint           `gorm:"index;not null" json:"customer_id"`                         // 客户ID
	Status          string         `gorm:"index;not null" json:"status"`                              // 订单状态
	TotalAmount     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 订单总额（服务端计算）
	ShippingAddress string         `gorm:"type:text;not null" json:"shipping_address"`                // 收货地址
	Notes           string         `gorm:"type:text" json:"notes"`                                    // 备注
	CanceledAt      *time.Time     `gorm:"index" json:"canceled_at,omitempty"`                        // 取消时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	Items    []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"` // 订单项
	Customer Customer    `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`                       // 客户信息
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
