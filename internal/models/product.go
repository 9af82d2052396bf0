package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                    // 主键
	CategoryID    uint           `gorm:"not null;index" json:"category_id"`                       // 分类ID
	Name          string         `gorm:"type:varchar(200);not null;index" json:"name"`            // 商品名称
	Description   string         `gorm:"type:text" json:"description"`                            // 描述
	SKU           string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"sku"`        // 库存单位编码
	Price         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"`      // 单价（> 0）
	StockQuantity int            `gorm:"not null;default:0" json:"stock_quantity"`                // 库存数量（永不为负）
	IsActive      bool           `gorm:"default:true;index" json:"is_active"`                     // 是否上架
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt     time.Time      `json:"updated_at"`                                              // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                          // 软删除时间

	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // 分类信息
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// IsInStock 是否有库存
func (p *Product) IsInStock() bool {
	return p.StockQuantity > 0
}
