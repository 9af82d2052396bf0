package models

import (
	"time"

	"gorm.io/gorm"
)

// Category 分类表（parent_id 自引用构成分类树）
type Category struct {
	ID          uint           `gorm:"primarykey" json:"id"`                // 主键
	Name        string         `gorm:"uniqueIndex;not null" json:"name"`    // 分类名称
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"`    // 唯一标识
	Description string         `gorm:"type:text" json:"description"`        // 描述
	ParentID    *uint          `gorm:"index" json:"parent_id,omitempty"`    // 父分类ID（根分类为空）
	IsActive    bool           `gorm:"default:true;index" json:"is_active"` // 是否启用
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`             // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                          // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                      // 软删除时间

	Children []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"` // 子分类
}

// TableName 指定表名
func (Category) TableName() string {
	return "categories"
}
