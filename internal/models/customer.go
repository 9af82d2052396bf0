package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Customer 客户表
type Customer struct {
	ID           uint           `gorm:"primarykey" json:"id"`                 // 主键
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`    // 邮箱
	Username     string         `gorm:"uniqueIndex;not null" json:"username"` // 用户名
	PasswordHash string         `gorm:"not null" json:"-"`                    // 密码哈希（不返回给前端）
	FirstName    string         `gorm:"type:varchar(100)" json:"first_name"`  // 名
	LastName     string         `gorm:"type:varchar(100)" json:"last_name"`   // 姓
	PhoneNumber  string         `gorm:"type:varchar(15)" json:"phone_number"` // 手机号（短信通知需要）
	Address      string         `gorm:"type:text" json:"address"`             // 地址
	DateOfBirth  *time.Time     `json:"date_of_birth"`                        // 出生日期
	IsActive     bool           `gorm:"default:true;index" json:"is_active"`  // 是否启用
	IsStaff      bool           `gorm:"default:false" json:"is_staff"`        // 是否员工
	LastLoginAt  *time.Time     `json:"last_login_at"`                        // 最后登录时间
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`              // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`              // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                       // 软删除时间
}

// TableName 指定表名
func (Customer) TableName() string {
	return "customers"
}

// FullName 姓名拼接（可能为空）
func (c *Customer) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}
