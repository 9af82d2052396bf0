package models

import (
	"strings"

	"github.com/sokoni-shop/internal/logger"

	"golang.org/x/crypto/bcrypt"
)

// InitDefaultStaff 初始化默认员工账号（分类与商品管理入口）
func InitDefaultStaff(email, password string) error {
	var count int64
	DB.Model(&Customer{}).Where("is_staff = ?", true).Count(&count)
	if count > 0 {
		return nil
	}

	if email == "" {
		email = "admin@sokoni.local"
	}
	if password == "" {
		password = "admin123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	staff := Customer{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Username:     "admin",
		PasswordHash: string(hash),
		IsActive:     true,
		IsStaff:      true,
	}

	if err := DB.Create(&staff).Error; err != nil {
		return err
	}

	if password == "admin123" {
		logger.Warnw("default_staff_created_with_default_password", "email", staff.Email)
		logger.Warnw("default_staff_password_change_required", "email", staff.Email)
	} else {
		logger.Warnw("default_staff_created", "email", staff.Email, "password_hidden", true)
	}

	return nil
}
