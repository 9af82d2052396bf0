package service

import (
	"errors"
	"fmt"
)

// 业务层哨兵错误，handler 层据此映射响应码。
var (
	ErrNotFound             = errors.New("record not found")
	ErrValidation           = errors.New("validation failed")
	ErrConflict             = errors.New("resource conflict")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrEmailExists          = errors.New("email already registered")
	ErrUsernameExists       = errors.New("username already taken")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAccountDisabled      = errors.New("account disabled")
	ErrWeakPassword         = errors.New("password does not meet policy")
	ErrSlugExists           = errors.New("slug already exists")
	ErrCategoryNameExists   = errors.New("category name already exists")
	ErrSKUExists            = errors.New("sku already exists")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderCreateFailed    = errors.New("order create failed")
	ErrOrderStatusInvalid   = errors.New("order status transition not allowed")
	ErrInvalidOrderItem     = errors.New("invalid order item")
	ErrDuplicateOrderItem   = errors.New("duplicate product in order items")
	ErrCaptchaInvalid       = errors.New("captcha verification failed")
	ErrCaptchaConfigInvalid = errors.New("captcha config invalid")
	ErrCategoryCycle        = errors.New("category parent creates a cycle")
)

// InsufficientStockError 库存不足错误，携带具体商品信息方便提示。
type InsufficientStockError struct {
	ProductID uint
	SKU       string
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (sku %s): requested %d, available %d",
		e.Name, e.SKU, e.Requested, e.Available)
}

// IsInsufficientStock 判断是否库存不足错误
func IsInsufficientStock(err error) bool {
	var target *InsufficientStockError
	return errors.As(err, &target)
}
