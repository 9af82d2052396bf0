package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/sokoni-shop/internal/models"
)

const authStateCacheTTL = 10 * time.Minute

// CustomerAuthState 客户鉴权快照
// 该结构仅用于服务端 Redis 缓存
// 字段保持简洁，避免鉴权中间件重复查询数据库
type CustomerAuthState struct {
	CustomerID uint  `json:"customer_id"`
	IsActive   bool  `json:"is_active"`
	IsStaff    bool  `json:"is_staff"`
	UpdatedAt  int64 `json:"updated_at"`
}

func customerAuthStateKey(customerID uint) string {
	return fmt.Sprintf("auth:customer:%d", customerID)
}

// BuildCustomerAuthState 从客户模型构建鉴权快照
func BuildCustomerAuthState(customer *models.Customer) *CustomerAuthState {
	if customer == nil {
		return nil
	}
	return &CustomerAuthState{
		CustomerID: customer.ID,
		IsActive:   customer.IsActive,
		IsStaff:    customer.IsStaff,
		UpdatedAt:  time.Now().Unix(),
	}
}

// GetCustomerAuthState 获取客户鉴权快照
func GetCustomerAuthState(ctx context.Context, customerID uint) (*CustomerAuthState, bool, error) {
	if customerID == 0 {
		return nil, false, nil
	}
	var state CustomerAuthState
	hit, err := GetJSON(ctx, customerAuthStateKey(customerID), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

// SetCustomerAuthState 写入客户鉴权快照
func SetCustomerAuthState(ctx context.Context, state *CustomerAuthState) error {
	if state == nil || state.CustomerID == 0 {
		return nil
	}
	return SetJSON(ctx, customerAuthStateKey(state.CustomerID), state, authStateCacheTTL)
}

// DelCustomerAuthState 删除客户鉴权快照
func DelCustomerAuthState(ctx context.Context, customerID uint) error {
	if customerID == 0 {
		return nil
	}
	return Del(ctx, customerAuthStateKey(customerID))
}
