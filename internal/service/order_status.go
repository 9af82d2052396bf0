package service

import (
	"strings"

	"github.com/sokoni-shop/internal/constants"
)

// orderStatusTransitions 订单状态机：线性推进，终态不可再变，
// cancelled 可从任意非终态进入。
var orderStatusTransitions = map[string][]string{
	constants.OrderStatusPending:    {constants.OrderStatusConfirmed, constants.OrderStatusCancelled},
	constants.OrderStatusConfirmed:  {constants.OrderStatusProcessing, constants.OrderStatusCancelled},
	constants.OrderStatusProcessing: {constants.OrderStatusShipped, constants.OrderStatusCancelled},
	constants.OrderStatusShipped:    {constants.OrderStatusDelivered, constants.OrderStatusCancelled},
	constants.OrderStatusDelivered:  {},
	constants.OrderStatusCancelled:  {},
}

func normalizeOrderStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// isValidOrderStatus 判断是否已知状态
func isValidOrderStatus(status string) bool {
	_, ok := orderStatusTransitions[normalizeOrderStatus(status)]
	return ok
}

// isTerminalOrderStatus delivered 和 cancelled 为终态
func isTerminalOrderStatus(status string) bool {
	return len(orderStatusTransitions[normalizeOrderStatus(status)]) == 0 && isValidOrderStatus(status)
}

// canTransitionOrderStatus 判断状态迁移是否允许
func canTransitionOrderStatus(from, to string) bool {
	target := normalizeOrderStatus(to)
	for _, allowed := range orderStatusTransitions[normalizeOrderStatus(from)] {
		if allowed == target {
			return true
		}
	}
	return false
}

// stockRestorableOnCancel 已发货/已送达的订单取消时不再回补库存
func stockRestorableOnCancel(from string) bool {
	switch normalizeOrderStatus(from) {
	case constants.OrderStatusPending, constants.OrderStatusConfirmed, constants.OrderStatusProcessing:
		return true
	default:
		return false
	}
}
