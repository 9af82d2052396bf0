package queue

import (
	"encoding/json"

	"github.com/sokoni-shop/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderSMS 下单短信通知任务
	TaskOrderSMS = constants.TaskOrderSMS
	// TaskOrderEmail 下单管理员邮件通知任务
	TaskOrderEmail = constants.TaskOrderEmail
)

// OrderSMSPayload 下单短信任务载荷
type OrderSMSPayload struct {
	OrderID uint `json:"order_id"`
}

// OrderEmailPayload 下单邮件任务载荷
type OrderEmailPayload struct {
	OrderID uint `json:"order_id"`
}

// NewOrderSMSTask 创建下单短信任务
func NewOrderSMSTask(payload OrderSMSPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderSMS, body), nil
}

// NewOrderEmailTask 创建下单邮件任务
func NewOrderEmailTask(payload OrderEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderEmail, body), nil
}
