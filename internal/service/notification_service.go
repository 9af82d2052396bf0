package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sokoni-shop/internal/logger"
	"github.com/sokoni-shop/internal/models"
	"github.com/sokoni-shop/internal/queue"
	"github.com/sokoni-shop/internal/repository"
	"github.com/sokoni-shop/internal/sms"

	"github.com/hibiken/asynq"
)

// NotificationService 下单通知服务：短信给客户，邮件给管理员。
// 全部尽力而为，发送失败只记录日志，绝不影响订单事务。
type NotificationService struct {
	orderRepo    repository.OrderRepository
	emailService *EmailService
	smsClient    *sms.Client
	queueClient  *queue.Client
	adminEmail   string
}

// NewNotificationService 创建通知服务
func NewNotificationService(
	orderRepo repository.OrderRepository,
	emailService *EmailService,
	smsClient *sms.Client,
	queueClient *queue.Client,
	adminEmail string,
) *NotificationService {
	return &NotificationService{
		orderRepo:    orderRepo,
		emailService: emailService,
		smsClient:    smsClient,
		queueClient:  queueClient,
		adminEmail:   strings.TrimSpace(adminEmail),
	}
}

// EnqueueOrderPlaced 下单通知入队。队列不可用时退化为同步尽力发送。
func (s *NotificationService) EnqueueOrderPlaced(ctx context.Context, orderID uint) error {
	if s == nil {
		return nil
	}
	if s.queueClient != nil && s.queueClient.Enabled() {
		if err := s.queueClient.EnqueueOrderSMS(queue.OrderSMSPayload{OrderID: orderID}, asynq.MaxRetry(5)); err != nil {
			return err
		}
		return s.queueClient.EnqueueOrderEmail(queue.OrderEmailPayload{OrderID: orderID}, asynq.MaxRetry(5))
	}

	if err := s.DispatchOrderSMS(ctx, queue.OrderSMSPayload{OrderID: orderID}); err != nil {
		logger.Warnw("order_sms_send_failed", "order_id", orderID, "error", err)
	}
	if err := s.DispatchOrderEmail(ctx, queue.OrderEmailPayload{OrderID: orderID}); err != nil {
		logger.Warnw("order_email_send_failed", "order_id", orderID, "error", err)
	}
	return nil
}

// DispatchOrderSMS 向客户发送下单确认短信
func (s *NotificationService) DispatchOrderSMS(ctx context.Context, payload queue.OrderSMSPayload) error {
	order, err := s.orderRepo.GetByID(payload.OrderID)
	if err != nil {
		return err
	}
	if order == nil {
		logger.Debugw("order_sms_skipped_order_missing", "order_id", payload.OrderID)
		return nil
	}

	phone := strings.TrimSpace(order.Customer.PhoneNumber)
	if phone == "" {
		logger.Debugw("order_sms_skipped_no_phone",
			"order_id", order.ID,
			"order_no", order.OrderNo,
		)
		return nil
	}

	message := BuildOrderSMSText(order)
	if err := s.smsClient.Send(ctx, phone, message); err != nil {
		logger.Warnw("order_sms_send_failed",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"error", err,
		)
		return err
	}
	return nil
}

// DispatchOrderEmail 向管理员邮箱发送新订单通知
func (s *NotificationService) DispatchOrderEmail(ctx context.Context, payload queue.OrderEmailPayload) error {
	order, err := s.orderRepo.GetByID(payload.OrderID)
	if err != nil {
		return err
	}
	if order == nil {
		logger.Debugw("order_email_skipped_order_missing", "order_id", payload.OrderID)
		return nil
	}

	if s.emailService == nil || !s.emailService.Enabled() || s.adminEmail == "" {
		logger.Debugw("order_email_skipped_channel_disabled",
			"order_id", order.ID,
			"order_no", order.OrderNo,
		)
		return nil
	}

	subject, body := BuildOrderAdminEmail(order)
	if err := s.emailService.Send(s.adminEmail, subject, body); err != nil {
		logger.Warnw("order_email_send_failed",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"recipient", s.adminEmail,
			"error", err,
		)
		return err
	}
	return nil
}

// BuildOrderSMSText 下单确认短信文案
func BuildOrderSMSText(order *models.Order) string {
	return fmt.Sprintf(
		"Hi %s, your order %s totaling KES %s has been placed successfully. Thank you for shopping with us!",
		order.Customer.FirstName,
		order.OrderNo,
		order.TotalAmount.String(),
	)
}

// BuildOrderAdminEmail 新订单管理员邮件的主题和正文
func BuildOrderAdminEmail(order *models.Order) (string, string) {
	subject := fmt.Sprintf("New Order Placed - %s", order.OrderNo)

	itemLines := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		itemLines = append(itemLines, fmt.Sprintf(
			"- %s (SKU: %s) x %d @ KES %s = KES %s",
			item.ProductName,
			item.ProductSKU,
			item.Quantity,
			item.UnitPrice.String(),
			item.TotalPrice.String(),
		))
	}

	phone := strings.TrimSpace(order.Customer.PhoneNumber)
	if phone == "" {
		phone = "Not provided"
	}
	notes := strings.TrimSpace(order.Notes)
	if notes == "" {
		notes = "None"
	}

	body := fmt.Sprintf(`A new order has been placed:

Order Number: %s
Customer: %s %s
Email: %s
Phone: %s
Total Amount: KES %s
Status: %s

Shipping Address:
%s

Order Items:
%s

Notes: %s

Order placed on: %s`,
		order.OrderNo,
		order.Customer.FirstName,
		order.Customer.LastName,
		order.Customer.Email,
		phone,
		order.TotalAmount.String(),
		order.Status,
		order.ShippingAddress,
		strings.Join(itemLines, "\n"),
		notes,
		order.CreatedAt.Format("2006-01-02 15:04:05"),
	)
	return subject, body
}
