package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/sokoni-shop/internal/constants"
	"github.com/sokoni-shop/internal/logger"
	"github.com/sokoni-shop/internal/models"
	"github.com/sokoni-shop/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService 订单业务服务
type OrderService struct {
	orderRepo    repository.OrderRepository
	productRepo  repository.ProductRepository
	customerRepo repository.CustomerRepository
	notifier     *NotificationService
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository,
	notifier *NotificationService,
) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		productRepo:  productRepo,
		customerRepo: customerRepo,
		notifier:     notifier,
	}
}

// OrderItemInput 下单明细输入
type OrderItemInput struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// CreateOrderInput 下单输入
type CreateOrderInput struct {
	CustomerID      uint
	ShippingAddress string
	Notes           string
	Items           []OrderItemInput
}

// OrderStatistics 客户订单统计
type OrderStatistics struct {
	TotalOrders    int64            `json:"total_orders"`
	TotalSpent     models.Money     `json:"total_spent"`
	OrdersByStatus map[string]int64 `json:"orders_by_status"`
}

// orderLine 校验通过后的下单明细（带商品快照）
type orderLine struct {
	product  models.Product
	quantity int
}

// validateItems 校验下单明细：至少一条、数量 >= 1、商品不可重复、
// 商品必须存在且上架、数量不超过当前库存（提交时还会二次校验）。
func (s *OrderService) validateItems(items []OrderItemInput) ([]orderLine, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", ErrValidation)
	}

	ids := make([]uint, 0, len(items))
	seen := make(map[uint]bool, len(items))
	for _, item := range items {
		if item.ProductID == 0 {
			return nil, fmt.Errorf("%w: product_id is required", ErrValidation)
		}
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
		}
		if seen[item.ProductID] {
			return nil, ErrDuplicateOrderItem
		}
		seen[item.ProductID] = true
		ids = append(ids, item.ProductID)
	}

	products, err := s.productRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	lines := make([]orderLine, 0, len(items))
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok || !product.IsActive {
			return nil, ErrProductNotFound
		}
		if item.Quantity > product.StockQuantity {
			return nil, &InsufficientStockError{
				ProductID: product.ID,
				SKU:       product.SKU,
				Name:      product.Name,
				Requested: item.Quantity,
				Available: product.StockQuantity,
			}
		}
		lines = append(lines, orderLine{product: product, quantity: item.Quantity})
	}
	return lines, nil
}

// CreateOrder 下单事务：校验、条件扣库存、写订单及明细，全部成功或全部回滚。
// 提交后异步触发短信/邮件通知，通知失败不影响订单。
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if strings.TrimSpace(input.ShippingAddress) == "" {
		return nil, fmt.Errorf("%w: shipping address is required", ErrValidation)
	}
	customer, err := s.customerRepo.GetByID(input.CustomerID)
	if err != nil {
		return nil, err
	}
	if customer == nil || !customer.IsActive {
		return nil, ErrNotFound
	}

	lines, err := s.validateItems(input.Items)
	if err != nil {
		return nil, err
	}

	// 订单号碰撞概率极低，但仍换号重试一次，再失败按冲突处理
	var order *models.Order
	for attempt := 0; attempt < 2; attempt++ {
		order, err = s.commitOrder(customer.ID, input, lines)
		if err == nil {
			break
		}
		if IsInsufficientStock(err) || errors.Is(err, ErrValidation) {
			return nil, err
		}
		if attempt == 0 && isDuplicateKeyError(err) {
			continue
		}
		if isDuplicateKeyError(err) {
			return nil, ErrConflict
		}
		logger.Errorw("order_commit_failed",
			"customer_id", input.CustomerID,
			"error", err,
		)
		return nil, ErrOrderCreateFailed
	}
	if err != nil {
		return nil, ErrOrderCreateFailed
	}

	s.notifyOrderPlaced(ctx, order)

	full, fetchErr := s.orderRepo.GetByID(order.ID)
	if fetchErr == nil && full != nil {
		return full, nil
	}
	return order, nil
}

func (s *OrderService) commitOrder(customerID uint, input CreateOrderInput, lines []orderLine) (*models.Order, error) {
	now := time.Now()
	order := &models.Order{
		OrderNo:         generateOrderNo(),
		CustomerID:      customerID,
		Status:          constants.OrderStatusPending,
		ShippingAddress: strings.TrimSpace(input.ShippingAddress),
		Notes:           strings.TrimSpace(input.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := models.DB.Transaction(func(tx *gorm.DB) error {
		productRepo := s.productRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			// 条件 UPDATE 扣库存，0 行受影响说明并发下被其它订单抢先
			affected, err := productRepo.DecrementStock(line.product.ID, line.quantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				current, readErr := productRepo.GetByID(line.product.ID)
				available := 0
				if readErr == nil && current != nil {
					available = current.StockQuantity
				}
				return &InsufficientStockError{
					ProductID: line.product.ID,
					SKU:       line.product.SKU,
					Name:      line.product.Name,
					Requested: line.quantity,
					Available: available,
				}
			}

			unitPrice := line.product.Price
			lineTotal := models.NewMoneyFromDecimal(unitPrice.Decimal.Mul(decimal.NewFromInt(int64(line.quantity))))
			items = append(items, models.OrderItem{
				ProductID:   line.product.ID,
				ProductName: line.product.Name,
				ProductSKU:  line.product.SKU,
				UnitPrice:   unitPrice,
				Quantity:    line.quantity,
				TotalPrice:  lineTotal,
			})
			total = total.Add(lineTotal.Decimal)
		}

		order.TotalAmount = models.NewMoneyFromDecimal(total)
		order.Items = items
		return orderRepo.Create(order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) notifyOrderPlaced(ctx context.Context, order *models.Order) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.EnqueueOrderPlaced(ctx, order.ID); err != nil {
		logger.Warnw("order_notify_enqueue_failed",
			"order_id", order.ID,
			"order_no", order.OrderNo,
			"error", err,
		)
	}
}

// GetOrderForCustomer 客户只能查询自己的订单
func (s *OrderService) GetOrderForCustomer(orderID, customerID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndCustomer(orderID, customerID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrdersByCustomer 客户订单列表（按下单时间倒序）
func (s *OrderService) ListOrdersByCustomer(customerID uint, page, pageSize int) ([]models.Order, int64, error) {
	return s.orderRepo.List(repository.OrderListFilter{
		Page:       page,
		PageSize:   pageSize,
		CustomerID: customerID,
	})
}

// ListOrders 管理端订单列表
func (s *OrderService) ListOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.List(filter)
}

// GetOrder 管理端查询任意订单
func (s *OrderService) GetOrder(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// Statistics 客户订单统计：各状态计数缺省补零
func (s *OrderService) Statistics(customerID uint) (*OrderStatistics, error) {
	total, err := s.orderRepo.CountByCustomer(customerID)
	if err != nil {
		return nil, err
	}
	spent, err := s.orderRepo.SumTotalByCustomer(customerID)
	if err != nil {
		return nil, err
	}
	counts, err := s.orderRepo.CountByCustomerGroupStatus(customerID)
	if err != nil {
		return nil, err
	}

	byStatus := make(map[string]int64, len(constants.AllOrderStatuses))
	for _, status := range constants.AllOrderStatuses {
		byStatus[status] = counts[status]
	}
	return &OrderStatistics{
		TotalOrders:    total,
		TotalSpent:     spent,
		OrdersByStatus: byStatus,
	}, nil
}

// UpdateStatus 管理端推进订单状态。转入 cancelled 且尚未发货时回补库存，
// 回补与状态写入在同一事务内。
func (s *OrderService) UpdateStatus(orderID uint, newStatus string) (*models.Order, error) {
	target := normalizeOrderStatus(newStatus)
	if !isValidOrderStatus(target) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, newStatus)
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !canTransitionOrderStatus(order.Status, target) {
		return nil, ErrOrderStatusInvalid
	}

	if target == constants.OrderStatusCancelled {
		return s.cancelOrder(order)
	}

	if err := s.orderRepo.UpdateStatus(order.ID, target); err != nil {
		return nil, err
	}
	return s.orderRepo.GetByID(order.ID)
}

// CancelOrderForCustomer 客户取消自己的订单，仅非终态可取消
func (s *OrderService) CancelOrderForCustomer(orderID, customerID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndCustomer(orderID, customerID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !canTransitionOrderStatus(order.Status, constants.OrderStatusCancelled) {
		return nil, ErrOrderStatusInvalid
	}
	return s.cancelOrder(order)
}

func (s *OrderService) cancelOrder(order *models.Order) (*models.Order, error) {
	restoreStock := stockRestorableOnCancel(order.Status)
	now := time.Now()

	err := models.DB.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)

		if restoreStock {
			for _, item := range order.Items {
				if _, err := productRepo.RestoreStock(item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}
		return orderRepo.MarkCanceled(order.ID, now)
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("order_cancelled",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"stock_restored", restoreStock,
	)
	return s.orderRepo.GetByID(order.ID)
}

// generateOrderNo 订单号：ORD + 秒级时间戳 + 6 位随机数字
func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("ORD%s%s", now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		fmt.Fprintf(&b, "%d", n.Int64())
	}
	return b.String()
}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint") ||
		strings.Contains(message, "duplicate key") ||
		strings.Contains(message, "unique failed")
}
