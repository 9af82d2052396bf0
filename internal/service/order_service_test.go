package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sokoni-shop/internal/constants"
	"github.com/sokoni-shop/internal/models"
	"github.com/sokoni-shop/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Customer{},
		&models.Category{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	svc := NewOrderService(
		repository.NewOrderRepository(db),
		repository.NewProductRepository(db),
		repository.NewCustomerRepository(db),
		nil,
	)
	return svc, db
}

func createTestCustomer(t *testing.T, db *gorm.DB, email string, active bool) *models.Customer {
	t.Helper()
	customer := &models.Customer{
		Email:        email,
		Username:     strings.Split(email, "@")[0],
		PasswordHash: "x",
		FirstName:    "Jane",
		LastName:     "Doe",
		IsActive:     active,
	}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("create customer %s failed: %v", email, err)
	}
	return customer
}

func reloadProduct(t *testing.T, db *gorm.DB, id uint) *models.Product {
	t.Helper()
	var product models.Product
	if err := db.First(&product, id).Error; err != nil {
		t.Fatalf("reload product %d failed: %v", id, err)
	}
	return &product
}

func TestCreateOrderSuccess(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	ctx := context.Background()

	customer := createTestCustomer(t, db, "jane@example.com", true)
	category := createTestCategory(t, db, "Phones", "phones", nil, true)
	product := createTestProduct(t, db, "Phone X", "PHX", category.ID, 99.99, 10, true)

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerID:      customer.ID,
		ShippingAddress: "123 Moi Avenue, Nairobi",
		Items:           []OrderItemInput{{ProductID: product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if order.Status != constants.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", order.Status)
	}
	if order.TotalAmount.String() != "199.98" {
		t.Fatalf("expected total 199.98, got %s", order.TotalAmount.String())
	}
	if !strings.HasPrefix(order.OrderNo, "ORD") || len(order.OrderNo) != 3+14+6 {
		t.Fatalf("unexpected order no: %q", order.OrderNo)
	}
	if len(order.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(order.Items))
	}
	item := order.Items[0]
	if item.ProductName != "Phone X" || item.ProductSKU != "PHX" {
		t.Fatalf("unexpected item snapshot: %+v", item)
	}
	if item.UnitPrice.String() != "99.99" || item.TotalPrice.String() != "199.98" {
		t.Fatalf("unexpected item pricing: unit=%s total=%s", item.UnitPrice.String(), item.TotalPrice.String())
	}

	if stock := reloadProduct(t, db, product.ID).StockQuantity; stock != 8 {
		t.Fatalf("expected stock 8 after order, got %d", stock)
	}
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	ctx := context.Background()

	customer := createTestCustomer(t, db, "jane@example.com", true)
	category := createTestCategory(t, db, "Phones", "phones", nil, true)
	product := createTestProduct(t, db, "Phone X", "PHX", category.ID, 99.99, 10, true)

	_, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerID:      customer.ID,
		ShippingAddress: "123 Moi Avenue, Nairobi",
		Items:           []OrderItemInput{{ProductID: product.ID, Quantity: 20}},
	})

	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stockErr.Requested != 20 || stockErr.Available != 10 {
		t.Fatalf("unexpected stock error detail: %+v", stockErr)
	}

	// 下单失败不能留下任何订单行，库存也不能变
	if stock := reloadProduct(t, db, product.ID).StockQuantity; stock != 10 {
		t.Fatalf("expected stock unchanged at 10, got %d", stock)
	}
	var count int64
	db.Model(&models.Order{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no orders, got %d", count)
	}
}

func TestCreateOrderMultiLineRollsBackOnStockConflict(t *testing.T) {
	svc, db := setupOrderServiceTest(t)

	customer := createTestCustomer(t, db, "jane@example.com", true)
	category := createTestCategory(t, db, "Phones", "phones", nil, true)
	phone := createTestProduct(t, db, "Phone X", "PHX", category.ID, 99.99, 10, true)
	charger := createTestProduct(t, db, "Charger", "CHG", category.ID, 19.99, 1, true)

	input := CreateOrderInput{
		CustomerID:      customer.ID,
		ShippingAddress: "somewhere",
		Items: []OrderItemInput{
			{ProductID: phone.ID, Quantity: 2},
			{ProductID: charger.ID, Quantity: 1},
		},
	}

	// 先通过校验拿到商品快照，再把第二件商品清零，
	// 模拟校验与提交之间库存被并发订单抢走
	lines, err := svc.validateItems(input.Items)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if err := db.Model(&models.Product{}).Where("id = ?", charger.ID).
		Update("stock_quantity", 0).Error; err != nil {
		t.Fatalf("drain stock failed: %v", err)
	}

	_, err = svc.commitOrder(customer.ID, input, lines)
	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stockErr.ProductID != charger.ID || stockErr.Available != 0 {
		t.Fatalf("unexpected stock error detail: %+v", stockErr)
	}

	// 第二行失败必须连带回滚第一行的扣减
	if stock := reloadProduct(t, db, phone.ID).StockQuantity; stock != 10 {
		t.Fatalf("expected first line decrement rolled back to 10, got %d", stock)
	}
	var orderCount, itemCount int64
	db.Model(&models.Order{}).Count(&orderCount)
	db.Model(&models.OrderItem{}).Count(&itemCount)
	if orderCount != 0 || itemCount != 0 {
		t.Fatalf("expected no rows after rollback, got orders=%d items=%d", orderCount, itemCount)
	}
}

func TestCreateOrderConcurrentStockNeverOversells(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	ctx := context.Background()

	customer := createTestCustomer(t, db, "jane@example.com", true)
	category := createTestCategory(t, db, "Phones", "phones", nil, true)
	product := createTestProduct(t, db, "Phone X", "PHX", category.ID, 99.99, 3, true)

	const workers = 10
	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateOrder(ctx, CreateOrderInput{
				CustomerID:      customer.ID,
				ShippingAddress: "somewhere",
				Items:           []OrderItemInput{{ProductID: product.ID, Quantity: 1}},
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
		}
	}

	// 只有 3 件库存，成功单不能超过 3，且扣减总量必须与成功单一致
	if successes == 0 || successes > 3 {
		t.Fatalf("expected between 1 and 3 successful orders, got %d", successes)
	}
	if stock := reloadProduct(t, db, product.ID).StockQuantity; stock != 3-successes {
		t.Fatalf("expected stock %d after %d orders, got %d", 3-successes, successes, stock)
	}
	var orderCount int64
	db.Model(&models.Order{}).Count(&orderCount)
	if orderCount != int64(successes) {
		t.Fatalf("expected %d orders, got %d", successes, orderCount)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	ctx := context.Background()

	customer := createTestCustomer(t, db, "jane@example.com", true)
	category := createTestCategory(t, db, "Phones", "phones", nil, true)
	product := createTestProduct(t, db, "Phone X", "PHX", category.ID, 99.99, 10, true)
	inactive := createTestProduct(t, db, "Old Phone", "OLD", category.ID, 9.99, 10, false)

	cases := []struct {
		name  string
		input CreateOrderInput
		want  error
	}{
		{
			name: "empty items",
			input: CreateOrderInput{
				CustomerID:      customer.ID,
				ShippingAddress: "somewhere",
			},
			want: ErrValidation,
		},
		{
			name: "blank address",
			input: CreateOrderInput{
				CustomerID:      customer.ID,
				ShippingAddress: "   ",
				Items:           []OrderItemInput{{ProductID: product.ID, Quantity: 1}},
			},
			want: ErrValidation,
		},
		{
			name: "zero quantity",
			input: CreateOrderInput{
				CustomerID:      customer.ID,
				ShippingAddress: "somewhere",
				Items:           []OrderItemInput{{ProductID: product.ID, Quantity: 0}},
			},
			want: ErrValidation,
		},
		{
			name: "duplicate product",
			input: CreateOrderInput{
				CustomerID:      customer.ID,
				ShippingAddress: "somewhere",
				Items: []OrderItemInput{
					{ProductID: product.ID, Quantity: 1},
					{ProductID: product.ID, Quantity: 2},
				},
			},
			want: ErrDuplicateOrderItem,
		},
		{
			name: "inactive product",
			input: CreateOrderInput{
				CustomerID:      customer.ID,
				ShippingAddress: "somewhere",
				Items:           []OrderItemInput{{ProductID: inactive.ID, Quantity: 1}},
			},
			want: ErrProductNotFound,
		},
		{
			name: "missing product",
			input: CreateOrderInput{
				CustomerID:      customer.ID,
				ShippingAddress: "somewhere",
				Items:           []OrderItemInput{{ProductID: 9999, Quantity: 1}},
			},
			want: ErrProductNotFound,
		},
	}

	for _, tc := range cases {
		if _, err := svc.CreateOrder(ctx, tc.input); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestCreateOrderDisabledCustomer(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	ctx := context.Background()

	disabled := createTestCustomer(t, db, "gone@example.com", false)
	category := createTestCategory(t, db, "Phones", "phones", nil, true)
	product := createTestProduct(t, db, "Phone X", "PHX", category.ID, 99.99, 10, true)

	if _, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerID:      disabled.ID,
		ShippingAddress: "somewhere",
		Items:           []OrderItemInput{{ProductID: product.ID, Quantity: 1}},
	}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for disabled customer, got %v", err)
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	ctx := context.Background()

	customer := createTestCustomer(t, db, "jane@example.com", true)
	category := createTestCategory(t, db, "Phones", "phones", nil, true)
	product := createTestProduct(t, db, "Phone X", "PHX", category.ID, 99.99, 10, true)

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerID:      customer.ID,
		ShippingAddress: "somewhere",
		Items:           []OrderItemInput{{ProductID: product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	// 不允许跳级
	if _, err := svc.UpdateStatus(order.ID, constants.OrderStatusDelivered); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected ErrOrderStatusInvalid for pending->delivered, got %v", err)
	}
	// 未知状态
	if _, err := svc.UpdateStatus(order.ID, "refunded"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for unknown status, got %v", err)
	}

	for _, next := range []string{
		constants.OrderStatusConfirmed,
		constants.OrderStatusProcessing,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
	} {
		updated, err := svc.UpdateStatus(order.ID, next)
		if err != nil {
			t.Fatalf("transition to %s failed: %v", next, err)
		}
		if updated.Status != next {
			t.Fatalf("expected status %s, got %s", next, updated.Status)
		}
	}

	// delivered 为终态
	if _, err := svc.UpdateStatus(order.ID, constants.OrderStatusCancelled); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected ErrOrderStatusInvalid for delivered->cancelled, got %v", err)
	}
}

func TestOrderCancelRestoresStock(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	ctx := context.Background()

	customer := createTestCustomer(t, db, "jane@example.com", true)
	category := createTestCategory(t, db, "Phones", "phones", nil, true)
	product := createTestProduct(t, db, "Phone X", "PHX", category.ID, 99.99, 10, true)

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerID:      customer.ID,
		ShippingAddress: "somewhere",
		Items:           []OrderItemInput{{ProductID: product.ID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if stock := reloadProduct(t, db, product.ID).StockQuantity; stock != 7 {
		t.Fatalf("expected stock 7 after order, got %d", stock)
	}

	if _, err := svc.UpdateStatus(order.ID, constants.OrderStatusConfirmed); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	cancelled, err := svc.UpdateStatus(order.ID, constants.OrderStatusCancelled)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled {
		t.Fatalf("expected cancelled status, got %s", cancelled.Status)
	}
	if cancelled.CanceledAt == nil {
		t.Fatal("expected canceled_at to be set")
	}
	if stock := reloadProduct(t, db, product.ID).StockQuantity; stock != 10 {
		t.Fatalf("expected stock restored to 10, got %d", stock)
	}
}

func TestOrderCancelAfterShippingKeepsStock(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	ctx := context.Background()

	customer := createTestCustomer(t, db, "jane@example.com", true)
	category := createTestCategory(t, db, "Phones", "phones", nil, true)
	product := createTestProduct(t, db, "Phone X", "PHX", category.ID, 99.99, 10, true)

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerID:      customer.ID,
		ShippingAddress: "somewhere",
		Items:           []OrderItemInput{{ProductID: product.ID, Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	for _, next := range []string{
		constants.OrderStatusConfirmed,
		constants.OrderStatusProcessing,
		constants.OrderStatusShipped,
		constants.OrderStatusCancelled,
	} {
		if _, err := svc.UpdateStatus(order.ID, next); err != nil {
			t.Fatalf("transition to %s failed: %v", next, err)
		}
	}

	// 已发货的货不回仓
	if stock := reloadProduct(t, db, product.ID).StockQuantity; stock != 6 {
		t.Fatalf("expected stock to stay at 6, got %d", stock)
	}
}

func TestCancelOrderForCustomer(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	ctx := context.Background()

	jane := createTestCustomer(t, db, "jane@example.com", true)
	other := createTestCustomer(t, db, "other@example.com", true)
	category := createTestCategory(t, db, "Phones", "phones", nil, true)
	product := createTestProduct(t, db, "Phone X", "PHX", category.ID, 99.99, 10, true)

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerID:      jane.ID,
		ShippingAddress: "somewhere",
		Items:           []OrderItemInput{{ProductID: product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	// 只能取消自己的订单
	if _, err := svc.CancelOrderForCustomer(order.ID, other.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for foreign customer, got %v", err)
	}

	cancelled, err := svc.CancelOrderForCustomer(order.ID, jane.ID)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled {
		t.Fatalf("expected cancelled status, got %s", cancelled.Status)
	}
	if stock := reloadProduct(t, db, product.ID).StockQuantity; stock != 10 {
		t.Fatalf("expected stock restored to 10, got %d", stock)
	}

	// 已取消的订单不能再取消
	if _, err := svc.CancelOrderForCustomer(order.ID, jane.ID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected ErrOrderStatusInvalid for double cancel, got %v", err)
	}
}

func TestOrderListAndGetForCustomer(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	ctx := context.Background()

	jane := createTestCustomer(t, db, "jane@example.com", true)
	other := createTestCustomer(t, db, "other@example.com", true)
	category := createTestCategory(t, db, "Phones", "phones", nil, true)
	product := createTestProduct(t, db, "Phone X", "PHX", category.ID, 99.99, 100, true)

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerID:      jane.ID,
		ShippingAddress: "somewhere",
		Items:           []OrderItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	orders, total, err := svc.ListOrdersByCustomer(jane.ID, 1, 20)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(orders) != 1 {
		t.Fatalf("expected 1 order, got total=%d len=%d", total, len(orders))
	}

	// 别人的订单查不到
	if _, err := svc.GetOrderForCustomer(order.ID, other.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound for foreign customer, got %v", err)
	}
	got, err := svc.GetOrderForCustomer(order.ID, jane.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.OrderNo != order.OrderNo {
		t.Fatalf("expected order %s, got %s", order.OrderNo, got.OrderNo)
	}
}

func TestOrderStatistics(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	ctx := context.Background()

	customer := createTestCustomer(t, db, "jane@example.com", true)
	category := createTestCategory(t, db, "Phones", "phones", nil, true)
	product := createTestProduct(t, db, "Phone X", "PHX", category.ID, 50.00, 100, true)

	first, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerID:      customer.ID,
		ShippingAddress: "somewhere",
		Items:           []OrderItemInput{{ProductID: product.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create first order failed: %v", err)
	}
	if _, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerID:      customer.ID,
		ShippingAddress: "somewhere",
		Items:           []OrderItemInput{{ProductID: product.ID, Quantity: 2}},
	}); err != nil {
		t.Fatalf("create second order failed: %v", err)
	}
	if _, err := svc.UpdateStatus(first.ID, constants.OrderStatusConfirmed); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	stats, err := svc.Statistics(customer.ID)
	if err != nil {
		t.Fatalf("statistics failed: %v", err)
	}
	if stats.TotalOrders != 2 {
		t.Fatalf("expected 2 orders, got %d", stats.TotalOrders)
	}
	if stats.TotalSpent.String() != "150.00" {
		t.Fatalf("expected total spent 150.00, got %s", stats.TotalSpent.String())
	}
	// 所有已知状态都要有计数，没有订单的补零
	if len(stats.OrdersByStatus) != len(constants.AllOrderStatuses) {
		t.Fatalf("expected %d statuses, got %d", len(constants.AllOrderStatuses), len(stats.OrdersByStatus))
	}
	if stats.OrdersByStatus[constants.OrderStatusPending] != 1 ||
		stats.OrdersByStatus[constants.OrderStatusConfirmed] != 1 ||
		stats.OrdersByStatus[constants.OrderStatusCancelled] != 0 {
		t.Fatalf("unexpected status counts: %+v", stats.OrdersByStatus)
	}
}

func TestOrderStatusTransitionTable(t *testing.T) {
	cases := []struct {
		from, to string
		allowed  bool
	}{
		{constants.OrderStatusPending, constants.OrderStatusConfirmed, true},
		{constants.OrderStatusPending, constants.OrderStatusCancelled, true},
		{constants.OrderStatusPending, constants.OrderStatusShipped, false},
		{constants.OrderStatusConfirmed, constants.OrderStatusProcessing, true},
		{constants.OrderStatusProcessing, constants.OrderStatusShipped, true},
		{constants.OrderStatusShipped, constants.OrderStatusDelivered, true},
		{constants.OrderStatusShipped, constants.OrderStatusCancelled, true},
		{constants.OrderStatusDelivered, constants.OrderStatusCancelled, false},
		{constants.OrderStatusCancelled, constants.OrderStatusPending, false},
	}
	for _, tc := range cases {
		if got := canTransitionOrderStatus(tc.from, tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}

	if !stockRestorableOnCancel(constants.OrderStatusProcessing) {
		t.Fatal("expected stock restorable when cancelling from processing")
	}
	if stockRestorableOnCancel(constants.OrderStatusShipped) {
		t.Fatal("expected no stock restore when cancelling from shipped")
	}
	if !isTerminalOrderStatus(constants.OrderStatusDelivered) || !isTerminalOrderStatus(constants.OrderStatusCancelled) {
		t.Fatal("expected delivered and cancelled to be terminal")
	}
	if isTerminalOrderStatus("unknown") {
		t.Fatal("unknown status must not be terminal")
	}
}
