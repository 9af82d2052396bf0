package public

import (
	"errors"
	"strconv"

	handlershared "github.com/sokoni-shop/internal/http/handlers/shared"
	"github.com/sokoni-shop/internal/http/response"
	"github.com/sokoni-shop/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateOrderRequest 下单请求
type CreateOrderRequest struct {
	ShippingAddress string                   `json:"shipping_address" binding:"required"`
	Notes           string                   `json:"notes"`
	Items           []CreateOrderItemRequest `json:"items" binding:"required"`
}

// CreateOrderItemRequest 下单商品项
type CreateOrderItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// CreateOrder 客户下单
func (h *Handler) CreateOrder(c *gin.Context) {
	customerID, ok := getCustomerID(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	input := service.CreateOrderInput{
		CustomerID:      customerID,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
		Items:           make([]service.OrderItemInput, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, service.OrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}

	order, err := h.OrderService.CreateOrder(c.Request.Context(), input)
	if err != nil {
		var stockErr *service.InsufficientStockError
		if errors.As(err, &stockErr) {
			response.ErrorWithData(c, response.CodeConflict, stockErr.Error(), gin.H{
				"product_id": stockErr.ProductID,
				"sku":        stockErr.SKU,
				"requested":  stockErr.Requested,
				"available":  stockErr.Available,
			})
			return
		}
		respondWithMappedError(c, err, customerOrderErrorRules, response.CodeInternal, "create order failed")
		return
	}

	response.Success(c, order)
}

// ListMyOrders 当前客户订单列表
func (h *Handler) ListMyOrders(c *gin.Context) {
	customerID, ok := getCustomerID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	orders, total, err := h.OrderService.ListOrdersByCustomer(customerID, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "load orders failed", err)
		return
	}

	response.SuccessWithPage(c, orders, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetMyOrder 当前客户订单详情
func (h *Handler) GetMyOrder(c *gin.Context) {
	customerID, ok := getCustomerID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.OrderService.GetOrderForCustomer(orderID, customerID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "load order failed", err)
		return
	}

	response.Success(c, order)
}

// CancelMyOrder 当前客户取消订单
func (h *Handler) CancelMyOrder(c *gin.Context) {
	customerID, ok := getCustomerID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.OrderService.CancelOrderForCustomer(orderID, customerID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		case errors.Is(err, service.ErrOrderStatusInvalid):
			respondError(c, response.CodeBadRequest, "order can no longer be cancelled", nil)
		default:
			respondError(c, response.CodeInternal, "cancel order failed", err)
		}
		return
	}

	response.Success(c, order)
}

// MyOrderStatistics 当前客户订单统计
func (h *Handler) MyOrderStatistics(c *gin.Context) {
	customerID, ok := getCustomerID(c)
	if !ok {
		return
	}

	stats, err := h.OrderService.Statistics(customerID)
	if err != nil {
		respondError(c, response.CodeInternal, "load order statistics failed", err)
		return
	}

	response.Success(c, stats)
}
