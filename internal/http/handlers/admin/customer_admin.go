package admin

import (
	"strconv"

	"github.com/sokoni-shop/internal/cache"
	handlershared "github.com/sokoni-shop/internal/http/handlers/shared"
	"github.com/sokoni-shop/internal/http/response"
	"github.com/sokoni-shop/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListCustomers 管理端客户列表
func (h *Handler) ListCustomers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	customers, total, err := h.CustomerRepo.List(repository.CustomerListFilter{
		Page:      page,
		PageSize:  pageSize,
		Search:    c.Query("search"),
		OnlyStaff: c.Query("staff") == "true",
	})
	if err != nil {
		respondError(c, response.CodeInternal, "load customers failed", err)
		return
	}

	response.SuccessWithPage(c, customers, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// CustomerFlagsRequest 客户状态调整请求
type CustomerFlagsRequest struct {
	IsActive *bool `json:"is_active"`
	IsStaff  *bool `json:"is_staff"`
}

// UpdateCustomerFlags 启用/停用客户或调整员工标记
// 变更后刷新认证状态缓存，使旧令牌立即感知。
func (h *Handler) UpdateCustomerFlags(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CustomerFlagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	if req.IsActive == nil && req.IsStaff == nil {
		respondError(c, response.CodeBadRequest, "nothing to update", nil)
		return
	}

	customer, err := h.CustomerRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "load customer failed", err)
		return
	}
	if customer == nil {
		respondError(c, response.CodeNotFound, "customer not found", nil)
		return
	}

	if req.IsActive != nil {
		customer.IsActive = *req.IsActive
	}
	if req.IsStaff != nil {
		customer.IsStaff = *req.IsStaff
	}
	if err := h.CustomerRepo.Update(customer); err != nil {
		respondError(c, response.CodeInternal, "update customer failed", err)
		return
	}

	if err := cache.SetCustomerAuthState(c.Request.Context(), cache.BuildCustomerAuthState(customer)); err != nil {
		handlershared.RequestLog(c).Warnw("customer_auth_state_refresh_failed", "customer_id", customer.ID, "error", err)
	}

	response.Success(c, customer)
}
