package public

import (
	"strconv"

	handlershared "github.com/sokoni-shop/internal/http/handlers/shared"
	"github.com/sokoni-shop/internal/http/response"
	"github.com/sokoni-shop/internal/service"

	"github.com/gin-gonic/gin"
)

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid id parameter", nil)
		return 0, false
	}
	return uint(id), true
}

// ListCategories 公开分类平铺列表（仅启用分类）
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.CategoryService.ListActive()
	if err != nil {
		respondError(c, response.CodeInternal, "load categories failed", err)
		return
	}
	response.Success(c, gin.H{"categories": categories})
}

// CategoryTree 公开分类树
func (h *Handler) CategoryTree(c *gin.Context) {
	tree, err := h.CategoryService.Tree(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, "load category tree failed", err)
		return
	}
	response.Success(c, gin.H{"tree": tree})
}

// GetCategory 分类详情，附带层级、全路径与祖先链
func (h *Handler) GetCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	category, err := h.CategoryService.Get(id)
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "load category failed")
		return
	}

	level, err := h.CategoryService.Level(id)
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "load category failed")
		return
	}
	fullPath, err := h.CategoryService.FullPath(id)
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "load category failed")
		return
	}
	ancestors, err := h.CategoryService.Ancestors(id)
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "load category failed")
		return
	}
	descendants, err := h.CategoryService.Descendants(id)
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "load category failed")
		return
	}

	response.Success(c, gin.H{
		"category":    category,
		"level":       level,
		"full_path":   fullPath,
		"ancestors":   ancestors,
		"descendants": descendants,
	})
}

// CategoryAveragePrice 分类子树商品均价统计
func (h *Handler) CategoryAveragePrice(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	stats, err := h.CategoryService.AveragePrice(id)
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "load category stats failed")
		return
	}

	response.Success(c, stats)
}

// ListProducts 公开商品列表
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	categoryID, _ := strconv.ParseUint(c.Query("category_id"), 10, 64)
	includeSubtree := c.DefaultQuery("include_subtree", "true") == "true"
	onlyInStock := c.Query("in_stock") == "true"

	products, total, err := h.ProductService.List(service.ListProductsInput{
		Page:           page,
		PageSize:       pageSize,
		CategoryID:     uint(categoryID),
		IncludeSubtree: includeSubtree,
		Search:         c.Query("search"),
		OnlyInStock:    onlyInStock,
	})
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "load products failed")
		return
	}

	response.SuccessWithPage(c, products, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetProduct 公开商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := h.ProductService.Get(id)
	if err != nil {
		respondWithMappedError(c, err, catalogErrorRules, response.CodeInternal, "load product failed")
		return
	}
	if !product.IsActive {
		respondError(c, response.CodeNotFound, "product not found", nil)
		return
	}

	response.Success(c, product)
}
