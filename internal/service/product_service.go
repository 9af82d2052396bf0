package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sokoni-shop/internal/models"
	"github.com/sokoni-shop/internal/repository"

	"github.com/shopspring/decimal"
)

// ProductService 商品业务服务
type ProductService struct {
	repo            repository.ProductRepository
	categoryService *CategoryService
}

// NewProductService 创建商品服务
func NewProductService(repo repository.ProductRepository, categoryService *CategoryService) *ProductService {
	return &ProductService{repo: repo, categoryService: categoryService}
}

// ProductInput 创建/更新商品输入
type ProductInput struct {
	Name          string
	Description   string
	SKU           string
	Price         models.Money
	StockQuantity int
	CategoryID    uint
	// CategoryPath 为 CategoryID 的替代写法，按名称链挂载分类，
	// 链上缺失的节点会被创建。
	CategoryPath []string
	IsActive     *bool
}

// ListProductsInput 商品列表查询输入
type ListProductsInput struct {
	Page           int
	PageSize       int
	CategoryID     uint
	IncludeSubtree bool
	Search         string
	OnlyInStock    bool
}

func (s *ProductService) validateInput(input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: product name is required", ErrValidation)
	}
	if strings.TrimSpace(input.SKU) == "" {
		return fmt.Errorf("%w: sku is required", ErrValidation)
	}
	if input.Price.Decimal.LessThan(decimal.NewFromFloat(0.01)) {
		return fmt.Errorf("%w: price must be at least 0.01", ErrValidation)
	}
	if input.StockQuantity < 0 {
		return fmt.Errorf("%w: stock quantity cannot be negative", ErrValidation)
	}
	return nil
}

func (s *ProductService) resolveCategory(ctx context.Context, input ProductInput) (uint, error) {
	if len(input.CategoryPath) > 0 {
		category, err := s.categoryService.EnsurePath(ctx, input.CategoryPath)
		if err != nil {
			return 0, err
		}
		return category.ID, nil
	}
	if input.CategoryID == 0 {
		return 0, fmt.Errorf("%w: category is required", ErrValidation)
	}
	category, err := s.categoryService.Get(input.CategoryID)
	if err != nil {
		return 0, err
	}
	return category.ID, nil
}

// List 商品列表，支持按分类（含子树）过滤与关键字搜索
func (s *ProductService) List(input ListProductsInput) ([]models.Product, int64, error) {
	filter := repository.ProductListFilter{
		Page:         input.Page,
		PageSize:     input.PageSize,
		Search:       strings.TrimSpace(input.Search),
		OnlyActive:   true,
		OnlyInStock:  input.OnlyInStock,
		WithCategory: true,
	}
	if input.CategoryID > 0 {
		if input.IncludeSubtree {
			category, err := s.categoryService.Get(input.CategoryID)
			if err != nil {
				return nil, 0, err
			}
			descendants, err := s.categoryService.Descendants(category.ID)
			if err != nil {
				return nil, 0, err
			}
			ids := make([]uint, 0, len(descendants)+1)
			ids = append(ids, category.ID)
			for _, descendant := range descendants {
				ids = append(ids, descendant.ID)
			}
			filter.CategoryIDs = ids
		} else {
			filter.CategoryIDs = []uint{input.CategoryID}
		}
	}
	return s.repo.List(filter)
}

// ListAdmin 管理端商品列表（含下架商品）
func (s *ProductService) ListAdmin(input ListProductsInput) ([]models.Product, int64, error) {
	filter := repository.ProductListFilter{
		Page:         input.Page,
		PageSize:     input.PageSize,
		Search:       strings.TrimSpace(input.Search),
		WithCategory: true,
	}
	if input.CategoryID > 0 {
		filter.CategoryIDs = []uint{input.CategoryID}
	}
	return s.repo.List(filter)
}

// Get 获取商品
func (s *ProductService) Get(id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// GetBySKU 按 SKU 获取商品
func (s *ProductService) GetBySKU(sku string) (*models.Product, error) {
	product, err := s.repo.GetBySKU(strings.TrimSpace(sku))
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Create 创建商品
func (s *ProductService) Create(ctx context.Context, input ProductInput) (*models.Product, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}
	categoryID, err := s.resolveCategory(ctx, input)
	if err != nil {
		return nil, err
	}

	sku := strings.TrimSpace(input.SKU)
	if count, err := s.repo.CountBySKU(sku, nil); err != nil {
		return nil, err
	} else if count > 0 {
		return nil, ErrSKUExists
	}

	product := models.Product{
		Name:          strings.TrimSpace(input.Name),
		Description:   strings.TrimSpace(input.Description),
		SKU:           sku,
		Price:         input.Price,
		StockQuantity: input.StockQuantity,
		CategoryID:    categoryID,
		IsActive:      true,
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if err := s.repo.Create(&product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Update 更新商品
func (s *ProductService) Update(ctx context.Context, id uint, input ProductInput) (*models.Product, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if err := s.validateInput(input); err != nil {
		return nil, err
	}
	categoryID, err := s.resolveCategory(ctx, input)
	if err != nil {
		return nil, err
	}

	sku := strings.TrimSpace(input.SKU)
	if count, err := s.repo.CountBySKU(sku, &id); err != nil {
		return nil, err
	} else if count > 0 {
		return nil, ErrSKUExists
	}

	product.Name = strings.TrimSpace(input.Name)
	product.Description = strings.TrimSpace(input.Description)
	product.SKU = sku
	product.Price = input.Price
	product.StockQuantity = input.StockQuantity
	product.CategoryID = categoryID
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.repo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

// Delete 删除商品
func (s *ProductService) Delete(id uint) error {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	return s.repo.Delete(id)
}
