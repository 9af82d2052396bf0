package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sokoni-shop/internal/models"
	"github.com/sokoni-shop/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupProductServiceTest(t *testing.T) (*ProductService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:product_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Category{}, &models.Product{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	categoryRepo := repository.NewCategoryRepository(db)
	productRepo := repository.NewProductRepository(db)
	categoryService := NewCategoryService(categoryRepo, productRepo)
	return NewProductService(productRepo, categoryService), db
}

func money(amount float64) models.Money {
	return models.NewMoneyFromDecimal(decimal.NewFromFloat(amount))
}

func TestProductCreateWithCategoryPath(t *testing.T) {
	svc, db := setupProductServiceTest(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, ProductInput{
		Name:          "ThinkBook 14",
		SKU:           "LAP-TB14",
		Price:         money(89999.00),
		StockQuantity: 15,
		CategoryPath:  []string{"Electronics", "Computers", "Laptops"},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !product.IsActive {
		t.Fatal("expected product active by default")
	}

	// 路径上缺失的分类被创建
	var count int64
	db.Model(&models.Category{}).Count(&count)
	if count != 3 {
		t.Fatalf("expected 3 categories from path, got %d", count)
	}
	var leaf models.Category
	if err := db.First(&leaf, product.CategoryID).Error; err != nil {
		t.Fatalf("load leaf category failed: %v", err)
	}
	if leaf.Name != "Laptops" {
		t.Fatalf("expected product under Laptops, got %s", leaf.Name)
	}
}

func TestProductCreateValidation(t *testing.T) {
	svc, db := setupProductServiceTest(t)
	ctx := context.Background()

	category := createTestCategory(t, db, "Phones", "phones", nil, true)

	cases := []struct {
		name  string
		input ProductInput
	}{
		{"blank name", ProductInput{SKU: "X1", Price: money(10), CategoryID: category.ID}},
		{"blank sku", ProductInput{Name: "X", Price: money(10), CategoryID: category.ID}},
		{"zero price", ProductInput{Name: "X", SKU: "X1", Price: money(0), CategoryID: category.ID}},
		{"negative stock", ProductInput{Name: "X", SKU: "X1", Price: money(10), StockQuantity: -1, CategoryID: category.ID}},
		{"no category", ProductInput{Name: "X", SKU: "X1", Price: money(10)}},
	}
	for _, tc := range cases {
		if _, err := svc.Create(ctx, tc.input); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", tc.name, err)
		}
	}

	if _, err := svc.Create(ctx, ProductInput{
		Name: "X", SKU: "X1", Price: money(10), CategoryID: 9999,
	}); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestProductCreateRejectsDuplicateSKU(t *testing.T) {
	svc, db := setupProductServiceTest(t)
	ctx := context.Background()

	category := createTestCategory(t, db, "Phones", "phones", nil, true)
	createTestProduct(t, db, "Phone X", "PHX", category.ID, 99.99, 10, true)

	if _, err := svc.Create(ctx, ProductInput{
		Name: "Phone Y", SKU: "PHX", Price: money(49.99), CategoryID: category.ID,
	}); !errors.Is(err, ErrSKUExists) {
		t.Fatalf("expected ErrSKUExists, got %v", err)
	}
}

func TestProductUpdate(t *testing.T) {
	svc, db := setupProductServiceTest(t)
	ctx := context.Background()

	category := createTestCategory(t, db, "Phones", "phones", nil, true)
	product := createTestProduct(t, db, "Phone X", "PHX", category.ID, 99.99, 10, true)
	other := createTestProduct(t, db, "Phone Y", "PHY", category.ID, 49.99, 5, true)

	inactive := false
	updated, err := svc.Update(ctx, product.ID, ProductInput{
		Name:          "Phone X Pro",
		SKU:           "PHX",
		Price:         money(129.99),
		StockQuantity: 7,
		CategoryID:    category.ID,
		IsActive:      &inactive,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Name != "Phone X Pro" || updated.Price.String() != "129.99" || updated.IsActive {
		t.Fatalf("unexpected updated product: %+v", updated)
	}

	// 改成别人的 SKU 要被拒绝
	if _, err := svc.Update(ctx, product.ID, ProductInput{
		Name: "Phone X", SKU: other.SKU, Price: money(10), CategoryID: category.ID,
	}); !errors.Is(err, ErrSKUExists) {
		t.Fatalf("expected ErrSKUExists, got %v", err)
	}

	if _, err := svc.Update(ctx, 9999, ProductInput{
		Name: "X", SKU: "X1", Price: money(10), CategoryID: category.ID,
	}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestProductListSubtreeFilter(t *testing.T) {
	svc, db := setupProductServiceTest(t)

	root := createTestCategory(t, db, "Electronics", "electronics", nil, true)
	child := createTestCategory(t, db, "Laptops", "laptops", &root.ID, true)
	other := createTestCategory(t, db, "Books", "books", nil, true)

	createTestProduct(t, db, "Laptop A", "LPA", child.ID, 1000, 3, true)
	createTestProduct(t, db, "Charger", "CHG", root.ID, 20, 3, true)
	createTestProduct(t, db, "Novel", "NVL", other.ID, 9.99, 3, true)
	createTestProduct(t, db, "Hidden Laptop", "HLP", child.ID, 500, 3, false)

	products, total, err := svc.List(ListProductsInput{
		Page: 1, PageSize: 20, CategoryID: root.ID, IncludeSubtree: true,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	// 子树过滤含根自身，下架商品不出现
	if total != 2 {
		t.Fatalf("expected 2 products in subtree, got %d", total)
	}
	for _, product := range products {
		if product.SKU == "NVL" || product.SKU == "HLP" {
			t.Fatalf("unexpected product in result: %s", product.SKU)
		}
	}

	_, total, err = svc.List(ListProductsInput{
		Page: 1, PageSize: 20, CategoryID: root.ID, IncludeSubtree: false,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected 1 product directly under root, got %d", total)
	}
}

func TestProductDelete(t *testing.T) {
	svc, db := setupProductServiceTest(t)

	category := createTestCategory(t, db, "Phones", "phones", nil, true)
	product := createTestProduct(t, db, "Phone X", "PHX", category.ID, 99.99, 10, true)

	if err := svc.Delete(product.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := svc.Get(product.ID); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound after delete, got %v", err)
	}
	if err := svc.Delete(product.ID); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound for double delete, got %v", err)
	}
}
