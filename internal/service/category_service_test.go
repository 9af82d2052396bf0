package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sokoni-shop/internal/models"
	"github.com/sokoni-shop/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupCategoryServiceTest(t *testing.T) (*CategoryService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:category_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	return NewCategoryService(categoryRepo, productRepo), db
}

func createTestCategory(t *testing.T, db *gorm.DB, name, slug string, parentID *uint, active bool) *models.Category {
	t.Helper()
	category := &models.Category{
		Name:     name,
		Slug:     slug,
		ParentID: parentID,
		IsActive: active,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("create category %s failed: %v", slug, err)
	}
	return category
}

func createTestProduct(t *testing.T, db *gorm.DB, name, sku string, categoryID uint, price float64, stock int, active bool) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:          name,
		SKU:           sku,
		Price:         models.NewMoneyFromDecimal(decimal.NewFromFloat(price)),
		StockQuantity: stock,
		CategoryID:    categoryID,
		IsActive:      active,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product %s failed: %v", sku, err)
	}
	return product
}

func TestCategoryHierarchy(t *testing.T) {
	svc, db := setupCategoryServiceTest(t)

	a := createTestCategory(t, db, "A", "a", nil, true)
	b := createTestCategory(t, db, "B", "b", &a.ID, true)
	c := createTestCategory(t, db, "C", "c", &b.ID, true)

	level, err := svc.Level(c.ID)
	if err != nil {
		t.Fatalf("level failed: %v", err)
	}
	if level != 2 {
		t.Fatalf("expected level 2, got %d", level)
	}
	if rootLevel, _ := svc.Level(a.ID); rootLevel != 0 {
		t.Fatalf("expected root level 0, got %d", rootLevel)
	}

	ancestors, err := svc.Ancestors(c.ID)
	if err != nil {
		t.Fatalf("ancestors failed: %v", err)
	}
	if len(ancestors) != 2 || ancestors[0].ID != a.ID || ancestors[1].ID != b.ID {
		t.Fatalf("expected ancestors [A B], got %+v", ancestors)
	}

	fullPath, err := svc.FullPath(c.ID)
	if err != nil {
		t.Fatalf("full path failed: %v", err)
	}
	if fullPath != "A > B > C" {
		t.Fatalf("unexpected full path: %q", fullPath)
	}

	descendants, err := svc.Descendants(a.ID)
	if err != nil {
		t.Fatalf("descendants failed: %v", err)
	}
	if len(descendants) != 2 {
		t.Fatalf("expected 2 descendants, got %d", len(descendants))
	}
	for _, descendant := range descendants {
		if descendant.ID == a.ID {
			t.Fatal("descendants must not include the category itself")
		}
	}
}

func TestCategoryHierarchyNotFound(t *testing.T) {
	svc, _ := setupCategoryServiceTest(t)

	if _, err := svc.Ancestors(999); err != ErrCategoryNotFound {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
	if _, err := svc.FullPath(999); err != ErrCategoryNotFound {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestCategoryTreePrunesInactiveBranches(t *testing.T) {
	svc, db := setupCategoryServiceTest(t)

	root := createTestCategory(t, db, "Electronics", "electronics", nil, true)
	createTestCategory(t, db, "Phones", "phones", &root.ID, true)
	disabled := createTestCategory(t, db, "Clearance", "clearance", &root.ID, false)
	// 停用分支下的启用子节点也应整枝剪掉
	createTestCategory(t, db, "Hidden", "hidden", &disabled.ID, true)
	createTestCategory(t, db, "Books", "books", nil, true)

	tree, err := svc.Tree(context.Background())
	if err != nil {
		t.Fatalf("tree failed: %v", err)
	}

	if len(tree) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(tree))
	}
	// 同层按名称排序
	if tree[0].Name != "Books" || tree[1].Name != "Electronics" {
		t.Fatalf("expected name-sorted roots, got %s, %s", tree[0].Name, tree[1].Name)
	}

	electronics := tree[1]
	if electronics.Level != 0 {
		t.Fatalf("expected root level 0, got %d", electronics.Level)
	}
	if len(electronics.Children) != 1 || electronics.Children[0].Name != "Phones" {
		t.Fatalf("expected only Phones under Electronics, got %+v", electronics.Children)
	}
	if electronics.Children[0].Level != 1 {
		t.Fatalf("expected child level 1, got %d", electronics.Children[0].Level)
	}
}

func TestCategoryAveragePrice(t *testing.T) {
	svc, db := setupCategoryServiceTest(t)

	root := createTestCategory(t, db, "Electronics", "electronics", nil, true)
	child := createTestCategory(t, db, "Phones", "phones", &root.ID, true)

	createTestProduct(t, db, "Phone A", "PHA", child.ID, 100.00, 5, true)
	createTestProduct(t, db, "Phone B", "PHB", child.ID, 50.00, 5, true)
	// 下架商品不计入统计
	createTestProduct(t, db, "Phone C", "PHC", child.ID, 999.00, 5, false)
	// 挂在根上的商品计入根的子树统计
	createTestProduct(t, db, "Charger", "CHG", root.ID, 10.00, 5, true)

	stats, err := svc.AveragePrice(root.ID)
	if err != nil {
		t.Fatalf("average price failed: %v", err)
	}
	if stats.ProductCount != 3 {
		t.Fatalf("expected 3 products, got %d", stats.ProductCount)
	}
	if stats.AveragePrice == nil || stats.AveragePrice.String() != "53.33" {
		t.Fatalf("unexpected average price: %+v", stats.AveragePrice)
	}
	if stats.TotalValue.String() != "160.00" {
		t.Fatalf("unexpected total value: %s", stats.TotalValue.String())
	}
}

func TestCategoryAveragePriceEmptySubtree(t *testing.T) {
	svc, db := setupCategoryServiceTest(t)

	empty := createTestCategory(t, db, "Empty", "empty", nil, true)

	stats, err := svc.AveragePrice(empty.ID)
	if err != nil {
		t.Fatalf("average price failed: %v", err)
	}
	if stats.AveragePrice != nil {
		t.Fatalf("expected nil average for empty subtree, got %s", stats.AveragePrice.String())
	}
	if stats.ProductCount != 0 {
		t.Fatalf("expected 0 products, got %d", stats.ProductCount)
	}
}

func TestCategoryAveragePriceInactiveCategory(t *testing.T) {
	svc, db := setupCategoryServiceTest(t)

	disabled := createTestCategory(t, db, "Disabled", "disabled", nil, false)
	if _, err := svc.AveragePrice(disabled.ID); err != ErrCategoryNotFound {
		t.Fatalf("expected ErrCategoryNotFound for inactive category, got %v", err)
	}
	if _, err := svc.AveragePrice(12345); err != ErrCategoryNotFound {
		t.Fatalf("expected ErrCategoryNotFound for missing category, got %v", err)
	}
}

func TestCategoryCreateConflicts(t *testing.T) {
	svc, db := setupCategoryServiceTest(t)
	ctx := context.Background()

	createTestCategory(t, db, "Existing", "existing", nil, true)

	if _, err := svc.Create(ctx, CategoryInput{Name: "Other", Slug: "existing"}); err != ErrSlugExists {
		t.Fatalf("expected ErrSlugExists, got %v", err)
	}
	if _, err := svc.Create(ctx, CategoryInput{Name: "Existing", Slug: "other"}); err != ErrCategoryNameExists {
		t.Fatalf("expected ErrCategoryNameExists, got %v", err)
	}
}

func TestCategoryUpdateRejectsCycle(t *testing.T) {
	svc, db := setupCategoryServiceTest(t)
	ctx := context.Background()

	a := createTestCategory(t, db, "A", "a", nil, true)
	b := createTestCategory(t, db, "B", "b", &a.ID, true)
	c := createTestCategory(t, db, "C", "c", &b.ID, true)

	// 把 A 挂到自己的后代 C 下会成环
	if _, err := svc.Update(ctx, a.ID, CategoryInput{Name: "A", Slug: "a", ParentID: &c.ID}); err != ErrCategoryCycle {
		t.Fatalf("expected ErrCategoryCycle, got %v", err)
	}
	// 自引用同样拒绝
	if _, err := svc.Update(ctx, a.ID, CategoryInput{Name: "A", Slug: "a", ParentID: &a.ID}); err != ErrCategoryCycle {
		t.Fatalf("expected ErrCategoryCycle for self parent, got %v", err)
	}
}

func TestCategoryEnsurePath(t *testing.T) {
	svc, db := setupCategoryServiceTest(t)
	ctx := context.Background()

	leaf, err := svc.EnsurePath(ctx, []string{"Electronics", "Computers", "Laptops"})
	if err != nil {
		t.Fatalf("ensure path failed: %v", err)
	}

	fullPath, err := svc.FullPath(leaf.ID)
	if err != nil {
		t.Fatalf("full path failed: %v", err)
	}
	if fullPath != "Electronics > Computers > Laptops" {
		t.Fatalf("unexpected full path: %q", fullPath)
	}

	// 幂等：重复调用复用已有节点
	again, err := svc.EnsurePath(ctx, []string{"Electronics", "Computers", "Laptops"})
	if err != nil {
		t.Fatalf("ensure path again failed: %v", err)
	}
	if again.ID != leaf.ID {
		t.Fatalf("expected same leaf on repeat, got %d and %d", leaf.ID, again.ID)
	}

	var count int64
	db.Model(&models.Category{}).Count(&count)
	if count != 3 {
		t.Fatalf("expected 3 categories, got %d", count)
	}
}

func TestCategoryDeleteSubtree(t *testing.T) {
	svc, db := setupCategoryServiceTest(t)
	ctx := context.Background()

	a := createTestCategory(t, db, "A", "a", nil, true)
	b := createTestCategory(t, db, "B", "b", &a.ID, true)
	createTestCategory(t, db, "C", "c", &b.ID, true)

	if err := svc.Delete(ctx, b.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	var count int64
	db.Model(&models.Category{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected only root to remain, got %d categories", count)
	}
}
