package repository

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/sokoni-shop/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupCategoryRepositoryTest(t *testing.T) (*GormCategoryRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:category_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Category{}, &models.Product{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewCategoryRepository(db), db
}

func seedCategoryWithProduct(t *testing.T, db *gorm.DB, name, slug string, parentID *uint) (*models.Category, *models.Product) {
	t.Helper()
	category := &models.Category{Name: name, Slug: slug, ParentID: parentID, IsActive: true}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("create category %s failed: %v", name, err)
	}
	product := &models.Product{
		Name:          name + " Item",
		SKU:           "SKU-" + slug,
		CategoryID:    category.ID,
		Price:         models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		StockQuantity: 5,
		IsActive:      true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product for %s failed: %v", name, err)
	}
	return category, product
}

func TestDeleteSubtreeRemovesCategoriesAndProducts(t *testing.T) {
	repo, db := setupCategoryRepositoryTest(t)

	root, _ := seedCategoryWithProduct(t, db, "Electronics", "electronics", nil)
	child, _ := seedCategoryWithProduct(t, db, "Phones", "phones", &root.ID)
	other, otherProduct := seedCategoryWithProduct(t, db, "Books", "books", nil)

	if err := repo.DeleteSubtree([]uint{root.ID, child.ID}); err != nil {
		t.Fatalf("delete subtree failed: %v", err)
	}

	// 子树内分类与商品同时消失，树外不受影响
	var categoryCount, productCount int64
	db.Model(&models.Category{}).Count(&categoryCount)
	db.Model(&models.Product{}).Count(&productCount)
	if categoryCount != 1 || productCount != 1 {
		t.Fatalf("expected 1 category and 1 product left, got categories=%d products=%d", categoryCount, productCount)
	}
	remaining, err := repo.GetByID(other.ID)
	if err != nil || remaining == nil {
		t.Fatalf("expected untouched category to remain, got %v / %v", remaining, err)
	}
	var product models.Product
	if err := db.First(&product, otherProduct.ID).Error; err != nil {
		t.Fatalf("expected untouched product to remain: %v", err)
	}
}

func TestDeleteSubtreeRollsBackTogether(t *testing.T) {
	repo, db := setupCategoryRepositoryTest(t)

	root, rootProduct := seedCategoryWithProduct(t, db, "Electronics", "electronics", nil)

	// 在分类删除阶段注入失败，商品删除必须一并回滚
	db.Callback().Delete().Before("gorm:delete").Register("fail_category_delete", func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.ModelType == reflect.TypeOf(models.Category{}) {
			tx.AddError(gorm.ErrInvalidData)
		}
	})
	defer db.Callback().Delete().Remove("fail_category_delete")

	if err := repo.DeleteSubtree([]uint{root.ID}); err == nil {
		t.Fatal("expected delete subtree to fail")
	}

	var product models.Product
	if err := db.First(&product, rootProduct.ID).Error; err != nil {
		t.Fatalf("expected product delete rolled back: %v", err)
	}
	var category models.Category
	if err := db.First(&category, root.ID).Error; err != nil {
		t.Fatalf("expected category to remain: %v", err)
	}
}

func TestDeleteSubtreeEmptyIsNoop(t *testing.T) {
	repo, db := setupCategoryRepositoryTest(t)
	seedCategoryWithProduct(t, db, "Electronics", "electronics", nil)

	if err := repo.DeleteSubtree(nil); err != nil {
		t.Fatalf("empty delete failed: %v", err)
	}
	var categoryCount int64
	db.Model(&models.Category{}).Count(&categoryCount)
	if categoryCount != 1 {
		t.Fatalf("expected category untouched, got %d", categoryCount)
	}
}
