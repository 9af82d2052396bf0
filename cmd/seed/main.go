package main

import (
	"github.com/sokoni-shop/internal/config"
	"github.com/sokoni-shop/internal/logger"
	"github.com/sokoni-shop/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// 演示数据初始化工具：建立一棵分类树和一组带库存的商品。
// 重复执行按 slug/sku 跳过已有数据。
func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	electronicsID := seedCategory("Electronics", "electronics", "Phones, computers and accessories", nil, stdLog)
	computersID := seedCategory("Computers", "computers", "Desktops and laptops", &electronicsID, stdLog)
	laptopsID := seedCategory("Laptops", "laptops", "Portable computers", &computersID, stdLog)
	phonesID := seedCategory("Phones", "phones", "Smartphones and feature phones", &electronicsID, stdLog)
	homeID := seedCategory("Home & Kitchen", "home-kitchen", "Household goods", nil, stdLog)

	seedProduct(models.Product{
		Name:          "Thinkbook Pro 14",
		Description:   "14 inch business laptop, 16GB RAM, 512GB SSD",
		SKU:           "LAP-TBP14",
		Price:         models.NewMoneyFromDecimal(decimal.NewFromFloat(89999.00)),
		StockQuantity: 15,
		CategoryID:    laptopsID,
		IsActive:      true,
	}, stdLog)
	seedProduct(models.Product{
		Name:          "Swift Air 13",
		Description:   "Lightweight 13 inch laptop for everyday use",
		SKU:           "LAP-SWA13",
		Price:         models.NewMoneyFromDecimal(decimal.NewFromFloat(64999.00)),
		StockQuantity: 8,
		CategoryID:    laptopsID,
		IsActive:      true,
	}, stdLog)
	seedProduct(models.Product{
		Name:          "Pixelate X2",
		Description:   "6.4 inch smartphone, 128GB storage, dual SIM",
		SKU:           "PHN-PXX2",
		Price:         models.NewMoneyFromDecimal(decimal.NewFromFloat(45999.00)),
		StockQuantity: 30,
		CategoryID:    phonesID,
		IsActive:      true,
	}, stdLog)
	seedProduct(models.Product{
		Name:          "Electric Kettle 1.7L",
		Description:   "Stainless steel kettle with auto shut-off",
		SKU:           "HOM-KET17",
		Price:         models.NewMoneyFromDecimal(decimal.NewFromFloat(2499.00)),
		StockQuantity: 50,
		CategoryID:    homeID,
		IsActive:      true,
	}, stdLog)

	seedCustomer("demo@sokoni.local", "demo", "Demo", "Customer", "+254700000000", stdLog)

	stdLog.Printf("演示数据初始化完成")
}

func seedCustomer(email, username, firstName, lastName, phone string, stdLog interface{ Fatalf(string, ...interface{}) }) {
	var count int64
	models.DB.Model(&models.Customer{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("Demo12345"), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("生成密码哈希失败: %v", err)
	}
	customer := models.Customer{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
		PhoneNumber:  phone,
		IsActive:     true,
	}
	if err := models.DB.Create(&customer).Error; err != nil {
		stdLog.Fatalf("创建演示客户失败 %s: %v", email, err)
	}
}

func seedCategory(name, slug, description string, parentID *uint, stdLog interface{ Fatalf(string, ...interface{}) }) uint {
	var existing models.Category
	if err := models.DB.Where("slug = ?", slug).First(&existing).Error; err == nil {
		return existing.ID
	}

	category := models.Category{
		Name:        name,
		Slug:        slug,
		Description: description,
		ParentID:    parentID,
		IsActive:    true,
	}
	if err := models.DB.Create(&category).Error; err != nil {
		stdLog.Fatalf("创建分类失败 %s: %v", slug, err)
	}
	return category.ID
}

func seedProduct(product models.Product, stdLog interface{ Fatalf(string, ...interface{}) }) {
	var count int64
	models.DB.Model(&models.Product{}).Where("sku = ?", product.SKU).Count(&count)
	if count > 0 {
		return
	}
	if err := models.DB.Create(&product).Error; err != nil {
		stdLog.Fatalf("创建商品失败 %s: %v", product.SKU, err)
	}
}
