package main

import (
	"time"

	"github.com/sketezo-next/internal/config"
	"github.com/sketezo-next/internal/constants"
	"github.com/sketezo-next/internal/logger"
	"github.com/sketezo-next/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	money := func(value float64) models.Money {
		return models.NewMoneyFromDecimal(decimal.NewFromFloat(value))
	}
	moneyPtr := func(value float64) *models.Money {
		m := money(value)
		return &m
	}

	// 添加商品与规格
	products := []models.Product{
		{
			Name:        "Classic Cotton T-Shirt",
			Slug:        "classic-cotton-tshirt",
			Description: "Soft combed cotton tee with a regular fit.",
			Category:    "tshirts",
			ImageURL:    "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?w=800",
			IsActive:    true,
			SortOrder:   1,
			Variants: []models.ProductVariant{
				{SKUCode: "TSH-BLK-M", Color: "Black", Size: "M", Price: money(499), Stock: 50, WeightGrams: 200, IsActive: true},
				{SKUCode: "TSH-BLK-L", Color: "Black", Size: "L", Price: money(499), Stock: 40, WeightGrams: 220, IsActive: true},
				{SKUCode: "TSH-WHT-M", Color: "White", Size: "M", Price: money(499), DiscountedPrice: moneyPtr(449), Stock: 30, WeightGrams: 200, IsActive: true},
			},
		},
		{
			Name:        "Slim Fit Denim Jeans",
			Slug:        "slim-fit-denim-jeans",
			Description: "Stretchable denim with a tapered leg.",
			Category:    "jeans",
			ImageURL:    "https://images.unsplash.com/photo-1542272604-787c3835535d?w=800",
			IsActive:    true,
			SortOrder:   2,
			Variants: []models.ProductVariant{
				{SKUCode: "JNS-BLU-30", Color: "Blue", Size: "30", Price: money(1299), Stock: 25, WeightGrams: 600, IsActive: true},
				{SKUCode: "JNS-BLU-32", Color: "Blue", Size: "32", Price: money(1299), Stock: 25, WeightGrams: 620, IsActive: true},
			},
		},
		{
			Name:        "Canvas Sneakers",
			Slug:        "canvas-sneakers",
			Description: "Everyday low-top sneakers with rubber sole.",
			Category:    "footwear",
			ImageURL:    "https://images.unsplash.com/photo-1525966222134-fcfa99b8ae77?w=800",
			IsActive:    true,
			SortOrder:   3,
			Variants: []models.ProductVariant{
				{SKUCode: "SNK-WHT-8", Color: "White", Size: "8", Price: money(1799), DiscountedPrice: moneyPtr(1599), Stock: 15, WeightGrams: 800, IsActive: true},
				{SKUCode: "SNK-WHT-9", Color: "White", Size: "9", Price: money(1799), Stock: 12, WeightGrams: 820, IsActive: true},
			},
		},
	}

	for _, product := range products {
		var existing models.Product
		if err := models.DB.Where("slug = ?", product.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&product).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", product.Slug, err)
			} else {
				stdLog.Printf("Created product: %s", product.Slug)
			}
		} else {
			stdLog.Printf("Product already exists: %s", product.Slug)
		}
	}

	// 添加优惠码
	now := time.Now()
	discounts := []models.Discount{
		{
			Code:          "SAVE20",
			DiscountType:  constants.DiscountTypePercentage,
			Value:         money(20),
			MaxDiscount:   moneyPtr(150),
			MinOrderValue: money(500),
			StartDate:     now.AddDate(0, -1, 0),
			EndDate:       now.AddDate(0, 2, 0),
			UsageLimit:    100,
			IsActive:      true,
		},
		{
			Code:          "FLAT100",
			DiscountType:  constants.DiscountTypeFixed,
			Value:         money(100),
			MinOrderValue: money(999),
			StartDate:     now.AddDate(0, -1, 0),
			EndDate:       now.AddDate(0, 1, 0),
			UsageLimit:    0,
			IsActive:      true,
		},
	}

	for _, discount := range discounts {
		var existing models.Discount
		if err := models.DB.Where("code = ?", discount.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&discount).Error; err != nil {
				stdLog.Printf("Failed to create discount %s: %v", discount.Code, err)
			} else {
				stdLog.Printf("Created discount: %s", discount.Code)
			}
		} else {
			stdLog.Printf("Discount already exists: %s", discount.Code)
		}
	}

	stdLog.Printf("Seed completed")
}
