package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sketezo-next/internal/constants"
	"github.com/sketezo-next/internal/models"
	"github.com/sketezo-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupDiscountServiceTest(t *testing.T) (*DiscountService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:discount_service_%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Discount{}, &models.DiscountUser{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewDiscountService(repository.NewDiscountRepository(db)), db
}

func createTestDiscount(t *testing.T, db *gorm.DB, discount models.Discount) *models.Discount {
	t.Helper()
	if err := db.Create(&discount).Error; err != nil {
		t.Fatalf("create discount failed: %v", err)
	}
	return &discount
}

func TestDiscountApplyPercentageWithCap(t *testing.T) {
	svc, db := setupDiscountServiceTest(t)
	now := time.Now()
	maxDiscount := moneyFromFloat(150)
	createTestDiscount(t, db, models.Discount{
		Code:          "SAVE20",
		DiscountType:  constants.DiscountTypePercentage,
		Value:         moneyFromFloat(20),
		MaxDiscount:   &maxDiscount,
		MinOrderValue: moneyFromFloat(500),
		StartDate:     now.Add(-time.Hour),
		EndDate:       now.Add(time.Hour),
		IsActive:      true,
	})

	// 20% of 1000 is 200, capped at 150
	amount, discount, err := svc.Apply(moneyFromFloat(1000), "SAVE20", 1)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if discount == nil || discount.Code != "SAVE20" {
		t.Fatalf("unexpected discount: %+v", discount)
	}
	if !amount.Decimal.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("amount want 150 got %s", amount.Decimal)
	}
}

func TestDiscountApplyFixedClampedToSubtotal(t *testing.T) {
	svc, db := setupDiscountServiceTest(t)
	now := time.Now()
	createTestDiscount(t, db, models.Discount{
		Code:         "FLAT100",
		DiscountType: constants.DiscountTypeFixed,
		Value:        moneyFromFloat(100),
		StartDate:    now.Add(-time.Hour),
		EndDate:      now.Add(time.Hour),
		IsActive:     true,
	})

	amount, _, err := svc.Apply(moneyFromFloat(60), "FLAT100", 1)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if !amount.Decimal.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("fixed discount should clamp to subtotal, got %s", amount.Decimal)
	}
}

func TestDiscountApplyUnknownCode(t *testing.T) {
	svc, _ := setupDiscountServiceTest(t)

	_, _, err := svc.Apply(moneyFromFloat(1000), "NOPE", 1)
	if !errors.Is(err, ErrDiscountNotFound) {
		t.Fatalf("want ErrDiscountNotFound got %v", err)
	}

	_, _, err = svc.Apply(moneyFromFloat(1000), "  ", 1)
	if !errors.Is(err, ErrDiscountInvalid) {
		t.Fatalf("blank code want ErrDiscountInvalid got %v", err)
	}
}

func TestDiscountApplyValidationOrder(t *testing.T) {
	svc, db := setupDiscountServiceTest(t)
	now := time.Now()

	createTestDiscount(t, db, models.Discount{
		Code:         "OFF",
		DiscountType: constants.DiscountTypeFixed,
		Value:        moneyFromFloat(50),
		StartDate:    now.Add(-2 * time.Hour),
		EndDate:      now.Add(-time.Hour),
		IsActive:     false,
	})

	// 停用优先于过期
	_, _, err := svc.Apply(moneyFromFloat(1000), "OFF", 1)
	if !errors.Is(err, ErrDiscountInactive) {
		t.Fatalf("want ErrDiscountInactive got %v", err)
	}

	createTestDiscount(t, db, models.Discount{
		Code:         "EXPIRED",
		DiscountType: constants.DiscountTypeFixed,
		Value:        moneyFromFloat(50),
		StartDate:    now.Add(-2 * time.Hour),
		EndDate:      now.Add(-time.Hour),
		IsActive:     true,
	})
	_, _, err = svc.Apply(moneyFromFloat(1000), "EXPIRED", 1)
	if !errors.Is(err, ErrDiscountExpired) {
		t.Fatalf("want ErrDiscountExpired got %v", err)
	}

	createTestDiscount(t, db, models.Discount{
		Code:         "SOON",
		DiscountType: constants.DiscountTypeFixed,
		Value:        moneyFromFloat(50),
		StartDate:    now.Add(time.Hour),
		EndDate:      now.Add(2 * time.Hour),
		IsActive:     true,
	})
	_, _, err = svc.Apply(moneyFromFloat(1000), "SOON", 1)
	if !errors.Is(err, ErrDiscountNotStarted) {
		t.Fatalf("want ErrDiscountNotStarted got %v", err)
	}
}

func TestDiscountApplyMinOrderValue(t *testing.T) {
	svc, db := setupDiscountServiceTest(t)
	now := time.Now()
	createTestDiscount(t, db, models.Discount{
		Code:          "BIG",
		DiscountType:  constants.DiscountTypeFixed,
		Value:         moneyFromFloat(100),
		MinOrderValue: moneyFromFloat(999),
		StartDate:     now.Add(-time.Hour),
		EndDate:       now.Add(time.Hour),
		IsActive:      true,
	})

	_, _, err := svc.Apply(moneyFromFloat(500), "BIG", 1)
	if !errors.Is(err, ErrDiscountMinOrder) {
		t.Fatalf("want ErrDiscountMinOrder got %v", err)
	}
}

func TestDiscountApplyUsageLimitReached(t *testing.T) {
	svc, db := setupDiscountServiceTest(t)
	now := time.Now()
	createTestDiscount(t, db, models.Discount{
		Code:         "ONCE",
		DiscountType: constants.DiscountTypeFixed,
		Value:        moneyFromFloat(50),
		StartDate:    now.Add(-time.Hour),
		EndDate:      now.Add(time.Hour),
		UsageLimit:   5,
		UsedCount:    5,
		IsActive:     true,
	})

	_, _, err := svc.Apply(moneyFromFloat(1000), "ONCE", 1)
	if !errors.Is(err, ErrDiscountUsageLimit) {
		t.Fatalf("want ErrDiscountUsageLimit got %v", err)
	}
}

func TestDiscountApplyUserRestriction(t *testing.T) {
	svc, db := setupDiscountServiceTest(t)
	now := time.Now()
	discount := createTestDiscount(t, db, models.Discount{
		Code:         "VIP",
		DiscountType: constants.DiscountTypeFixed,
		Value:        moneyFromFloat(50),
		StartDate:    now.Add(-time.Hour),
		EndDate:      now.Add(time.Hour),
		IsActive:     true,
	})
	if err := db.Create(&models.DiscountUser{DiscountID: discount.ID, UserID: 7}).Error; err != nil {
		t.Fatalf("create discount user failed: %v", err)
	}

	if _, _, err := svc.Apply(moneyFromFloat(1000), "VIP", 7); err != nil {
		t.Fatalf("whitelisted user should pass, got %v", err)
	}

	_, _, err := svc.Apply(moneyFromFloat(1000), "VIP", 8)
	if !errors.Is(err, ErrDiscountNotEligible) {
		t.Fatalf("want ErrDiscountNotEligible got %v", err)
	}
}

func TestDiscountConsumeUsageGuard(t *testing.T) {
	svc, db := setupDiscountServiceTest(t)
	now := time.Now()
	discount := createTestDiscount(t, db, models.Discount{
		Code:         "LIMIT1",
		DiscountType: constants.DiscountTypeFixed,
		Value:        moneyFromFloat(50),
		StartDate:    now.Add(-time.Hour),
		EndDate:      now.Add(time.Hour),
		UsageLimit:   1,
		IsActive:     true,
	})

	if err := svc.ConsumeUsage(nil, discount.ID); err != nil {
		t.Fatalf("first consume failed: %v", err)
	}
	if err := svc.ConsumeUsage(nil, discount.ID); !errors.Is(err, ErrDiscountUsageLimit) {
		t.Fatalf("second consume want ErrDiscountUsageLimit got %v", err)
	}

	if err := svc.RefundUsage(nil, discount.ID); err != nil {
		t.Fatalf("refund failed: %v", err)
	}
	var got models.Discount
	if err := db.First(&got, discount.ID).Error; err != nil {
		t.Fatalf("load discount failed: %v", err)
	}
	if got.UsedCount != 0 {
		t.Fatalf("used count after refund want 0 got %d", got.UsedCount)
	}

	// 回退不会减到负数
	if err := svc.RefundUsage(nil, discount.ID); err != nil {
		t.Fatalf("refund at zero failed: %v", err)
	}
	if err := db.First(&got, discount.ID).Error; err != nil {
		t.Fatalf("reload discount failed: %v", err)
	}
	if got.UsedCount != 0 {
		t.Fatalf("used count must not go negative, got %d", got.UsedCount)
	}
}
