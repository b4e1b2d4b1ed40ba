package service

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/sketezo-next/internal/constants"
	"github.com/sketezo-next/internal/models"
	"github.com/sketezo-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupStockLedgerTest(t *testing.T) (*StockLedgerService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:stock_ledger_%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.ProductVariant{}, &models.StockMovement{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	svc := NewStockLedgerService(
		repository.NewProductVariantRepository(db),
		repository.NewStockMovementRepository(db),
	)
	return svc, db
}

func createTestVariant(t *testing.T, db *gorm.DB, stock, reserved int) *models.ProductVariant {
	t.Helper()
	variant := &models.ProductVariant{
		ProductID:     1,
		SKUCode:       fmt.Sprintf("SKU-%s-%d", t.Name(), time.Now().UnixNano()),
		Price:         moneyFromFloat(499),
		Stock:         stock,
		ReservedStock: reserved,
		IsActive:      true,
	}
	if err := db.Create(variant).Error; err != nil {
		t.Fatalf("create variant failed: %v", err)
	}
	return variant
}

func TestStockReserveRecordsMovement(t *testing.T) {
	svc, db := setupStockLedgerTest(t)
	variant := createTestVariant(t, db, 10, 0)

	if err := svc.Reserve(nil, variant.ID, 3, "ORD-1", "checkout"); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	var got models.ProductVariant
	if err := db.First(&got, variant.ID).Error; err != nil {
		t.Fatalf("load variant failed: %v", err)
	}
	if got.ReservedStock != 3 || got.Stock != 10 {
		t.Fatalf("reserve should only move reserved counter, stock=%d reserved=%d", got.Stock, got.ReservedStock)
	}
	if got.AvailableStock() != 7 {
		t.Fatalf("available want 7 got %d", got.AvailableStock())
	}

	var movement models.StockMovement
	if err := db.Where("variant_id = ?", variant.ID).First(&movement).Error; err != nil {
		t.Fatalf("load movement failed: %v", err)
	}
	if movement.MovementType != constants.MovementTypeReserved {
		t.Fatalf("movement type want reserved got %s", movement.MovementType)
	}
	if movement.Quantity != -3 {
		t.Fatalf("reserve movement quantity want -3 got %d", movement.Quantity)
	}
	if movement.ReferenceID != "ORD-1" {
		t.Fatalf("movement reference want ORD-1 got %s", movement.ReferenceID)
	}
}

func TestStockReserveInsufficient(t *testing.T) {
	svc, db := setupStockLedgerTest(t)
	variant := createTestVariant(t, db, 5, 3)

	err := svc.Reserve(nil, variant.ID, 3, "ORD-2", "checkout")
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock got %v", err)
	}
	if !strings.Contains(err.Error(), "only 2 available") {
		t.Fatalf("error should carry remaining quantity, got %q", err.Error())
	}

	var count int64
	if err := db.Model(&models.StockMovement{}).Where("variant_id = ?", variant.ID).Count(&count).Error; err != nil {
		t.Fatalf("count movements failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("failed reserve must not append movement, got %d rows", count)
	}
}

func TestStockReserveOutOfStock(t *testing.T) {
	svc, db := setupStockLedgerTest(t)
	variant := createTestVariant(t, db, 4, 4)

	err := svc.Reserve(nil, variant.ID, 1, "ORD-3", "checkout")
	if !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("want ErrOutOfStock got %v", err)
	}
}

func TestStockReserveUnknownVariant(t *testing.T) {
	svc, _ := setupStockLedgerTest(t)

	err := svc.Reserve(nil, 999, 1, "ORD-4", "checkout")
	if !errors.Is(err, ErrVariantNotFound) {
		t.Fatalf("want ErrVariantNotFound got %v", err)
	}
}

func TestStockReserveThenReleaseRestoresAvailability(t *testing.T) {
	svc, db := setupStockLedgerTest(t)
	variant := createTestVariant(t, db, 10, 0)

	if err := svc.Reserve(nil, variant.ID, 4, "ORD-5", "checkout"); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if err := svc.Release(nil, variant.ID, 4, "ORD-5", "cancel"); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	var got models.ProductVariant
	if err := db.First(&got, variant.ID).Error; err != nil {
		t.Fatalf("load variant failed: %v", err)
	}
	if got.Stock != 10 || got.ReservedStock != 0 {
		t.Fatalf("reserve+release should be identity, stock=%d reserved=%d", got.Stock, got.ReservedStock)
	}

	var movements []models.StockMovement
	if err := db.Where("variant_id = ?", variant.ID).Order("id ASC").Find(&movements).Error; err != nil {
		t.Fatalf("load movements failed: %v", err)
	}
	if len(movements) != 2 {
		t.Fatalf("movements want 2 got %d", len(movements))
	}
	if movements[1].MovementType != constants.MovementTypeReleased || movements[1].Quantity != 4 {
		t.Fatalf("release movement mismatch: %+v", movements[1])
	}
}

func TestStockCommitSale(t *testing.T) {
	svc, db := setupStockLedgerTest(t)
	variant := createTestVariant(t, db, 10, 0)

	if err := svc.Reserve(nil, variant.ID, 2, "ORD-6", "checkout"); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if err := svc.CommitSale(nil, variant.ID, 2, "ORD-6", "payment"); err != nil {
		t.Fatalf("commit sale failed: %v", err)
	}

	var got models.ProductVariant
	if err := db.First(&got, variant.ID).Error; err != nil {
		t.Fatalf("load variant failed: %v", err)
	}
	if got.Stock != 8 || got.ReservedStock != 0 {
		t.Fatalf("commit should drain stock and reservation, stock=%d reserved=%d", got.Stock, got.ReservedStock)
	}

	var movement models.StockMovement
	if err := db.Where("variant_id = ? AND movement_type = ?", variant.ID, constants.MovementTypeOut).
		First(&movement).Error; err != nil {
		t.Fatalf("load sale movement failed: %v", err)
	}
	if movement.Quantity != -2 || movement.Reason != constants.MovementReasonSale {
		t.Fatalf("sale movement mismatch: %+v", movement)
	}
}

func TestStockCommitSaleWithoutReservation(t *testing.T) {
	svc, db := setupStockLedgerTest(t)
	variant := createTestVariant(t, db, 10, 0)

	err := svc.CommitSale(nil, variant.ID, 2, "ORD-7", "payment")
	if !errors.Is(err, ErrStockCommitFailed) {
		t.Fatalf("want ErrStockCommitFailed got %v", err)
	}
}

func TestStockRestock(t *testing.T) {
	svc, db := setupStockLedgerTest(t)
	variant := createTestVariant(t, db, 2, 0)

	if err := svc.Restock(nil, variant.ID, 8, "PO-1", "admin"); err != nil {
		t.Fatalf("restock failed: %v", err)
	}

	var got models.ProductVariant
	if err := db.First(&got, variant.ID).Error; err != nil {
		t.Fatalf("load variant failed: %v", err)
	}
	if got.Stock != 10 {
		t.Fatalf("stock want 10 got %d", got.Stock)
	}

	var movement models.StockMovement
	if err := db.Where("variant_id = ? AND movement_type = ?", variant.ID, constants.MovementTypeIn).
		First(&movement).Error; err != nil {
		t.Fatalf("load restock movement failed: %v", err)
	}
	if movement.Quantity != 8 || movement.Reason != constants.MovementReasonRestock {
		t.Fatalf("restock movement mismatch: %+v", movement)
	}
}

func TestStockRandomizedSequenceKeepsInvariant(t *testing.T) {
	svc, db := setupStockLedgerTest(t)
	variant := createTestVariant(t, db, 20, 0)

	seed := time.Now().UnixNano()
	t.Logf("seed %d", seed)
	rng := rand.New(rand.NewSource(seed))

	successes := 0
	for i := 0; i < 200; i++ {
		qty := rng.Intn(5) + 1
		ref := fmt.Sprintf("ORD-SEQ-%d", i)

		var err error
		switch rng.Intn(4) {
		case 0:
			err = svc.Reserve(nil, variant.ID, qty, ref, "checkout")
		case 1:
			err = svc.Release(nil, variant.ID, qty, ref, "cancel")
		case 2:
			err = svc.CommitSale(nil, variant.ID, qty, ref, "payment")
		case 3:
			err = svc.Restock(nil, variant.ID, qty, ref, "admin")
		}
		if err == nil {
			successes++
		}

		var got models.ProductVariant
		if err := db.First(&got, variant.ID).Error; err != nil {
			t.Fatalf("load variant failed at step %d: %v", i, err)
		}
		// 任意操作序列后必须保持 0 ≤ reserved ≤ stock
		if got.ReservedStock < 0 || got.Stock < 0 || got.ReservedStock > got.Stock {
			t.Fatalf("step %d broke counters: stock=%d reserved=%d", i, got.Stock, got.ReservedStock)
		}
	}

	var movementCount int64
	if err := db.Model(&models.StockMovement{}).Where("variant_id = ?", variant.ID).Count(&movementCount).Error; err != nil {
		t.Fatalf("count movements failed: %v", err)
	}
	if int(movementCount) != successes {
		t.Fatalf("every successful mutation appends exactly one movement, ops=%d rows=%d", successes, movementCount)
	}
}

func TestStockInvalidParams(t *testing.T) {
	svc, _ := setupStockLedgerTest(t)

	if err := svc.Reserve(nil, 0, 1, "", ""); !errors.Is(err, ErrInvalidOrderItem) {
		t.Fatalf("zero variant id want ErrInvalidOrderItem got %v", err)
	}
	if err := svc.Release(nil, 1, 0, "", ""); !errors.Is(err, ErrInvalidOrderItem) {
		t.Fatalf("zero quantity want ErrInvalidOrderItem got %v", err)
	}
}
