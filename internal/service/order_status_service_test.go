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
	"gorm.io/gorm"
)

func setupOrderStatusTest(t *testing.T) (*OrderStatusService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_status_%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderStatusUpdate{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	svc := NewOrderStatusService(
		repository.NewOrderRepository(db),
		repository.NewOrderStatusUpdateRepository(db),
	)
	return svc, db
}

func createTestOrder(t *testing.T, db *gorm.DB, status string) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNo:       fmt.Sprintf("ORD-%s-%d", t.Name(), time.Now().UnixNano()),
		UserID:        1,
		Status:        status,
		PaymentStatus: constants.PaymentStatusPending,
		PaymentMethod: constants.PaymentMethodCOD,
		Currency:      "INR",
		AddressID:     1,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestCanTransitionTable(t *testing.T) {
	cases := []struct {
		from string
		to   string
		want bool
	}{
		{constants.OrderStatusPending, constants.OrderStatusConfirmed, true},
		{constants.OrderStatusPending, constants.OrderStatusCancelled, true},
		{constants.OrderStatusPending, constants.OrderStatusShipped, false},
		{constants.OrderStatusConfirmed, constants.OrderStatusProcessing, true},
		{constants.OrderStatusConfirmed, constants.OrderStatusCancelled, true},
		{constants.OrderStatusProcessing, constants.OrderStatusShipped, true},
		{constants.OrderStatusProcessing, constants.OrderStatusCancelled, false},
		{constants.OrderStatusShipped, constants.OrderStatusDelivered, true},
		{constants.OrderStatusShipped, constants.OrderStatusReturned, true},
		{constants.OrderStatusDelivered, constants.OrderStatusReturned, true},
		{constants.OrderStatusCancelled, constants.OrderStatusPending, false},
		{constants.OrderStatusReturned, constants.OrderStatusPending, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) want %v got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestTransitionAppendsHistory(t *testing.T) {
	svc, db := setupOrderStatusTest(t)
	order := createTestOrder(t, db, constants.OrderStatusPending)

	if err := svc.Transition(nil, order, constants.OrderStatusConfirmed, "payment received", "system"); err != nil {
		t.Fatalf("transition failed: %v", err)
	}

	if order.Status != constants.OrderStatusConfirmed {
		t.Fatalf("in-memory status want confirmed got %s", order.Status)
	}
	if order.ConfirmedAt == nil {
		t.Fatalf("confirmed_at should be stamped")
	}

	var got models.Order
	if err := db.First(&got, order.ID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if got.Status != constants.OrderStatusConfirmed {
		t.Fatalf("persisted status want confirmed got %s", got.Status)
	}
	if got.ConfirmedAt == nil {
		t.Fatalf("persisted confirmed_at should be set")
	}

	history, err := svc.History(order.ID)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history rows want 1 got %d", len(history))
	}
	if history[0].OldStatus != constants.OrderStatusPending || history[0].NewStatus != constants.OrderStatusConfirmed {
		t.Fatalf("history mismatch: %+v", history[0])
	}
	if history[0].Notes != "payment received" || history[0].UpdatedBy != "system" {
		t.Fatalf("history metadata mismatch: %+v", history[0])
	}
}

func TestTransitionRejectsInvalidHop(t *testing.T) {
	svc, db := setupOrderStatusTest(t)
	order := createTestOrder(t, db, constants.OrderStatusPending)

	err := svc.Transition(nil, order, constants.OrderStatusShipped, "", "system")
	if !errors.Is(err, ErrOrderStateInvalid) {
		t.Fatalf("want ErrOrderStateInvalid got %v", err)
	}

	var got models.Order
	if err := db.First(&got, order.ID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if got.Status != constants.OrderStatusPending {
		t.Fatalf("rejected transition must not mutate status, got %s", got.Status)
	}
}

func TestTransitionMilestoneStampedOnce(t *testing.T) {
	svc, db := setupOrderStatusTest(t)
	order := createTestOrder(t, db, constants.OrderStatusShipped)
	earlier := time.Now().Add(-time.Hour)
	order.ShippedAt = &earlier
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("shipped_at", earlier).Error; err != nil {
		t.Fatalf("seed shipped_at failed: %v", err)
	}

	if err := svc.Transition(nil, order, constants.OrderStatusDelivered, "", "courier"); err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if err := svc.Transition(nil, order, constants.OrderStatusReturned, "", "courier"); err != nil {
		t.Fatalf("return transition failed: %v", err)
	}

	var got models.Order
	if err := db.First(&got, order.ID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if got.ShippedAt == nil || got.ShippedAt.Sub(earlier).Abs() > time.Second {
		t.Fatalf("shipped_at should keep original stamp, got %v", got.ShippedAt)
	}
	if got.DeliveredAt == nil {
		t.Fatalf("delivered_at should be stamped")
	}
}

func TestSetPaymentStatus(t *testing.T) {
	svc, db := setupOrderStatusTest(t)
	order := createTestOrder(t, db, constants.OrderStatusPending)

	if err := svc.SetPaymentStatus(nil, order, constants.PaymentStatusPaid, map[string]interface{}{
		"payment_id": "pay_123",
	}); err != nil {
		t.Fatalf("set payment status failed: %v", err)
	}

	var got models.Order
	if err := db.First(&got, order.ID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if got.PaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("payment status want paid got %s", got.PaymentStatus)
	}
	if got.PaymentID != "pay_123" {
		t.Fatalf("payment id want pay_123 got %s", got.PaymentID)
	}
	if order.PaymentStatus != constants.PaymentStatusPaid {
		t.Fatalf("in-memory payment status not updated")
	}
}
