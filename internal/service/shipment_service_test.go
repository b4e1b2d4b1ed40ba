package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sketezo-next/internal/constants"
	"github.com/sketezo-next/internal/courier/zippypost"
	"github.com/sketezo-next/internal/models"
	"github.com/sketezo-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type shipmentServiceFixture struct {
	svc     *ShipmentService
	db      *gorm.DB
	gateway *httptest.Server
	calls   *atomic.Int64
}

func setupShipmentServiceTest(t *testing.T, handler http.HandlerFunc) *shipmentServiceFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:shipment_service_%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Address{}, &models.Order{}, &models.OrderItem{},
		&models.OrderStatusUpdate{}, &models.ShipmentRecord{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	prevDB := models.DB
	models.DB = db
	t.Cleanup(func() { models.DB = prevDB })

	calls := &atomic.Int64{}
	var gateway *httptest.Server
	if handler != nil {
		gateway = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			handler(w, r)
		}))
		t.Cleanup(gateway.Close)
	}

	courierCfg := &zippypost.Config{
		PublicKey:  "pub",
		PrivateKey: "priv",
		SellerID:   "seller_1",
	}
	if gateway != nil {
		courierCfg.BaseURL = gateway.URL
	}
	courierCfg.Normalize()
	if gateway == nil {
		// 无网关地址时 courier 视为未配置
		courierCfg.BaseURL = ""
	}

	orderRepo := repository.NewOrderRepository(db)
	statusService := NewOrderStatusService(orderRepo, repository.NewOrderStatusUpdateRepository(db))
	svc := NewShipmentService(
		repository.NewShipmentRecordRepository(db),
		orderRepo,
		statusService,
		courierCfg,
	)
	return &shipmentServiceFixture{svc: svc, db: db, gateway: gateway, calls: calls}
}

func seedShipmentOrder(t *testing.T, db *gorm.DB, status string) *models.Order {
	t.Helper()
	address := &models.Address{
		UserID:       1,
		FullName:     "Asha",
		Phone:        "9999999999",
		AddressLine1: "12 MG Road",
		City:         "Bengaluru",
		State:        "Karnataka",
		Pincode:      "560001",
		Country:      "India",
	}
	if err := db.Create(address).Error; err != nil {
		t.Fatalf("create address failed: %v", err)
	}
	order := &models.Order{
		OrderNo:       fmt.Sprintf("ORD-%d", time.Now().UnixNano()),
		UserID:        1,
		Status:        status,
		PaymentStatus: constants.PaymentStatusPending,
		PaymentMethod: constants.PaymentMethodCOD,
		Currency:      "INR",
		TotalAmount:   moneyFromFloat(1048),
		AddressID:     address.ID,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	item := &models.OrderItem{
		OrderID:     order.ID,
		ProductID:   1,
		VariantID:   1,
		ProductName: "Classic Tee",
		SKUCode:     "TEE-BLK-M",
		UnitPrice:   moneyFromFloat(499),
		Quantity:    2,
		TotalPrice:  moneyFromFloat(998),
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("create order item failed: %v", err)
	}
	return order
}

func TestIsTerminalShippingStatus(t *testing.T) {
	terminal := []string{
		constants.ShippingStatusDelivered,
		constants.ShippingStatusRTODelivered,
		constants.ShippingStatusCancelled,
		constants.ShippingStatusFailed,
	}
	for _, status := range terminal {
		if !IsTerminalShippingStatus(status) {
			t.Fatalf("%s should be terminal", status)
		}
	}
	active := []string{
		constants.ShippingStatusCreated,
		constants.ShippingStatusPickedUp,
		constants.ShippingStatusInTransit,
		constants.ShippingStatusOutForDelivery,
		constants.ShippingStatusRTOInitiated,
	}
	for _, status := range active {
		if IsTerminalShippingStatus(status) {
			t.Fatalf("%s should not be terminal", status)
		}
	}
}

func TestCreateForOrderIdempotent(t *testing.T) {
	f := setupShipmentServiceTest(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/shipment" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"awb_number":"AWB777","courier_name":"Delhivery","label_url":"https://labels.example.com/AWB777.pdf"}}`))
	})
	order := seedShipmentOrder(t, f.db, constants.OrderStatusConfirmed)

	if err := f.svc.CreateForOrder(context.Background(), order.ID); err != nil {
		t.Fatalf("create for order failed: %v", err)
	}

	var record models.ShipmentRecord
	if err := f.db.Where("order_id = ?", order.ID).First(&record).Error; err != nil {
		t.Fatalf("load shipment record failed: %v", err)
	}
	if !record.ShipmentCreated || record.AWBNumber != "AWB777" {
		t.Fatalf("record mismatch: %+v", record)
	}
	if !record.IsCOD {
		t.Fatalf("cod flag should carry over from order")
	}

	var gotOrder models.Order
	if err := f.db.First(&gotOrder, order.ID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	if gotOrder.Status != constants.OrderStatusProcessing {
		t.Fatalf("order should advance to processing, got %s", gotOrder.Status)
	}
	if gotOrder.TrackingID != "AWB777" || gotOrder.CourierPartner != "Delhivery" {
		t.Fatalf("order courier fields mismatch: %+v", gotOrder)
	}

	// 重复执行不再调用网关
	before := f.calls.Load()
	if err := f.svc.CreateForOrder(context.Background(), order.ID); err != nil {
		t.Fatalf("repeat create failed: %v", err)
	}
	if f.calls.Load() != before {
		t.Fatalf("repeat create must not call gateway again")
	}
}

func TestCreateForOrderSkipsUnconfirmed(t *testing.T) {
	f := setupShipmentServiceTest(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("gateway must not be called for pending order")
	})
	order := seedShipmentOrder(t, f.db, constants.OrderStatusPending)

	if err := f.svc.CreateForOrder(context.Background(), order.ID); err != nil {
		t.Fatalf("pending order should be skipped quietly, got %v", err)
	}

	var count int64
	if err := f.db.Model(&models.ShipmentRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("count records failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("pending order must not create shipment record")
	}
}

func TestCreateForOrderUnknownOrder(t *testing.T) {
	f := setupShipmentServiceTest(t, nil)
	if err := f.svc.CreateForOrder(context.Background(), 999); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("want ErrOrderNotFound got %v", err)
	}
}

func TestSyncTrackingAdvancesOrder(t *testing.T) {
	f := setupShipmentServiceTest(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/tracking/") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"awb_number":"AWB777","current_status":"DELIVERED"}}`))
	})
	order := seedShipmentOrder(t, f.db, constants.OrderStatusProcessing)
	record := &models.ShipmentRecord{
		OrderID:         order.ID,
		AWBNumber:       "AWB777",
		TrackingNumber:  "AWB777",
		ShippingStatus:  constants.ShippingStatusInTransit,
		ShipmentCreated: true,
	}
	if err := f.db.Create(record).Error; err != nil {
		t.Fatalf("create record failed: %v", err)
	}

	got, err := f.svc.SyncTracking(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("sync tracking failed: %v", err)
	}
	if got.ShippingStatus != constants.ShippingStatusDelivered {
		t.Fatalf("shipping status want delivered got %s", got.ShippingStatus)
	}
	if got.LastSyncedAt == nil {
		t.Fatalf("last synced timestamp should be set")
	}

	var gotOrder models.Order
	if err := f.db.First(&gotOrder, order.ID).Error; err != nil {
		t.Fatalf("load order failed: %v", err)
	}
	// processing → shipped → delivered 补中间状态
	if gotOrder.Status != constants.OrderStatusDelivered {
		t.Fatalf("order should advance to delivered, got %s", gotOrder.Status)
	}
	if gotOrder.DeliveredAt == nil {
		t.Fatalf("delivered_at should be stamped")
	}

	var historyCount int64
	if err := f.db.Model(&models.OrderStatusUpdate{}).Where("order_id = ?", order.ID).Count(&historyCount).Error; err != nil {
		t.Fatalf("count history failed: %v", err)
	}
	if historyCount != 2 {
		t.Fatalf("expect shipped+delivered history rows, got %d", historyCount)
	}
}

func TestSyncTrackingDropsUnknownStatus(t *testing.T) {
	f := setupShipmentServiceTest(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"awb_number":"AWB777","current_status":"SOMETHING NEW"}}`))
	})
	order := seedShipmentOrder(t, f.db, constants.OrderStatusProcessing)
	record := &models.ShipmentRecord{
		OrderID:         order.ID,
		AWBNumber:       "AWB777",
		ShippingStatus:  constants.ShippingStatusInTransit,
		ShipmentCreated: true,
	}
	if err := f.db.Create(record).Error; err != nil {
		t.Fatalf("create record failed: %v", err)
	}

	got, err := f.svc.SyncTracking(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("sync tracking failed: %v", err)
	}
	if got.ShippingStatus != constants.ShippingStatusInTransit {
		t.Fatalf("unknown status must not change record, got %s", got.ShippingStatus)
	}
	if got.LastSyncedAt == nil {
		t.Fatalf("sync time should still be recorded")
	}
}

func TestSyncTrackingTerminalShortCircuit(t *testing.T) {
	f := setupShipmentServiceTest(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("terminal shipment must not hit gateway")
	})
	order := seedShipmentOrder(t, f.db, constants.OrderStatusDelivered)
	record := &models.ShipmentRecord{
		OrderID:         order.ID,
		AWBNumber:       "AWB777",
		ShippingStatus:  constants.ShippingStatusDelivered,
		ShipmentCreated: true,
	}
	if err := f.db.Create(record).Error; err != nil {
		t.Fatalf("create record failed: %v", err)
	}

	if _, err := f.svc.SyncTracking(context.Background(), record.ID); err != nil {
		t.Fatalf("terminal sync should be a no-op, got %v", err)
	}
}

func TestSyncTrackingNotReady(t *testing.T) {
	f := setupShipmentServiceTest(t, nil)
	order := seedShipmentOrder(t, f.db, constants.OrderStatusConfirmed)
	record := &models.ShipmentRecord{
		OrderID:        order.ID,
		ShippingStatus: constants.ShippingStatusCreated,
	}
	if err := f.db.Create(record).Error; err != nil {
		t.Fatalf("create record failed: %v", err)
	}

	if _, err := f.svc.SyncTracking(context.Background(), record.ID); !errors.Is(err, ErrShipmentNotReady) {
		t.Fatalf("want ErrShipmentNotReady got %v", err)
	}
}

func TestLabelForUserPrefersCachedURL(t *testing.T) {
	f := setupShipmentServiceTest(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("cached label must not hit gateway")
	})
	order := seedShipmentOrder(t, f.db, constants.OrderStatusShipped)
	record := &models.ShipmentRecord{
		OrderID:         order.ID,
		AWBNumber:       "AWB777",
		LabelURL:        "https://labels.example.com/AWB777.pdf",
		ShippingStatus:  constants.ShippingStatusInTransit,
		ShipmentCreated: true,
	}
	if err := f.db.Create(record).Error; err != nil {
		t.Fatalf("create record failed: %v", err)
	}

	label, err := f.svc.LabelForUser(context.Background(), 1, order.ID)
	if err != nil {
		t.Fatalf("label for user failed: %v", err)
	}
	if label != "https://labels.example.com/AWB777.pdf" {
		t.Fatalf("label mismatch: %s", label)
	}

	// 其他用户不可见
	if _, err := f.svc.LabelForUser(context.Background(), 2, order.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("foreign user want ErrOrderNotFound got %v", err)
	}
}
