package service

import (
	"context"
	"time"

	"github.com/sketezo-next/internal/constants"
	"github.com/sketezo-next/internal/courier/zippypost"
	"github.com/sketezo-next/internal/logger"
	"github.com/sketezo-next/internal/models"
	"github.com/sketezo-next/internal/repository"

	"gorm.io/gorm"
)

// ShipmentService 物流服务（运单创建、轨迹同步、取消与面单）
type ShipmentService struct {
	shipmentRepo  repository.ShipmentRecordRepository
	orderRepo     repository.OrderRepository
	statusService *OrderStatusService
	courierCfg    *zippypost.Config
}

// NewShipmentService 创建物流服务
func NewShipmentService(
	shipmentRepo repository.ShipmentRecordRepository,
	orderRepo repository.OrderRepository,
	statusService *OrderStatusService,
	courierCfg *zippypost.Config,
) *ShipmentService {
	return &ShipmentService{
		shipmentRepo:  shipmentRepo,
		orderRepo:     orderRepo,
		statusService: statusService,
		courierCfg:    courierCfg,
	}
}

// courierEnabled 网关配置是否可用
func (s *ShipmentService) courierEnabled() bool {
	return s.courierCfg != nil && zippypost.ValidateConfig(s.courierCfg) == nil
}

// IsTerminalShippingStatus 物流状态是否为终态
func IsTerminalShippingStatus(status string) bool {
	switch status {
	case constants.ShippingStatusDelivered,
		constants.ShippingStatusRTODelivered,
		constants.ShippingStatusCancelled,
		constants.ShippingStatusFailed:
		return true
	}
	return false
}

// CreateForOrder 为订单创建运单（队列任务入口，幂等）。
// 本地物流记录先落库，网关调用失败时由队列重试，不影响订单主流程。
func (s *ShipmentService) CreateForOrder(ctx context.Context, orderID uint) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	switch order.Status {
	case constants.OrderStatusConfirmed, constants.OrderStatusProcessing:
	default:
		// 已取消或尚未确认的订单不创建运单
		logger.Infow("shipment_create_skipped", "order_id", order.ID, "status", order.Status)
		return nil
	}

	record, err := s.shipmentRepo.GetByOrderID(order.ID)
	if err != nil {
		return err
	}
	if record == nil {
		record = &models.ShipmentRecord{
			OrderID:        order.ID,
			ShippingStatus: constants.ShippingStatusCreated,
			IsCOD:          order.IsCOD(),
		}
		if err := s.shipmentRepo.Create(record); err != nil {
			return err
		}
	}
	if record.ShipmentCreated {
		return nil
	}

	if !s.courierEnabled() {
		logger.Warnw("shipment_courier_not_configured", "order_id", order.ID)
		return nil
	}
	if order.Address == nil {
		return ErrAddressNotFound
	}

	items := make([]zippypost.ShipmentItem, 0, len(order.Items))
	declaredValue, _ := order.TotalAmount.Float64()
	for _, item := range order.Items {
		unitPrice, _ := item.UnitPrice.Float64()
		items = append(items, zippypost.ShipmentItem{
			SKU:       item.SKUCode,
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			UnitPrice: unitPrice,
		})
	}

	collectable := 0.0
	if order.IsCOD() {
		collectable = declaredValue
	}

	result, err := zippypost.CreateShipment(ctx, s.courierCfg, zippypost.CreateShipmentInput{
		OrderNo:           order.OrderNo,
		ConsigneeName:     order.Address.FullName,
		ConsigneePhone:    order.Address.Phone,
		AddressLine1:      order.Address.AddressLine1,
		AddressLine2:      order.Address.AddressLine2,
		City:              order.Address.City,
		State:             order.Address.State,
		Pincode:           order.Address.Pincode,
		Country:           order.Address.Country,
		Items:             items,
		IsCOD:             order.IsCOD(),
		CollectableAmount: collectable,
		DeclaredValue:     declaredValue,
	})
	if err != nil {
		return err
	}

	now := time.Now()
	rows, err := s.shipmentRepo.MarkShipmentCreated(record.ID, map[string]interface{}{
		"awb_number":      result.AWBNumber,
		"tracking_number": result.TrackingNumber,
		"courier_name":    result.CourierName,
		"label_url":       result.LabelURL,
		"updated_at":      now,
	})
	if err != nil {
		return err
	}
	if rows == 0 {
		// 并发重试已处理过
		return nil
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.WithTx(tx).UpdateFields(order.ID, map[string]interface{}{
			"tracking_id":     result.TrackingNumber,
			"courier_partner": result.CourierName,
			"updated_at":      now,
		}); err != nil {
			return err
		}
		if order.Status == constants.OrderStatusConfirmed {
			return s.statusService.Transition(tx, order, constants.OrderStatusProcessing, "shipment created", ActorSystem)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Infow("shipment_created", "order_id", order.ID, "awb", result.AWBNumber)
	return nil
}

// SyncTracking 同步物流轨迹（队列任务入口）。
// 未识别的网关状态直接丢弃；DELIVERED 同步推进订单状态与签收时间。
func (s *ShipmentService) SyncTracking(ctx context.Context, shipmentID uint) (*models.ShipmentRecord, error) {
	found, err := s.shipmentRepo.GetByID(shipmentID)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrShipmentNotFound
	}
	record := *found
	if !record.ShipmentCreated || record.AWBNumber == "" {
		return &record, ErrShipmentNotReady
	}
	if IsTerminalShippingStatus(record.ShippingStatus) {
		return &record, nil
	}
	if !s.courierEnabled() {
		return &record, nil
	}

	result, err := zippypost.Track(ctx, s.courierCfg, record.AWBNumber)
	if err != nil {
		return &record, err
	}

	now := time.Now()
	mapped, ok := zippypost.MapStatus(result.RawStatus)
	if !ok {
		// 未识别的状态不落库，仅记录同步时间
		if err := s.shipmentRepo.UpdateFields(record.ID, map[string]interface{}{
			"last_synced_at": now,
		}); err != nil {
			return &record, err
		}
		record.LastSyncedAt = &now
		return &record, nil
	}

	if mapped != record.ShippingStatus {
		if err := s.shipmentRepo.UpdateFields(record.ID, map[string]interface{}{
			"shipping_status": mapped,
			"last_synced_at":  now,
		}); err != nil {
			return &record, err
		}
		record.ShippingStatus = mapped
		record.LastSyncedAt = &now
		if err := s.advanceOrderStatus(record.OrderID, mapped); err != nil {
			logger.Warnw("shipment_order_status_advance_failed", "order_id", record.OrderID, "shipping_status", mapped, "error", err)
		}
	} else {
		if err := s.shipmentRepo.UpdateFields(record.ID, map[string]interface{}{
			"last_synced_at": now,
		}); err != nil {
			return &record, err
		}
		record.LastSyncedAt = &now
	}

	return &record, nil
}

// advanceOrderStatus 按物流状态推进订单状态机
func (s *ShipmentService) advanceOrderStatus(orderID uint, shippingStatus string) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}

	var target string
	switch shippingStatus {
	case constants.ShippingStatusPickedUp,
		constants.ShippingStatusInTransit,
		constants.ShippingStatusOutForDelivery:
		target = constants.OrderStatusShipped
	case constants.ShippingStatusDelivered:
		target = constants.OrderStatusDelivered
	case constants.ShippingStatusRTODelivered:
		target = constants.OrderStatusReturned
	default:
		return nil
	}

	return models.DB.Transaction(func(tx *gorm.DB) error {
		// 跨级推进时先补中间状态（processing → shipped → delivered）
		if target == constants.OrderStatusDelivered || target == constants.OrderStatusReturned {
			if order.Status == constants.OrderStatusProcessing {
				if err := s.statusService.Transition(tx, order, constants.OrderStatusShipped, "courier picked up", ActorCourier); err != nil {
					return err
				}
			}
		}
		if order.Status == target {
			return nil
		}
		if !CanTransition(order.Status, target) {
			return nil
		}
		notes := "courier status: " + shippingStatus
		return s.statusService.Transition(tx, order, target, notes, ActorCourier)
	})
}

// CancelForOrder 取消订单运单（尽力而为，失败交由调用方记录）
func (s *ShipmentService) CancelForOrder(ctx context.Context, orderID uint) error {
	record, err := s.shipmentRepo.GetByOrderID(orderID)
	if err != nil {
		return err
	}
	if record == nil || !record.ShipmentCreated || record.AWBNumber == "" {
		return nil
	}
	if IsTerminalShippingStatus(record.ShippingStatus) {
		return nil
	}
	if !s.courierEnabled() {
		return nil
	}

	if err := zippypost.CancelShipment(ctx, s.courierCfg, record.AWBNumber); err != nil {
		return err
	}
	return s.shipmentRepo.UpdateFields(record.ID, map[string]interface{}{
		"shipping_status": constants.ShippingStatusCancelled,
		"updated_at":      time.Now(),
	})
}

// TrackForUser 获取用户订单物流记录
func (s *ShipmentService) TrackForUser(userID, orderID uint) (*models.ShipmentRecord, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	record, err := s.shipmentRepo.GetByOrderID(order.ID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrShipmentNotFound
	}
	return record, nil
}

// LabelForUser 获取用户订单面单地址（缓存为空时回源网关）
func (s *ShipmentService) LabelForUser(ctx context.Context, userID, orderID uint) (string, error) {
	record, err := s.TrackForUser(userID, orderID)
	if err != nil {
		return "", err
	}
	if !record.ShipmentCreated || record.AWBNumber == "" {
		return "", ErrShipmentNotReady
	}
	if record.LabelURL != "" {
		return record.LabelURL, nil
	}
	if !s.courierEnabled() {
		return "", ErrShipmentNotReady
	}

	label, err := zippypost.GetLabel(ctx, s.courierCfg, record.AWBNumber)
	if err != nil {
		return "", err
	}
	if err := s.shipmentRepo.UpdateFields(record.ID, map[string]interface{}{
		"label_url":  label,
		"updated_at": time.Now(),
	}); err != nil {
		return "", err
	}
	return label, nil
}
