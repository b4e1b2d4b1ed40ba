package service

import (
	"time"

	"github.com/sketezo-next/internal/constants"
	"github.com/sketezo-next/internal/models"
	"github.com/sketezo-next/internal/repository"

	"gorm.io/gorm"
)

// allowedTransitions 订单状态机：仅允许表内声明的流转
var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusPending: {
		constants.OrderStatusConfirmed: true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusConfirmed: {
		constants.OrderStatusProcessing: true,
		constants.OrderStatusCancelled:  true,
	},
	constants.OrderStatusProcessing: {
		constants.OrderStatusShipped: true,
	},
	constants.OrderStatusShipped: {
		constants.OrderStatusDelivered: true,
		constants.OrderStatusReturned:  true,
	},
	constants.OrderStatusDelivered: {
		constants.OrderStatusReturned: true,
	},
}

// OrderStatusService 订单状态机服务。
// Order.status 的唯一写入口：每次流转同时追加一条状态历史记录。
type OrderStatusService struct {
	orderRepo  repository.OrderRepository
	statusRepo repository.OrderStatusUpdateRepository
}

// NewOrderStatusService 创建订单状态机服务
func NewOrderStatusService(orderRepo repository.OrderRepository, statusRepo repository.OrderStatusUpdateRepository) *OrderStatusService {
	return &OrderStatusService{
		orderRepo:  orderRepo,
		statusRepo: statusRepo,
	}
}

// CanTransition 判断状态流转是否允许
func CanTransition(from, to string) bool {
	return allowedTransitions[from][to]
}

// Transition 执行状态流转并追加历史。里程碑时间戳仅在首次到达时写入。
func (s *OrderStatusService) Transition(tx *gorm.DB, order *models.Order, newStatus, notes, updatedBy string) error {
	if order == nil {
		return ErrOrderNotFound
	}
	if !CanTransition(order.Status, newStatus) {
		return ErrOrderStateInvalid
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":     newStatus,
		"updated_at": now,
	}
	switch newStatus {
	case constants.OrderStatusConfirmed:
		if order.ConfirmedAt == nil {
			updates["confirmed_at"] = now
			order.ConfirmedAt = &now
		}
	case constants.OrderStatusShipped:
		if order.ShippedAt == nil {
			updates["shipped_at"] = now
			order.ShippedAt = &now
		}
	case constants.OrderStatusDelivered:
		if order.DeliveredAt == nil {
			updates["delivered_at"] = now
			order.DeliveredAt = &now
		}
	}

	if err := s.orderRepo.WithTx(tx).UpdateFields(order.ID, updates); err != nil {
		return err
	}
	if err := s.statusRepo.WithTx(tx).Create(&models.OrderStatusUpdate{
		OrderID:   order.ID,
		OldStatus: order.Status,
		NewStatus: newStatus,
		Notes:     notes,
		UpdatedBy: updatedBy,
	}); err != nil {
		return err
	}

	order.Status = newStatus
	return nil
}

// SetPaymentStatus 更新订单支付状态
func (s *OrderStatusService) SetPaymentStatus(tx *gorm.DB, order *models.Order, paymentStatus string, extra map[string]interface{}) error {
	if order == nil {
		return ErrOrderNotFound
	}
	updates := map[string]interface{}{
		"payment_status": paymentStatus,
		"updated_at":     time.Now(),
	}
	for k, v := range extra {
		updates[k] = v
	}
	if err := s.orderRepo.WithTx(tx).UpdateFields(order.ID, updates); err != nil {
		return err
	}
	order.PaymentStatus = paymentStatus
	return nil
}

// History 查询订单状态变更历史
func (s *OrderStatusService) History(orderID uint) ([]models.OrderStatusUpdate, error) {
	return s.statusRepo.ListByOrder(orderID)
}
