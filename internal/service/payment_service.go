package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sketezo-next/internal/constants"
	"github.com/sketezo-next/internal/logger"
	"github.com/sketezo-next/internal/models"
	"github.com/sketezo-next/internal/payment/razorpay"
	"github.com/sketezo-next/internal/repository"
)

// PaymentService 在线支付服务（网关下单与回调验签）
type PaymentService struct {
	orderRepo    repository.OrderRepository
	orderService *OrderService
	gatewayCfg   *razorpay.Config
}

// NewPaymentService 创建支付服务
func NewPaymentService(orderRepo repository.OrderRepository, orderService *OrderService, gatewayCfg *razorpay.Config) *PaymentService {
	return &PaymentService{
		orderRepo:    orderRepo,
		orderService: orderService,
		gatewayCfg:   gatewayCfg,
	}
}

// PaymentOrderResult 网关支付单信息
type PaymentOrderResult struct {
	OrderNo        string       `json:"order_no"`
	PaymentOrderID string       `json:"payment_order_id"`
	AmountMinor    int64        `json:"amount_minor"`
	Amount         models.Money `json:"amount"`
	Currency       string       `json:"currency"`
	KeyID          string       `json:"key_id"`
}

// CreatePaymentOrder 为在线支付订单创建网关支付单（重复调用复用已有支付单）
func (s *PaymentService) CreatePaymentOrder(ctx context.Context, userID, orderID uint) (*PaymentOrderResult, error) {
	if err := razorpay.ValidateConfig(s.gatewayCfg); err != nil {
		return nil, err
	}
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.PaymentMethod != constants.PaymentMethodOnline {
		return nil, ErrPaymentNotOnline
	}
	if order.PaymentStatus == constants.PaymentStatusPaid {
		return nil, ErrOrderAlreadyPaid
	}
	if order.Status != constants.OrderStatusPending {
		return nil, ErrOrderStateInvalid
	}
	if order.ExpiresAt != nil && order.ExpiresAt.Before(time.Now()) {
		return nil, ErrOrderExpired
	}

	if order.PaymentOrderID != "" {
		return &PaymentOrderResult{
			OrderNo:        order.OrderNo,
			PaymentOrderID: order.PaymentOrderID,
			AmountMinor:    order.TotalAmount.MinorUnits(),
			Amount:         order.TotalAmount,
			Currency:       order.Currency,
			KeyID:          s.gatewayCfg.KeyID,
		}, nil
	}

	result, err := razorpay.CreateOrder(ctx, s.gatewayCfg, razorpay.CreateInput{
		Receipt:     order.OrderNo,
		AmountMinor: order.TotalAmount.MinorUnits(),
		Currency:    order.Currency,
		Notes:       map[string]string{"order_no": order.OrderNo},
	})
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.UpdateFields(order.ID, map[string]interface{}{
		"payment_order_id": result.OrderID,
		"updated_at":       time.Now(),
	}); err != nil {
		return nil, err
	}

	return &PaymentOrderResult{
		OrderNo:        order.OrderNo,
		PaymentOrderID: result.OrderID,
		AmountMinor:    result.AmountMinor,
		Amount:         order.TotalAmount,
		Currency:       result.Currency,
		KeyID:          s.gatewayCfg.KeyID,
	}, nil
}

// VerifyPaymentInput 支付回调验签输入
type VerifyPaymentInput struct {
	PaymentOrderID string // 网关支付单号
	PaymentID      string // 网关支付流水号
	Signature      string // 网关签名
}

// VerifyPayment 校验支付签名并确认订单。
// 验签失败时支付状态置为 failed 并保留订单以便审计；
// 重复回调因支付状态守卫而幂等，不会二次扣减库存。
func (s *PaymentService) VerifyPayment(input VerifyPaymentInput) (*models.Order, error) {
	paymentOrderID := strings.TrimSpace(input.PaymentOrderID)
	if paymentOrderID == "" || strings.TrimSpace(input.PaymentID) == "" {
		return nil, ErrValidation
	}

	order, err := s.orderRepo.GetByPaymentOrderID(paymentOrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	if err := razorpay.VerifySignature(s.gatewayCfg, paymentOrderID, input.PaymentID, input.Signature); err != nil {
		if markErr := s.orderService.MarkPaymentFailed(order.ID, "signature verification failed"); markErr != nil {
			logger.Errorw("mark_payment_failed_error", "order_id", order.ID, "error", markErr)
		}
		return nil, ErrSignatureInvalid
	}

	paid, err := s.orderService.MarkPaid(order.ID, strings.TrimSpace(input.PaymentID))
	if err != nil {
		if errors.Is(err, ErrOrderAlreadyPaid) {
			// 重复回调：确认动作不重复执行
			logger.Infow("payment_callback_duplicate", "order_id", order.ID, "payment_id", input.PaymentID)
			return order, nil
		}
		return nil, err
	}
	return paid, nil
}
