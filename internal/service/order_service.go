package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sketezo-next/internal/constants"
	"github.com/sketezo-next/internal/logger"
	"github.com/sketezo-next/internal/models"
	"github.com/sketezo-next/internal/queue"
	"github.com/sketezo-next/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 状态历史操作来源
const (
	ActorSystem  = "system"
	ActorUser    = "user"
	ActorWebhook = "payment_webhook"
	ActorCourier = "courier_sync"
)

// OrderService 订单服务（下单编排与订单生命周期）
type OrderService struct {
	orderRepo       repository.OrderRepository
	productRepo     repository.ProductRepository
	variantRepo     repository.ProductVariantRepository
	addressRepo     repository.AddressRepository
	stockLedger     *StockLedgerService
	discountService *DiscountService
	pricingService  *PricingService
	statusService   *OrderStatusService
	shipmentService *ShipmentService
	queueClient     *queue.Client
	expireMinutes   int
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	variantRepo repository.ProductVariantRepository,
	addressRepo repository.AddressRepository,
	stockLedger *StockLedgerService,
	discountService *DiscountService,
	pricingService *PricingService,
	statusService *OrderStatusService,
	shipmentService *ShipmentService,
	queueClient *queue.Client,
	expireMinutes int,
) *OrderService {
	return &OrderService{
		orderRepo:       orderRepo,
		productRepo:     productRepo,
		variantRepo:     variantRepo,
		addressRepo:     addressRepo,
		stockLedger:     stockLedger,
		discountService: discountService,
		pricingService:  pricingService,
		statusService:   statusService,
		shipmentService: shipmentService,
		queueClient:     queueClient,
		expireMinutes:   expireMinutes,
	}
}

// CreateOrderInput 创建订单输入
type CreateOrderInput struct {
	UserID        uint
	AddressID     uint
	PaymentMethod string
	DiscountCode  string
	Notes         string
	ClientIP      string
	Items         []CreateOrderItem
}

// CreateOrderItem 创建订单项输入
type CreateOrderItem struct {
	VariantID uint
	Quantity  int
}

type orderItemPlan struct {
	Variant *models.ProductVariant
	Product *models.Product
	Item    models.OrderItem
}

// CreateOrder 创建订单。
// 库存校验、计价、订单与订单项写入、库存预占、优惠码占用在同一事务内完成。
// COD 订单在同事务内确认并完成销售扣减；在线支付订单等待回调确认。
func (s *OrderService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	paymentMethod := strings.ToLower(strings.TrimSpace(input.PaymentMethod))
	if paymentMethod != constants.PaymentMethodCOD && paymentMethod != constants.PaymentMethodOnline {
		return nil, ErrValidation
	}
	if input.UserID == 0 || len(input.Items) == 0 {
		return nil, ErrValidation
	}

	address, err := s.addressRepo.GetByIDAndUser(input.AddressID, input.UserID)
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, ErrAddressNotFound
	}

	plans, subtotal, err := s.buildItemPlans(input.Items)
	if err != nil {
		return nil, err
	}

	var discountAmount models.Money
	var discount *models.Discount
	if strings.TrimSpace(input.DiscountCode) != "" {
		discountAmount, discount, err = s.discountService.Apply(subtotal, input.DiscountCode, input.UserID)
		if err != nil {
			return nil, err
		}
	}

	quote := s.pricingService.Quote(subtotal, discountAmount)

	now := time.Now()
	order := &models.Order{
		OrderNo:        generateOrderNo(),
		UserID:         input.UserID,
		Status:         constants.OrderStatusPending,
		PaymentStatus:  constants.PaymentStatusPending,
		PaymentMethod:  paymentMethod,
		Currency:       quote.Currency,
		Subtotal:       quote.Subtotal,
		DiscountAmount: quote.DiscountAmount,
		ShippingCost:   quote.ShippingCost,
		TaxAmount:      quote.TaxAmount,
		TotalAmount:    quote.TotalAmount,
		AddressID:      address.ID,
		Notes:          strings.TrimSpace(input.Notes),
		ClientIP:       input.ClientIP,
	}
	if discount != nil {
		order.DiscountID = &discount.ID
		order.DiscountCode = discount.Code
	}
	if paymentMethod == constants.PaymentMethodOnline && s.expireMinutes > 0 {
		expiresAt := now.Add(time.Duration(s.expireMinutes) * time.Minute)
		order.ExpiresAt = &expiresAt
	}

	items := make([]models.OrderItem, 0, len(plans))
	for _, plan := range plans {
		items = append(items, plan.Item)
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.WithTx(tx).Create(order, items); err != nil {
			return err
		}
		for _, plan := range plans {
			if err := s.stockLedger.Reserve(tx, plan.Variant.ID, plan.Item.Quantity, order.OrderNo, ActorUser); err != nil {
				return err
			}
		}
		if discount != nil {
			if err := s.discountService.ConsumeUsage(tx, discount.ID); err != nil {
				return err
			}
		}
		if paymentMethod == constants.PaymentMethodCOD {
			if err := s.statusService.Transition(tx, order, constants.OrderStatusConfirmed, "cod order auto-confirmed", ActorSystem); err != nil {
				return err
			}
			for _, plan := range plans {
				if err := s.stockLedger.CommitSale(tx, plan.Variant.ID, plan.Item.Quantity, order.OrderNo, ActorSystem); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Items = items

	// 事务提交后再触达外部系统：运单创建走异步队列，失败不影响订单
	if paymentMethod == constants.PaymentMethodCOD {
		if err := s.queueClient.EnqueueShipmentCreate(queue.ShipmentCreatePayload{OrderID: order.ID}); err != nil {
			logger.Warnw("enqueue_shipment_create_failed", "order_id", order.ID, "error", err)
		}
	} else if order.ExpiresAt != nil {
		delay := time.Until(*order.ExpiresAt)
		if err := s.queueClient.EnqueueOrderTimeoutCancel(queue.OrderTimeoutCancelPayload{OrderID: order.ID}, delay); err != nil {
			logger.Warnw("enqueue_order_timeout_cancel_failed", "order_id", order.ID, "error", err)
		}
	}

	return order, nil
}

func (s *OrderService) buildItemPlans(inputs []CreateOrderItem) ([]orderItemPlan, models.Money, error) {
	plans := make([]orderItemPlan, 0, len(inputs))
	subtotal := decimal.Zero

	for _, item := range inputs {
		if item.VariantID == 0 || item.Quantity <= 0 {
			return nil, models.Money{}, ErrInvalidOrderItem
		}
		variant, err := s.variantRepo.GetByID(item.VariantID)
		if err != nil {
			return nil, models.Money{}, err
		}
		if variant == nil {
			return nil, models.Money{}, ErrVariantNotFound
		}
		if !variant.IsActive {
			return nil, models.Money{}, ErrVariantInactive
		}
		product, err := s.productRepo.GetByID(variant.ProductID)
		if err != nil {
			return nil, models.Money{}, err
		}
		if product == nil {
			return nil, models.Money{}, ErrProductNotFound
		}
		if !product.IsActive {
			return nil, models.Money{}, ErrProductInactive
		}
		if variant.AvailableStock() < item.Quantity {
			if variant.AvailableStock() == 0 {
				return nil, models.Money{}, ErrOutOfStock
			}
			return nil, models.Money{}, ErrInsufficientStock
		}

		unitPrice := variant.EffectivePrice()
		totalPrice := models.NewMoneyFromDecimal(unitPrice.Decimal.Mul(decimal.NewFromInt(int64(item.Quantity))))
		subtotal = subtotal.Add(totalPrice.Decimal)

		plans = append(plans, orderItemPlan{
			Variant: variant,
			Product: product,
			Item: models.OrderItem{
				ProductID:      product.ID,
				VariantID:      variant.ID,
				ProductName:    product.Name,
				VariantDetails: variantDetails(variant),
				SKUCode:        variant.SKUCode,
				UnitPrice:      unitPrice,
				Quantity:       item.Quantity,
				TotalPrice:     totalPrice,
			},
		})
	}

	return plans, models.NewMoneyFromDecimal(subtotal), nil
}

// MarkPaid 标记在线支付成功（回调验签通过后调用）。
// 支付状态以 CAS 方式从 pending 置为 paid，重复回调不会二次扣减库存。
func (s *OrderService) MarkPaid(orderID uint, paymentID string) (*models.Order, error) {
	var order *models.Order
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		txOrderRepo := s.orderRepo.WithTx(tx)
		var err error
		order, err = txOrderRepo.GetByID(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if order.PaymentMethod != constants.PaymentMethodOnline {
			return ErrPaymentNotOnline
		}

		rows, err := txOrderRepo.UpdatePaymentStatusIf(order.ID, constants.PaymentStatusPending, constants.PaymentStatusPaid, map[string]interface{}{
			"payment_id": paymentID,
			"updated_at": time.Now(),
		})
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrOrderAlreadyPaid
		}
		order.PaymentStatus = constants.PaymentStatusPaid
		order.PaymentID = paymentID

		if err := s.statusService.Transition(tx, order, constants.OrderStatusConfirmed, "payment verified", ActorWebhook); err != nil {
			return err
		}
		for _, item := range order.Items {
			if err := s.stockLedger.CommitSale(tx, item.VariantID, item.Quantity, order.OrderNo, ActorWebhook); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.queueClient.EnqueueShipmentCreate(queue.ShipmentCreatePayload{OrderID: order.ID}); err != nil {
		logger.Warnw("enqueue_shipment_create_failed", "order_id", order.ID, "error", err)
	}
	return order, nil
}

// MarkPaymentFailed 标记支付失败（验签失败或网关失败，订单保留以便审计）
func (s *OrderService) MarkPaymentFailed(orderID uint, reason string) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	rows, err := s.orderRepo.UpdatePaymentStatusIf(order.ID, constants.PaymentStatusPending, constants.PaymentStatusFailed, map[string]interface{}{
		"updated_at": time.Now(),
	})
	if err != nil {
		return err
	}
	if rows > 0 {
		logger.Warnw("order_payment_failed", "order_id", order.ID, "order_no", order.OrderNo, "reason", reason)
	}
	return nil
}

// CancelOrder 用户取消订单。
// 仅允许 pending/confirmed 状态取消：pending 订单释放预占库存，已出库的 confirmed 订单不回补；
// 回退优惠码额度并流转为 cancelled。
// 已有运单时在事务外尽力取消，失败不阻塞订单取消。
func (s *OrderService) CancelOrder(userID, orderID uint, notes string) (*models.Order, error) {
	var order *models.Order
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.orderRepo.WithTx(tx).GetByIDAndUser(orderID, userID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		return s.cancelInTx(tx, order, notes, ActorUser)
	})
	if err != nil {
		return nil, err
	}

	s.cancelShipmentBestEffort(order)
	return order, nil
}

// CancelExpiredOrder 超时取消在线支付订单（队列任务入口，幂等）
func (s *OrderService) CancelExpiredOrder(orderID uint) error {
	var order *models.Order
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.orderRepo.WithTx(tx).GetByID(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return nil
		}
		if order.Status != constants.OrderStatusPending ||
			order.PaymentStatus != constants.PaymentStatusPending ||
			order.PaymentMethod != constants.PaymentMethodOnline {
			return nil
		}
		if order.ExpiresAt == nil || order.ExpiresAt.After(time.Now()) {
			return nil
		}
		return s.cancelInTx(tx, order, "payment timeout", ActorSystem)
	})
	return err
}

func (s *OrderService) cancelInTx(tx *gorm.DB, order *models.Order, notes, actor string) error {
	if !order.CanBeCancelled() {
		return ErrOrderCannotCancel
	}
	// 仅 pending 订单仍持有预占；confirmed 订单库存已出库（COD 建单即出库、在线支付成功后出库），
	// 不再释放，避免扣减其他订单的预占量
	if order.Status == constants.OrderStatusPending {
		for _, item := range order.Items {
			if err := s.stockLedger.Release(tx, item.VariantID, item.Quantity, order.OrderNo, actor); err != nil {
				return err
			}
		}
	}
	if order.DiscountID != nil {
		if err := s.discountService.RefundUsage(tx, *order.DiscountID); err != nil {
			return err
		}
	}
	if notes == "" {
		notes = "order cancelled"
	}
	return s.statusService.Transition(tx, order, constants.OrderStatusCancelled, notes, actor)
}

func (s *OrderService) cancelShipmentBestEffort(order *models.Order) {
	if order == nil || s.shipmentService == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.shipmentService.CancelForOrder(ctx, order.ID); err != nil {
		logger.Warnw("shipment_cancel_best_effort_failed", "order_id", order.ID, "error", err)
	}
}

// GetOrderForUser 获取用户订单详情
func (s *OrderService) GetOrderForUser(userID, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetOrderByNoForUser 获取用户订单详情（按订单号）
func (s *OrderService) GetOrderByNoForUser(userID uint, orderNo string) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNoAndUser(strings.TrimSpace(orderNo), userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrders 获取用户订单列表
func (s *OrderService) ListOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListByUser(filter)
}

// StatusHistory 获取用户订单状态历史
func (s *OrderService) StatusHistory(userID, orderID uint) ([]models.OrderStatusUpdate, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return s.statusService.History(order.ID)
}

// Quote 试算订单金额（不落库）
func (s *OrderService) Quote(userID uint, items []CreateOrderItem, discountCode string) (*PriceQuote, error) {
	if len(items) == 0 {
		return nil, ErrValidation
	}
	_, subtotal, err := s.buildItemPlans(items)
	if err != nil {
		return nil, err
	}
	var discountAmount models.Money
	if strings.TrimSpace(discountCode) != "" {
		discountAmount, _, err = s.discountService.Apply(subtotal, discountCode, userID)
		if err != nil {
			return nil, err
		}
	}
	quote := s.pricingService.Quote(subtotal, discountAmount)
	return &quote, nil
}

func variantDetails(variant *models.ProductVariant) string {
	parts := make([]string, 0, 2)
	if variant.Color != "" {
		parts = append(parts, variant.Color)
	}
	if variant.Size != "" {
		parts = append(parts, variant.Size)
	}
	return strings.Join(parts, " / ")
}

// generateOrderNo 生成订单编号：ORD- 前缀加 8 位大写十六进制
func generateOrderNo() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("ORD-%s", strings.ToUpper(id[:8]))
}
