package constants

// 订单状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusReturned   = "returned"
)

// 支付状态常量
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// 支付方式常量
const (
	PaymentMethodCOD    = "cod"
	PaymentMethodOnline = "online"
)

// 库存流水类型常量
const (
	MovementTypeIn       = "in"
	MovementTypeOut      = "out"
	MovementTypeReserved = "reserved"
	MovementTypeReleased = "released"
)

// 库存流水原因常量
const (
	MovementReasonSale        = "sale"
	MovementReasonCancel      = "cancellation"
	MovementReasonReservation = "reservation"
	MovementReasonRestock     = "restock"
)

// 优惠码类型常量
const (
	DiscountTypePercentage = "percentage"
	DiscountTypeFixed      = "fixed"
)

// 物流状态常量
const (
	ShippingStatusCreated        = "created"
	ShippingStatusPickedUp       = "picked_up"
	ShippingStatusInTransit      = "in_transit"
	ShippingStatusOutForDelivery = "out_for_delivery"
	ShippingStatusDelivered      = "delivered"
	ShippingStatusRTOInitiated   = "rto_initiated"
	ShippingStatusRTODelivered   = "rto_delivered"
	ShippingStatusCancelled      = "cancelled"
	ShippingStatusFailed         = "failed"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 队列常量
const (
	QueueDefault           = "default"
	TaskShipmentCreate     = "shipment:create"
	TaskShipmentTrackSync  = "shipment:track_sync"
	TaskOrderTimeoutCancel = "order:timeout_cancel"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "skz"
)

// 币种常量
const (
	SiteCurrencyDefault = "INR"
)
