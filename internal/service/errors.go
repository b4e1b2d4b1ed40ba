package service

import "errors"

// 业务错误定义（处理器层据此映射响应码与提示）
var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidOrderItem  = errors.New("invalid order item")
	ErrProductNotFound   = errors.New("product not found")
	ErrProductInactive   = errors.New("product inactive")
	ErrVariantNotFound   = errors.New("variant not found")
	ErrVariantInactive   = errors.New("variant inactive")
	ErrOutOfStock        = errors.New("out of stock")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStockCommitFailed = errors.New("stock commit failed")

	ErrDiscountNotFound    = errors.New("discount code not found")
	ErrDiscountInactive    = errors.New("discount code inactive")
	ErrDiscountNotStarted  = errors.New("discount code not started")
	ErrDiscountExpired     = errors.New("discount code expired")
	ErrDiscountUsageLimit  = errors.New("discount code usage limit reached")
	ErrDiscountMinOrder    = errors.New("order value below discount minimum")
	ErrDiscountNotEligible = errors.New("discount code not applicable to user")
	ErrDiscountInvalid     = errors.New("discount code invalid")

	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderStateInvalid = errors.New("invalid order state transition")
	ErrOrderCannotCancel = errors.New("order cannot be cancelled")
	ErrOrderAlreadyPaid  = errors.New("order already paid")
	ErrOrderExpired      = errors.New("order expired")
	ErrPaymentNotOnline  = errors.New("order is not an online payment order")
	ErrSignatureInvalid  = errors.New("payment signature verification failed")

	ErrAddressNotFound = errors.New("address not found")

	ErrShipmentNotFound      = errors.New("shipment not found")
	ErrShipmentAlreadyExists = errors.New("shipment already exists")
	ErrShipmentNotReady      = errors.New("shipment not created yet")

	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserDisabled       = errors.New("user disabled")
	ErrUserNotFound       = errors.New("user not found")
	ErrWeakPassword       = errors.New("password too weak")
)
