package public

import (
	"errors"

	"github.com/sketezo-next/internal/http/response"
	"github.com/sketezo-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
	// detailed 为 true 时透传业务错误原文（携带具体数值，如剩余库存）
	detailed bool
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			msg := rule.msg
			if rule.detailed {
				msg = err.Error()
			}
			respondError(c, rule.code, msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var orderCommonErrorRules = []mappedHandlerError{
	{target: service.ErrValidation, code: response.CodeBadRequest, msg: "invalid request"},
	{target: service.ErrInvalidOrderItem, code: response.CodeBadRequest, msg: "invalid order item"},
	{target: service.ErrProductNotFound, code: response.CodeBadRequest, msg: "product not found"},
	{target: service.ErrProductInactive, code: response.CodeBadRequest, msg: "product not available"},
	{target: service.ErrVariantNotFound, code: response.CodeBadRequest, msg: "variant not found"},
	{target: service.ErrVariantInactive, code: response.CodeBadRequest, msg: "variant not available"},
	{target: service.ErrOutOfStock, code: response.CodeBadRequest, msg: "out of stock"},
	{target: service.ErrInsufficientStock, code: response.CodeBadRequest, msg: "insufficient stock", detailed: true},
	{target: service.ErrAddressNotFound, code: response.CodeBadRequest, msg: "address not found"},
}

var discountErrorRules = []mappedHandlerError{
	{target: service.ErrDiscountNotFound, code: response.CodeBadRequest, msg: "discount code not found"},
	{target: service.ErrDiscountInactive, code: response.CodeBadRequest, msg: "discount code inactive"},
	{target: service.ErrDiscountNotStarted, code: response.CodeBadRequest, msg: "discount code not started"},
	{target: service.ErrDiscountExpired, code: response.CodeBadRequest, msg: "discount code expired"},
	{target: service.ErrDiscountUsageLimit, code: response.CodeBadRequest, msg: "discount usage limit reached"},
	{target: service.ErrDiscountMinOrder, code: response.CodeBadRequest, msg: "order below discount minimum"},
	{target: service.ErrDiscountNotEligible, code: response.CodeBadRequest, msg: "discount not applicable"},
	{target: service.ErrDiscountInvalid, code: response.CodeBadRequest, msg: "discount code invalid"},
}

var orderCancelErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrOrderCannotCancel, code: response.CodeBadRequest, msg: "order cannot be cancelled"},
}

var paymentCreateErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrPaymentNotOnline, code: response.CodeBadRequest, msg: "order is not an online payment order"},
	{target: service.ErrOrderAlreadyPaid, code: response.CodeBadRequest, msg: "order already paid"},
	{target: service.ErrOrderStateInvalid, code: response.CodeBadRequest, msg: "order status invalid"},
	{target: service.ErrOrderExpired, code: response.CodeBadRequest, msg: "order expired"},
}

var paymentVerifyErrorRules = []mappedHandlerError{
	{target: service.ErrValidation, code: response.CodeBadRequest, msg: "invalid request"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrSignatureInvalid, code: response.CodeBadRequest, msg: "payment signature verification failed"},
	{target: service.ErrPaymentNotOnline, code: response.CodeBadRequest, msg: "order is not an online payment order"},
	{target: service.ErrOrderStateInvalid, code: response.CodeBadRequest, msg: "order status invalid"},
}

var shipmentErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrShipmentNotFound, code: response.CodeNotFound, msg: "shipment not found"},
	{target: service.ErrShipmentNotReady, code: response.CodeBadRequest, msg: "shipment not ready"},
}

func respondOrderCreateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(orderCommonErrorRules, discountErrorRules), response.CodeInternal, "order create failed")
}

func respondOrderQuoteError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(orderCommonErrorRules, discountErrorRules), response.CodeInternal, "order quote failed")
}

func respondOrderCancelError(c *gin.Context, err error) {
	respondWithMappedError(c, err, orderCancelErrorRules, response.CodeInternal, "order cancel failed")
}

func respondPaymentCreateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, paymentCreateErrorRules, response.CodeInternal, "payment order create failed")
}

func respondPaymentVerifyError(c *gin.Context, err error) {
	respondWithMappedError(c, err, paymentVerifyErrorRules, response.CodeInternal, "payment verification failed")
}

func respondShipmentError(c *gin.Context, err error) {
	respondWithMappedError(c, err, shipmentErrorRules, response.CodeInternal, "shipment query failed")
}
