package public

import (
	"strconv"

	"github.com/sketezo-next/internal/http/response"
	"github.com/sketezo-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CreatePaymentOrder 为在线支付订单创建网关支付单
func (h *Handler) CreatePaymentOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}

	result, err := h.PaymentService.CreatePaymentOrder(c.Request.Context(), uid, uint(orderID))
	if err != nil {
		respondPaymentCreateError(c, err)
		return
	}

	response.Success(c, result)
}

// VerifyPaymentRequest 支付回调验签请求
type VerifyPaymentRequest struct {
	PaymentOrderID string `json:"payment_order_id" binding:"required"`
	PaymentID      string `json:"payment_id" binding:"required"`
	Signature      string `json:"signature" binding:"required"`
}

// VerifyPayment 校验支付签名并确认订单。
// 前端支付完成回跳与网关 Webhook 共用该入口，重复提交幂等。
func (h *Handler) VerifyPayment(c *gin.Context) {
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	order, err := h.PaymentService.VerifyPayment(service.VerifyPaymentInput{
		PaymentOrderID: req.PaymentOrderID,
		PaymentID:      req.PaymentID,
		Signature:      req.Signature,
	})
	if err != nil {
		respondPaymentVerifyError(c, err)
		return
	}

	response.Success(c, gin.H{
		"order_no":       order.OrderNo,
		"status":         order.Status,
		"payment_status": order.PaymentStatus,
	})
}
